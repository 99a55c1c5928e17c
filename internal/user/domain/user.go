package domain

import "time"

type ID string

// RegisteredUser is a storefront visitor who submitted the registration
// form. Records are created once and never edited.
type RegisteredUser struct {
	ID            ID        `json:"id"`
	FullName      string    `json:"fullName"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	PasswordHash  string    `json:"-"`
	TermsAccepted bool      `json:"termsAccepted"`
	RegisteredAt  time.Time `json:"registeredAt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Registration is the raw intake submitted through the app proxy.
type Registration struct {
	FullName        string `json:"fullName" validate:"required,max=120"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Phone           string `json:"phone" validate:"required,max=32"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	TermsAccepted   bool   `json:"termsAccepted" validate:"required"`
}

type RegistrationResult struct {
	ID           ID        `json:"userId"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registeredAt"`
}
