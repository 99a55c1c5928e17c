package domain

import "time"

// Session is a shop's Admin API credential. The backend keeps one offline
// session per installed shop.
type Session struct {
	ID          string
	Shop        string
	AccessToken string
	Scope       string
	IsOnline    bool
	ExpiresAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func OfflineID(shop string) string {
	return "offline_" + shop
}

func (s Session) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// OAuthState binds an install redirect to the shop that started it.
type OAuthState struct {
	State     string
	Shop      string
	ExpiresAt time.Time
}
