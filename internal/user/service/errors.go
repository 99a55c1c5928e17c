package service

import (
	"fmt"

	"github.com/AlibekovAA/shop-dash/backend/internal/common/constants"
	commonerrors "github.com/AlibekovAA/shop-dash/backend/internal/common/errors"
)

var (
	ErrPasswordLength = commonerrors.NewValidationError(
		"INVALID_PASSWORD",
		fmt.Sprintf("password must be between %d and %d bytes", constants.PasswordMinLength, constants.PasswordMaxLength),
	)

	ErrEmailTaken = commonerrors.NewConflictError(
		"EMAIL_ALREADY_REGISTERED",
		"a user with this email is already registered",
	)

	ErrUserNotFound = commonerrors.NewNotFoundError(
		"USER_NOT_FOUND",
		"user not found",
	)

	ErrInvalidUserID = commonerrors.NewValidationError(
		"INVALID_USER_ID",
		"invalid user id",
	)
)
