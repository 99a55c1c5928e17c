package service

import (
	"net/http"

	commonerrors "github.com/AlibekovAA/shop-dash/backend/internal/common/errors"
)

var (
	ErrInvalidShop = commonerrors.NewValidationError(
		"INVALID_SHOP",
		"shop must be a valid myshopify.com domain",
	)

	ErrInvalidState = commonerrors.NewDomainError(
		"INVALID_OAUTH_STATE",
		commonerrors.CategoryAuth,
		http.StatusBadRequest,
		"install request expired or was not started by this app",
	)

	ErrMissingCode = commonerrors.NewValidationError(
		"MISSING_CODE",
		"authorization code is required",
	)
)
