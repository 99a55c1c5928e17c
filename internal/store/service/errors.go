package service

import (
	commonerrors "github.com/AlibekovAA/shop-dash/backend/internal/common/errors"
	"github.com/AlibekovAA/shop-dash/backend/internal/shopify"
)

var (
	ErrProductIDRequired = commonerrors.NewValidationError(
		"PRODUCT_ID_REQUIRED",
		"Product ID is required",
	)

	ErrProductRejected = commonerrors.NewValidationError(
		"PRODUCT_REJECTED",
		"product was rejected by Shopify",
	)
)

// rejected turns mutation userErrors into a validation error carrying the
// first message, or nil when there are none.
func rejected(userErrors []shopify.UserError) error {
	if len(userErrors) == 0 {
		return nil
	}
	msg := userErrors[0].Message
	if msg == "" {
		return ErrProductRejected
	}
	return ErrProductRejected.WithMessage(msg)
}
