package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"

	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/retry"
)

var DefaultRetryPolicy = retry.Policy{
	MaxAttempts:  3,
	InitialDelay: 100 * time.Millisecond,
	MaxDelay:     2 * time.Second,
	Multiplier:   2.0,
	Retryable:    IsRetryableError,
}

// IsRetryableError reports connection failures, serialization conflicts and
// lock timeouts. Everything else, including context errors, is final.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "08000", "08003", "08006", "08001", "08004", "08007", "08P01":
			return true
		case "40001", "40P01":
			return true
		case "55P03":
			return true
		}
	}
	return false
}

func WithRetry(ctx context.Context, log *logger.Logger, operation string, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, log, "database "+operation, DefaultRetryPolicy, fn)
}
