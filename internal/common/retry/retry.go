package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	commonerrors "github.com/AlibekovAA/shop-dash/backend/internal/common/errors"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
)

type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Retryable    func(error) bool
}

// DashboardPolicy retries a timed-out dashboard fetch once after two seconds.
func DashboardPolicy(attempts int, delay time.Duration) Policy {
	return Policy{
		MaxAttempts:  attempts,
		InitialDelay: delay,
		MaxDelay:     delay,
		Multiplier:   1,
		Retryable:    IsTimeout,
	}
}

type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs op until it succeeds, returns a non-retryable error, or the policy
// runs out of attempts. The last error is returned unwrapped so callers can
// still classify it.
func Do(ctx context.Context, log *logger.Logger, name string, policy Policy, op func(ctx context.Context) error) error {
	return DoWithSleeper(ctx, log, name, policy, sleepContext, op)
}

func DoWithSleeper(ctx context.Context, log *logger.Logger, name string, policy Policy, sleep Sleeper, op func(ctx context.Context) error) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := policy.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			if attempt > 1 && log != nil {
				log.Infof("%s succeeded after %d attempts", name, attempt)
			}
			return nil
		}
		lastErr = err

		if policy.Retryable == nil || !policy.Retryable(err) || attempt == attempts {
			break
		}

		if log != nil {
			log.Warnf("%s failed (attempt %d/%d): %v, retrying in %v", name, attempt, attempts, err, delay)
		}

		if err := sleep(ctx, delay); err != nil {
			return fmt.Errorf("context cancelled during retry: %w", err)
		}

		if policy.Multiplier > 1 {
			delay = time.Duration(float64(delay) * policy.Multiplier)
		}
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}

	return lastErr
}

// IsTimeout reports timeout-class failures: context deadlines, network
// timeouts and gateway timeouts surfaced by the admin API.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, commonerrors.ErrUpstreamTimeout) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var statusErr interface{ StatusCode() int }
	if errors.As(err, &statusErr) {
		return IsTimeoutStatus(statusErr.StatusCode())
	}
	return false
}

func IsTimeoutStatus(status int) bool {
	switch status {
	case 504, 524:
		return true
	}
	return false
}
