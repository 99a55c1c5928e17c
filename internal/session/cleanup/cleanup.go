package cleanup

import (
	"context"
	"time"

	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
	"github.com/AlibekovAA/shop-dash/backend/internal/observability/metrics"
)

type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type Sweeper interface {
	Sweep() int
}

// StartStateCleanup deletes expired OAuth states every interval until ctx
// is done.
func StartStateCleanup(ctx context.Context, repo ExpiredDeleter, log *logger.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			RunStateCleanup(ctx, repo, log)
		}
	}
}

func RunStateCleanup(ctx context.Context, repo ExpiredDeleter, log *logger.Logger) {
	deleted, err := repo.DeleteExpired(ctx)
	if err != nil {
		log.Errorf("oauth state cleanup failed: %v", err)
		return
	}
	if deleted > 0 {
		metrics.OAuthStatesCleanupDeleted.Add(float64(deleted))
		log.Infof("oauth state cleanup: deleted %d expired states", deleted)
	}
}

// StartLimiterSweep drops idle rate limiter entries every interval.
func StartLimiterSweep(ctx context.Context, limiter Sweeper, log *logger.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := limiter.Sweep(); removed > 0 {
				log.Debugf("rate limiter sweep: removed %d idle entries", removed)
			}
		}
	}
}
