package http

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/AlibekovAA/shop-dash/backend/internal/common/constants"
	"github.com/AlibekovAA/shop-dash/backend/internal/observability/metrics"
)

type KeyFunc func(r *http.Request) string

type RateLimiter struct {
	limiters map[string]*limiterEntry
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		idleTTL:  constants.RateLimitCleanupInterval,
		now:      time.Now,
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	entry, ok := rl.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = now
	rl.mu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

// Sweep drops limiters that have been idle longer than the cleanup interval.
func (rl *RateLimiter) Sweep() int {
	cutoff := rl.now().Add(-rl.idleTTL)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for key, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
			removed++
		}
	}
	return removed
}

func (rl *RateLimiter) Middleware(limiterType string, keyFn KeyFunc) func(http.Handler) http.Handler {
	if keyFn == nil {
		keyFn = GetClientIP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Allow(limiterType + ":" + keyFn(r)) {
				metrics.RateLimitBlocked.WithLabelValues(r.URL.Path, limiterType).Inc()
				WriteErrorEnvelope(w, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded", nil, TraceIDFromContext(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// StrictRateLimiter picks a limiter by route group: the public registration
// intake and the install flow get tighter limits than the rest of the API.
type StrictRateLimiter struct {
	intakeLimiter  *RateLimiter
	installLimiter *RateLimiter
	webhookLimiter *RateLimiter
	generalLimiter *RateLimiter
}

func NewStrictRateLimiter() *StrictRateLimiter {
	return &StrictRateLimiter{
		intakeLimiter:  NewRateLimiter(constants.RateLimitIntakeRequestsPerSecond, constants.RateLimitIntakeBurst),
		installLimiter: NewRateLimiter(constants.RateLimitInstallRequestsPerSecond, constants.RateLimitInstallBurst),
		webhookLimiter: NewRateLimiter(constants.RateLimitWebhookRequestsPerSecond, constants.RateLimitWebhookBurst),
		generalLimiter: NewRateLimiter(constants.RateLimitGeneralRequestsPerSecond, constants.RateLimitGeneralBurst),
	}
}

func (srl *StrictRateLimiter) limiterFor(r *http.Request) (*RateLimiter, string) {
	path := r.URL.Path
	switch {
	case path == "/api/app-proxy" && r.Method == http.MethodPost:
		return srl.intakeLimiter, "intake"
	case strings.HasPrefix(path, "/api/auth"):
		return srl.installLimiter, "install"
	case strings.HasPrefix(path, "/api/webhooks"):
		return srl.webhookLimiter, "webhook"
	default:
		return srl.generalLimiter, "general"
	}
}

func (srl *StrictRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		limiter, limiterType := srl.limiterFor(r)
		if !limiter.Allow(limiterType + ":" + GetClientIP(r)) {
			metrics.RateLimitBlocked.WithLabelValues(r.URL.Path, limiterType).Inc()
			WriteErrorEnvelope(w, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded", nil, TraceIDFromContext(r.Context()))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (srl *StrictRateLimiter) Sweep() int {
	return srl.intakeLimiter.Sweep() +
		srl.installLimiter.Sweep() +
		srl.webhookLimiter.Sweep() +
		srl.generalLimiter.Sweep()
}
