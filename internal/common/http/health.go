package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
)

type HealthCheck func(ctx context.Context) error

// HealthHandler reports ok when every dependency check passes and 503 with
// the failing dependency names otherwise.
func HealthHandler(log *logger.Logger, checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			WriteErrorEnvelope(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed", nil, TraceIDFromContext(r.Context()))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		names := make([]string, 0, len(checks))
		for name := range checks {
			names = append(names, name)
		}
		sort.Strings(names)

		status := map[string]string{}
		healthy := true
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				log.Warnf("health check %s failed: %v", name, err)
				status[name] = "down"
				healthy = false
				continue
			}
			status[name] = "ok"
		}

		if !healthy {
			WriteJSON(w, http.StatusServiceUnavailable, Envelope{Success: false, Data: status})
			return
		}
		WriteData(w, http.StatusOK, map[string]any{"status": "ok", "dependencies": status})
	}
}
