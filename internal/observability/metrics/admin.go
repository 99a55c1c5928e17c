package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AdminRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_requests_total",
			Help: "Total number of admin API requests",
		},
		[]string{"method", "path"},
	)

	AdminRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "admin_requests_in_flight",
			Help: "Number of admin API requests currently being processed",
		},
	)

	AdminRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "admin_request_duration_seconds",
			Help:    "Duration of admin API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	SessionValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_validations_total",
			Help: "Total number of embedded session token validations by result",
		},
		[]string{"result"},
	)

	InstallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_installs_total",
			Help: "Total number of completed or failed OAuth installs",
		},
		[]string{"result"},
	)

	OAuthStatesCleanupDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "oauth_states_cleanup_deleted_total",
			Help: "Total number of expired OAuth states deleted during cleanup",
		},
	)

	WebhooksReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhooks_received_total",
			Help: "Total number of webhooks received by topic and result",
		},
		[]string{"topic", "result"},
	)
)
