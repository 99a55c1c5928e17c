package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LiveConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboard_live_connections_active",
			Help: "Number of active live dashboard WebSocket connections",
		},
	)

	LiveConnectionsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_live_connections_rejected_total",
			Help: "Total number of live dashboard connections rejected due to the connection limit",
		},
	)

	LiveSnapshotsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_live_snapshots_total",
			Help: "Total number of dashboard snapshots pushed by result",
		},
		[]string{"result"},
	)
)
