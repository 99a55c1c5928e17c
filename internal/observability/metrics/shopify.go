package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ShopifyRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopify_graphql_requests_total",
			Help: "Total number of Shopify Admin GraphQL requests by operation and result",
		},
		[]string{"operation", "result"},
	)

	ShopifyRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopify_graphql_request_duration_seconds",
			Help:    "Duration of Shopify Admin GraphQL requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"operation"},
	)

	AggregationPagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregation_pages_fetched_total",
			Help: "Total number of pages fetched by the paginated count routine",
		},
		[]string{"connection"},
	)

	AggregationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aggregation_duration_seconds",
			Help:    "Duration of complete paginated count walks in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"connection", "result"},
	)
)
