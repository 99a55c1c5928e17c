package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_registrations_total",
			Help: "Total number of storefront registrations by result",
		},
		[]string{"result"},
	)

	RegistryDeletionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registry_deletions_total",
			Help: "Total number of registered users deleted from the dashboard",
		},
	)

	RegistryEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_events_published_total",
			Help: "Total number of registry events published by routing key and result",
		},
		[]string{"routing_key", "result"},
	)
)
