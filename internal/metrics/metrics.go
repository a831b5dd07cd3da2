// Package metrics registers the Prometheus collectors for the allocation
// engine and the HTTP surface. Collectors use the default registry; the
// server exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Materializations counts allocation engine runs that produced rows.
	Materializations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitbook_materializations_total",
		Help: "Number of successful field value materializations.",
	})

	// MaterializationFailures counts engine runs aborted by a missing rule
	// or a storage error.
	MaterializationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitbook_materialization_failures_total",
		Help: "Number of failed field value materializations.",
	})

	// AllocationRows counts ParticipantEntryAmount rows written by the engine.
	AllocationRows = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitbook_allocation_rows_total",
		Help: "Number of allocation rows produced by the engine.",
	})

	// RequestDuration observes HTTP handler latency.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "splitbook_http_request_duration_seconds",
		Help:    "HTTP request latency by method, route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
