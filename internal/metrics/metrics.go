// Package metrics exposes the Prometheus collectors for the import pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Import outcome label values.
const (
	OutcomeSuccess    = "success"
	OutcomeConflict   = "conflict"
	OutcomeInvalidURL = "invalid_url"
	OutcomeFetchError = "fetch_error"
	OutcomeError      = "error"
)

var (
	// ImportsTotal counts pullsheet imports by outcome.
	ImportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rackplan",
		Subsystem: "import",
		Name:      "total",
		Help:      "Pullsheet imports by outcome.",
	}, []string{"outcome"})

	// ImportDuration observes end-to-end import latency for successful imports.
	ImportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rackplan",
		Subsystem: "import",
		Name:      "duration_seconds",
		Help:      "End-to-end duration of successful pullsheet imports.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	// RacksCreated counts rack drawings created by imports.
	RacksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rackplan",
		Subsystem: "import",
		Name:      "racks_created_total",
		Help:      "Rack drawings created by pullsheet imports.",
	})

	// ItemsCreated counts pullsheet items created by imports.
	ItemsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rackplan",
		Subsystem: "import",
		Name:      "items_created_total",
		Help:      "Pullsheet items created by pullsheet imports.",
	})
)
