package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AttemptsTotal counts sends by classification (success, terminal, retry_generic, retry_rate_limited)
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphql_client_attempts_total",
			Help: "Total number of GraphQL sends by classification",
		},
		[]string{"classification"},
	)

	// RetryWaitSeconds tracks time spent sleeping before a retry
	RetryWaitSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphql_client_retry_wait_seconds",
			Help:    "Time slept before retrying, by reason",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"reason"},
	)

	// TerminalErrorsTotal counts calls that ended in an error, by error kind
	TerminalErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphql_client_terminal_errors_total",
			Help: "Total number of Execute calls that failed",
		},
		[]string{"kind"},
	)

	// PagesTotal counts pages delivered to pagination callbacks
	PagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "graphql_client_pages_total",
			Help: "Total number of pages fetched by pagers",
		},
	)

	// ThrottleAvailable is the last currentlyAvailable cost reported by the server
	ThrottleAvailable = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "graphql_client_throttle_currently_available",
			Help: "Last reported currently available query cost",
		},
	)
)
