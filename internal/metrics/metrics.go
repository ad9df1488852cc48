package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gearshare_http_requests_total",
			Help: "HTTP requests served, by method, route and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gearshare_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BackendCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gearshare_backend_calls_total",
			Help: "Calls made to external backends.",
		},
		[]string{"backend", "operation", "outcome"},
	)

	BackendCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gearshare_backend_call_duration_seconds",
			Help:    "Latency of calls made to external backends.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	OrchestratorOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gearshare_orchestrator_operations_total",
			Help: "Cross-system write operations, by outcome.",
		},
		[]string{"collection", "action", "outcome"},
	)

	ActivityAppendFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gearshare_activity_append_failures_total",
			Help: "Activity log entries that could not be written.",
		},
	)

	DashboardCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gearshare_dashboard_cache_total",
			Help: "Dashboard cache lookups, by result.",
		},
		[]string{"result"},
	)
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeWarnings = "succeeded_with_warnings"
	OutcomeError    = "error"
)

// ObserveBackendCall records one external backend call.
func ObserveBackendCall(backend, operation string, seconds float64, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	BackendCallsTotal.WithLabelValues(backend, operation, outcome).Inc()
	BackendCallDuration.WithLabelValues(backend, operation).Observe(seconds)
}
