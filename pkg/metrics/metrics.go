// Package metrics exposes the gateway's Prometheus instrumentation,
// registered once at process start and exposed at GET /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "metamcp"

var (
	// ToolCallsTotal counts forwarded tools/call (and resources/read,
	// prompts/get) invocations by backend name and outcome.
	ToolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "tool_calls_total",
		Help:      "Number of tool/resource/prompt invocations forwarded to a backend, by backend and outcome.",
	}, []string{"backend", "outcome"})

	// AggregationDuration observes the wall-clock latency of a single
	// tools/list, resources/list, or prompts/list fan-out.
	AggregationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "aggregation_duration_seconds",
		Help:      "Latency of a fan-out aggregation call across active backends.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	// BackendErrorsTotal counts backends excluded from an aggregate
	// because they returned a transport or JSON-RPC error.
	BackendErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "backend_errors_total",
		Help:      "Number of backends excluded from a fan-out result due to error, by backend.",
	}, []string{"backend"})
)

// Handler returns the Prometheus exposition HTTP handler for GET /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
