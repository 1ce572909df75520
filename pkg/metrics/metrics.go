// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// TurnsTotal counts completed turns by outcome.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qa_turns_total",
			Help: "Total question/answer turns by outcome",
		},
		[]string{"outcome"},
	)

	// TurnDuration tracks full-turn latency.
	TurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "qa_turn_duration_seconds",
			Help:    "Turn duration in seconds",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	// TurnStepsTotal counts state-machine step executions.
	TurnStepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qa_turn_steps_total",
			Help: "State machine steps executed",
		},
		[]string{"step"},
	)

	// RewritesTotal counts question reformulations.
	RewritesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qa_rewrites_total",
			Help: "Total question rewrites",
		},
	)

	// RetrievedPassages tracks result-set sizes per retrieval.
	RetrievedPassages = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "qa_retrieved_passages",
			Help:    "Passages returned per retrieval call",
			Buckets: []float64{0, 1, 2, 5, 10, 20},
		},
	)

	// sseConnections tracks active streaming connections.
	sseConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qa_sse_connections_active",
			Help: "Active SSE streaming connections",
		},
	)
)

// RecordRequest records one completed HTTP request.
func RecordRequest(method, path, status string, durationSeconds float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// IncrementSSEConnections marks a new active stream.
func IncrementSSEConnections() {
	sseConnections.Inc()
}

// DecrementSSEConnections marks a stream as closed.
func DecrementSSEConnections() {
	sseConnections.Dec()
}
