// Package observability exposes Prometheus metrics for the suggestion
// pipeline and the HTTP API.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/richinex/scribe/suggestion"
)

// Validation decisions used as the "decision" label.
const (
	DecisionKept                = "kept"
	DecisionDroppedMissingIndex = "dropped_missing_index"
	DecisionDroppedOutOfRange   = "dropped_out_of_range"
)

// Metrics owns a dedicated registry so that tests and multiple servers in
// one process do not collide on the global one.
type Metrics struct {
	registry    *prometheus.Registry
	queries     *prometheus.CounterVec
	suggestions *prometheus.CounterVec
	completion  prometheus.Histogram
	requests    *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scribe_queries_total",
			Help: "Assistant queries by outcome",
		}, []string{"outcome"}),
		suggestions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scribe_suggestions_total",
			Help: "Suggestions returned by the AI service, by validation decision",
		}, []string{"decision"}),
		completion: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "scribe_completion_duration_seconds",
			Help:    "Time spent waiting for the AI service",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scribe_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "code"}),
	}
}

// RecordQuery counts one finished query.
func (m *Metrics) RecordQuery(outcome string) {
	m.queries.WithLabelValues(outcome).Inc()
}

// RecordValidation counts kept and dropped suggestions.
func (m *Metrics) RecordValidation(report suggestion.Report) {
	if n := len(report.Kept); n > 0 {
		m.suggestions.WithLabelValues(DecisionKept).Add(float64(n))
	}
	for _, r := range report.Dropped {
		switch r.Reason {
		case suggestion.DropMissingIndex:
			m.suggestions.WithLabelValues(DecisionDroppedMissingIndex).Inc()
		default:
			m.suggestions.WithLabelValues(DecisionDroppedOutOfRange).Inc()
		}
	}
}

// RecordCompletion observes one AI service call.
func (m *Metrics) RecordCompletion(elapsed time.Duration) {
	m.completion.Observe(elapsed.Seconds())
}

// RecordRequest counts one HTTP request.
func (m *Metrics) RecordRequest(route string, code int) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
