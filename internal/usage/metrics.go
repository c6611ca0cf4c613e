package usage

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exports model-call counters to Prometheus.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	tokens   *prometheus.CounterVec
}

// NewMetrics registers the finintel collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finintel_requests_total",
			Help: "Model requests by mode, operation and outcome.",
		}, []string{"mode", "operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "finintel_request_duration_seconds",
			Help:    "Model request latency.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 45, 60},
		}, []string{"mode", "operation"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finintel_tokens_total",
			Help: "Tokens consumed by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.requests, m.duration, m.tokens)
	return m
}

// Record implements Recorder.
func (m *Metrics) Record(_ context.Context, ev Event) {
	outcome := ev.Outcome
	if outcome == "" {
		outcome = OutcomeOK
	}
	m.requests.WithLabelValues(ev.Mode, ev.Operation, outcome).Inc()
	if ev.Duration > 0 {
		m.duration.WithLabelValues(ev.Mode, ev.Operation).Observe(ev.Duration.Seconds())
	}
	m.tokens.WithLabelValues("input").Add(float64(ev.InputTokens))
	m.tokens.WithLabelValues("output").Add(float64(ev.OutputTokens))
	m.tokens.WithLabelValues("thoughts").Add(float64(ev.ThoughtsTokens))
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
