// Package metrics holds the Prometheus collectors for the scoring API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "partnex"

// Metrics manages the Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	ScoreRuns       *prometheus.CounterVec
	ScoreRunErrors  *prometheus.CounterVec
	ExternalLatency *prometheus.HistogramVec
	RateLimitHits   *prometheus.CounterVec
}

// New creates the collectors on a private registry along with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ScoreRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "score_runs_total",
				Help:      "Total number of persisted score runs.",
			},
			[]string{"source", "branch"},
		),
		ScoreRunErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "score_run_errors_total",
				Help:      "Score runs that ended without a persisted record.",
			},
			[]string{"stage"},
		),
		ExternalLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "external_scoring_latency_seconds",
				Help:      "Latency of calls to the external scoring service.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 10},
			},
			[]string{"result"},
		),
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_rejections_total",
				Help:      "Requests rejected by the rate limiter.",
			},
			[]string{"backend"},
		),
	}
}

// RecordScoreRun counts a persisted run. Safe on a nil receiver.
func (m *Metrics) RecordScoreRun(source, branch string) {
	if m == nil {
		return
	}
	m.ScoreRuns.WithLabelValues(source, branch).Inc()
}

// RecordScoreRunError counts a run that failed at stage.
func (m *Metrics) RecordScoreRunError(stage string) {
	if m == nil {
		return
	}
	m.ScoreRunErrors.WithLabelValues(stage).Inc()
}

// ObserveExternalCall records the duration of one external scoring call.
func (m *Metrics) ObserveExternalCall(ok bool, d time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.ExternalLatency.WithLabelValues(result).Observe(d.Seconds())
}

// RecordRateLimitHit counts a rejected request.
func (m *Metrics) RecordRateLimitHit(backend string) {
	if m == nil {
		return
	}
	m.RateLimitHits.WithLabelValues(backend).Inc()
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
