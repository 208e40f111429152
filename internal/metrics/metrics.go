// Package metrics exposes Prometheus collectors for optimization runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "discopt"

// Run outcomes used as the status label.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Metrics groups the run collectors registered on one registry.
type Metrics struct {
	runs        *prometheus.CounterVec
	evaluations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	active      prometheus.Gauge
}

// New registers the collectors on reg. A nil reg uses the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Optimization runs by strategy and final status.",
		}, []string{"strategy", "status"}),
		evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cost_evaluations_total",
			Help:      "Cost function evaluations by strategy.",
		}, []string{"strategy"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of optimization runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"strategy"}),
		active: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_runs",
			Help:      "Optimization runs currently executing.",
		}),
	}
}

// Started marks a run as executing and returns a function that records its
// outcome. The returned function must be called exactly once.
func (m *Metrics) Started(strategy string) func(status string, evaluations int) {
	m.active.Inc()
	start := time.Now()
	return func(status string, evaluations int) {
		m.active.Dec()
		m.runs.WithLabelValues(strategy, status).Inc()
		m.evaluations.WithLabelValues(strategy).Add(float64(evaluations))
		m.duration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
	}
}
