package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the workflow engine and its
// side-effect dispatch.
type Metrics struct {
	TransitionsTotal      *prometheus.CounterVec
	TransitionDuration    prometheus.Histogram
	HistoryAppendFailures prometheus.Counter
	EffectFailures        *prometheus.CounterVec
}

// New creates and registers all workflow metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on reg. Tests pass a private registry so
// suites do not collide on duplicate registration.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TransitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certitrack_transitions_total",
			Help: "Transition attempts by target state and outcome (committed or rejected).",
		}, []string{"to_state", "outcome"}),
		TransitionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "certitrack_transition_duration_seconds",
			Help:    "Latency of the synchronous transition path (load, checks, commit).",
			Buckets: prometheus.DefBuckets,
		}),
		HistoryAppendFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "certitrack_history_append_failures_total",
			Help: "History appends that failed after the transition committed.",
		}),
		EffectFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certitrack_effect_failures_total",
			Help: "Post-transition side effects that failed, by effect class.",
		}, []string{"effect"}),
	}
}
