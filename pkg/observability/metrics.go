package observability

import (
	"context"

	"github.com/aretw0/turing/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "turing"

// Metrics holds the collectors recorded by Hooks.
type Metrics struct {
	Runs      prometheus.Counter
	Steps     prometheus.Counter
	Halts     *prometheus.CounterVec
	RunLength prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		Runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of runs started (tape seeded).",
		}),
		Steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Total number of transitions taken.",
		}),
		Halts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "halts_total",
			Help:      "Total number of runs that reached a verdict.",
		}, []string{"verdict", "reason"}),
		RunLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_steps",
			Help:      "Steps taken by a run before it halted.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
	reg.MustRegister(m.Runs, m.Steps, m.Halts, m.RunLength)
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnReset: func(context.Context, *domain.ResetEvent) {
			m.Runs.Inc()
		},
		OnStep: func(context.Context, *domain.StepEvent) {
			m.Steps.Inc()
		},
		OnHalt: func(_ context.Context, e *domain.HaltEvent) {
			m.Halts.WithLabelValues(string(e.Verdict), string(e.Reason)).Inc()
			m.RunLength.Observe(float64(e.Configuration.Steps))
		},
	}
}
