package observability_test

import (
	"context"
	"testing"

	"github.com/aretw0/turing"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			name := mf.GetName()
			for _, label := range metric.GetLabel() {
				name += "," + label.GetName() + "=" + label.GetValue()
			}
			switch {
			case metric.GetCounter() != nil:
				values[name] = metric.GetCounter().GetValue()
			case metric.GetHistogram() != nil:
				values[name+"_count"] = float64(metric.GetHistogram().GetSampleCount())
				values[name+"_sum"] = metric.GetHistogram().GetSampleSum()
			}
		}
	}
	return values
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	sim, err := turing.Load(domain.Description{
		States:      "q0,q1,qA,qR",
		Alphabet:    "a,b",
		Transitions: []string{"q0,a,q1,b,R", "q1,b,qA,b,R"},
		Initial:     "q0",
		Accept:      "qA",
		Reject:      "qR",
	}, turing.WithLifecycleHooks(metrics.Hooks()))
	require.NoError(t, err)

	ctx := context.Background()
	for _, input := range []string{"ab", "b"} {
		sim.Reset(ctx, input)
		for i := 0; i < 10; i++ {
			if sim.Tick(ctx).Halted() {
				break
			}
		}
	}

	values := gather(t, reg)
	assert.Equal(t, 2.0, values["turing_runs_total"])
	assert.Equal(t, 2.0, values["turing_steps_total"])
	assert.Equal(t, 1.0, values["turing_halts_total,reason=accept-state,verdict=accepted"])
	assert.Equal(t, 1.0, values["turing_halts_total,reason=no-transition,verdict=rejected"])
	assert.Equal(t, 2.0, values["turing_run_steps_count"])
	assert.Equal(t, 2.0, values["turing_run_steps_sum"])
}

func TestMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	observability.NewMetrics(reg)
	assert.Panics(t, func() { observability.NewMetrics(reg) })
}
