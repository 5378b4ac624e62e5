package turing_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/aretw0/turing"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flipper() domain.Description {
	return domain.Description{
		States:      "q0,q1,qA,qR",
		Alphabet:    "a,b",
		Transitions: []string{"q0,a,q1,b,R", "q1,b,qA,b,R"},
		Initial:     "q0",
		Accept:      "qA",
		Reject:      "qR",
	}
}

func TestSimulator_Accepts(t *testing.T) {
	sim, err := turing.Load(flipper())
	require.NoError(t, err)

	ctx := context.Background()
	sim.Reset(ctx, "ab")

	assert.Equal(t, domain.VerdictRunning, sim.Tick(ctx))
	assert.Equal(t, domain.VerdictRunning, sim.Tick(ctx))
	assert.Equal(t, domain.VerdictAccepted, sim.Tick(ctx))
	assert.Equal(t, domain.HaltAcceptState, sim.Reason())
	assert.Equal(t, []string{"b", "b"}, sim.Tape())
	assert.Equal(t, 2, sim.Steps())
}

func TestSimulator_Hooks(t *testing.T) {
	var resets, steps, halts int
	var halt *domain.HaltEvent
	hooks := domain.LifecycleHooks{
		OnReset: func(_ context.Context, e *domain.ResetEvent) {
			resets++
			assert.Equal(t, "aa", e.Input)
			assert.Equal(t, "q0", e.Configuration.State)
		},
		OnStep: func(_ context.Context, e *domain.StepEvent) {
			steps++
			assert.Equal(t, "q0", e.From)
			assert.Equal(t, "a", e.Read)
		},
		OnHalt: func(_ context.Context, e *domain.HaltEvent) {
			halts++
			halt = e
		},
	}

	sim, err := turing.Load(flipper(), turing.WithLifecycleHooks(hooks))
	require.NoError(t, err)

	ctx := context.Background()
	sim.Reset(ctx, "aa")
	for i := 0; i < 5; i++ {
		sim.Tick(ctx)
	}

	assert.Equal(t, 1, resets)
	assert.Equal(t, 1, steps)
	assert.Equal(t, 1, halts, "halt fires once per run")
	require.NotNil(t, halt)
	assert.Equal(t, domain.VerdictRejected, halt.Verdict)
	assert.Equal(t, domain.HaltNoTransition, halt.Reason)
	assert.Equal(t, domain.EventHalt, halt.Type)
}

func TestSimulator_Logs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	sim, err := turing.Load(flipper(), turing.WithLogger(logger))
	require.NoError(t, err)

	ctx := context.Background()
	sim.Reset(ctx, "b")
	sim.Tick(ctx)

	out := buf.String()
	assert.Contains(t, out, "msg=reset")
	assert.Contains(t, out, "msg=halt")
	assert.Contains(t, out, "reason=no-transition")
}

func TestParse_Options(t *testing.T) {
	desc := flipper()
	desc.Initial = "q1"
	desc.Transitions = append(desc.Transitions, "q1,a,q0,a,S")

	def, err := turing.Parse(desc)
	require.NoError(t, err)
	assert.Equal(t, "q0", def.InitialName())

	def, err = turing.Parse(desc, turing.WithExplicitInitial())
	require.NoError(t, err)
	assert.Equal(t, "q1", def.InitialName())

	_, err = turing.Parse(desc, turing.WithStrictDirections())
	var invalid *domain.InvalidDirectionError
	assert.ErrorAs(t, err, &invalid)
}

func TestLoad_Malformed(t *testing.T) {
	desc := flipper()
	desc.Transitions = []string{"q0,a,q1"}

	_, err := turing.Load(desc)
	var malformed *domain.MalformedTransitionError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "q0,a,q1", malformed.Line)
}

func TestSimulator_Restore(t *testing.T) {
	ctx := context.Background()
	first, err := turing.Load(flipper())
	require.NoError(t, err)
	first.Reset(ctx, "ab")
	first.Tick(ctx)

	def, err := turing.Parse(flipper())
	require.NoError(t, err)
	second := turing.New(def)
	require.NoError(t, second.Restore(first.Input(), first.Snapshot(), domain.VerdictRunning))

	assert.Equal(t, "q1", second.CurrentState())
	assert.Equal(t, 1, second.Head())
	assert.Equal(t, domain.VerdictRunning, second.Tick(ctx))
	assert.Equal(t, domain.VerdictAccepted, second.Tick(ctx))

	second.Reset(ctx, second.Input())
	assert.Equal(t, []string{"a", "b"}, second.Tape())
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, turing.Version)
}
