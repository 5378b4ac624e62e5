package turing

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/turing/internal/compiler"
	"github.com/aretw0/turing/internal/logging"
	"github.com/aretw0/turing/internal/runtime"
	"github.com/aretw0/turing/pkg/domain"
)

// Simulator is the high-level entry point of the library. It wraps one execution
// engine with structured logging and lifecycle hooks, and applies the halting policy.
// A Simulator is not safe for concurrent use; the session layer serializes access.
type Simulator struct {
	engine    *runtime.Engine
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	parseOpts []compiler.Option

	input  string
	reason domain.HaltReason
	halted bool
}

// Option defines a functional option for Parse, Load and New.
type Option func(*Simulator)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Simulator) {
		s.hooks = hooks
	}
}

// WithStrictDirections rejects transitions whose direction is neither L nor R.
func WithStrictDirections() Option {
	return func(s *Simulator) {
		s.parseOpts = append(s.parseOpts, compiler.WithStrictDirections())
	}
}

// WithExplicitInitial starts machines in their declared initial state
// instead of the first listed state.
func WithExplicitInitial() Option {
	return func(s *Simulator) {
		s.parseOpts = append(s.parseOpts, compiler.WithExplicitInitial())
	}
}

func apply(opts []Option) *Simulator {
	s := &Simulator{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	return s
}

// Parse validates a description into a Definition. Only parse options are honored.
func Parse(desc domain.Description, opts ...Option) (*domain.Definition, error) {
	s := apply(opts)
	return compiler.NewParser(s.parseOpts...).Parse(desc)
}

// New binds a simulator to an already parsed definition. The tape starts empty.
func New(def *domain.Definition, opts ...Option) *Simulator {
	s := apply(opts)
	s.engine = runtime.NewEngine(def)
	return s
}

// Load parses desc and returns a simulator for it.
func Load(desc domain.Description, opts ...Option) (*Simulator, error) {
	s := apply(opts)
	def, err := compiler.NewParser(s.parseOpts...).Parse(desc)
	if err != nil {
		return nil, err
	}
	s.engine = runtime.NewEngine(def)
	return s, nil
}

// Definition returns the machine being simulated.
func (s *Simulator) Definition() *domain.Definition {
	return s.engine.Definition()
}

// Reset seeds the tape with input and returns to the initial state.
func (s *Simulator) Reset(ctx context.Context, input string) {
	s.engine.Reset(input)
	s.input = input
	s.reason = domain.HaltNone
	s.halted = false

	snap := s.engine.Snapshot()
	s.logger.DebugContext(ctx, "reset", "state", snap.State, "input", input, "head", snap.Head)
	if s.hooks.OnReset != nil {
		s.hooks.OnReset(ctx, &domain.ResetEvent{
			EventBase:     domain.EventBase{Timestamp: time.Now(), Type: domain.EventReset},
			Input:         input,
			Configuration: snap,
		})
	}
}

// Step executes one raw transition without applying the halting policy.
// Hooks are not fired.
func (s *Simulator) Step() bool {
	return s.engine.Step()
}

// Tick answers one step request: it returns Accepted if the machine is in its
// accept state, Rejected if it is in its reject state or cannot move, and
// Running after a successful transition. Once halted, Tick keeps returning the
// same verdict and the halt hook is not fired again.
func (s *Simulator) Tick(ctx context.Context) domain.Verdict {
	from := s.engine.CurrentState()
	read, _ := s.engine.Symbol()

	verdict, reason := s.engine.Tick()
	if verdict == domain.VerdictRunning {
		snap := s.engine.Snapshot()
		s.logger.DebugContext(ctx, "step",
			"from", from,
			"symbol", read,
			"state", snap.State,
			"head", snap.Head,
		)
		if s.hooks.OnStep != nil {
			s.hooks.OnStep(ctx, &domain.StepEvent{
				EventBase:     domain.EventBase{Timestamp: time.Now(), Type: domain.EventStep},
				From:          from,
				Read:          read,
				Configuration: snap,
			})
		}
		return verdict
	}

	if s.halted {
		return verdict
	}
	s.halted = true
	s.reason = reason

	snap := s.engine.Snapshot()
	s.logger.DebugContext(ctx, "halt",
		"verdict", verdict,
		"reason", reason,
		"state", snap.State,
		"head", snap.Head,
		"steps", snap.Steps,
	)
	if s.hooks.OnHalt != nil {
		s.hooks.OnHalt(ctx, &domain.HaltEvent{
			EventBase:     domain.EventBase{Timestamp: time.Now(), Type: domain.EventHalt},
			Verdict:       verdict,
			Reason:        reason,
			Configuration: snap,
		})
	}
	return verdict
}

// Reason returns why the last halted Tick stopped, or HaltNone while running.
func (s *Simulator) Reason() domain.HaltReason {
	return s.reason
}

// IsAccepting reports whether the current state is the accept state.
func (s *Simulator) IsAccepting() bool {
	return s.engine.IsAccepting()
}

// IsRejecting reports whether the current state is the reject state.
func (s *Simulator) IsRejecting() bool {
	return s.engine.IsRejecting()
}

// Input returns the string the tape was last seeded with.
func (s *Simulator) Input() string {
	return s.input
}

// CurrentState returns the label of the current state.
func (s *Simulator) CurrentState() string {
	return s.engine.CurrentState()
}

// Tape returns a copy of the tape.
func (s *Simulator) Tape() []string {
	return s.engine.Tape()
}

// Head returns the head position.
func (s *Simulator) Head() int {
	return s.engine.Head()
}

// Steps returns the number of transitions taken since the last reset.
func (s *Simulator) Steps() int {
	return s.engine.Steps()
}

// Snapshot returns a value copy of the current configuration.
func (s *Simulator) Snapshot() domain.Configuration {
	return s.engine.Snapshot()
}

// Restore continues a run from a stored configuration. input is the string the
// run was originally seeded with, kept for a later Reset.
func (s *Simulator) Restore(input string, c domain.Configuration, verdict domain.Verdict) error {
	if err := s.engine.Restore(c); err != nil {
		return err
	}
	s.input = input
	s.reason = domain.HaltNone
	s.halted = verdict.Halted()
	return nil
}
