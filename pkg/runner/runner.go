package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/turing/internal/logging"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/ports"
)

// DefaultMaxSteps is the step ceiling used when none is configured.
const DefaultMaxSteps = 10000

var (
	// ErrStepLimit is returned when the budget runs out before the machine halts.
	ErrStepLimit = domain.ErrStepLimit
	// ErrStopped is returned when the user quits an interactive run.
	ErrStopped = errors.New("run stopped before the machine halted")
)

// Runner drives a machine from reset to verdict using an IOHandler strategy.
type Runner struct {
	Handler     IOHandler
	Logger      *slog.Logger
	MaxSteps    int
	Interactive bool
}

// NewRunner creates a Runner writing a text trace to Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		MaxSteps: DefaultMaxSteps,
		Logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r
}

// Run seeds m with input and answers step requests until it halts.
// The verdict is VerdictRunning when the run ends early; err then says why
// (ErrStepLimit, ErrStopped or the context error).
func (r *Runner) Run(ctx context.Context, m ports.Machine, input string) (domain.Verdict, error) {
	m.Reset(ctx, input)
	if err := r.Handler.Started(ctx, input, m.Snapshot()); err != nil {
		return domain.VerdictRunning, fmt.Errorf("output error: %w", err)
	}

	for requests := 0; ; requests++ {
		if r.MaxSteps > 0 && requests >= r.MaxSteps {
			r.Logger.Warn("step limit reached", "max_steps", r.MaxSteps, "state", m.Snapshot().State)
			return domain.VerdictRunning, fmt.Errorf("%w (%d steps)", ErrStepLimit, r.MaxSteps)
		}
		if err := ctx.Err(); err != nil {
			return domain.VerdictRunning, err
		}

		if r.Interactive {
			if err := r.awaitInput(ctx); err != nil {
				return domain.VerdictRunning, err
			}
		}

		before := m.Snapshot()
		if err := r.Handler.Stepping(ctx, before); err != nil {
			return domain.VerdictRunning, fmt.Errorf("output error: %w", err)
		}

		verdict := m.Tick(ctx)
		if verdict.Halted() {
			final := m.Snapshot()
			r.Logger.Debug("run finished", "verdict", verdict, "reason", m.Reason(), "steps", final.Steps)
			if err := r.Handler.Halted(ctx, verdict, m.Reason(), final); err != nil {
				return verdict, fmt.Errorf("output error: %w", err)
			}
			return verdict, nil
		}
	}
}

func (r *Runner) awaitInput(ctx context.Context) error {
	val, err := r.Handler.Input(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, io.EOF) {
			return ErrStopped
		}
		return fmt.Errorf("input error: %w", err)
	}
	if val == "quit" || val == "exit" {
		return ErrStopped
	}
	return nil
}
