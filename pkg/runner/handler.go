package runner

import (
	"context"

	"github.com/aretw0/turing/pkg/domain"
)

// IOHandler defines the strategy for presenting a run.
// This allows switching between Text (CLI), Markdown (TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Started presents the configuration right after the tape was seeded.
	Started(ctx context.Context, input string, c domain.Configuration) error

	// Stepping presents the configuration a step request is about to act on.
	Stepping(ctx context.Context, c domain.Configuration) error

	// Halted presents the verdict and the final configuration.
	Halted(ctx context.Context, verdict domain.Verdict, reason domain.HaltReason, c domain.Configuration) error

	// Input blocks until the user asks for the next step. It is only called in
	// interactive mode. "quit" or "exit" stops the run.
	Input(ctx context.Context) (string, error)
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the runner package.
type ContentRenderer func(string) (string, error)
