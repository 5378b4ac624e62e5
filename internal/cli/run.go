package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/turing"
	"github.com/aretw0/turing/internal/config"
	"github.com/aretw0/turing/internal/presentation/tui"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/runner"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	Ref         string
	Input       string
	InputSet    bool
	Interactive bool
	JSON        bool
	Pretty      bool
	Banner      bool

	Stdin  io.Reader
	Stdout io.Writer
}

// Run resolves the machine, runs it on the input and prints the trace.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts RunOptions) (domain.Verdict, error) {
	if opts.JSON && opts.Pretty {
		return domain.VerdictRunning, errors.New("--json and --pretty cannot be used together")
	}
	if opts.Pretty && opts.Interactive {
		return domain.VerdictRunning, errors.New("--pretty cannot be used with --interactive")
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	machine, err := ResolveMachine(ctx, opts.Ref, cfg.MachinesDir)
	if err != nil {
		return domain.VerdictRunning, err
	}

	input := machine.SampleInput
	if opts.InputSet {
		input = opts.Input
	}
	input, err = runner.SanitizeInput(input)
	if err != nil {
		return domain.VerdictRunning, fmt.Errorf("invalid input: %w", err)
	}

	sim, err := turing.Load(machine.Description, SimulatorOptions(cfg, logger)...)
	if err != nil {
		return domain.VerdictRunning, fmt.Errorf("invalid machine %q: %w", machine.ID, err)
	}

	handler, err := newHandler(opts, machine.ID)
	if err != nil {
		return domain.VerdictRunning, err
	}
	if th, ok := handler.(*runner.TextHandler); ok {
		defer th.Stop()
	}

	if opts.Banner && !opts.JSON && tui.IsTerminal(opts.Stdout) {
		tui.PrintBanner(opts.Stdout, turing.Version)
	}

	sm := runner.NewSignalManager(ctx)
	defer sm.Stop()

	r := runner.NewRunner(
		runner.WithLogger(logger),
		runner.WithMaxSteps(cfg.MaxSteps),
		runner.WithInteractive(opts.Interactive),
		runner.WithInputHandler(handler),
	)

	logger.Debug("run started", "machine", machine.ID, "input", input, "max_steps", cfg.MaxSteps)
	verdict, err := r.Run(sm.Context(), sim, input)
	if err != nil && opts.Interactive {
		// Ctrl+C may surface as EOF on stdin before the context is cancelled.
		sm.CheckRace()
		if sm.Context().Err() != nil && ctx.Err() == nil {
			return verdict, context.Canceled
		}
	}
	return verdict, err
}

func newHandler(opts RunOptions, title string) (runner.IOHandler, error) {
	switch {
	case opts.JSON:
		return runner.NewJSONHandler(opts.Stdin, opts.Stdout), nil
	case opts.Pretty:
		style := ""
		if !tui.IsTerminal(opts.Stdout) {
			style = "notty"
		}
		render, err := tui.NewRenderer(style, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to create renderer: %w", err)
		}
		return runner.NewMarkdownHandler(opts.Stdout, title, render), nil
	}

	var handlerOpts []runner.TextHandlerOption
	if tui.IsTerminal(opts.Stdout) {
		handlerOpts = append(handlerOpts, runner.WithTextHandlerRenderer(tui.NewVerdictRenderer(opts.Stdout)))
	}
	return runner.NewTextHandler(opts.Stdin, opts.Stdout, handlerOpts...), nil
}
