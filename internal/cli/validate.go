package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/turing"
	"github.com/aretw0/turing/internal/config"
	"github.com/aretw0/turing/internal/presentation/graph"
	"github.com/aretw0/turing/pkg/domain"
)

// Parse resolves ref and parses it with the settings of cfg.
func Parse(ctx context.Context, cfg *config.Config, logger *slog.Logger, ref string) (*Machine, *domain.Definition, error) {
	machine, err := ResolveMachine(ctx, ref, cfg.MachinesDir)
	if err != nil {
		return nil, nil, err
	}
	def, err := turing.Parse(machine.Description, SimulatorOptions(cfg, logger)...)
	if err != nil {
		return machine, nil, err
	}
	return machine, def, nil
}

// Validate parses ref and writes a one-line report to w.
// The parse error is returned unchanged so the caller can set the exit code.
func Validate(ctx context.Context, cfg *config.Config, logger *slog.Logger, ref string, w io.Writer) error {
	machine, def, err := Parse(ctx, cfg, logger, ref)
	if err != nil {
		if machine == nil {
			return err
		}
		fmt.Fprintf(w, "%s: invalid (%s)", machine.ID, domain.ErrorKind(err))
		if line := domain.ErrorLine(err); line != "" {
			fmt.Fprintf(w, " at line %q", line)
		}
		fmt.Fprintf(w, ": %v\n", err)
		return err
	}

	fmt.Fprintf(w, "%s: ok (%d states, %d symbols, %d transitions, initial %s, accept %s, reject %s)\n",
		machine.ID, len(def.States), len(def.Alphabet), def.Len(),
		def.InitialName(), def.AcceptName(), def.RejectName())
	return nil
}

// Graph writes the Mermaid flowchart of ref to w.
func Graph(ctx context.Context, cfg *config.Config, logger *slog.Logger, ref string, w io.Writer) error {
	_, def, err := Parse(ctx, cfg, logger, ref)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, graph.GenerateMermaid(def, nil))
	return err
}
