package cli

import (
	"log/slog"

	"github.com/aretw0/turing"
	"github.com/aretw0/turing/internal/config"
	"github.com/aretw0/turing/pkg/domain"
)

// SimulatorOptions maps the parser settings of cfg onto simulator options.
func SimulatorOptions(cfg *config.Config, logger *slog.Logger, hooks ...domain.LifecycleHooks) []turing.Option {
	opts := []turing.Option{turing.WithLogger(logger)}
	if cfg.StrictDirections {
		opts = append(opts, turing.WithStrictDirections())
	}
	if cfg.ExplicitInitial {
		opts = append(opts, turing.WithExplicitInitial())
	}
	if len(hooks) > 0 {
		merged := hooks[0]
		for _, h := range hooks[1:] {
			merged = merged.Merge(h)
		}
		opts = append(opts, turing.WithLifecycleHooks(merged))
	}
	return opts
}
