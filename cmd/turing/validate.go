package main

import (
	"errors"

	"github.com/aretw0/turing/internal/cli"
	"github.com/spf13/cobra"
)

var errInvalid = errors.New("invalid machine")

var validateCmd = &cobra.Command{
	Use:   "validate <machine>...",
	Short: "Check machine descriptions without running them",
	Long:  `Parses every given machine and reports the first problem of each one.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := false
		for _, ref := range args {
			if err := cli.Validate(cmd.Context(), cfg, logger, ref, cmd.OutOrStdout()); err != nil {
				failed = true
				logger.Debug("validation failed", "machine", ref, "err", err)
			}
		}
		if failed {
			return errInvalid
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
