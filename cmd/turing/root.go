package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/turing/internal/config"
	"github.com/aretw0/turing/internal/logging"
	"github.com/aretw0/turing/pkg/runner"
	"github.com/spf13/cobra"
)

// errRejected makes the process exit with 1 without printing anything else.
var errRejected = errors.New("input rejected")

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "turing",
	Short: "Turing is a single-tape Turing machine simulator",
	Long: `Turing parses machine descriptions (states, alphabet, transition table and
distinguished states) and runs them on an input, printing every configuration
until the machine accepts or rejects.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		applyFlags(cmd, loaded)

		l, err := logging.NewFromConfig(loaded.LogFormat, loaded.LogLevel)
		if err != nil {
			return err
		}
		cfg, logger = loaded, l
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errRejected) && !errors.Is(err, runner.ErrStopped) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// applyFlags lets explicit flags win over the file and the environment.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("dir") {
		c.MachinesDir, _ = flags.GetString("dir")
	}
	if flags.Changed("log-level") {
		c.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		c.LogFormat, _ = flags.GetString("log-format")
	}
	if flags.Changed("strict") {
		c.StrictDirections, _ = flags.GetBool("strict")
	}
	if flags.Changed("explicit-initial") {
		c.ExplicitInitial, _ = flags.GetBool("explicit-initial")
	}
	if flags.Changed("max-steps") {
		c.MaxSteps, _ = flags.GetInt("max-steps")
	}
	if flags.Changed("addr") {
		c.Server.Addr, _ = flags.GetString("addr")
	}
	if flags.Changed("redis-addr") {
		c.Redis.Addr, _ = flags.GetString("redis-addr")
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a turing.yaml configuration file")
	rootCmd.PersistentFlags().String("dir", ".", "Directory containing machine documents")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().Bool("strict", false, "Reject transitions whose direction is not L or R")
	rootCmd.PersistentFlags().Bool("explicit-initial", false, "Start in the declared initial state instead of the first listed state")
}
