package main

import (
	"github.com/aretw0/turing/internal/cli"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <machine>",
	Short: "Run a machine on an input",
	Long: `Runs a machine and prints its configuration before every step.
The machine is a YAML/JSON file path or the ID of a document in --dir.
Without --input the sample input stored next to the description is used.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		interactive, _ := cmd.Flags().GetBool("interactive")
		jsonMode, _ := cmd.Flags().GetBool("json")
		pretty, _ := cmd.Flags().GetBool("pretty")
		noBanner, _ := cmd.Flags().GetBool("no-banner")

		verdict, err := cli.Run(cmd.Context(), cfg, logger, cli.RunOptions{
			Ref:         args[0],
			Input:       input,
			InputSet:    cmd.Flags().Changed("input"),
			Interactive: interactive,
			JSON:        jsonMode,
			Pretty:      pretty,
			Banner:      !noBanner,
			Stdin:       cmd.InOrStdin(),
			Stdout:      cmd.OutOrStdout(),
		})
		if err != nil {
			return err
		}
		if verdict == domain.VerdictRejected {
			return errRejected
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("input", "i", "", "Input word written on the tape")
	runCmd.Flags().Int("max-steps", 10000, "Stop after this many steps")
	runCmd.Flags().Bool("interactive", false, "Wait for Enter before every step ('quit' stops)")
	runCmd.Flags().Bool("json", false, "Print the trace as NDJSON events")
	runCmd.Flags().Bool("pretty", false, "Render the trace as a Markdown table")
	runCmd.Flags().Bool("no-banner", false, "Do not print the banner on a terminal")
}
