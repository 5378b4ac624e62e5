package main

import (
	"github.com/aretw0/turing/internal/cli"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts an MCP server on Standard Input/Output.
Agents can validate machines, simulate them and fetch their state diagrams as tools.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ServeMCP(cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
