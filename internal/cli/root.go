// Package cli implements the membank command-line interface.
//
// The binary is an MCP server first: `membank serve` (also the default
// when no subcommand is given) speaks MCP over stdio. The remaining
// commands are small operator utilities that never touch stdout while
// a server could be using it.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/membank-mcp/membank/internal/server"
)

// configPath is the --config flag, shared by every subcommand.
var configPath string

var rootCmd = &cobra.Command{
	Use:   "membank",
	Short: "Project-aware memory bank MCP server",
	Long: `membank is an MCP server that gives AI coding sessions a persistent,
project-scoped memory bank: six canonical knowledge files per project,
automatic project detection, and content routing that files free-form
notes into the right place.

Add it to your AI tool's MCP config:

  {
    "mcpServers": {
      "membank": {
        "command": "membank",
        "args": ["serve"]
      }
    }
  }`,
	Version: server.Version,
	// Bare `membank` starts the server: MCP hosts typically launch the
	// binary without arguments.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("membank %s\n", server.Version))
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(updateCmd)
}
