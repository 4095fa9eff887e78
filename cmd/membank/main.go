// membank: project-aware memory bank MCP server.
//
// A universal MCP server that gives any AI coding tool (Claude Code,
// OpenCode, Gemini CLI, Codex, Cursor, VS Code Copilot) a persistent,
// project-scoped memory bank.
//
// Usage:
//
//	membank serve    # Start MCP server (stdio transport)
//	membank resolve  # Detect the current project
//	membank update   # Update to the latest version
package main

import (
	"os"

	"github.com/membank-mcp/membank/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
