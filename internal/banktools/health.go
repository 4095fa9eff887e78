package banktools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/membank-mcp/membank/internal/bank"
	"github.com/membank-mcp/membank/internal/identity"
	"github.com/membank-mcp/membank/internal/store"
)

// HealthTool handles the bank_health MCP tool.
type HealthTool struct {
	cache *identity.Cache
	store *store.Store
}

// NewHealthTool creates a HealthTool.
func NewHealthTool(cache *identity.Cache, st *store.Store) *HealthTool {
	return &HealthTool{cache: cache, store: st}
}

// Definition returns the MCP tool definition for bank_health.
func (t *HealthTool) Definition() mcp.Tool {
	return mcp.NewTool("bank_health",
		mcp.WithDescription(
			"Report how complete the project's memory bank is: a weighted 0-100 score per "+
				"canonical file and overall, with the gaps called out.",
		),
		mcp.WithString("project",
			mcp.Description("Project name (default: the session's resolved project)"),
		),
		mcp.WithString("working_directory",
			mcp.Description("Directory to resolve the project from when 'project' is omitted"),
		),
	)
}

// Handle processes the bank_health tool call.
func (t *HealthTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := resolveProject(ctx, req, t.cache)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid project name: %v", err)), nil
	}

	files, err := existingFiles(ctx, t.store, project)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reading bank: %v", err)), nil
	}
	report := bank.ComputeHealth(files)

	var b strings.Builder
	fmt.Fprintf(&b, "## Bank Health: %s — %d/100\n\n", project, report.OverallScore)
	for _, c := range report.Components {
		status := "missing"
		if c.Present {
			status = fmt.Sprintf("%d/100", c.Score)
		}
		fmt.Fprintf(&b, "- %s (weight %d): %s — %s\n", c.File, c.Weight, status, c.Description)
	}
	if len(report.Missing) > 0 {
		names := make([]string, len(report.Missing))
		for i, f := range report.Missing {
			names[i] = string(f)
		}
		fmt.Fprintf(&b, "\nMissing: %s. Run bank_init to scaffold them.\n", strings.Join(names, ", "))
	}

	return mcp.NewToolResultText(b.String()), nil
}
