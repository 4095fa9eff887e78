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

// InitTool handles the bank_init MCP tool.
type InitTool struct {
	cache  *identity.Cache
	store  *store.Store
	mirror *store.Mirror
}

// NewInitTool creates an InitTool.
func NewInitTool(cache *identity.Cache, st *store.Store, mirror *store.Mirror) *InitTool {
	return &InitTool{cache: cache, store: st, mirror: mirror}
}

// Definition returns the MCP tool definition for bank_init.
func (t *InitTool) Definition() mcp.Tool {
	return mcp.NewTool("bank_init",
		mcp.WithDescription(
			"Initialize the project's memory bank: create the six canonical files from starter "+
				"templates. Files that already exist are left untouched, so init is always safe to re-run.",
		),
		mcp.WithString("project",
			mcp.Description("Project name (default: the session's resolved project)"),
		),
		mcp.WithString("working_directory",
			mcp.Description("Directory to resolve the project from when 'project' is omitted"),
		),
	)
}

// Handle processes the bank_init tool call.
func (t *InitTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := resolveProject(ctx, req, t.cache)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid project name: %v", err)), nil
	}

	existing, err := existingFiles(ctx, t.store, project)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reading bank: %v", err)), nil
	}

	var created, kept []string
	for _, f := range bank.AllFiles() {
		if _, ok := existing[f]; ok {
			kept = append(kept, string(f))
			continue
		}
		content := bank.StarterContent(f, project)
		if err := t.store.SaveDocument(ctx, project, string(f), content); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("creating %s: %v", f, err)), nil
		}
		if t.mirror != nil {
			t.mirror.Write(project, string(f), content)
		}
		created = append(created, string(f))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Memory bank ready for %s.\n", project)
	if len(created) > 0 {
		fmt.Fprintf(&b, "- Created: %s\n", strings.Join(created, ", "))
	}
	if len(kept) > 0 {
		fmt.Fprintf(&b, "- Already present (untouched): %s\n", strings.Join(kept, ", "))
	}
	b.WriteString("\nSeed the brief with bank_write, then keep the bank current as you work.")
	b.WriteString(isolationWarnings(ctx, t.store, project))

	return mcp.NewToolResultText(b.String()), nil
}
