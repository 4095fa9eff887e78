package banktools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/membank-mcp/membank/internal/identity"
	"github.com/membank-mcp/membank/internal/store"
)

// ResolveTool handles the bank_resolve_project MCP tool.
type ResolveTool struct {
	cache *identity.Cache
	store *store.Store
}

// NewResolveTool creates a ResolveTool.
func NewResolveTool(cache *identity.Cache, st *store.Store) *ResolveTool {
	return &ResolveTool{cache: cache, store: st}
}

// Definition returns the MCP tool definition for bank_resolve_project.
func (t *ResolveTool) Definition() mcp.Tool {
	return mcp.NewTool("bank_resolve_project",
		mcp.WithDescription(
			"Resolve which project the current session is working on, from the working directory's "+
				"version control, manifest files, and directory shape. Cached for the session; "+
				"always returns a usable canonical name.",
		),
		mcp.WithString("working_directory",
			mcp.Description("Directory to detect from (default: the server's working directory)"),
		),
	)
}

// Handle processes the bank_resolve_project tool call.
func (t *ResolveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pc := t.cache.Resolve(ctx, req.GetString("working_directory", ""))

	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", pc.ProjectName)
	fmt.Fprintf(&b, "Method: %s (confidence %d%%)\n", pc.DetectionMethod, pc.Confidence)
	fmt.Fprintf(&b, "Directory: %s\n", pc.WorkingDirectory)
	fmt.Fprintf(&b, "Resolved: %s (session %s)\n", pc.ResolvedAt.UTC().Format("2006-01-02 15:04:05"), pc.SessionID)

	if pc.Confidence < 80 && pc.DetectionMethod != identity.SourceExplicit {
		b.WriteString("\nDetection confidence is low. If this name is wrong, pin the right one with bank_set_project.\n")
	}
	b.WriteString(isolationWarnings(ctx, t.store, pc.ProjectName))

	return mcp.NewToolResultText(b.String()), nil
}

// ─── SetProjectTool ──────────────────────────────────────────────────────────

// SetProjectTool handles the bank_set_project MCP tool.
type SetProjectTool struct {
	cache *identity.Cache
	store *store.Store
}

// NewSetProjectTool creates a SetProjectTool.
func NewSetProjectTool(cache *identity.Cache, st *store.Store) *SetProjectTool {
	return &SetProjectTool{cache: cache, store: st}
}

// Definition returns the MCP tool definition for bank_set_project.
func (t *SetProjectTool) Definition() mcp.Tool {
	return mcp.NewTool("bank_set_project",
		mcp.WithDescription(
			"Explicitly set the active project for this session. Overrides automatic detection "+
				"for the rest of the session — use when detection picked the wrong project.",
		),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Project name (will be canonicalized to a lowercase slug)"),
		),
		mcp.WithString("working_directory",
			mcp.Description("Directory to associate with the project"),
		),
	)
}

// Handle processes the bank_set_project tool call.
func (t *SetProjectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("project", "")
	if name == "" {
		return mcp.NewToolResultError("'project' is required"), nil
	}

	pc, err := t.cache.Assert(ctx, name, req.GetString("working_directory", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid project name: %v", err)), nil
	}
	if t.store != nil {
		if err := t.store.EnsureProject(ctx, pc.ProjectName); err != nil {
			return mcp.NewToolResultText(fmt.Sprintf(
				"Active project set to %q for this session.\n⚠️ Registry update failed: %v", pc.ProjectName, err)), nil
		}
	}

	response := fmt.Sprintf("Active project set to %q for this session.", pc.ProjectName)
	if canonical := pc.ProjectName; canonical != name {
		response += fmt.Sprintf(" (canonicalized from %q)", name)
	}
	response += isolationWarnings(ctx, t.store, pc.ProjectName)

	return mcp.NewToolResultText(response), nil
}

// ─── IsolationTool ───────────────────────────────────────────────────────────

// IsolationTool handles the bank_check_isolation MCP tool.
type IsolationTool struct {
	store *store.Store
}

// NewIsolationTool creates an IsolationTool.
func NewIsolationTool(st *store.Store) *IsolationTool {
	return &IsolationTool{store: st}
}

// Definition returns the MCP tool definition for bank_check_isolation.
func (t *IsolationTool) Definition() mcp.Tool {
	return mcp.NewTool("bank_check_isolation",
		mcp.WithDescription(
			"Check a project name against the registry for near-duplicates that could cause "+
				"unrelated work to merge under ambiguous naming. Advisory only — never blocks.",
		),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Project name to check"),
		),
	)
}

// Handle processes the bank_check_isolation tool call.
func (t *IsolationTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("project", "")
	if name == "" {
		return mcp.NewToolResultError("'project' is required"), nil
	}
	canonical, err := identity.Normalize(name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid project name: %v", err)), nil
	}

	registry, err := t.store.ListProjects(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reading project registry: %v", err)), nil
	}
	report := identity.CheckIsolation(canonical, registry)

	var b strings.Builder
	fmt.Fprintf(&b, "## Isolation Report: %s\n\n", report.ProjectName)
	fmt.Fprintf(&b, "- **Score**: %d/100\n", report.IsolationScore)
	fmt.Fprintf(&b, "- **Valid**: %v\n", report.IsValid)
	if len(report.ConflictingNames) == 0 {
		b.WriteString("- **Conflicts**: none\n")
	} else {
		fmt.Fprintf(&b, "- **Conflicts** (%d): %s\n",
			len(report.ConflictingNames), strings.Join(report.ConflictingNames, ", "))
	}

	return mcp.NewToolResultText(b.String()), nil
}
