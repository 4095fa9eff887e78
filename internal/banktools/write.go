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

// WriteTool handles the bank_write MCP tool: the full
// resolve → classify → route → merge → persist pipeline.
type WriteTool struct {
	cache  *identity.Cache
	store  *store.Store
	mirror *store.Mirror
}

// NewWriteTool creates a WriteTool.
func NewWriteTool(cache *identity.Cache, st *store.Store, mirror *store.Mirror) *WriteTool {
	return &WriteTool{cache: cache, store: st, mirror: mirror}
}

// Definition returns the MCP tool definition for bank_write.
func (t *WriteTool) Definition() mcp.Tool {
	return mcp.NewTool("bank_write",
		mcp.WithDescription(
			"Write knowledge into the project's memory bank. Content is classified and routed to "+
				"one of the six canonical files, then merged with what is already there — no unbounded "+
				"pile of near-duplicate documents. Omit file_name to let the classifier pick.",
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The text to store"),
		),
		mcp.WithString("file_name",
			mcp.Description("Suggested destination (canonical filename or alias, e.g. techContext, progress). Non-canonical names route by content."),
		),
		mcp.WithString("project",
			mcp.Description("Project name (default: the session's resolved project)"),
		),
		mcp.WithString("working_directory",
			mcp.Description("Directory to resolve the project from when 'project' is omitted"),
		),
		mcp.WithString("strategy",
			mcp.Description("Force a merge strategy: replace, append, or structuralMerge (default: chosen by similarity)"),
		),
	)
}

// Handle processes the bank_write tool call.
func (t *WriteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := req.GetString("content", "")
	if strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}

	project, err := resolveProject(ctx, req, t.cache)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid project name: %v", err)), nil
	}

	var warnings []string
	existing, err := existingFiles(ctx, t.store, project)
	if err != nil {
		// Routing still works against an empty file set; the bank
		// degrades to in-memory decisions rather than refusing the write.
		warnings = append(warnings, fmt.Sprintf("reading existing files: %v", err))
		existing = map[bank.CanonicalFile]string{}
	}

	result := bank.RouteAndMerge(req.GetString("file_name", ""), content, existing)

	// A caller-forced strategy overrides the similarity choice but not
	// the destination.
	if forced, ok := bank.ParseMergeStrategy(req.GetString("strategy", "")); ok && forced != result.Decision.MergeStrategy {
		result.MergedContent = bank.Merge(existing[result.TargetFile], content, forced)
		result.Decision.MergeStrategy = forced
		result.Decision.Reasoning += "; strategy forced by caller"
	}

	if err := t.store.SaveDocument(ctx, project, string(result.TargetFile), result.MergedContent); err != nil {
		warnings = append(warnings, fmt.Sprintf("persisting %s: %v", result.TargetFile, err))
	} else if t.mirror != nil {
		t.mirror.Write(project, string(result.TargetFile), result.MergedContent)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Stored in **%s** (project %s)\n\n", result.TargetFile, project)
	fmt.Fprintf(&b, "- **Category**: %s\n", result.Classification.Category)
	fmt.Fprintf(&b, "- **Strategy**: %s\n", result.Decision.MergeStrategy)
	fmt.Fprintf(&b, "- **Confidence**: %d%%\n", result.Decision.Confidence)
	fmt.Fprintf(&b, "- **Reasoning**: %s\n", result.Decision.Reasoning)
	if len(result.Classification.Keywords) > 0 {
		fmt.Fprintf(&b, "- **Keywords**: %s\n", strings.Join(result.Classification.Keywords, ", "))
	}

	for _, w := range warnings {
		fmt.Fprintf(&b, "\n⚠️ %s", w)
	}
	b.WriteString(isolationWarnings(ctx, t.store, project))

	return mcp.NewToolResultText(b.String()), nil
}
