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

// Detail levels for bank_context. Progressive disclosure: fetch the
// minimum first, drill deeper only when needed.
const (
	detailSummary  = "summary"
	detailStandard = "standard"
	detailFull     = "full"
)

// standardSnippetLength caps per-file content at the standard detail
// level.
const standardSnippetLength = 600

// parseDetail normalizes a detail_level string, defaulting to
// standard for empty or unrecognized values.
func parseDetail(s string) string {
	switch s {
	case detailSummary, detailFull:
		return s
	default:
		return detailStandard
	}
}

// estimateTokens approximates token count with the chars/4 heuristic.
func estimateTokens(text string) int {
	n := len(text) / 4
	if n == 0 && len(text) > 0 {
		return 1
	}
	return n
}

// ContextTool handles the bank_context MCP tool: the whole bank
// assembled into one response.
type ContextTool struct {
	cache *identity.Cache
	store *store.Store
}

// NewContextTool creates a ContextTool.
func NewContextTool(cache *identity.Cache, st *store.Store) *ContextTool {
	return &ContextTool{cache: cache, store: st}
}

// Definition returns the MCP tool definition for bank_context.
func (t *ContextTool) Definition() mcp.Tool {
	return mcp.NewTool("bank_context",
		mcp.WithDescription(
			"Assemble the project's memory bank into one context document. Call at session start "+
				"to recover what the bank knows. detail_level controls response size.",
		),
		mcp.WithString("project",
			mcp.Description("Project name (default: the session's resolved project)"),
		),
		mcp.WithString("working_directory",
			mcp.Description("Directory to resolve the project from when 'project' is omitted"),
		),
		mcp.WithString("detail",
			mcp.Description("Verbosity: summary (titles and sizes), standard (truncated content, default), full (everything)"),
			mcp.Enum(detailSummary, detailStandard, detailFull),
		),
	)
}

// Handle processes the bank_context tool call.
func (t *ContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := resolveProject(ctx, req, t.cache)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid project name: %v", err)), nil
	}
	detail := parseDetail(req.GetString("detail", ""))

	files, err := existingFiles(ctx, t.store, project)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reading bank: %v", err)), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf(
			"%s has no memory bank yet. Run bank_init, then bank_write to fill it.", project)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Memory Bank: %s\n\n", project)

	for _, f := range bank.AllFiles() {
		content, ok := files[f]
		if !ok {
			continue
		}
		switch detail {
		case detailSummary:
			fmt.Fprintf(&b, "- **%s** (%s): %d bytes, ~%d tokens\n",
				f.Title(), f, len(content), estimateTokens(content))
		case detailFull:
			fmt.Fprintf(&b, "## %s\n\n%s\n\n", f.Title(), strings.TrimSpace(content))
		default:
			fmt.Fprintf(&b, "## %s\n\n%s\n\n", f.Title(), truncate(strings.TrimSpace(content), standardSnippetLength))
		}
	}

	if detail == detailSummary {
		b.WriteString("\n---\n💡 Use detail: standard or full for content, or bank_read for one file.")
	} else {
		fmt.Fprintf(&b, "\n---\n📏 ~%d tokens. Missing files: %s", estimateTokens(b.String()), missingList(files))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func missingList(files map[bank.CanonicalFile]string) string {
	var missing []string
	for _, f := range bank.AllFiles() {
		if _, ok := files[f]; !ok {
			missing = append(missing, string(f))
		}
	}
	if len(missing) == 0 {
		return "none"
	}
	return strings.Join(missing, ", ")
}
