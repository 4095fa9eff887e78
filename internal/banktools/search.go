package banktools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/membank-mcp/membank/internal/identity"
	"github.com/membank-mcp/membank/internal/store"
)

// SearchTool handles the bank_search MCP tool.
type SearchTool struct {
	cache *identity.Cache
	store *store.Store
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(cache *identity.Cache, st *store.Store) *SearchTool {
	return &SearchTool{cache: cache, store: st}
}

// Definition returns the MCP tool definition for bank_search.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("bank_search",
		mcp.WithDescription(
			"Full-text search across the project's memory-bank files. "+
				"Use this to find where a topic is documented before reading whole files.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query — keywords or natural language"),
		),
		mcp.WithString("project",
			mcp.Description("Project to search (default: the session's resolved project; use '*' for all projects)"),
		),
		mcp.WithString("working_directory",
			mcp.Description("Directory to resolve the project from when 'project' is omitted"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 10, max: 20)"),
		),
	)
}

// Handle processes the bank_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}

	// "*" searches every project's bank.
	project := req.GetString("project", "")
	switch project {
	case "*":
		project = ""
	case "":
		pc := t.cache.Resolve(ctx, req.GetString("working_directory", ""))
		project = pc.ProjectName
	default:
		var err error
		if project, err = identity.Normalize(project); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid project name: %v", err)), nil
		}
	}

	hits, err := t.store.SearchDocuments(ctx, query, project, intArg(req, "limit", 10))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(hits) == 0 {
		return mcp.NewToolResultText("No matches in the memory bank."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d match(es):\n\n", len(hits))
	for i, h := range hits {
		fmt.Fprintf(&b, "[%d] %s / %s (updated %s)\n    %s\n\n",
			i+1, h.Project, h.File, h.UpdatedAt, h.Snippet)
	}
	b.WriteString("Use bank_read for a file's full content.")

	return mcp.NewToolResultText(b.String()), nil
}
