package banktools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/membank-mcp/membank/internal/bank"
	"github.com/membank-mcp/membank/internal/identity"
	"github.com/membank-mcp/membank/internal/store"
)

// ReadTool handles the bank_read MCP tool.
type ReadTool struct {
	cache *identity.Cache
	store *store.Store
}

// NewReadTool creates a ReadTool.
func NewReadTool(cache *identity.Cache, st *store.Store) *ReadTool {
	return &ReadTool{cache: cache, store: st}
}

// Definition returns the MCP tool definition for bank_read.
func (t *ReadTool) Definition() mcp.Tool {
	return mcp.NewTool("bank_read",
		mcp.WithDescription(
			"Read one canonical file from the project's memory bank.",
		),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("Canonical file name or alias (projectbrief, productContext, systemPatterns, techContext, activeContext, progress)"),
		),
		mcp.WithString("project",
			mcp.Description("Project name (default: the session's resolved project)"),
		),
		mcp.WithString("working_directory",
			mcp.Description("Directory to resolve the project from when 'project' is omitted"),
		),
	)
}

// Handle processes the bank_read tool call.
func (t *ReadTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("file", "")
	file, ok := bank.ParseCanonicalFile(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf(
			"%q is not a canonical file; the bank has exactly six: %s", name, canonicalFileList())), nil
	}

	project, err := resolveProject(ctx, req, t.cache)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid project name: %v", err)), nil
	}

	doc, err := t.store.Document(ctx, project, string(file))
	if errors.Is(err, store.ErrNotFound) {
		return mcp.NewToolResultText(fmt.Sprintf(
			"%s has no %s yet. Initialize the bank with bank_init, or write content with bank_write.",
			project, file)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reading %s: %v", file, err)), nil
	}

	header := fmt.Sprintf("_%s / %s — updated %s_\n\n", project, file, doc.UpdatedAt)
	return mcp.NewToolResultText(header + doc.Content), nil
}

func canonicalFileList() string {
	names := make([]string, 0, 6)
	for _, f := range bank.AllFiles() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

// ─── ListTool ────────────────────────────────────────────────────────────────

// ListTool handles the bank_list MCP tool.
type ListTool struct {
	cache *identity.Cache
	store *store.Store
}

// NewListTool creates a ListTool.
func NewListTool(cache *identity.Cache, st *store.Store) *ListTool {
	return &ListTool{cache: cache, store: st}
}

// Definition returns the MCP tool definition for bank_list.
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool("bank_list",
		mcp.WithDescription(
			"List the project's memory-bank files with sizes and last-updated timestamps.",
		),
		mcp.WithString("project",
			mcp.Description("Project name (default: the session's resolved project)"),
		),
		mcp.WithString("working_directory",
			mcp.Description("Directory to resolve the project from when 'project' is omitted"),
		),
	)
}

// Handle processes the bank_list tool call.
func (t *ListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := resolveProject(ctx, req, t.cache)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid project name: %v", err)), nil
	}

	docs, err := t.store.Documents(ctx, project)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing files: %v", err)), nil
	}
	if len(docs) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf(
			"%s has no memory-bank files yet. Run bank_init to create the starters.", project)), nil
	}

	byFile := make(map[string]store.Document, len(docs))
	for _, d := range docs {
		byFile[d.File] = d
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Memory Bank: %s\n\n", project)
	for _, f := range bank.AllFiles() {
		d, ok := byFile[string(f)]
		if !ok {
			fmt.Fprintf(&b, "- %s — missing\n", f)
			continue
		}
		fmt.Fprintf(&b, "- %s — %d bytes, updated %s\n", f, len(d.Content), d.UpdatedAt)
	}

	return mcp.NewToolResultText(b.String()), nil
}
