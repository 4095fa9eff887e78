package banktools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/membank-mcp/membank/internal/store"
)

// StatsTool handles the bank_stats MCP tool.
type StatsTool struct {
	store *store.Store
}

// NewStatsTool creates a StatsTool.
func NewStatsTool(st *store.Store) *StatsTool {
	return &StatsTool{store: st}
}

// Definition returns the MCP tool definition for bank_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("bank_stats",
		mcp.WithDescription(
			"Show store-wide statistics — projects tracked, documents stored, context sessions.",
		),
	)
}

// Handle processes the bank_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := t.store.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get stats: %v", err)), nil
	}

	var b strings.Builder
	b.WriteString("## Memory Bank Statistics\n\n")
	fmt.Fprintf(&b, "- **Projects**: %d\n", stats.Projects)
	fmt.Fprintf(&b, "- **Documents**: %d\n", stats.Documents)
	fmt.Fprintf(&b, "- **Context sessions**: %d\n", stats.Sessions)
	fmt.Fprintf(&b, "- **Data directory**: %s\n", stats.DataDir)
	if len(stats.Names) > 0 {
		fmt.Fprintf(&b, "- **Names**: %s\n", strings.Join(stats.Names, ", "))
	}

	return mcp.NewToolResultText(b.String()), nil
}
