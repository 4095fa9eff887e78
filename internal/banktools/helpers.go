// Package banktools provides the MCP tool handlers for the memory
// bank.
//
// Each handler follows the same pattern:
// - A struct with dependencies injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Handlers never fail a write for classifiable input: validation
// problems come back as tool result errors, persistence problems come
// back as warnings on an otherwise successful result.
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

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are
// float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// truncate shortens a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// resolveProject returns the canonical project for a request: the
// explicit "project" argument when given, otherwise the cache's
// 3-tier resolution for the request's working directory.
func resolveProject(ctx context.Context, req mcp.CallToolRequest, cache *identity.Cache) (string, error) {
	if name := req.GetString("project", ""); name != "" {
		return identity.Normalize(name)
	}
	pc := cache.Resolve(ctx, req.GetString("working_directory", ""))
	return pc.ProjectName, nil
}

// existingFiles loads a project's canonical files into the map the
// router consumes. Unknown filenames in the store are skipped; only
// the six canonical files participate in routing.
func existingFiles(ctx context.Context, st *store.Store, project string) (map[bank.CanonicalFile]string, error) {
	docs, err := st.Documents(ctx, project)
	if err != nil {
		return nil, err
	}
	files := make(map[bank.CanonicalFile]string, len(docs))
	for _, d := range docs {
		if f, ok := bank.ParseCanonicalFile(d.File); ok {
			files[f] = d.Content
		}
	}
	return files, nil
}

// isolationWarnings renders conflict warnings for a project name, or
// "" when the name separates cleanly. Conflicts never block anything.
func isolationWarnings(ctx context.Context, st *store.Store, project string) string {
	if st == nil {
		return ""
	}
	registry, err := st.ListProjects(ctx)
	if err != nil {
		return ""
	}
	report := identity.CheckIsolation(project, registry)
	if len(report.ConflictingNames) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n⚠️ Isolation: %q overlaps with existing project(s) %s (score %d/100).",
		project, strings.Join(report.ConflictingNames, ", "), report.IsolationScore)
	if !report.IsValid {
		b.WriteString(" Consider bank_set_project with a more distinct name.")
	}
	return b.String()
}
