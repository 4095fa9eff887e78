// Package resources implements MCP resource handlers for the memory bank.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (membank://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/membank-mcp/membank/internal/bank"
	"github.com/membank-mcp/membank/internal/identity"
	"github.com/membank-mcp/membank/internal/store"
)

// Handler manages memory-bank resource endpoints.
type Handler struct {
	cache *identity.Cache
	store *store.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(cache *identity.Cache, st *store.Store) *Handler {
	return &Handler{cache: cache, store: st}
}

// ProjectsResource returns the MCP resource definition for the project
// registry.
func (h *Handler) ProjectsResource() mcp.Resource {
	return mcp.NewResource(
		"membank://projects",
		"Memory Bank Projects",
		mcp.WithResourceDescription("All projects known to the memory bank"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleProjects returns the project registry as JSON.
func (h *Handler) HandleProjects(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	names, err := h.store.ListProjects(ctx)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	payload := struct {
		Projects []string `json:"projects"`
		Count    int      `json:"count"`
	}{Projects: names, Count: len(names)}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling project list: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// ContextResource returns the MCP resource definition for the active
// project's bank state.
func (h *Handler) ContextResource() mcp.Resource {
	return mcp.NewResource(
		"membank://project/context",
		"Active Project Context",
		mcp.WithResourceDescription("The resolved project identity and its bank files"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleContext returns the session's resolved project and a per-file
// inventory of its bank as JSON.
func (h *Handler) HandleContext(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	pc := h.cache.Resolve(ctx, "")

	type fileEntry struct {
		File    string `json:"file"`
		Present bool   `json:"present"`
		Bytes   int    `json:"bytes,omitempty"`
		Updated string `json:"updated,omitempty"`
	}
	payload := struct {
		Project    string      `json:"project"`
		Method     string      `json:"detectionMethod"`
		Confidence int         `json:"confidence"`
		Directory  string      `json:"workingDirectory"`
		Files      []fileEntry `json:"files"`
	}{
		Project:    pc.ProjectName,
		Method:     string(pc.DetectionMethod),
		Confidence: pc.Confidence,
		Directory:  pc.WorkingDirectory,
	}

	docs, err := h.store.Documents(ctx, pc.ProjectName)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	byFile := make(map[string]store.Document, len(docs))
	for _, d := range docs {
		byFile[d.File] = d
	}
	for _, f := range bank.AllFiles() {
		entry := fileEntry{File: string(f)}
		if d, ok := byFile[string(f)]; ok {
			entry.Present = true
			entry.Bytes = len(d.Content)
			entry.Updated = d.UpdatedAt
		}
		payload.Files = append(payload.Files, entry)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling project context: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
