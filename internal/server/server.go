// Package server wires all MCP components and creates the server instance.
//
// This is the composition root (DIP): it creates concrete implementations
// and injects them into the tools/prompts/resources that depend on abstractions.
// No business logic lives here — only wiring.
package server

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"

	"github.com/membank-mcp/membank/internal/banktools"
	"github.com/membank-mcp/membank/internal/config"
	"github.com/membank-mcp/membank/internal/identity"
	"github.com/membank-mcp/membank/internal/prompts"
	"github.com/membank-mcp/membank/internal/resources"
	"github.com/membank-mcp/membank/internal/store"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the store's database connection
// and must be called on shutdown (typically via defer). It is always
// non-nil and safe to call even if store init failed.
func New(configPath string) (*server.MCPServer, func(), error) {
	// --- Load configuration ---

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, noop, err
	}

	// Logs go to stderr: stdout belongs to the MCP stdio transport.
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"membank",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Create the store ---
	//
	// The store is an independent subsystem: if it fails to initialize,
	// project resolution still works in memory. We log a warning and
	// register only the identity tools — the session can still tell
	// which project it is on, it just cannot persist anything.

	cleanup := noop
	st, storeErr := store.New(store.Config{DataDir: cfg.DataDir})
	if storeErr != nil {
		logger.Warn("store disabled, running resolution-only", "error", storeErr)
		st = nil
	} else {
		cleanup = func() {
			if err := st.Close(); err != nil {
				logger.Warn("store close", "error", err)
			}
		}
	}

	// --- Create the identity stack ---

	var registry identity.Registry
	var contexts identity.ContextStore
	if st != nil {
		registry = st
		contexts = st
	}
	resolver := identity.NewResolver(identity.ResolverConfig{
		Registry:                  registry,
		AutoSelectOnLowConfidence: cfg.AutoSelectOnLowConfidence,
		Logger:                    logger,
	})
	cache := identity.NewCache(identity.CacheConfig{
		SessionID:  uuid.NewString(),
		Resolver:   resolver,
		Store:      contexts,
		SessionTTL: cfg.SessionTTL,
		DurableTTL: cfg.DurableTTL,
		Logger:     logger,
	})

	// --- Register identity tools ---

	resolveTool := banktools.NewResolveTool(cache, st)
	s.AddTool(resolveTool.Definition(), resolveTool.Handle)

	setProjectTool := banktools.NewSetProjectTool(cache, st)
	s.AddTool(setProjectTool.Definition(), setProjectTool.Handle)

	if st == nil {
		return s, cleanup, nil
	}

	isolationTool := banktools.NewIsolationTool(st)
	s.AddTool(isolationTool.Definition(), isolationTool.Handle)

	// --- Register bank tools ---

	mirror := store.NewMirror(cfg.DataDir, logger)

	initTool := banktools.NewInitTool(cache, st, mirror)
	s.AddTool(initTool.Definition(), initTool.Handle)

	writeTool := banktools.NewWriteTool(cache, st, mirror)
	s.AddTool(writeTool.Definition(), writeTool.Handle)

	readTool := banktools.NewReadTool(cache, st)
	s.AddTool(readTool.Definition(), readTool.Handle)

	listTool := banktools.NewListTool(cache, st)
	s.AddTool(listTool.Definition(), listTool.Handle)

	searchTool := banktools.NewSearchTool(cache, st)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	contextTool := banktools.NewContextTool(cache, st)
	s.AddTool(contextTool.Definition(), contextTool.Handle)

	healthTool := banktools.NewHealthTool(cache, st)
	s.AddTool(healthTool.Definition(), healthTool.Handle)

	statsTool := banktools.NewStatsTool(st)
	s.AddTool(statsTool.Definition(), statsTool.Handle)

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(cache, st)
	s.AddResource(resourceHandler.ProjectsResource(), resourceHandler.HandleProjects)
	s.AddResource(resourceHandler.ContextResource(), resourceHandler.HandleContext)

	return s, cleanup, nil
}

// noop is a no-op cleanup function used as the default when the store
// is disabled or hasn't been initialized.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use the memory bank effectively.
func serverInstructions() string {
	return `You have access to membank, a project-aware memory bank MCP server.

## What It Does
membank keeps one persistent knowledge bank per project, made of six files:
- projectbrief.md — what the project is and why it exists
- productContext.md — users, requirements, product decisions
- systemPatterns.md — architecture, patterns, design decisions
- techContext.md — stack, tooling, build and runtime details
- activeContext.md — current focus and working notes
- progress.md — status, milestones, blockers

You never choose the file by hand unless you want to: bank_write classifies
content and routes it to the right file automatically.

## Session Start
1. Call bank_resolve_project to find out which project you are in.
   It detects from git, package manifests, and the directory name, and it
   caches the answer for the session.
2. If the answer looks wrong or confidence is low, ask the user and pin
   the right name with bank_set_project.
3. Call bank_context with detail='summary' to recover what the bank knows.
4. If the project has no bank yet, offer to run bank_init.

## Saving Knowledge (call bank_write PROACTIVELY after each of these)
- Architectural decisions or tradeoffs made
- The tech stack and why it was chosen
- Bug root causes and how they were fixed
- Patterns or conventions established
- Milestones reached, work completed, blockers found
- What the current session is focused on

Pass the raw prose — routing and merging is the server's job. Existing
content is never lost: related updates merge by section, unrelated ones
land under a dated "Additional Content" heading. Only pass strategy='replace'
when the user explicitly wants a file rewritten.

## Reading It Back
- bank_context — the whole bank at once; detail='summary' for orientation,
  'standard' for working context, 'full' only when you need everything
- bank_read — one file by name or alias ('tech', 'patterns', 'brief', ...)
- bank_search — full-text search; project='*' searches every project
- bank_list / bank_health — what exists and how complete it is

## Important Rules
- One project's bank never mixes with another's. If bank_resolve_project
  reports low confidence, resolve it with the user rather than guessing.
- Keep entries substantive — write what was decided and why, not a log
  of everything that happened.
- At the end of a substantial session, update progress.md (bank_write with
  file_name='progress') so the next session can pick up where this one left off.`
}
