package banktools

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/membank-mcp/membank/internal/identity"
	"github.com/membank-mcp/membank/internal/store"
)

// ─── Test helpers ────────────────────────────────────────────────────────────

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(store.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// newTestCache pins an explicit project so tests never depend on what
// the probes would detect in the test runner's working directory.
func newTestCache(t *testing.T, st *store.Store, project string) *identity.Cache {
	t.Helper()
	cache := identity.NewCache(identity.CacheConfig{
		SessionID: "test-session",
		Store:     st,
	})
	if project != "" {
		if _, err := cache.Assert(context.Background(), project, "/work/test"); err != nil {
			t.Fatalf("pinning project: %v", err)
		}
	}
	return cache
}

func makeReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// ─── WriteTool ───────────────────────────────────────────────────────────────

func TestWriteTool_RoutesTechnicalContent(t *testing.T) {
	st := newTestStore(t)
	tool := NewWriteTool(newTestCache(t, st, "demo"), st, nil)

	res, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"content": "We use React, TypeScript, and webpack for the build",
		"project": "demo",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := resultText(res)
	if !strings.Contains(text, "techContext.md") {
		t.Errorf("result should name techContext.md:\n%s", text)
	}

	doc, err := st.Document(context.Background(), "demo", "techContext.md")
	if err != nil {
		t.Fatalf("document not persisted: %v", err)
	}
	if !strings.Contains(doc.Content, "webpack") {
		t.Errorf("stored content = %q", doc.Content)
	}
}

func TestWriteTool_SecondWriteMergesNotDuplicates(t *testing.T) {
	st := newTestStore(t)
	tool := NewWriteTool(newTestCache(t, st, "demo"), st, nil)
	ctx := context.Background()

	content := "## Stack\n\nGo with modernc sqlite for the database layer."
	for i := 0; i < 3; i++ {
		if _, err := tool.Handle(ctx, makeReq(map[string]any{
			"content":   content,
			"file_name": "techContext",
			"project":   "demo",
		})); err != nil {
			t.Fatalf("Handle #%d: %v", i+1, err)
		}
	}

	doc, err := st.Document(ctx, "demo", "techContext.md")
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if n := strings.Count(doc.Content, "modernc sqlite"); n != 1 {
		t.Errorf("identical content stored %d times, want 1:\n%s", n, doc.Content)
	}
}

func TestWriteTool_ForcedStrategyReplaces(t *testing.T) {
	st := newTestStore(t)
	tool := NewWriteTool(newTestCache(t, st, "demo"), st, nil)
	ctx := context.Background()

	seed := map[string]any{"content": "old notes", "file_name": "activeContext", "project": "demo"}
	if _, err := tool.Handle(ctx, makeReq(seed)); err != nil {
		t.Fatalf("seed write: %v", err)
	}

	res, err := tool.Handle(ctx, makeReq(map[string]any{
		"content":   "fresh start",
		"file_name": "activeContext",
		"project":   "demo",
		"strategy":  "replace",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(resultText(res), "replace") {
		t.Errorf("result should report the forced strategy:\n%s", resultText(res))
	}

	doc, err := st.Document(ctx, "demo", "activeContext.md")
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if doc.Content != "fresh start" {
		t.Errorf("content = %q, want the replacement only", doc.Content)
	}
}

func TestWriteTool_RequiresContent(t *testing.T) {
	st := newTestStore(t)
	tool := NewWriteTool(newTestCache(t, st, "demo"), st, nil)

	res, err := tool.Handle(context.Background(), makeReq(map[string]any{"project": "demo"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !res.IsError {
		t.Error("empty content should be a tool result error")
	}
}

// ─── InitTool ────────────────────────────────────────────────────────────────

func TestInitTool_CreatesSixFilesOnce(t *testing.T) {
	st := newTestStore(t)
	tool := NewInitTool(newTestCache(t, st, "demo"), st, nil)
	ctx := context.Background()

	res, err := tool.Handle(ctx, makeReq(map[string]any{"project": "demo"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(resultText(res), "Created:") {
		t.Errorf("first init should create files:\n%s", resultText(res))
	}

	docs, err := st.Documents(ctx, "demo")
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(docs) != 6 {
		t.Fatalf("init created %d files, want 6", len(docs))
	}

	// Re-init must not clobber content.
	if err := st.SaveDocument(ctx, "demo", "progress.md", "real progress"); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	if _, err := tool.Handle(ctx, makeReq(map[string]any{"project": "demo"})); err != nil {
		t.Fatalf("re-init: %v", err)
	}
	doc, err := st.Document(ctx, "demo", "progress.md")
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if doc.Content != "real progress" {
		t.Errorf("re-init overwrote an existing file: %q", doc.Content)
	}
}

// ─── ReadTool / ListTool ─────────────────────────────────────────────────────

func TestReadTool_ReadsByAlias(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	if err := st.SaveDocument(ctx, "demo", "techContext.md", "# Tech\n\nGo 1.25"); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	tool := NewReadTool(newTestCache(t, st, "demo"), st)
	res, err := tool.Handle(ctx, makeReq(map[string]any{"file": "tech", "project": "demo"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(resultText(res), "Go 1.25") {
		t.Errorf("read result:\n%s", resultText(res))
	}
}

func TestReadTool_RejectsNonCanonicalFile(t *testing.T) {
	st := newTestStore(t)
	tool := NewReadTool(newTestCache(t, st, "demo"), st)

	res, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"file": "random-notes.md", "project": "demo",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !res.IsError {
		t.Error("unknown file should be a tool result error")
	}
}

func TestListTool_ShowsMissingFiles(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	if err := st.SaveDocument(ctx, "demo", "projectbrief.md", "brief"); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	tool := NewListTool(newTestCache(t, st, "demo"), st)
	res, err := tool.Handle(ctx, makeReq(map[string]any{"project": "demo"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := resultText(res)
	if !strings.Contains(text, "projectbrief.md") {
		t.Errorf("list should show the stored file:\n%s", text)
	}
	if !strings.Contains(text, "progress.md — missing") {
		t.Errorf("list should mark absent canonical files:\n%s", text)
	}
}

// ─── SetProjectTool / IsolationTool ──────────────────────────────────────────

func TestSetProjectTool_CanonicalizesAndRegisters(t *testing.T) {
	st := newTestStore(t)
	cache := newTestCache(t, st, "")
	tool := NewSetProjectTool(cache, st)
	ctx := context.Background()

	res, err := tool.Handle(ctx, makeReq(map[string]any{"project": "My Cool App!!"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(resultText(res), `"my-cool-app"`) {
		t.Errorf("result:\n%s", resultText(res))
	}

	names, err := st.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(names) != 1 || names[0] != "my-cool-app" {
		t.Errorf("registry = %v", names)
	}

	pc := cache.Current()
	if pc == nil || pc.ProjectName != "my-cool-app" {
		t.Errorf("session slot = %+v", pc)
	}
}

func TestSetProjectTool_RejectsUnusableName(t *testing.T) {
	st := newTestStore(t)
	tool := NewSetProjectTool(newTestCache(t, st, ""), st)

	res, err := tool.Handle(context.Background(), makeReq(map[string]any{"project": "!!!"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !res.IsError {
		t.Error("a name that normalizes to empty must be rejected")
	}
}

func TestIsolationTool_ReportsConflicts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	for _, name := range []string{"acme-web", "acme-web-v2"} {
		if err := st.EnsureProject(ctx, name); err != nil {
			t.Fatalf("EnsureProject: %v", err)
		}
	}

	tool := NewIsolationTool(st)
	res, err := tool.Handle(ctx, makeReq(map[string]any{"project": "acme-web-v3"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := resultText(res)
	if !strings.Contains(text, "60/100") {
		t.Errorf("score missing:\n%s", text)
	}
	if !strings.Contains(text, "acme-web") || !strings.Contains(text, "acme-web-v2") {
		t.Errorf("conflicts missing:\n%s", text)
	}
	if !strings.Contains(text, "**Valid**: false") {
		t.Errorf("validity missing:\n%s", text)
	}
}

// ─── SearchTool / ContextTool / HealthTool / StatsTool ──────────────────────

func TestSearchTool_FindsStoredContent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	if err := st.SaveDocument(ctx, "demo", "systemPatterns.md", "The pipeline uses a worker pool"); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	tool := NewSearchTool(newTestCache(t, st, "demo"), st)
	res, err := tool.Handle(ctx, makeReq(map[string]any{"query": "worker pool", "project": "demo"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(resultText(res), "systemPatterns.md") {
		t.Errorf("search result:\n%s", resultText(res))
	}
}

func TestContextTool_SummaryListsFiles(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	if err := st.SaveDocument(ctx, "demo", "projectbrief.md", "# Brief\n\nA demo."); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	tool := NewContextTool(newTestCache(t, st, "demo"), st)
	res, err := tool.Handle(ctx, makeReq(map[string]any{"project": "demo", "detail": "summary"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := resultText(res)
	if !strings.Contains(text, "Project Brief") {
		t.Errorf("summary should list the brief:\n%s", text)
	}
	if strings.Contains(text, "A demo.") {
		t.Errorf("summary must not include file content:\n%s", text)
	}
}

func TestHealthTool_ScoresEmptyBankLow(t *testing.T) {
	st := newTestStore(t)
	tool := NewHealthTool(newTestCache(t, st, "demo"), st)

	res, err := tool.Handle(context.Background(), makeReq(map[string]any{"project": "demo"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := resultText(res)
	if !strings.Contains(text, "0/100") {
		t.Errorf("an empty bank should score 0:\n%s", text)
	}
	if !strings.Contains(text, "Missing:") {
		t.Errorf("missing files should be called out:\n%s", text)
	}
}

func TestStatsTool_CountsStore(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	if err := st.SaveDocument(ctx, "demo", "progress.md", "done"); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	tool := NewStatsTool(st)
	res, err := tool.Handle(ctx, makeReq(nil))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := resultText(res)
	if !strings.Contains(text, "**Projects**: 1") || !strings.Contains(text, "**Documents**: 1") {
		t.Errorf("stats:\n%s", text)
	}
}
