package identity

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeContextStore is an in-memory ContextStore with switchable
// failure modes.
type fakeContextStore struct {
	bySession map[string]*ContextRecord
	byDir     map[string]*ContextRecord
	current   string
	saveErr   error
	saves     int
}

func newFakeContextStore() *fakeContextStore {
	return &fakeContextStore{
		bySession: make(map[string]*ContextRecord),
		byDir:     make(map[string]*ContextRecord),
	}
}

func (f *fakeContextStore) SaveContext(_ context.Context, rec ContextRecord) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	cp := rec
	f.bySession[rec.SessionID] = &cp
	f.byDir[rec.WorkingDirectory] = &cp
	return nil
}

func (f *fakeContextStore) ContextBySession(_ context.Context, sessionID string) (*ContextRecord, error) {
	return f.bySession[sessionID], nil
}

func (f *fakeContextStore) ContextByDirectory(_ context.Context, dir string) (*ContextRecord, error) {
	return f.byDir[dir], nil
}

func (f *fakeContextStore) SaveCurrentProject(_ context.Context, project string, _, _ time.Time) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.current = project
	return nil
}

// fixedResolver always detects the same name, so tests can tell a
// fresh detection apart from a cache hit or restore.
func fixedResolver(name string) *Resolver {
	r := NewResolver(ResolverConfig{})
	r.probes = []Probe{
		stubProbe(Signal{Source: SourceVCS, Name: name, Confidence: 95}),
	}
	return r
}

func testCache(t *testing.T, store ContextStore, resolver *Resolver) *Cache {
	t.Helper()
	return NewCache(CacheConfig{
		SessionID: "session-1",
		Resolver:  resolver,
		Store:     store,
	})
}

func TestCache_FreshSlotWinsOverDetection(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	freezeTime(t, t0)

	c := testCache(t, nil, fixedResolver("detected"))
	if _, err := c.Assert(context.Background(), "pinned", "/work/a"); err != nil {
		t.Fatalf("Assert: %v", err)
	}

	pc := c.Resolve(context.Background(), "/work/a")
	if pc.ProjectName != "pinned" {
		t.Errorf("name = %q, want the cached assertion", pc.ProjectName)
	}
	if pc.DetectionMethod != SourceExplicit || pc.Confidence != ConfidenceExplicit {
		t.Errorf("method=%s confidence=%d, want explicit/100", pc.DetectionMethod, pc.Confidence)
	}
}

func TestCache_StaleSlotForcesFreshDetection(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	freezeTime(t, t0)

	c := testCache(t, nil, fixedResolver("re-detected"))
	if _, err := c.Assert(context.Background(), "pinned", "/work/a"); err != nil {
		t.Fatalf("Assert: %v", err)
	}

	// 25 hours later, with no durable record to restore from.
	freezeTime(t, t0.Add(25*time.Hour))

	if got := c.Current(); got != nil {
		t.Fatalf("Current() after TTL = %+v, want nil", got)
	}
	pc := c.Resolve(context.Background(), "/work/a")
	if pc.ProjectName != "re-detected" {
		t.Errorf("name = %q, want a fresh detection", pc.ProjectName)
	}
	if pc.DetectionMethod == SourceExplicit {
		t.Error("stale assertion must not survive the session TTL")
	}
}

func TestCache_RestoresBySessionID(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	freezeTime(t, t0)

	store := newFakeContextStore()
	store.bySession["session-1"] = &ContextRecord{
		SessionID:        "session-1",
		ProjectName:      "restored-project",
		WorkingDirectory: "/work/a",
		DetectionMethod:  string(SourceManifest),
		Confidence:       92,
		ResolvedAt:       t0.Add(-2 * time.Hour),
		ExpiresAt:        t0.Add(5 * 24 * time.Hour),
	}

	c := testCache(t, store, fixedResolver("detected"))
	pc := c.Resolve(context.Background(), "/work/a")

	if pc.ProjectName != "restored-project" {
		t.Errorf("name = %q, want the durable record", pc.ProjectName)
	}
	if pc.DetectionMethod != SourceManifest || pc.Confidence != 92 {
		t.Errorf("restored method=%s confidence=%d", pc.DetectionMethod, pc.Confidence)
	}
}

func TestCache_RestoresByWorkingDirectory(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	freezeTime(t, t0)

	store := newFakeContextStore()
	store.byDir["/work/b"] = &ContextRecord{
		SessionID:        "older-session",
		ProjectName:      "directory-project",
		WorkingDirectory: "/work/b",
		DetectionMethod:  string(SourceVCS),
		Confidence:       95,
		ResolvedAt:       t0.Add(-26 * time.Hour),
		ExpiresAt:        t0.Add(24 * time.Hour),
	}

	c := testCache(t, store, fixedResolver("detected"))
	pc := c.Resolve(context.Background(), "/work/b")

	if pc.ProjectName != "directory-project" {
		t.Errorf("name = %q, want the directory-keyed record", pc.ProjectName)
	}
	if pc.SessionID != "session-1" {
		t.Errorf("restored context must adopt the current session, got %q", pc.SessionID)
	}
}

func TestCache_ExpiredDurableRecordIgnored(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	freezeTime(t, t0)

	store := newFakeContextStore()
	store.bySession["session-1"] = &ContextRecord{
		SessionID:   "session-1",
		ProjectName: "ancient",
		ExpiresAt:   t0.Add(-time.Minute),
	}

	c := testCache(t, store, fixedResolver("detected"))
	pc := c.Resolve(context.Background(), "/work/a")

	if pc.ProjectName != "detected" {
		t.Errorf("name = %q, expired records must force detection", pc.ProjectName)
	}
}

func TestCache_DetectionWritesThrough(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	freezeTime(t, t0)

	store := newFakeContextStore()
	c := testCache(t, store, fixedResolver("detected"))
	c.Resolve(context.Background(), "/work/a")

	rec := store.bySession["session-1"]
	if rec == nil {
		t.Fatal("detection must persist a durable record")
	}
	if rec.ProjectName != "detected" {
		t.Errorf("persisted name = %q", rec.ProjectName)
	}
	if want := t0.Add(DefaultDurableTTL); !rec.ExpiresAt.Equal(want) {
		t.Errorf("expiresAt = %v, want %v", rec.ExpiresAt, want)
	}
	if store.current != "detected" {
		t.Errorf("current project = %q, want %q", store.current, "detected")
	}
}

func TestCache_PersistenceFailureIsNonFatal(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	freezeTime(t, t0)

	store := newFakeContextStore()
	store.saveErr = errors.New("disk full")

	c := testCache(t, store, fixedResolver("detected"))
	pc := c.Resolve(context.Background(), "/work/a")

	if pc.ProjectName != "detected" {
		t.Errorf("resolution must survive persistence failures, got %q", pc.ProjectName)
	}
	if got := c.Current(); got == nil || got.ProjectName != "detected" {
		t.Errorf("session slot must still be set, got %+v", got)
	}
}

func TestCache_AssertRejectsUnusableName(t *testing.T) {
	c := testCache(t, nil, fixedResolver("detected"))

	_, err := c.Assert(context.Background(), "!!!", "/work/a")
	if !errors.Is(err, ErrEmptyName) {
		t.Fatalf("Assert(%q) error = %v, want ErrEmptyName", "!!!", err)
	}
	if c.Current() != nil {
		t.Error("a rejected assertion must not populate the slot")
	}
}

func TestCache_AssertNormalizesName(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	freezeTime(t, t0)

	store := newFakeContextStore()
	c := testCache(t, store, fixedResolver("detected"))

	pc, err := c.Assert(context.Background(), "My Cool App!!", "/work/a")
	if err != nil {
		t.Fatalf("Assert: %v", err)
	}
	if pc.ProjectName != "my-cool-app" {
		t.Errorf("asserted name = %q, want normalized slug", pc.ProjectName)
	}
	if store.bySession["session-1"] == nil {
		t.Error("explicit assertions persist immediately")
	}
}

func TestSessionFresh(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	ttl := 24 * time.Hour

	cases := []struct {
		name string
		pc   *ProjectContext
		now  time.Time
		want bool
	}{
		{"nil", nil, t0, false},
		{"fresh", &ProjectContext{ResolvedAt: t0}, t0.Add(time.Hour), true},
		{"edge of ttl", &ProjectContext{ResolvedAt: t0}, t0.Add(ttl), false},
		{"past ttl", &ProjectContext{ResolvedAt: t0}, t0.Add(25 * time.Hour), false},
		{"clock skew", &ProjectContext{ResolvedAt: t0.Add(time.Hour)}, t0, false},
	}

	for _, tc := range cases {
		if got := sessionFresh(tc.pc, tc.now, ttl); got != tc.want {
			t.Errorf("%s: sessionFresh = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRecordFresh(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	if recordFresh(nil, t0) {
		t.Error("nil record is never fresh")
	}
	if !recordFresh(&ContextRecord{ExpiresAt: t0.Add(time.Minute)}, t0) {
		t.Error("record before expiry is fresh")
	}
	if recordFresh(&ContextRecord{ExpiresAt: t0}, t0) {
		t.Error("record at expiry is dead")
	}
}
