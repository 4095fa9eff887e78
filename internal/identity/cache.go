package identity

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Default lifetimes for the two cache tiers. The in-process slot lives
// for a working day; durable records survive restarts for a week.
const (
	DefaultSessionTTL = 24 * time.Hour
	DefaultDurableTTL = 7 * 24 * time.Hour
)

// ProjectContext is the resolved identity for the current session.
// The name is always normalizer output.
type ProjectContext struct {
	ProjectName      string    `json:"projectName"`
	WorkingDirectory string    `json:"workingDirectory"`
	DetectionMethod  Source    `json:"detectionMethod"`
	Confidence       int       `json:"confidence"`
	ResolvedAt       time.Time `json:"resolvedAt"`
	SessionID        string    `json:"sessionId"`
}

// ContextRecord is the durable counterpart of ProjectContext, with an
// expiry. Records past ExpiresAt are dead: ignored on read, purged
// opportunistically.
type ContextRecord struct {
	SessionID        string
	ProjectName      string
	WorkingDirectory string
	DetectionMethod  string
	Confidence       int
	ResolvedAt       time.Time
	LastAccessed     time.Time
	ExpiresAt        time.Time
}

// ContextStore persists resolved contexts across server restarts.
// Saves are idempotent upserts keyed by session id; the last writer
// wins. Lookups return (nil, nil) on a clean miss.
type ContextStore interface {
	SaveContext(ctx context.Context, rec ContextRecord) error
	ContextBySession(ctx context.Context, sessionID string) (*ContextRecord, error)
	ContextByDirectory(ctx context.Context, workingDirectory string) (*ContextRecord, error)
	SaveCurrentProject(ctx context.Context, project string, resolvedAt, expiresAt time.Time) error
}

// CacheConfig configures a Cache.
type CacheConfig struct {
	SessionID string
	Resolver  *Resolver
	// Store is the durable tier. Nil disables persistence; resolution
	// then runs purely in memory.
	Store      ContextStore
	SessionTTL time.Duration
	DurableTTL time.Duration
	Logger     *slog.Logger
}

// Cache is the three-tier resolution path: an in-process session slot,
// then durable records, then fresh detection.
//
// The slot holds ONE project context per server session, not one per
// request: two interleaved resolutions for different directories
// overwrite each other, and the durable tier upserts by session id, so
// the last writer wins. That trade is deliberate; a session works on
// one project at a time.
type Cache struct {
	mu   sync.Mutex
	slot *ProjectContext

	sessionID  string
	resolver   *Resolver
	store      ContextStore
	sessionTTL time.Duration
	durableTTL time.Duration
	logger     *slog.Logger
}

// NewCache creates a Cache. Zero TTLs take the defaults.
func NewCache(cfg CacheConfig) *Cache {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.DurableTTL <= 0 {
		cfg.DurableTTL = DefaultDurableTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = NewResolver(ResolverConfig{})
	}
	return &Cache{
		sessionID:  cfg.SessionID,
		resolver:   resolver,
		store:      cfg.Store,
		sessionTTL: cfg.SessionTTL,
		durableTTL: cfg.DurableTTL,
		logger:     logger,
	}
}

// SessionID returns the server session this cache is keyed under.
func (c *Cache) SessionID() string { return c.sessionID }

// sessionFresh reports whether a cached context is still inside the
// session TTL at the given instant. Pure function of its inputs.
func sessionFresh(pc *ProjectContext, now time.Time, ttl time.Duration) bool {
	if pc == nil {
		return false
	}
	age := now.Sub(pc.ResolvedAt)
	return age >= 0 && age < ttl
}

// recordFresh reports whether a durable record is still alive at the
// given instant.
func recordFresh(rec *ContextRecord, now time.Time) bool {
	return rec != nil && now.Before(rec.ExpiresAt)
}

// Current returns the session slot when it is still fresh, without
// touching the durable tier. Nil means the next Resolve will restore
// or detect.
func (c *Cache) Current() *ProjectContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !sessionFresh(c.slot, timeNow(), c.sessionTTL) {
		return nil
	}
	cp := *c.slot
	return &cp
}

// Resolve returns the active project context for the session,
// restoring from the durable tier or running fresh detection as
// needed. It never fails; the worst case is a generated fallback name.
func (c *Cache) Resolve(ctx context.Context, workingDir string) ProjectContext {
	if pc := c.Current(); pc != nil {
		return *pc
	}

	if pc := c.restore(ctx, workingDir); pc != nil {
		c.setSlot(*pc)
		return *pc
	}

	res := c.resolver.Resolve(ctx, workingDir)
	pc := ProjectContext{
		ProjectName:      res.Name,
		WorkingDirectory: resolveDir(workingDir),
		DetectionMethod:  res.Method,
		Confidence:       res.Confidence,
		ResolvedAt:       timeNow(),
		SessionID:        c.sessionID,
	}
	c.setSlot(pc)
	c.persist(ctx, pc)
	return pc
}

// Assert pins an explicit project for the rest of the session. It is
// the only identity path that can fail, and only on an unusable name.
func (c *Cache) Assert(ctx context.Context, name, workingDir string) (ProjectContext, error) {
	canonical, err := Normalize(name)
	if err != nil {
		return ProjectContext{}, err
	}
	pc := ProjectContext{
		ProjectName:      canonical,
		WorkingDirectory: resolveDir(workingDir),
		DetectionMethod:  SourceExplicit,
		Confidence:       ConfidenceExplicit,
		ResolvedAt:       timeNow(),
		SessionID:        c.sessionID,
	}
	c.setSlot(pc)
	c.persist(ctx, pc)
	return pc, nil
}

// restore attempts the durable tier: first the session's own record,
// then the latest record for the working directory. Expired records
// are skipped.
func (c *Cache) restore(ctx context.Context, workingDir string) *ProjectContext {
	if c.store == nil {
		return nil
	}
	now := timeNow()

	rec, err := c.store.ContextBySession(ctx, c.sessionID)
	if err != nil {
		c.logger.Warn("restoring context by session", "error", err)
	} else if recordFresh(rec, now) {
		return c.fromRecord(rec)
	}

	dir := resolveDir(workingDir)
	rec, err = c.store.ContextByDirectory(ctx, dir)
	if err != nil {
		c.logger.Warn("restoring context by directory", "error", err)
	} else if recordFresh(rec, now) {
		return c.fromRecord(rec)
	}
	return nil
}

func (c *Cache) fromRecord(rec *ContextRecord) *ProjectContext {
	return &ProjectContext{
		ProjectName:      rec.ProjectName,
		WorkingDirectory: rec.WorkingDirectory,
		DetectionMethod:  Source(rec.DetectionMethod),
		Confidence:       rec.Confidence,
		ResolvedAt:       rec.ResolvedAt,
		SessionID:        c.sessionID,
	}
}

func (c *Cache) setSlot(pc ProjectContext) {
	c.mu.Lock()
	c.slot = &pc
	c.mu.Unlock()
}

// persist writes the context through to the durable tier. Failures are
// logged and swallowed: persistence never blocks a resolution from
// returning a usable name.
func (c *Cache) persist(ctx context.Context, pc ProjectContext) {
	if c.store == nil {
		return
	}
	now := timeNow()
	rec := ContextRecord{
		SessionID:        c.sessionID,
		ProjectName:      pc.ProjectName,
		WorkingDirectory: pc.WorkingDirectory,
		DetectionMethod:  string(pc.DetectionMethod),
		Confidence:       pc.Confidence,
		ResolvedAt:       pc.ResolvedAt,
		LastAccessed:     now,
		ExpiresAt:        now.Add(c.durableTTL),
	}
	if err := c.store.SaveContext(ctx, rec); err != nil {
		c.logger.Warn("persisting project context", "project", pc.ProjectName, "error", err)
	}
	if err := c.store.SaveCurrentProject(ctx, pc.ProjectName, pc.ResolvedAt, now.Add(c.durableTTL)); err != nil {
		c.logger.Warn("persisting current project", "project", pc.ProjectName, "error", err)
	}
}
