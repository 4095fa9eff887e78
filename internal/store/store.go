// Package store is the durable tier of the memory bank: a SQLite
// database holding the project registry, canonical file contents with
// an FTS5 search index, and resolved project-context records.
//
// All writes are idempotent upserts; the last writer wins. That is the
// intended concurrency story for a single-session stdio server, not a
// shortcut.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/membank-mcp/membank/internal/identity"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// timeFormat is how timestamps are stored. UTC, lexically sortable.
const timeFormat = "2006-01-02 15:04:05"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Document is one canonical file's stored content for a project.
type Document struct {
	Project   string `json:"project"`
	File      string `json:"file"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// SearchHit is a full-text match inside a document.
type SearchHit struct {
	Project   string  `json:"project"`
	File      string  `json:"file"`
	Snippet   string  `json:"snippet"`
	Rank      float64 `json:"rank"`
	UpdatedAt string  `json:"updated_at"`
}

// Stats holds aggregate store statistics.
type Stats struct {
	Projects  int      `json:"projects"`
	Documents int      `json:"documents"`
	Sessions  int      `json:"sessions"`
	DataDir   string   `json:"data_dir"`
	Names     []string `json:"names,omitempty"`
}

// Config holds store configuration.
type Config struct {
	DataDir          string
	MaxSearchResults int
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:          filepath.Join(home, ".membank"),
		MaxSearchResults: 20,
	}
}

// Store is the SQLite-backed persistence layer. It implements both
// identity.Registry and identity.ContextStore.
type Store struct {
	db  *sql.DB
	cfg Config
}

var (
	_ identity.Registry     = (*Store)(nil)
	_ identity.ContextStore = (*Store)(nil)
)

// New opens (or creates) the database under cfg.DataDir, applies the
// pragmas, and runs migrations.
func New(cfg Config) (*Store, error) {
	if cfg.DataDir == "" {
		cfg = DefaultConfig()
	}
	if cfg.MaxSearchResults <= 0 {
		cfg.MaxSearchResults = DefaultConfig().MaxSearchResults
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "membank.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DataDir returns the directory the store lives in.
func (s *Store) DataDir() string { return s.cfg.DataDir }

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS projects (
			name           TEXT PRIMARY KEY,
			created_at     TEXT NOT NULL,
			last_active_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS documents (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			project    TEXT NOT NULL,
			file       TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE (project, file),
			FOREIGN KEY (project) REFERENCES projects(name)
		);

		CREATE INDEX IF NOT EXISTS idx_doc_project ON documents(project);
		CREATE INDEX IF NOT EXISTS idx_doc_updated ON documents(updated_at DESC);

		CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
			project,
			file,
			content,
			content='documents',
			content_rowid='id'
		);

		CREATE TABLE IF NOT EXISTS context_sessions (
			session_id        TEXT PRIMARY KEY,
			project           TEXT NOT NULL,
			working_directory TEXT NOT NULL,
			detection_method  TEXT NOT NULL,
			confidence        INTEGER NOT NULL,
			resolved_at       TEXT NOT NULL,
			last_accessed     TEXT NOT NULL,
			expires_at        TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_ctx_dir     ON context_sessions(working_directory, resolved_at DESC);
		CREATE INDEX IF NOT EXISTS idx_ctx_expires ON context_sessions(expires_at);

		CREATE TABLE IF NOT EXISTS current_project (
			id          INTEGER PRIMARY KEY CHECK (id = 1),
			project     TEXT NOT NULL,
			resolved_at TEXT NOT NULL,
			expires_at  TEXT NOT NULL
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// FTS triggers, created once: sqlite_master is the idempotence check.
	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='trigger' AND name='doc_fts_insert'",
	).Scan(&name)
	if err == sql.ErrNoRows {
		triggers := `
			CREATE TRIGGER doc_fts_insert AFTER INSERT ON documents BEGIN
				INSERT INTO documents_fts(rowid, project, file, content)
				VALUES (new.id, new.project, new.file, new.content);
			END;

			CREATE TRIGGER doc_fts_delete AFTER DELETE ON documents BEGIN
				INSERT INTO documents_fts(documents_fts, rowid, project, file, content)
				VALUES ('delete', old.id, old.project, old.file, old.content);
			END;

			CREATE TRIGGER doc_fts_update AFTER UPDATE ON documents BEGIN
				INSERT INTO documents_fts(documents_fts, rowid, project, file, content)
				VALUES ('delete', old.id, old.project, old.file, old.content);
				INSERT INTO documents_fts(rowid, project, file, content)
				VALUES (new.id, new.project, new.file, new.content);
			END;
		`
		if _, err := s.db.Exec(triggers); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return nil
}

// ─── Projects ────────────────────────────────────────────────────────────────

// EnsureProject registers a project name, bumping its last-active
// timestamp when it already exists.
func (s *Store) EnsureProject(ctx context.Context, name string) error {
	now := Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (name, created_at, last_active_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET last_active_at = excluded.last_active_at`,
		name, now, now,
	)
	if err != nil {
		return fmt.Errorf("ensure project %q: %w", name, err)
	}
	return nil
}

// ListProjects returns all registered project names, most recently
// active first. This is the registry the isolation validator reads.
func (s *Store) ListProjects(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM projects ORDER BY last_active_at DESC, name",
	)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// ─── Documents ───────────────────────────────────────────────────────────────

// SaveDocument upserts one canonical file's content for a project. The
// project is registered as a side effect, so a write can never land on
// an unknown project.
func (s *Store) SaveDocument(ctx context.Context, project, file, content string) error {
	if err := s.EnsureProject(ctx, project); err != nil {
		return err
	}
	now := Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (project, file, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(project, file) DO UPDATE SET
			content = excluded.content,
			updated_at = excluded.updated_at`,
		project, file, content, now, now,
	)
	if err != nil {
		return fmt.Errorf("save document %s/%s: %w", project, file, err)
	}
	return nil
}

// Document returns one file's stored content. ErrNotFound when the
// project has no such file.
func (s *Store) Document(ctx context.Context, project, file string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT project, file, content, created_at, updated_at
		 FROM documents WHERE project = ? AND file = ?`,
		project, file,
	)
	var d Document
	if err := row.Scan(&d.Project, &d.File, &d.Content, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document %s/%s: %w", project, file, ErrNotFound)
		}
		return nil, err
	}
	return &d, nil
}

// Documents returns all of a project's files, in name order.
func (s *Store) Documents(ctx context.Context, project string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT project, file, content, created_at, updated_at
		 FROM documents WHERE project = ? ORDER BY file`,
		project,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents for %q: %w", project, err)
	}
	defer func() { _ = rows.Close() }()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.Project, &d.File, &d.Content, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// SearchDocuments runs a full-text query over document contents,
// optionally scoped to one project. Snippets highlight the match.
func (s *Store) SearchDocuments(ctx context.Context, query, project string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > s.cfg.MaxSearchResults {
		limit = s.cfg.MaxSearchResults
	}

	ftsQuery := sanitizeFTS(query)
	if ftsQuery == "" {
		return nil, nil
	}

	sqlStr := `
		SELECT d.project, d.file,
		       snippet(documents_fts, 2, '>>', '<<', ' … ', 16),
		       fts.rank, d.updated_at
		FROM documents_fts fts
		JOIN documents d ON d.id = fts.rowid
		WHERE documents_fts MATCH ?
	`
	args := []any{ftsQuery}
	if project != "" {
		sqlStr += " AND d.project = ?"
		args = append(args, project)
	}
	sqlStr += " ORDER BY fts.rank LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.Project, &h.File, &h.Snippet, &h.Rank, &h.UpdatedAt); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// ─── Context records ─────────────────────────────────────────────────────────

// SaveContext upserts a resolved project-context record keyed by
// session id, and opportunistically purges records past their expiry.
func (s *Store) SaveContext(ctx context.Context, rec identity.ContextRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO context_sessions
			(session_id, project, working_directory, detection_method, confidence, resolved_at, last_accessed, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
			project = excluded.project,
			working_directory = excluded.working_directory,
			detection_method = excluded.detection_method,
			confidence = excluded.confidence,
			resolved_at = excluded.resolved_at,
			last_accessed = excluded.last_accessed,
			expires_at = excluded.expires_at`,
		rec.SessionID, rec.ProjectName, rec.WorkingDirectory, rec.DetectionMethod,
		rec.Confidence, formatTime(rec.ResolvedAt), formatTime(rec.LastAccessed), formatTime(rec.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("save context for session %q: %w", rec.SessionID, err)
	}

	// Dead records only accumulate; sweep them while we are writing
	// anyway. Failure here is invisible on purpose.
	_, _ = s.db.ExecContext(ctx,
		"DELETE FROM context_sessions WHERE expires_at <= ?", formatTime(timeNow().UTC()),
	)
	return nil
}

// ContextBySession returns the context record for a session id, or
// (nil, nil) on a clean miss. Expiry is the caller's check; the record
// is returned as stored.
func (s *Store) ContextBySession(ctx context.Context, sessionID string) (*identity.ContextRecord, error) {
	return s.contextRecord(ctx,
		`SELECT session_id, project, working_directory, detection_method, confidence, resolved_at, last_accessed, expires_at
		 FROM context_sessions WHERE session_id = ?`,
		sessionID,
	)
}

// ContextByDirectory returns the most recently resolved record for a
// working directory, or (nil, nil) on a clean miss.
func (s *Store) ContextByDirectory(ctx context.Context, dir string) (*identity.ContextRecord, error) {
	return s.contextRecord(ctx,
		`SELECT session_id, project, working_directory, detection_method, confidence, resolved_at, last_accessed, expires_at
		 FROM context_sessions WHERE working_directory = ?
		 ORDER BY resolved_at DESC LIMIT 1`,
		dir,
	)
}

func (s *Store) contextRecord(ctx context.Context, query string, args ...any) (*identity.ContextRecord, error) {
	row := s.db.QueryRowContext(ctx, query, args...)

	var rec identity.ContextRecord
	var resolvedAt, lastAccessed, expiresAt string
	err := row.Scan(
		&rec.SessionID, &rec.ProjectName, &rec.WorkingDirectory, &rec.DetectionMethod,
		&rec.Confidence, &resolvedAt, &lastAccessed, &expiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load context record: %w", err)
	}

	rec.ResolvedAt = parseTime(resolvedAt)
	rec.LastAccessed = parseTime(lastAccessed)
	rec.ExpiresAt = parseTime(expiresAt)
	return &rec, nil
}

// SaveCurrentProject upserts the singleton current-project record.
func (s *Store) SaveCurrentProject(ctx context.Context, project string, resolvedAt, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO current_project (id, project, resolved_at, expires_at)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			project = excluded.project,
			resolved_at = excluded.resolved_at,
			expires_at = excluded.expires_at`,
		project, formatTime(resolvedAt), formatTime(expiresAt),
	)
	if err != nil {
		return fmt.Errorf("save current project: %w", err)
	}
	return nil
}

// CurrentProject returns the singleton current-project name, or ""
// when none is recorded or the record has expired.
func (s *Store) CurrentProject(ctx context.Context) (string, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT project, expires_at FROM current_project WHERE id = 1",
	)
	var project, expiresAt string
	err := row.Scan(&project, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load current project: %w", err)
	}
	if !timeNow().UTC().Before(parseTime(expiresAt)) {
		return "", nil
	}
	return project, nil
}

// ─── Stats ───────────────────────────────────────────────────────────────────

// Stats returns aggregate store statistics.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{DataDir: s.cfg.DataDir}

	_ = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&st.Projects)
	_ = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&st.Documents)
	_ = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM context_sessions").Scan(&st.Sessions)

	names, err := s.ListProjects(ctx)
	if err != nil {
		return st, nil
	}
	st.Names = names
	return st, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// Now returns the current UTC time in the store's timestamp format.
func Now() string {
	return timeNow().UTC().Format(timeFormat)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

// parseTime reads a stored timestamp. Unparseable values become the
// zero time, which reads as "long expired" everywhere it matters.
func parseTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// sanitizeFTS wraps each word in quotes for safe FTS5 queries.
// "merge strategy" → `"merge" "strategy"`.
func sanitizeFTS(query string) string {
	words := strings.Fields(query)
	for i, w := range words {
		w = strings.Trim(w, `"`)
		words[i] = `"` + w + `"`
	}
	return strings.Join(words, " ")
}
