package store

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Mirror keeps a plain-markdown copy of every document on disk under
// <data_dir>/banks/<project>/<file>, so a bank stays readable with any
// editor even when the server is down. Mirroring is best-effort: a
// failed write is logged and the database stays authoritative.
type Mirror struct {
	root   string
	logger *slog.Logger
}

// NewMirror creates a Mirror rooted at dataDir. A nil logger discards
// diagnostics.
func NewMirror(dataDir string, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Mirror{
		root:   filepath.Join(dataDir, "banks"),
		logger: logger,
	}
}

// ProjectDir returns the on-disk directory for a project's bank.
func (m *Mirror) ProjectDir(project string) string {
	return filepath.Join(m.root, project)
}

// Write mirrors one document to disk. It never returns an error to the
// caller's write path; failures are logged and swallowed.
func (m *Mirror) Write(project, file, content string) {
	if err := m.write(project, file, content); err != nil {
		m.logger.Warn("mirroring document", "project", project, "file", file, "error", err)
	}
}

func (m *Mirror) write(project, file, content string) error {
	dir := m.ProjectDir(project)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	path := filepath.Join(dir, file)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
