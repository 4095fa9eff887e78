// Package bank implements the memory bank: a fixed set of six
// canonical knowledge files per project, a keyword classifier that
// routes free-form text to the right file, and merge strategies that
// fold new content into what is already there without losing it.
package bank

import "strings"

// CanonicalFile identifies one of the six fixed destination files.
// The set is closed: routing always lands on one of these, and nothing
// ever extends it at runtime.
type CanonicalFile string

const (
	Brief          CanonicalFile = "projectbrief.md"
	ProductContext CanonicalFile = "productContext.md"
	SystemPatterns CanonicalFile = "systemPatterns.md"
	TechContext    CanonicalFile = "techContext.md"
	ActiveContext  CanonicalFile = "activeContext.md"
	Progress       CanonicalFile = "progress.md"
)

// AllFiles returns the canonical set in reading order. Callers get a
// fresh slice they can reorder freely.
func AllFiles() []CanonicalFile {
	return []CanonicalFile{Brief, ProductContext, SystemPatterns, TechContext, ActiveContext, Progress}
}

// Title returns the human heading for a canonical file.
func (f CanonicalFile) Title() string {
	switch f {
	case Brief:
		return "Project Brief"
	case ProductContext:
		return "Product Context"
	case SystemPatterns:
		return "System Patterns"
	case TechContext:
		return "Tech Context"
	case ActiveContext:
		return "Active Context"
	case Progress:
		return "Progress"
	}
	return string(f)
}

// fileAliases maps cleaned-up spellings to canonical files. Keys are
// lowercase with hyphens, underscores, and the .md suffix stripped.
var fileAliases = map[string]CanonicalFile{
	"projectbrief":   Brief,
	"brief":          Brief,
	"overview":       Brief,
	"productcontext": ProductContext,
	"product":        ProductContext,
	"ux":             ProductContext,
	"systempatterns": SystemPatterns,
	"patterns":       SystemPatterns,
	"architecture":   SystemPatterns,
	"techcontext":    TechContext,
	"tech":           TechContext,
	"technical":      TechContext,
	"activecontext":  ActiveContext,
	"active":         ActiveContext,
	"context":        ActiveContext,
	"notes":          ActiveContext,
	"progress":       Progress,
	"status":         Progress,
}

// ParseCanonicalFile resolves a filename or alias to a canonical file.
// ok is false when the name means nothing to the bank; that is not an
// error, it just sends the request through classification instead.
func ParseCanonicalFile(name string) (CanonicalFile, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.TrimSuffix(key, ".md")
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	f, ok := fileAliases[key]
	return f, ok
}

// IsCanonicalFilename reports whether name is exactly one of the six
// on-disk filenames, ignoring case.
func IsCanonicalFilename(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, f := range AllFiles() {
		if lower == strings.ToLower(string(f)) {
			return true
		}
	}
	return false
}
