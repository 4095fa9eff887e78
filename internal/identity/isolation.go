package identity

import (
	"regexp"
	"strings"
)

// IsolationReport describes how cleanly a project name separates from
// the names already in the registry. Computed on demand, never stored.
type IsolationReport struct {
	ProjectName      string   `json:"projectName"`
	ConflictingNames []string `json:"conflictingNames"`
	IsolationScore   int      `json:"isolationScore"`
	IsValid          bool     `json:"isValid"`
}

const (
	// isolationPenalty is deducted from a perfect score per conflict.
	isolationPenalty = 20
	// isolationValidFloor is the lowest score still considered safe.
	isolationValidFloor = 80
)

// versionSuffixRe strips trailing version markers like -v2 or -3 so
// sibling versions of the same project are seen as conflicting.
var versionSuffixRe = regexp.MustCompile(`-(?:v)?\d+$`)

// CheckIsolation reports existing names that could shadow the given
// one: case-insensitive containment in either direction, or the same
// base once trailing version suffixes are stripped. The report is
// advisory. Callers surface conflicts as warnings and proceed.
func CheckIsolation(name string, existing []string) IsolationReport {
	candidate := strings.ToLower(strings.TrimSpace(name))
	candidateBase := versionSuffixRe.ReplaceAllString(candidate, "")

	var conflicts []string
	for _, other := range existing {
		o := strings.ToLower(strings.TrimSpace(other))
		if o == "" || o == candidate {
			continue
		}
		switch {
		case strings.Contains(o, candidate) || strings.Contains(candidate, o):
			conflicts = append(conflicts, other)
		case versionSuffixRe.ReplaceAllString(o, "") == candidateBase:
			conflicts = append(conflicts, other)
		}
	}

	score := 100 - isolationPenalty*len(conflicts)
	if score < 0 {
		score = 0
	}
	return IsolationReport{
		ProjectName:      name,
		ConflictingNames: conflicts,
		IsolationScore:   score,
		IsValid:          score >= isolationValidFloor,
	}
}
