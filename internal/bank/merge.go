package bank

import (
	"strings"
	"time"
)

// timeNow is a package-level variable for testability.
// Tests can replace this to control time in assertions.
var timeNow = time.Now

// MergeStrategy is how new content combines with a destination file.
type MergeStrategy string

const (
	MergeReplace    MergeStrategy = "replace"
	MergeAppend     MergeStrategy = "append"
	MergeStructural MergeStrategy = "structuralMerge"
)

// validStrategies guards caller-supplied strategy overrides.
var validStrategies = map[MergeStrategy]bool{
	MergeReplace:    true,
	MergeAppend:     true,
	MergeStructural: true,
}

// ParseMergeStrategy resolves a caller-supplied strategy name. ok is
// false for anything outside the three known strategies.
func ParseMergeStrategy(name string) (MergeStrategy, bool) {
	s := MergeStrategy(strings.TrimSpace(name))
	return s, validStrategies[s]
}

// similarityThreshold is the Jaccard score below which two texts are
// judged unrelated. Structurally merging unrelated text produces
// garbage, so below this line merges degrade to a marked append.
const similarityThreshold = 0.3

// TokenSimilarity is the Jaccard similarity of the whitespace token
// sets of a and b, in [0,1]. Case-insensitive. Two empty texts count
// as identical.
func TokenSimilarity(a, b string) float64 {
	as := tokenSet(a)
	bs := tokenSet(b)
	if len(as) == 0 && len(bs) == 0 {
		return 1
	}
	if len(as) == 0 || len(bs) == 0 {
		return 0
	}

	intersection := 0
	for token := range as {
		if bs[token] {
			intersection++
		}
	}
	union := len(as) + len(bs) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	tokens := strings.Fields(strings.ToLower(s))
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// ChooseStrategy picks the merge strategy for a non-empty destination:
// structural when the texts are related enough for section matching to
// mean something, otherwise a marked append. The similarity score is
// returned for decision reporting.
func ChooseStrategy(existing, incoming string) (MergeStrategy, float64) {
	similarity := TokenSimilarity(existing, incoming)
	if similarity < similarityThreshold {
		return MergeAppend, similarity
	}
	return MergeStructural, similarity
}

// Merge combines incoming content into existing content using the
// given strategy. It is total: unknown strategies behave as append,
// and merging into emptiness is a replace regardless of strategy.
func Merge(existing, incoming string, strategy MergeStrategy) string {
	if strings.TrimSpace(existing) == "" {
		return incoming
	}
	switch strategy {
	case MergeReplace:
		return incoming
	case MergeStructural:
		return mergeStructural(existing, incoming)
	default:
		return mergeAppend(existing, incoming)
	}
}

// mergeAppend joins the two texts with a dated Additional Content
// heading, so appended-but-unrelated material stays visibly separate
// and later structural merges can still address it.
func mergeAppend(existing, incoming string) string {
	stamp := timeNow().UTC().Format("2006-01-02")
	return strings.TrimRight(existing, "\n") +
		"\n\n## Additional Content (" + stamp + ")\n\n" +
		strings.TrimSpace(incoming) + "\n"
}

// mergeStructural merges by named section: existing sections keep
// their order, incoming sections replace same-named ones, and sections
// only the incoming text has are appended in their own order. Content
// never silently disappears; an existing section survives unless the
// incoming text explicitly rewrites it.
func mergeStructural(existing, incoming string) string {
	current := splitSections(existing)
	updates := splitSections(incoming)

	replacement := make(map[string]int, len(updates))
	for i, s := range updates {
		if _, dup := replacement[s.key]; !dup {
			replacement[s.key] = i
		}
	}

	used := make(map[int]bool, len(updates))
	merged := make([]section, 0, len(current)+len(updates))
	for _, s := range current {
		if i, ok := replacement[s.key]; ok && !used[i] {
			merged = append(merged, updates[i])
			used[i] = true
			continue
		}
		merged = append(merged, s)
	}
	for i, s := range updates {
		if !used[i] {
			merged = append(merged, s)
		}
	}

	return renderSections(merged)
}
