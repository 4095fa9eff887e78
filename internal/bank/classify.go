package bank

import "strings"

// Category buckets incoming text by subject matter.
type Category string

const (
	CategoryProgress     Category = "progress"
	CategoryTechnical    Category = "technical"
	CategoryArchitecture Category = "architecture"
	CategoryProduct      Category = "product"
	CategoryBrief        Category = "brief"
	CategoryGeneral      Category = "general"
)

// Classification is what the classifier says about a piece of text.
type Classification struct {
	Category Category `json:"category"`
	// Keywords lists every vocabulary hit across all rules, in match
	// order, deduplicated.
	Keywords []string `json:"keywords,omitempty"`
	// IsAnalysis marks explicitly analytical text: structural merging
	// is preferred over blind appends for it.
	IsAnalysis bool `json:"isAnalysis"`
	// Weight is the winning rule's weight; zero for the general bucket.
	Weight int `json:"-"`
}

// classifierRule ties a category to the vocabulary that claims it.
type classifierRule struct {
	category Category
	weight   int
	keywords []string
}

// classifierRules is evaluated in order; the first rule with any
// boundary match wins. The order is deliberate, most specific first:
// status language is unmistakable, while generic project-overview
// words overlap lexically with almost everything, so the brief rule
// must come last or it claims unrelated content.
var classifierRules = []classifierRule{
	{CategoryProgress, 90, []string{
		"progress", "status", "done", "completed", "finished", "milestone",
		"blocked", "blocker", "remaining", "todo", "backlog", "sprint",
		"shipped", "pending", "in-flight", "next-steps",
	}},
	{CategoryTechnical, 85, []string{
		"technology", "framework", "library", "dependency", "build",
		"compile", "install", "setup", "tooling", "version", "runtime",
		"typescript", "javascript", "python", "golang", "rust", "react",
		"webpack", "vite", "docker", "kubernetes", "database", "sql",
		"redis", "api", "sdk", "cli", "lint", "deploy", "ci", "testing",
	}},
	{CategoryArchitecture, 85, []string{
		"architecture", "pattern", "design", "structure", "component",
		"module", "layer", "boundary", "interface", "coupling",
		"pipeline", "dataflow", "schema", "topology", "decision",
	}},
	{CategoryProduct, 80, []string{
		"user", "customer", "persona", "product", "feature",
		"requirement", "experience", "ux", "ui", "journey", "workflow",
		"usability", "accessibility", "onboarding",
	}},
	{CategoryBrief, 75, []string{
		"project", "overview", "goal", "scope", "purpose", "vision",
		"mission", "objective", "summary", "brief", "charter",
	}},
}

// Rules returns a copy of the classification vocabulary, category by
// category in evaluation order, for display and diagnostics.
func Rules() map[Category][]string {
	out := make(map[Category][]string, len(classifierRules))
	for _, rule := range classifierRules {
		out[rule.category] = append([]string(nil), rule.keywords...)
	}
	return out
}

// Classify buckets text into a category using boundary-aware keyword
// matching. Unclassifiable text lands in the general bucket, never an
// error.
func Classify(content string) Classification {
	text := strings.ToLower(content)

	result := Classification{Category: CategoryGeneral, IsAnalysis: isAnalytical(content)}
	seen := make(map[string]bool)
	for _, rule := range classifierRules {
		hit := false
		for _, kw := range rule.keywords {
			if !matchesBoundary(text, kw) {
				continue
			}
			hit = true
			if !seen[kw] {
				seen[kw] = true
				result.Keywords = append(result.Keywords, kw)
			}
		}
		if hit && result.Category == CategoryGeneral {
			result.Category = rule.category
			result.Weight = rule.weight
		}
	}
	return result
}

// analysisMarkers flag text that presents itself as analysis.
var analysisMarkers = []string{
	"analysis", "assessment", "evaluation", "review", "comparison",
	"findings", "tradeoff", "conclusion", "retrospective",
}

// analysisMarkerWindow is how far into the text a marker still counts
// as framing rather than a passing mention.
const analysisMarkerWindow = 240

// isAnalytical reports whether text is explicitly analytical: either
// it carries real markdown structure (two or more headings) or it
// frames itself as analysis near the start.
func isAnalytical(content string) bool {
	headings := 0
	for _, line := range strings.Split(content, "\n") {
		if isHeadingLine(line) {
			headings++
			if headings >= 2 {
				return true
			}
		}
	}

	head := strings.ToLower(content)
	if len(head) > analysisMarkerWindow {
		head = head[:analysisMarkerWindow]
	}
	for _, marker := range analysisMarkers {
		if matchesBoundary(head, marker) {
			return true
		}
	}
	return false
}

// boundarySuffixes are word endings tolerated after a keyword. "test"
// should match "tests" and "testing" without also matching "latest".
var boundarySuffixes = []string{"es", "ed", "ing", "s"}

// matchesBoundary reports whether kw occurs in text as a whole word,
// optionally followed by a common suffix. Both arguments must already
// be lowercase. Plain substring matching is not good enough here:
// "api" must not fire inside "rapid".
func matchesBoundary(text, kw string) bool {
	if kw == "" {
		return false
	}
	for start := 0; ; {
		i := strings.Index(text[start:], kw)
		if i < 0 {
			return false
		}
		i += start
		if (i == 0 || !isWordByte(text[i-1])) && boundaryAfter(text[i+len(kw):]) {
			return true
		}
		start = i + 1
		if start >= len(text) {
			return false
		}
	}
}

// boundaryAfter reports whether rest begins at a word boundary,
// tolerating one suffix from boundarySuffixes.
func boundaryAfter(rest string) bool {
	if rest == "" || !isWordByte(rest[0]) {
		return true
	}
	for _, suffix := range boundarySuffixes {
		if tail, found := strings.CutPrefix(rest, suffix); found {
			if tail == "" || !isWordByte(tail[0]) {
				return true
			}
		}
	}
	return false
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}
