package bank

import "strings"

// HealthComponent is one canonical file's contribution to bank health.
type HealthComponent struct {
	File        CanonicalFile `json:"file"`
	Description string        `json:"description"`
	Weight      int           `json:"weight"` // relative importance (1-10)
	Present     bool          `json:"present"`
	Score       int           `json:"score"` // 0-100 for this file
}

// HealthReport is the weighted completeness analysis of one project's
// memory bank.
type HealthReport struct {
	Components   []HealthComponent `json:"components"`
	OverallScore int               `json:"overall_score"`
	Missing      []CanonicalFile   `json:"missing,omitempty"`
}

// healthWeights encodes which files matter most to a useful bank. The
// brief anchors everything; active context and progress carry the
// day-to-day signal; the rest deepen it.
var healthWeights = map[CanonicalFile]int{
	Brief:          10,
	ActiveContext:  9,
	Progress:       8,
	TechContext:    7,
	SystemPatterns: 7,
	ProductContext: 6,
}

var healthDescriptions = map[CanonicalFile]string{
	Brief:          "What the project is and why it exists",
	ProductContext: "Who uses it and what they need",
	SystemPatterns: "How the system is shaped and why",
	TechContext:    "Stack, tooling, and constraints",
	ActiveContext:  "What is being worked on right now",
	Progress:       "What works, what is left, what is stuck",
}

// File content scoring bands.
const (
	scoreAbsent     = 0
	scoreEmpty      = 15
	scoreStub       = 45
	scoreProse      = 75
	scoreStructured = 95

	// stubLength is the size below which content is a stub rather than
	// real knowledge.
	stubLength = 120
)

// scoreContent rates one file's content by how much structure and
// substance it carries.
func scoreContent(content string, present bool) int {
	if !present {
		return scoreAbsent
	}
	trimmed := strings.TrimSpace(content)
	switch {
	case trimmed == "":
		return scoreEmpty
	case len(trimmed) < stubLength:
		return scoreStub
	}
	for _, line := range strings.Split(trimmed, "\n") {
		if isHeadingLine(line) {
			return scoreStructured
		}
	}
	return scoreProse
}

// ComputeHealth analyzes a project's files and produces the weighted
// completeness report. files maps each present canonical file to its
// content.
func ComputeHealth(files map[CanonicalFile]string) HealthReport {
	report := HealthReport{}
	for _, f := range AllFiles() {
		content, present := files[f]
		component := HealthComponent{
			File:        f,
			Description: healthDescriptions[f],
			Weight:      healthWeights[f],
			Present:     present,
			Score:       scoreContent(content, present),
		}
		report.Components = append(report.Components, component)
		if !present {
			report.Missing = append(report.Missing, f)
		}
	}
	report.OverallScore = weightedScore(report.Components)
	return report
}

// weightedScore folds component scores into one 0-100 number.
func weightedScore(components []HealthComponent) int {
	totalWeight := 0
	weightedSum := 0
	for _, c := range components {
		totalWeight += c.Weight
		weightedSum += c.Score * c.Weight
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}
