package bank

import (
	"fmt"
	"strings"
)

// Routing confidence model. Every decision clears the floor: routing
// is total, so there is no "unroutable" outcome to report low
// confidence for.
const (
	RoutingConfidenceFloor = 75
	routingBaseConfidence  = 70
	alignmentBoost         = 15
	analysisBoost          = 10

	// explicitFileConfidence applies when the caller names a canonical
	// file directly and classification is bypassed.
	explicitFileConfidence = 95
)

// categoryTargets is the fixed routing table from classification to
// destination file.
var categoryTargets = map[Category]CanonicalFile{
	CategoryProgress:     Progress,
	CategoryTechnical:    TechContext,
	CategoryArchitecture: SystemPatterns,
	CategoryProduct:      ProductContext,
	CategoryBrief:        Brief,
	CategoryGeneral:      ActiveContext,
}

// RoutingDecision explains where a write went and why.
type RoutingDecision struct {
	TargetFile    CanonicalFile `json:"targetFile"`
	MergeStrategy MergeStrategy `json:"mergeStrategy"`
	Confidence    int           `json:"confidence"`
	Reasoning     string        `json:"reasoning"`
}

// RouteResult is the complete outcome of routing and merging one
// write.
type RouteResult struct {
	TargetFile     CanonicalFile
	MergedContent  string
	Decision       RoutingDecision
	Classification Classification
}

// route maps a candidate filename and classification onto a canonical
// file. existing is the set of files the project already has; routing
// into an initialized project never names a file that is not there.
func route(candidateFileName string, cls Classification, existing map[CanonicalFile]string) RoutingDecision {
	if f, ok := ParseCanonicalFile(candidateFileName); ok {
		return RoutingDecision{
			TargetFile: f,
			Confidence: explicitFileConfidence,
			Reasoning:  fmt.Sprintf("%q names %s directly", candidateFileName, f),
		}
	}

	target := categoryTargets[cls.Category]
	confidence := routingBaseConfidence
	var notes []string

	if cls.Category == CategoryGeneral {
		notes = append(notes, "no category keywords matched; using the general bucket")
	} else {
		notes = append(notes, fmt.Sprintf("category %s from keywords [%s]",
			cls.Category, strings.Join(cls.Keywords, " ")))
	}

	if _, ok := existing[target]; ok || len(existing) == 0 {
		confidence += alignmentBoost
		if confidence < cls.Weight {
			confidence = cls.Weight
		}
	} else {
		// Initialized project without this file: divert rather than
		// invent a destination.
		if _, ok := existing[ActiveContext]; ok {
			target = ActiveContext
		} else {
			target = firstExisting(existing)
		}
		notes = append(notes, fmt.Sprintf("mapped file missing; diverted to %s", target))
	}

	if cls.IsAnalysis {
		confidence += analysisBoost
		notes = append(notes, "analytical content")
	}
	if confidence > 100 {
		confidence = 100
	}
	if confidence < RoutingConfidenceFloor {
		confidence = RoutingConfidenceFloor
	}

	return RoutingDecision{
		TargetFile: target,
		Confidence: confidence,
		Reasoning:  strings.Join(notes, "; "),
	}
}

// firstExisting returns the first of the project's files in canonical
// reading order.
func firstExisting(existing map[CanonicalFile]string) CanonicalFile {
	for _, f := range AllFiles() {
		if _, ok := existing[f]; ok {
			return f
		}
	}
	return ActiveContext
}

// RouteAndMerge classifies content, routes it to a canonical file, and
// merges it with that file's current text. It is total: for any
// candidate name and any content it produces a destination and merged
// content, degrading the merge strategy rather than failing.
func RouteAndMerge(candidateFileName, content string, existing map[CanonicalFile]string) RouteResult {
	cls := Classify(content)
	decision := route(candidateFileName, cls, existing)
	target := decision.TargetFile

	existingContent, present := existing[target]
	switch {
	case !present || strings.TrimSpace(existingContent) == "":
		decision.MergeStrategy = MergeReplace
		if decision.Reasoning != "" {
			decision.Reasoning += "; "
		}
		decision.Reasoning += "destination empty, content taken as-is"
	default:
		strategy, similarity := ChooseStrategy(existingContent, content)
		decision.MergeStrategy = strategy
		if decision.Reasoning != "" {
			decision.Reasoning += "; "
		}
		if strategy == MergeAppend {
			decision.Reasoning += fmt.Sprintf(
				"similarity %.2f below %.2f, appending under an Additional Content section",
				similarity, similarityThreshold)
		} else {
			decision.Reasoning += fmt.Sprintf("similarity %.2f, merging by section", similarity)
		}
	}

	merged := Merge(existingContent, content, decision.MergeStrategy)
	return RouteResult{
		TargetFile:     target,
		MergedContent:  merged,
		Decision:       decision,
		Classification: cls,
	}
}
