// Package identity resolves which project a caller is working on from
// ambient evidence: version control metadata, manifest files, recent
// activity, directory shape, and prior session state. Detection is
// best-effort by design. Every probe either produces a signal or stays
// silent, and the resolver always lands on a usable canonical name,
// falling back to a generated default when the evidence is weak.
package identity

import "context"

// Source identifies where a piece of identity evidence came from.
type Source string

const (
	SourceVCS       Source = "vcs"
	SourceManifest  Source = "manifest"
	SourceActivity  Source = "activity"
	SourceStructure Source = "structure"
	SourceMarker    Source = "marker"

	// SourceExplicit marks a caller-asserted project, SourceAutoSelect a
	// registry pick under the auto-select flag, and SourceSmartDefault
	// the terminal fallback. None of these come from probes.
	SourceExplicit     Source = "explicit"
	SourceAutoSelect   Source = "auto-select"
	SourceSmartDefault Source = "smart-default"
)

// Probe confidence levels. Version control metadata is the strongest
// ambient evidence; marker files the weakest. Manifest confidence is
// per-file and lives in the manifest table.
const (
	confidenceVCS          = 95
	confidenceActivity     = 75
	confidenceStructure    = 70
	confidenceMarker       = 65
	confidenceAutoSelect   = 75
	confidenceSmartDefault = 60

	// ConfidenceExplicit is assigned when a caller asserts a project
	// name directly. Explicit assertions always win.
	ConfidenceExplicit = 100
)

// minTrustedConfidence is the bar a winning signal must clear before
// the resolver will adopt its candidate name outright. Weaker evidence
// falls through to the smart default so unrelated work is never merged
// under a guessed name.
const minTrustedConfidence = 80

// sourcePriority breaks confidence ties between probes. Higher wins.
var sourcePriority = map[Source]int{
	SourceVCS:       5,
	SourceManifest:  4,
	SourceActivity:  3,
	SourceStructure: 2,
	SourceMarker:    1,
}

// Signal is one piece of evidence about project identity. Signals are
// ephemeral: produced fresh on every resolution attempt, never stored.
type Signal struct {
	Source     Source   `json:"source"`
	Name       string   `json:"name"`
	Confidence int      `json:"confidence"`
	Evidence   []string `json:"evidence,omitempty"`
}

// Probe inspects a working directory and returns a signal, or nil when
// it finds nothing. Probes never return errors: I/O failures of any
// kind degrade to "no signal" so resolution keeps going.
type Probe func(ctx context.Context, dir string) *Signal

// defaultProbes lists the collectors in source-priority order.
func defaultProbes() []Probe {
	return []Probe{
		vcsProbe,
		manifestProbe,
		activityProbe,
		structureProbe,
		markerProbe,
	}
}

// bestSignal picks the highest-confidence signal, breaking ties by
// source priority. Returns nil for an empty or all-nil slice.
func bestSignal(signals []Signal) *Signal {
	var best *Signal
	for i := range signals {
		s := &signals[i]
		if best == nil || s.Confidence > best.Confidence {
			best = s
			continue
		}
		if s.Confidence == best.Confidence && sourcePriority[s.Source] > sourcePriority[best.Source] {
			best = s
		}
	}
	return best
}
