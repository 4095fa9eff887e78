package identity

import (
	"context"
	"testing"
)

// stubRegistry is a fixed project list.
type stubRegistry []string

func (s stubRegistry) ListProjects(context.Context) ([]string, error) {
	return []string(s), nil
}

// stubProbe returns the same signal every time.
func stubProbe(s Signal) Probe {
	return func(context.Context, string) *Signal { cp := s; return &cp }
}

func silentProbe(context.Context, string) *Signal { return nil }

func TestBestSignal_PicksHighestConfidenceRegardlessOfOrder(t *testing.T) {
	a := Signal{Source: SourceVCS, Name: "winner", Confidence: 95}
	b := Signal{Source: SourceManifest, Name: "mid", Confidence: 70}
	c := Signal{Source: SourceMarker, Name: "low", Confidence: 60}

	orders := [][]Signal{
		{a, b, c}, {a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a},
	}
	for i, signals := range orders {
		got := bestSignal(signals)
		if got == nil || got.Name != "winner" {
			t.Errorf("order %d: best = %+v, want the 95-confidence candidate", i, got)
		}
	}
}

func TestBestSignal_TieBreaksBySourcePriority(t *testing.T) {
	cases := []struct {
		name    string
		signals []Signal
		want    Source
	}{
		{
			"structure beats marker",
			[]Signal{
				{Source: SourceMarker, Name: "m", Confidence: 70},
				{Source: SourceStructure, Name: "s", Confidence: 70},
			},
			SourceStructure,
		},
		{
			"manifest beats activity",
			[]Signal{
				{Source: SourceActivity, Name: "a", Confidence: 75},
				{Source: SourceManifest, Name: "m", Confidence: 75},
			},
			SourceManifest,
		},
		{
			"vcs beats everything",
			[]Signal{
				{Source: SourceManifest, Name: "m", Confidence: 95},
				{Source: SourceVCS, Name: "v", Confidence: 95},
			},
			SourceVCS,
		},
	}

	for _, tc := range cases {
		got := bestSignal(tc.signals)
		if got == nil || got.Source != tc.want {
			t.Errorf("%s: best source = %v, want %s", tc.name, got, tc.want)
		}
	}
}

func TestBestSignal_Empty(t *testing.T) {
	if got := bestSignal(nil); got != nil {
		t.Errorf("bestSignal(nil) = %+v, want nil", got)
	}
}

func TestResolver_AdoptsStrongManifestSignal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module github.com/acme/rocket\n")

	res := NewResolver(ResolverConfig{}).Resolve(context.Background(), dir)
	if res.Name != "rocket" {
		t.Errorf("name = %q, want %q", res.Name, "rocket")
	}
	if res.Method != SourceManifest {
		t.Errorf("method = %s, want manifest", res.Method)
	}
	if res.Confidence < minTrustedConfidence {
		t.Errorf("confidence = %d, want >= %d", res.Confidence, minTrustedConfidence)
	}
}

func TestResolver_WeakEvidenceFallsToSmartDefault(t *testing.T) {
	r := NewResolver(ResolverConfig{})
	r.probes = []Probe{
		stubProbe(Signal{Source: SourceStructure, Name: "My Cool App!!", Confidence: confidenceStructure}),
		stubProbe(Signal{Source: SourceMarker, Name: "My Cool App!!", Confidence: confidenceMarker}),
	}

	res := r.Resolve(context.Background(), "/home/u/My Cool App!!")
	if res.Name != "my-cool-app" {
		t.Errorf("name = %q, want %q", res.Name, "my-cool-app")
	}
	if res.Method != SourceSmartDefault {
		t.Errorf("method = %s, want smart-default", res.Method)
	}
	if res.Confidence != confidenceSmartDefault {
		t.Errorf("confidence = %d, want %d", res.Confidence, confidenceSmartDefault)
	}
	if len(res.Signals) != 2 {
		t.Errorf("weak signals should still be reported, got %d", len(res.Signals))
	}
}

func TestResolver_UnusableWinnerFallsThrough(t *testing.T) {
	r := NewResolver(ResolverConfig{})
	r.probes = []Probe{
		stubProbe(Signal{Source: SourceVCS, Name: "!!!", Confidence: 95}),
	}

	res := r.Resolve(context.Background(), "/home/u/fallback-dir")
	if res.Name != "fallback-dir" {
		t.Errorf("name = %q, want the directory fallback", res.Name)
	}
	if res.Method != SourceSmartDefault {
		t.Errorf("method = %s, want smart-default", res.Method)
	}
}

func TestResolver_NeverReturnsEmptyName(t *testing.T) {
	dirs := []string{t.TempDir(), "/", ".", "", "/nonexistent/deeply/!!!"}
	r := NewResolver(ResolverConfig{})

	for _, dir := range dirs {
		res := r.Resolve(context.Background(), dir)
		if res.Name == "" {
			t.Errorf("Resolve(%q) returned an empty name", dir)
		}
		if res.Confidence <= 0 {
			t.Errorf("Resolve(%q) confidence = %d", dir, res.Confidence)
		}
	}
}

func TestResolver_AutoSelectSingleProject(t *testing.T) {
	r := NewResolver(ResolverConfig{
		Registry:                  stubRegistry{"lone-project"},
		AutoSelectOnLowConfidence: true,
	})
	r.probes = []Probe{silentProbe}

	res := r.Resolve(context.Background(), "/home/u/scratch")
	if res.Name != "lone-project" {
		t.Errorf("name = %q, want the registered project", res.Name)
	}
	if res.Method != SourceAutoSelect {
		t.Errorf("method = %s, want auto-select", res.Method)
	}
	if res.Confidence != confidenceAutoSelect {
		t.Errorf("confidence = %d, want %d", res.Confidence, confidenceAutoSelect)
	}
}

func TestResolver_AutoSelectOffByDefault(t *testing.T) {
	r := NewResolver(ResolverConfig{Registry: stubRegistry{"lone-project"}})
	r.probes = []Probe{silentProbe}

	res := r.Resolve(context.Background(), "/home/u/scratch")
	if res.Name == "lone-project" {
		t.Error("auto-select must be opt-in")
	}
	if res.Method != SourceSmartDefault {
		t.Errorf("method = %s, want smart-default", res.Method)
	}
}

func TestResolver_AutoSelectNeedsExactlyOne(t *testing.T) {
	r := NewResolver(ResolverConfig{
		Registry:                  stubRegistry{"one", "two"},
		AutoSelectOnLowConfidence: true,
	})
	r.probes = []Probe{silentProbe}

	res := r.Resolve(context.Background(), "/home/u/scratch")
	if res.Method == SourceAutoSelect {
		t.Error("auto-select with two registered projects is never safe")
	}
}

func TestResolver_StrongSignalSkipsAutoSelect(t *testing.T) {
	r := NewResolver(ResolverConfig{
		Registry:                  stubRegistry{"lone-project"},
		AutoSelectOnLowConfidence: true,
	})
	r.probes = []Probe{
		stubProbe(Signal{Source: SourceVCS, Name: "Detected", Confidence: 95}),
	}

	res := r.Resolve(context.Background(), "/home/u/repo")
	if res.Name != "detected" {
		t.Errorf("name = %q, want the detected project", res.Name)
	}
}

func TestSmartDefault_GenericDirNameGetsGeneratedName(t *testing.T) {
	r := NewResolver(ResolverConfig{})
	res := r.smartDefault("/home/alice/src", nil)

	if res.Name == "src" {
		t.Error("generic directory names should not become project names")
	}
	if res.Name == "" {
		t.Error("smart default must always produce a name")
	}
	if res.Method != SourceSmartDefault || res.Confidence != confidenceSmartDefault {
		t.Errorf("got method=%s confidence=%d", res.Method, res.Confidence)
	}
}

func TestCurrentUser_IsSlugSafe(t *testing.T) {
	u := currentUser()
	if u == "" {
		t.Fatal("currentUser must never be empty")
	}
	if normalized, err := Normalize(u); err != nil || normalized != u {
		t.Errorf("currentUser() = %q is not canonical", u)
	}
}
