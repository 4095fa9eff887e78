package bank

import (
	"strings"
	"testing"
)

func TestComputeHealth_EmptyBank(t *testing.T) {
	report := ComputeHealth(nil)
	if report.OverallScore != 0 {
		t.Errorf("empty bank scored %d, want 0", report.OverallScore)
	}
	if len(report.Missing) != 6 {
		t.Errorf("missing = %v, want all six", report.Missing)
	}
	if len(report.Components) != 6 {
		t.Errorf("components = %d, want 6", len(report.Components))
	}
}

func TestComputeHealth_FullStructuredBank(t *testing.T) {
	files := make(map[CanonicalFile]string, 6)
	for _, f := range AllFiles() {
		files[f] = StarterContent(f, "demo") + strings.Repeat("substantive detail. ", 10)
	}
	report := ComputeHealth(files)
	if report.OverallScore != scoreStructured {
		t.Errorf("fully structured bank scored %d, want %d", report.OverallScore, scoreStructured)
	}
	if len(report.Missing) != 0 {
		t.Errorf("missing = %v, want none", report.Missing)
	}
}

func TestComputeHealth_MixedBank(t *testing.T) {
	files := map[CanonicalFile]string{
		Brief:         "# Brief\n\n" + strings.Repeat("real prose about the project. ", 8),
		ActiveContext: "tiny",
		Progress:      "   ",
	}
	report := ComputeHealth(files)

	byFile := make(map[CanonicalFile]HealthComponent, len(report.Components))
	for _, c := range report.Components {
		byFile[c.File] = c
	}
	if got := byFile[Brief].Score; got != scoreStructured {
		t.Errorf("structured brief scored %d, want %d", got, scoreStructured)
	}
	if got := byFile[ActiveContext].Score; got != scoreStub {
		t.Errorf("stub content scored %d, want %d", got, scoreStub)
	}
	if got := byFile[Progress].Score; got != scoreEmpty {
		t.Errorf("blank content scored %d, want %d", got, scoreEmpty)
	}
	if report.OverallScore <= 0 || report.OverallScore >= 100 {
		t.Errorf("mixed bank scored %d, want a partial score", report.OverallScore)
	}
	if len(report.Missing) != 3 {
		t.Errorf("missing = %v, want the three absent files", report.Missing)
	}
}

func TestScoreContent_ProseWithoutHeadings(t *testing.T) {
	prose := strings.Repeat("a long explanation with no markdown structure at all. ", 5)
	if got := scoreContent(prose, true); got != scoreProse {
		t.Errorf("prose scored %d, want %d", got, scoreProse)
	}
}

func TestStarterContent_SubstitutesProjectName(t *testing.T) {
	for _, f := range AllFiles() {
		content := StarterContent(f, "acme-web")
		if !strings.Contains(content, "acme-web") {
			t.Errorf("%s starter missing the project name:\n%s", f, content)
		}
		if strings.Contains(content, projectNamePlaceholder) {
			t.Errorf("%s starter left the placeholder in:\n%s", f, content)
		}
		if !strings.HasPrefix(content, "# ") {
			t.Errorf("%s starter should open with a title heading:\n%s", f, content)
		}
	}
}
