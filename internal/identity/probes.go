package identity

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// activityWindow is how fresh a directory's mtime must be for the
// activity probe to treat it as actively worked on.
const activityWindow = 24 * time.Hour

// activityProbe proposes the directory's own name when it was modified
// recently. A directory touched within the last day is very likely the
// project the caller means.
func activityProbe(_ context.Context, dir string) *Signal {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil
	}

	age := timeNow().Sub(info.ModTime())
	if age < 0 {
		age = 0
	}
	if age >= activityWindow {
		return nil
	}

	return &Signal{
		Source:     SourceActivity,
		Name:       baseName(dir),
		Confidence: confidenceActivity,
		Evidence:   []string{"directory modified " + age.Round(time.Minute).String() + " ago"},
	}
}

// projectShapeDirs are subdirectories whose presence marks a directory
// as a project root. Two or more are required; a lone src/ proves
// little.
var projectShapeDirs = []string{
	"src", "lib", "test", "tests", "docs", "doc",
	"pkg", "cmd", "internal", "app", "api", "public",
	"assets", "scripts", "config", "examples", "vendor", "node_modules",
}

// minShapeDirs is the structure probe's match threshold.
const minShapeDirs = 2

func structureProbe(_ context.Context, dir string) *Signal {
	var found []string
	for _, sub := range projectShapeDirs {
		info, err := os.Stat(filepath.Join(dir, sub))
		if err == nil && info.IsDir() {
			found = append(found, sub)
		}
	}
	if len(found) < minShapeDirs {
		return nil
	}

	return &Signal{
		Source:     SourceStructure,
		Name:       baseName(dir),
		Confidence: confidenceStructure,
		Evidence:   []string{"project layout: " + strings.Join(found, ", ")},
	}
}

// markerFilePrefixes match by prefix so README.md, README.rst and
// LICENSE-MIT all count.
var markerFilePrefixes = []string{"README", "LICENSE", "CHANGELOG", "CONTRIBUTING"}

// markerFiles match exactly.
var markerFiles = map[string]bool{
	"Makefile":           true,
	"Dockerfile":         true,
	"docker-compose.yml": true,
	".gitignore":         true,
	".editorconfig":      true,
}

// markerProbe proposes the directory's name when it contains files
// that only appear at a repository root. The weakest probe: a single
// marker is enough to fire, but the confidence stays low.
func markerProbe(_ context.Context, dir string) *Signal {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var found []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if markerFiles[name] {
			found = append(found, name)
			continue
		}
		for _, prefix := range markerFilePrefixes {
			if strings.HasPrefix(name, prefix) {
				found = append(found, name)
				break
			}
		}
	}
	if len(found) == 0 {
		return nil
	}

	return &Signal{
		Source:     SourceMarker,
		Name:       baseName(dir),
		Confidence: confidenceMarker,
		Evidence:   []string{"root markers: " + strings.Join(found, ", ")},
	}
}
