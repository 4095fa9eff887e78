package identity

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// manifestSpec describes one recognized build manifest: how to extract
// a project name from it and how much weight that extraction carries.
type manifestSpec struct {
	file       string
	confidence int
	// parse extracts a name from the manifest body. A nil parser, or a
	// parser returning "", falls back to the directory name at the same
	// confidence.
	parse func(data []byte) string
}

// manifestSpecs is checked in order at each directory level while
// walking upward. The first file present at a level wins within that
// level, and the level closest to the working directory wins overall.
var manifestSpecs = []manifestSpec{
	{"package.json", 95, parsePackageJSON},
	{"go.mod", 92, parseGoModule},
	{"Cargo.toml", 90, tomlNameParser("package")},
	{"pyproject.toml", 88, tomlNameParser("project", "tool.poetry")},
	{"pom.xml", 85, parsePomArtifact},
	{"composer.json", 82, parseComposerName},
	{"build.gradle", 78, nil},
	{"build.gradle.kts", 78, nil},
	{"Gemfile", 75, nil},
	{"mix.exs", 72, nil},
	{"CMakeLists.txt", 70, parseCMakeProject},
}

// manifestReadLimit caps how much of a manifest is read. Name fields
// live near the top of every format we recognize.
const manifestReadLimit = 256 * 1024

// manifestProbe walks upward from dir looking for a build manifest and
// proposes the name declared inside it.
func manifestProbe(_ context.Context, dir string) *Signal {
	for current := dir; ; {
		for _, spec := range manifestSpecs {
			path := filepath.Join(current, spec.file)
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}

			name := ""
			if spec.parse != nil {
				if data, err := readManifest(path); err == nil {
					name = strings.TrimSpace(spec.parse(data))
				}
			}
			evidence := []string{"manifest: " + path}
			if name != "" {
				evidence = append(evidence, "declared name: "+name)
			} else {
				name = filepath.Base(current)
			}

			return &Signal{
				Source:     SourceManifest,
				Name:       name,
				Confidence: spec.confidence,
				Evidence:   evidence,
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			return nil
		}
		current = parent
	}
}

func readManifest(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) > manifestReadLimit {
		data = data[:manifestReadLimit]
	}
	return data, nil
}

// parsePackageJSON reads the "name" field. Scoped names like
// "@acme/web" pass through whole; normalization flattens the scope.
func parsePackageJSON(data []byte) string {
	var pkg struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return ""
	}
	return pkg.Name
}

// parseComposerName reads "vendor/package" and keeps the package part.
func parseComposerName(data []byte) string {
	var pkg struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return ""
	}
	if _, after, found := strings.Cut(pkg.Name, "/"); found {
		return after
	}
	return pkg.Name
}

// parseGoModule returns the last segment of the module path.
func parseGoModule(data []byte) string {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if rest, found := strings.CutPrefix(line, "module "); found {
			modPath := strings.Trim(strings.TrimSpace(rest), `"`)
			if modPath == "" {
				return ""
			}
			if i := strings.LastIndex(modPath, "/"); i >= 0 {
				return modPath[i+1:]
			}
			return modPath
		}
	}
	return ""
}

var tomlNameRe = regexp.MustCompile(`^\s*name\s*=\s*["']([^"']+)["']`)

// tomlNameParser returns a parser that reads `name = "..."` from one
// of the given TOML tables. A full TOML parser would be overkill for a
// single key; a table-aware line scan is enough for the manifests we
// recognize.
func tomlNameParser(tables ...string) func(data []byte) string {
	want := make(map[string]bool, len(tables))
	for _, t := range tables {
		want[t] = true
	}
	return func(data []byte) string {
		inWanted := false
		for _, line := range strings.Split(string(data), "\n") {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
				table := strings.Trim(trimmed, "[]")
				inWanted = want[table]
				continue
			}
			if !inWanted {
				continue
			}
			if m := tomlNameRe.FindStringSubmatch(line); m != nil {
				return m[1]
			}
		}
		return ""
	}
}

var pomArtifactRe = regexp.MustCompile(`<artifactId>\s*([^<\s]+)\s*</artifactId>`)

// parsePomArtifact grabs the first artifactId, which in a conventional
// pom is the project's own.
func parsePomArtifact(data []byte) string {
	if m := pomArtifactRe.FindSubmatch(data); m != nil {
		return string(m[1])
	}
	return ""
}

var cmakeProjectRe = regexp.MustCompile(`(?im)^\s*project\s*\(\s*([A-Za-z0-9_.-]+)`)

func parseCMakeProject(data []byte) string {
	if m := cmakeProjectRe.FindSubmatch(data); m != nil {
		return string(m[1])
	}
	return ""
}
