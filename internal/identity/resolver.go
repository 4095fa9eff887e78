package identity

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// Registry lists the canonical names of projects that already exist.
// The resolver consults it only for the auto-select path; the isolation
// validator reads it for conflict checks. A nil registry disables both.
type Registry interface {
	ListProjects(ctx context.Context) ([]string, error)
}

// Resolution is the outcome of one identity resolution attempt. It
// always carries a usable canonical name.
type Resolution struct {
	Name       string   `json:"name"`
	Method     Source   `json:"method"`
	Confidence int      `json:"confidence"`
	Evidence   []string `json:"evidence,omitempty"`
	// Signals holds everything the probes produced, for diagnostics.
	Signals []Signal `json:"signals,omitempty"`
}

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	// Registry backs the auto-select path. May be nil.
	Registry Registry
	// AutoSelectOnLowConfidence lets weak detections adopt the single
	// registered project instead of generating a default name. Off by
	// default: auto-selecting risks merging unrelated work.
	AutoSelectOnLowConfidence bool
	// Logger receives probe diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Resolver turns ambient evidence into a canonical project name. It
// never fails: when every probe stays silent or the evidence is weak,
// it generates a smart default from the path and user identity.
type Resolver struct {
	registry   Registry
	autoSelect bool
	logger     *slog.Logger
	probes     []Probe
}

// NewResolver creates a Resolver with the default probe set.
func NewResolver(cfg ResolverConfig) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{
		registry:   cfg.Registry,
		autoSelect: cfg.AutoSelectOnLowConfidence,
		logger:     logger,
		probes:     defaultProbes(),
	}
}

// Resolve determines the canonical project name for a working
// directory. An empty dir means the process working directory.
func (r *Resolver) Resolve(ctx context.Context, dir string) Resolution {
	dir = resolveDir(dir)
	signals := r.collect(ctx, dir)

	if best := bestSignal(signals); best != nil {
		name, err := Normalize(best.Name)
		switch {
		case err != nil:
			r.logger.Debug("winning signal has unusable name",
				"source", best.Source, "raw", best.Name)
		case best.Confidence >= minTrustedConfidence:
			return Resolution{
				Name:       name,
				Method:     best.Source,
				Confidence: best.Confidence,
				Evidence:   best.Evidence,
				Signals:    signals,
			}
		default:
			r.logger.Debug("evidence below confidence bar",
				"source", best.Source, "candidate", name, "confidence", best.Confidence)
		}
	}

	if res, ok := r.tryAutoSelect(ctx, signals); ok {
		return res
	}
	return r.smartDefault(dir, signals)
}

func (r *Resolver) collect(ctx context.Context, dir string) []Signal {
	var signals []Signal
	for _, probe := range r.probes {
		if s := probe(ctx, dir); s != nil {
			signals = append(signals, *s)
		}
	}
	return signals
}

// tryAutoSelect adopts the single registered project when detection is
// weak and the flag allows it. With two or more registered projects
// there is no safe pick, so the smart default takes over.
func (r *Resolver) tryAutoSelect(ctx context.Context, signals []Signal) (Resolution, bool) {
	if !r.autoSelect || r.registry == nil {
		return Resolution{}, false
	}
	projects, err := r.registry.ListProjects(ctx)
	if err != nil {
		r.logger.Warn("listing projects for auto-select", "error", err)
		return Resolution{}, false
	}
	if len(projects) != 1 {
		return Resolution{}, false
	}
	return Resolution{
		Name:       projects[0],
		Method:     SourceAutoSelect,
		Confidence: confidenceAutoSelect,
		Evidence:   []string{"single registered project: " + projects[0]},
		Signals:    signals,
	}, true
}

// genericDirNames are directory names too generic to identify a
// project on their own.
var genericDirNames = map[string]bool{
	"src": true, "app": true, "code": true, "dev": true,
	"home": true, "tmp": true, "temp": true, "work": true,
	"works": true, "workspace": true, "workspaces": true,
	"projects": true, "repos": true, "repositories": true,
	"desktop": true, "documents": true, "downloads": true,
}

// smartDefault is the terminal fallback: the directory's own name when
// it looks meaningful, otherwise a generated name from the last two
// path segments and the current user. It cannot fail.
func (r *Resolver) smartDefault(dir string, signals []Signal) Resolution {
	res := Resolution{
		Method:     SourceSmartDefault,
		Confidence: confidenceSmartDefault,
		Signals:    signals,
	}

	base := baseName(dir)
	if name, err := Normalize(base); err == nil && len(name) > 1 && !genericDirNames[name] {
		res.Name = name
		res.Evidence = []string{"directory name: " + base}
		return res
	}

	parent := baseName(filepath.Dir(dir))
	user := currentUser()
	res.Name = mustNormalize(parent+"-"+base+"-"+user, "project-"+user)
	res.Evidence = []string{"generated from path segments and user identity"}
	return res
}

// resolveDir expands an empty or relative directory argument.
func resolveDir(dir string) string {
	if strings.TrimSpace(dir) == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
		return "."
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

func baseName(dir string) string {
	base := filepath.Base(filepath.Clean(dir))
	if base == string(filepath.Separator) || base == "." {
		return ""
	}
	return base
}

// currentUser returns a slug-safe identifier for the local user,
// falling back through the environment to a constant.
func currentUser() string {
	name := ""
	if u, err := user.Current(); err == nil {
		name = u.Username
	}
	if name == "" {
		name = os.Getenv("USER")
	}
	if name == "" {
		name = os.Getenv("USERNAME")
	}
	// Windows reports DOMAIN\user.
	if i := strings.LastIndexByte(name, '\\'); i >= 0 {
		name = name[i+1:]
	}
	return mustNormalize(name, "user")
}
