package identity

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// gitTimeout bounds every git invocation. Probes must never hang a
// resolution on a slow filesystem or a misbehaving credential helper.
const gitTimeout = 5 * time.Second

// vcsProbe locates the enclosing git repository and proposes its root
// directory name. Repository metadata is the strongest ambient signal:
// a checkout root is almost always named after the project.
func vcsProbe(ctx context.Context, dir string) *Signal {
	root, err := execGit(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil || root == "" {
		return nil
	}

	evidence := []string{"git repository root: " + root}
	if branch, err := execGit(ctx, dir, "symbolic-ref", "--short", "HEAD"); err == nil && branch != "" {
		evidence = append(evidence, "branch: "+branch)
	}
	if remote, err := execGit(ctx, dir, "remote", "get-url", "origin"); err == nil && remote != "" {
		evidence = append(evidence, "origin: "+remote)
	}

	return &Signal{
		Source:     SourceVCS,
		Name:       filepath.Base(root),
		Confidence: confidenceVCS,
		Evidence:   evidence,
	}
}

// execGit runs a git subcommand in dir and returns trimmed stdout.
// Prompting is disabled and output is forced to the C locale so
// results stay parseable.
func execGit(ctx context.Context, dir string, args ...string) (string, error) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		return "", fmt.Errorf("git not found in PATH: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, gitTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, gitPath, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "LC_ALL=C")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimRight(stdout.String(), "\n\r"), nil
}
