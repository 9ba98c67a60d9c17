// Package gitops provides retried git operations for repository bootstrap:
// clone-or-fetch, pull, and remote reachability probes.
//
// Requires the git CLI to be installed. Every operation takes a structured
// argument vector through the runner; no command line is ever re-parsed.
package gitops

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/CodexForgeBR/setup-tools/internal/logging"
	"github.com/CodexForgeBR/setup-tools/internal/runner"
)

// IsRepository reports whether dir contains a git repository.
func IsRepository(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil && info.IsDir()
}

// SafeClone clones url into dir under the given retry policy. When dir
// already holds a repository, the clone degrades to a fetch: an existing
// checkout is the success path, not an error.
func SafeClone(ctx context.Context, url, dir string, p runner.Policy) (runner.Result, error) {
	if url == "" {
		return runner.Result{}, fmt.Errorf("repository URL cannot be empty")
	}
	if dir == "" {
		dir = repoDirFromURL(url)
	}

	var cmd runner.Command
	if IsRepository(dir) {
		logging.Info(fmt.Sprintf("repository already present in %s, fetching instead of cloning", dir))
		cmd = runner.Command{
			Program: "git",
			Args:    []string{"-C", dir, "fetch", "--all", "--prune"},
		}
		p.OnAttempt = runner.AttemptLogger("git fetch")
	} else {
		logging.Info(fmt.Sprintf("cloning %s into %s", url, dir))
		cmd = runner.Command{
			Program: "git",
			Args:    []string{"clone", url, dir},
		}
		p.OnAttempt = runner.AttemptLogger("git clone")
	}

	return runner.Run(ctx, p, cmd)
}

// SafePull pulls the given branch in dir under the retry policy. It fails
// fast, without retrying, when dir is not a repository. An empty branch is
// resolved to the current one.
func SafePull(ctx context.Context, dir, branch string, p runner.Policy) (runner.Result, error) {
	if dir == "" {
		dir = "."
	}
	if !IsRepository(dir) {
		return runner.Result{}, fmt.Errorf("%s is not a git repository", dir)
	}

	if branch == "" {
		resolved, err := CurrentBranch(ctx, dir)
		if err != nil {
			return runner.Result{}, fmt.Errorf("resolve current branch: %w", err)
		}
		branch = resolved
	}

	logging.Info(fmt.Sprintf("pulling %s in %s", branch, dir))
	p.OnAttempt = runner.AttemptLogger("git pull")

	cmd := runner.Command{
		Program: "git",
		Args:    []string{"-C", dir, "pull", "origin", branch},
	}
	return runner.Run(ctx, p, cmd)
}

// CurrentBranch returns the checked-out branch name in dir.
func CurrentBranch(ctx context.Context, dir string) (string, error) {
	var out bytes.Buffer
	cmd := runner.Command{
		Program: "git",
		Args:    []string{"-C", dir, "rev-parse", "--abbrev-ref", "HEAD"},
		Stdout:  &out,
		Stderr:  io.Discard,
	}

	outcome, err := runner.Execute(ctx, cmd)
	if err != nil {
		return "", err
	}
	if outcome.ExitStatus != 0 {
		return "", fmt.Errorf("git rev-parse exited with status %d", outcome.ExitStatus)
	}

	branch := strings.TrimSpace(out.String())
	if branch == "" {
		return "", fmt.Errorf("could not determine current branch in %s", dir)
	}
	return branch, nil
}

// repoDirFromURL derives a target directory name from a repository URL,
// mirroring git's own default.
func repoDirFromURL(url string) string {
	name := strings.TrimSuffix(filepath.Base(strings.TrimRight(url, "/")), ".git")
	if name == "" || name == "." {
		return "repo"
	}
	return name
}
