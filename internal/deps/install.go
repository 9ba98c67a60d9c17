// Package deps installs project dependencies under a time-bounded retry,
// picking the install tool from the manifest found in the project directory.
package deps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/CodexForgeBR/setup-tools/internal/logging"
	"github.com/CodexForgeBR/setup-tools/internal/runner"
)

// Manifest describes a detected dependency manifest and the install
// command it implies.
type Manifest struct {
	File string
	Tool string
	Args []string
}

// detection order matters: lockfiles pin the package manager before the
// generic package.json fallback.
var manifests = []struct {
	marker string
	build  func() Manifest
}{
	{"pnpm-lock.yaml", func() Manifest { return Manifest{File: "pnpm-lock.yaml", Tool: "pnpm", Args: []string{"install"}} }},
	{"yarn.lock", func() Manifest { return Manifest{File: "yarn.lock", Tool: "yarn", Args: []string{"install"}} }},
	{"package.json", func() Manifest { return Manifest{File: "package.json", Tool: "npm", Args: []string{"install"}} }},
	{"go.mod", func() Manifest { return Manifest{File: "go.mod", Tool: "go", Args: []string{"mod", "download"}} }},
	{"requirements.txt", func() Manifest {
		return Manifest{File: "requirements.txt", Tool: "pip", Args: []string{"install", "-r", "requirements.txt"}}
	}},
}

// Detect finds the dependency manifest in dir, if any.
func Detect(dir string) (Manifest, bool) {
	for _, m := range manifests {
		if info, err := os.Stat(filepath.Join(dir, m.marker)); err == nil && !info.IsDir() {
			return m.build(), true
		}
	}
	return Manifest{}, false
}

// SafeInstall runs the install command implied by dir's manifest under the
// given policy. Each attempt is bounded by the policy's timeout, so a hung
// registry cannot stall the bootstrap forever. It fails fast, without
// retrying, when dir has no recognizable manifest.
func SafeInstall(ctx context.Context, dir string, p runner.Policy) (runner.Result, error) {
	if dir == "" {
		dir = "."
	}

	m, ok := Detect(dir)
	if !ok {
		return runner.Result{}, fmt.Errorf("no dependency manifest found in %s", dir)
	}

	logging.Info(fmt.Sprintf("installing dependencies via %s (found %s)", m.Tool, m.File))
	p.OnAttempt = runner.AttemptLogger("dependency install")

	cmd := runner.Command{
		Program: m.Tool,
		Args:    m.Args,
		Dir:     dir,
	}
	return runner.Run(ctx, p, cmd)
}
