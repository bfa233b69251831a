// Package direnv runs "direnv allow" in a freshly opened worktree, so an
// agent pane doesn't start inside a directory direnv is still blocking on.
package direnv

import (
	"os"
	"os/exec"
	"path/filepath"
)

// AutoAllow runs "direnv allow" in dir if dir has an .envrc and direnv is
// on PATH. It is silent no-op machinery, not an error path: a missing
// binary or a missing .envrc both mean there is nothing to do.
func AutoAllow(dir string) error {
	if _, err := os.Stat(filepath.Join(dir, ".envrc")); err != nil {
		return nil
	}
	if _, err := exec.LookPath("direnv"); err != nil {
		return nil
	}
	c := exec.Command("direnv", "allow")
	c.Dir = dir
	return c.Run()
}
