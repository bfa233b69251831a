//go:build windows

package procdetach

import (
	"os"
	"os/exec"
)

// Spawn starts a detached child with no stdio. Windows has no setsid
// equivalent reachable from os/exec alone, so this is a degraded mode:
// capture remains best-effort regardless, per the package's own contract.
func Spawn(args []string) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}

	cmd := exec.Command(exe, args...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	return cmd.Start()
}
