//go:build windows

package cmd

import "os/exec"

// exitSignal is always empty on Windows: there is no POSIX signal concept
// for exec.ExitError to report.
func exitSignal(exitErr *exec.ExitError) string {
	return ""
}
