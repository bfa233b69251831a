//go:build !windows

// Package procwatch probes process liveness by signal, independent of
// whatever the terminal multiplexer reports. It backs the extra liveness
// check reconciliation and orphan drain use before trusting a multiplexer
// snapshot that claims a pane's shell process is gone.
package procwatch

import (
	"golang.org/x/sys/unix"
)

// Alive reports whether pid refers to a live process, by sending signal 0
// (which performs error checking without actually sending a signal).
// A pid <= 0 is never considered alive.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil
}
