//go:build windows

package procwatch

import "os"

// Alive reports whether pid refers to a live process. Windows has no
// signal-0 equivalent, so this degrades to an OpenProcess-backed existence
// check via os.FindProcess, which on Windows actually opens a handle.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// os.Process.Signal with syscall.Signal(0) is not supported on Windows;
	// FindProcess having succeeded is the best-effort signal available.
	return proc != nil
}
