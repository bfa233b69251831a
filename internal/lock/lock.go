// Package lock provides a small advisory file-lock helper for multi-step
// filesystem operations that atomic rename alone can't guard. No other
// package in this module takes the lock: run-artifact ids are kept apart
// by a random suffix, and shim files by temp-then-rename writes.
package lock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// WithLock acquires an exclusive flock on <path>.lock (creating its
// parent directory if needed), runs fn, and releases the lock
// afterward regardless of fn's outcome.
func WithLock(path string, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}

	fl := flock.New(path + ".lock")
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("acquiring lock %s: %w", path, err)
	}
	defer fl.Unlock() //nolint:errcheck

	return fn()
}

// TryWithLock is like WithLock but does not block: if the lock is already
// held, it returns ok=false without running fn.
func TryWithLock(path string, fn func() error) (ok bool, err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating lock directory: %w", err)
	}

	fl := flock.New(path + ".lock")
	locked, err := fl.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquiring lock %s: %w", path, err)
	}
	if !locked {
		return false, nil
	}
	defer fl.Unlock() //nolint:errcheck

	return true, fn()
}
