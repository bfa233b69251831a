// Package atomicfile provides crash-safe writes via temp-file-then-rename.
//
// Every writer in workmux goes through this package so that no reader ever
// observes a torn write: the temp file lives beside its target with a
// ".tmp" suffix and is renamed into place only after its contents are
// flushed, so a crash mid-write leaves a stray ".tmp" and never a
// half-written target.
package atomicfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile writes data to path via a temp file + rename, so readers never
// observe a partial write. The temp file is created in the same directory
// as path so the rename is guaranteed atomic (same filesystem).
func WriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("writing temp file %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming %s to %s: %w", tmp, path, err)
	}

	return nil
}

// WriteJSON marshals v as indented JSON and writes it atomically.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON for %s: %w", path, err)
	}
	return WriteFile(path, data, 0o644)
}

// ReadJSON reads and unmarshals a JSON file written by WriteJSON.
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is caller-controlled, not user input
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// Touch creates a zero-length marker file, used for container and
// tmux-session registration markers that share a directory with other
// per-record files. Parent directories are created as needed.
func Touch(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("creating marker %s: %w", path, err)
	}
	return f.Close()
}
