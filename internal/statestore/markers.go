package statestore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/arthurnw/workmux/internal/atomicfile"
)

// RegisterContainer creates a zero-length marker file recording that
// containerName belongs to handle, at containers/<handle>/<container_name>.
// Used by the sandbox supervisor to track which VM-backed containers were
// provisioned for which worktree handle, independent of AgentState.
func (s *Store) RegisterContainer(handle, containerName string) error {
	return atomicfile.Touch(s.containerMarkerPath(handle, containerName))
}

// UnregisterContainer removes a container marker. A missing marker is success.
func (s *Store) UnregisterContainer(handle, containerName string) error {
	path := s.containerMarkerPath(handle, containerName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing container marker %s: %w", path, err)
	}
	return nil
}

// ListContainers returns the container names registered under handle.
func (s *Store) ListContainers(handle string) ([]string, error) {
	dir := filepath.Join(s.root, containersDirName, handle)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing containers for %s: %w", handle, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (s *Store) containerMarkerPath(handle, containerName string) string {
	return filepath.Join(s.root, containersDirName, handle, containerName)
}
