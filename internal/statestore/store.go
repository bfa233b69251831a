package statestore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthurnw/workmux/internal/atomicfile"
)

const (
	agentsDirName     = "agents"
	settingsFileName  = "settings.json"
	containersDirName = "containers"
)

// Store is the filesystem-backed catalog of AgentState records, rooted at
// $XDG_STATE_HOME/workmux (or ~/.local/state/workmux). There is no
// in-memory cache: every read goes to disk, and every write goes through
// atomicfile so cross-process readers never see a torn write.
type Store struct {
	root string
}

// StateRoot resolves the workmux state root directory without creating it.
func StateRoot() (string, error) {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "workmux"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".local", "state", "workmux"), nil
}

// New constructs a Store rooted at the resolved state root, ensuring the
// agents/ directory exists.
func New() (*Store, error) {
	root, err := StateRoot()
	if err != nil {
		return nil, err
	}
	return NewAt(root)
}

// NewAt constructs a Store rooted at an explicit directory (used by New
// and by tests).
func NewAt(root string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, agentsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("creating agents directory: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the resolved state root directory.
func (s *Store) Root() string { return s.root }

func (s *Store) agentPath(key PaneKey) string {
	return filepath.Join(s.root, agentsDirName, key.Filename())
}

// Upsert writes state to disk atomically, keyed by its PaneKey.
func (s *Store) Upsert(state AgentState) error {
	return atomicfile.WriteJSON(s.agentPath(state.PaneKey), state)
}

// Get reads a single record. Corrupted JSON is self-healed: the bad file is
// logged and deleted, and (nil, false) is returned rather than an error —
// callers must never see a parse failure as a command failure.
func (s *Store) Get(key PaneKey) (*AgentState, bool) {
	path := s.agentPath(key)
	data, err := os.ReadFile(path) //nolint:gosec // G304: path built from a parsed PaneKey
	if err != nil {
		return nil, false
	}

	var state AgentState
	if err := json.Unmarshal(data, &state); err != nil {
		slog.Warn("statestore: corrupted agent record, deleting", "path", path, "error", err)
		_ = os.Remove(path)
		return nil, false
	}
	return &state, true
}

// ListAll scans agents/ for "*.json" records (stale ".tmp" files from a
// crashed writer are ignored), applying the corrupted-file policy to each.
func (s *Store) ListAll() ([]AgentState, error) {
	dir := filepath.Join(s.root, agentsDirName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading agents directory: %w", err)
	}

	var states []AgentState
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue // whitelists ".json"; ignores ".tmp" and anything else
		}

		key, err := ParsePaneKeyFilename(name)
		if err != nil {
			// Not a record we understand; leave it alone rather than guess.
			slog.Warn("statestore: skipping unparseable agent filename", "name", name, "error", err)
			continue
		}

		state, ok := s.Get(key)
		if !ok {
			continue // Get already self-healed (deleted) a corrupted file
		}
		states = append(states, *state)
	}
	return states, nil
}

// Delete removes a record. A missing file is treated as success.
func (s *Store) Delete(key PaneKey) error {
	if err := os.Remove(s.agentPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting agent record %s: %w", key.Filename(), err)
	}
	return nil
}

func (s *Store) settingsPath() string {
	return filepath.Join(s.root, settingsFileName)
}

// LoadSettings reads GlobalSettings, returning defaults on missing or
// corrupt files (self-heal policy, never propagated as an error).
func (s *Store) LoadSettings() GlobalSettings {
	var settings GlobalSettings
	if err := atomicfile.ReadJSON(s.settingsPath(), &settings); err != nil {
		return DefaultGlobalSettings()
	}
	return settings
}

// SaveSettings writes GlobalSettings atomically.
func (s *Store) SaveSettings(settings GlobalSettings) error {
	if settings.PreviewSize != nil && !ValidPreviewSize(*settings.PreviewSize) {
		return fmt.Errorf("preview_size %d out of range [10,90]", *settings.PreviewSize)
	}
	return atomicfile.WriteJSON(s.settingsPath(), settings)
}
