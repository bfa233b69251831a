// Package statestore is the filesystem-backed catalog of live agents: it
// owns AgentState CRUD, reconciliation against a multiplexer snapshot, and
// orphan drain for restore. See reconcile.go for the reconciliation pass
// and markers.go for sibling marker files.
package statestore

import (
	"fmt"
	"strings"
)

// PaneKey is the composite identity of a terminal pane across backends.
// It is the on-disk primary key: the JSON file for a record is named
// "{backend}__{instance}__{pane_id}.json". The double-underscore delimiter
// exists because pane_id may itself contain single underscores (tmux pane
// ids don't, but wezterm/zellij pane ids in principle could).
type PaneKey struct {
	Backend  string `json:"backend"`
	Instance string `json:"instance"`
	PaneID   string `json:"pane_id"`
}

// Filename returns the on-disk JSON filename (including extension) for this key.
func (k PaneKey) Filename() string {
	return k.base() + ".json"
}

func (k PaneKey) base() string {
	return k.Backend + "__" + k.Instance + "__" + k.PaneID
}

// ErrMalformedPaneKeyFilename indicates a filename didn't split into the
// three expected fields.
var ErrMalformedPaneKeyFilename = fmt.Errorf("malformed pane key filename")

// ParsePaneKeyFilename parses a "{backend}__{instance}__{pane_id}.json"
// filename back into a PaneKey. Parsing is strict: the base name (with
// ".json" trimmed) must split into exactly three non-empty fields on "__".
// Anything else is rejected rather than guessed at, since a silently wrong
// parse would misfile records across panes.
func ParsePaneKeyFilename(name string) (PaneKey, error) {
	base := strings.TrimSuffix(name, ".json")
	parts := strings.Split(base, "__")
	if len(parts) != 3 {
		return PaneKey{}, fmt.Errorf("%w: %q", ErrMalformedPaneKeyFilename, name)
	}
	for _, p := range parts {
		if p == "" {
			return PaneKey{}, fmt.Errorf("%w: %q", ErrMalformedPaneKeyFilename, name)
		}
	}
	return PaneKey{Backend: parts[0], Instance: parts[1], PaneID: parts[2]}, nil
}

// Status is the lifecycle status an agent's hook last reported.
type Status string

const (
	StatusWorking Status = "working"
	StatusWaiting Status = "waiting"
	StatusDone    Status = "done"
)

// AgentState is the unit of persisted per-agent truth.
type AgentState struct {
	PaneKey   PaneKey `json:"pane_key"`
	WorkDir   string  `json:"workdir"`
	Status    *Status `json:"status,omitempty"`
	StatusTS  int64   `json:"status_ts,omitempty"`
	PaneTitle string  `json:"pane_title,omitempty"`
	// PanePID is the OS PID of the pane's shell process at capture time.
	// It is NOT the agent process's own PID — see Reconcile in
	// reconcile.go for why the shell PID is the correct liveness key.
	PanePID int `json:"pane_pid"`
	// Command is the foreground command string observed at the time of
	// the last status write.
	Command string `json:"command"`
	// UpdatedTS is the unix timestamp of the last write to this record.
	UpdatedTS int64 `json:"updated_ts"`
	// Restored is true if this record was carried forward by a restore
	// (see the restore package) rather than created by a live hook.
	Restored bool `json:"restored"`
}

// GlobalSettings is the singleton dashboard-preferences file.
type GlobalSettings struct {
	SortMode    string `json:"sort_mode,omitempty"`
	HideStale   bool   `json:"hide_stale,omitempty"`
	PreviewSize *uint8 `json:"preview_size,omitempty"`
	LastPaneID  string `json:"last_pane_id,omitempty"`
}

// DefaultGlobalSettings returns the settings used when none have been saved.
func DefaultGlobalSettings() GlobalSettings {
	return GlobalSettings{
		SortMode:  "recent",
		HideStale: false,
	}
}

// ValidPreviewSize reports whether v falls in the documented 10-90 range.
func ValidPreviewSize(v uint8) bool {
	return v >= 10 && v <= 90
}
