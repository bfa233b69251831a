// Package multiplexer declares the terminal-multiplexer interface the core
// consumes. The only implementation shipped here talks to tmux; other
// backends (wezterm, zellij) are expected to satisfy the same interface.
package multiplexer

// LivePaneInfo is a point-in-time snapshot of one live pane, as returned
// by a batched query. Fields beyond PID and CurrentCommand are used only
// for display, never for reconciliation decisions.
type LivePaneInfo struct {
	PID            int
	CurrentCommand string
	Session        string
	Window         string
	Title          string
}

// StatusIcon is a short glyph the multiplexer renders next to a pane's
// title to convey agent status at a glance.
type StatusIcon string

const (
	IconWorking StatusIcon = "⚡" // lightning bolt
	IconWaiting StatusIcon = "⏸" // pause
	IconDone    StatusIcon = "✅" // check
)

// Multiplexer is the external collaborator that owns window/pane
// lifecycle. The core never shells out to tmux directly; every
// interaction with the running session goes through this interface.
type Multiplexer interface {
	// Name identifies the backend ("tmux", "wezterm", ...).
	Name() string

	// InstanceID identifies this particular running instance (socket
	// path, mux server id) so records from a different instance of the
	// same backend are treated as foreign during reconciliation.
	InstanceID() string

	// AllLivePaneInfo returns every live pane in one batched call. The
	// core is budgeted for tens of panes; per-pane polling is
	// disallowed precisely so this stays a single round trip.
	AllLivePaneInfo() (map[string]LivePaneInfo, error)

	// CurrentPaneID returns the pane the calling process is attached
	// to, if any (derived from TMUX_PANE or equivalent).
	CurrentPaneID() (string, bool)

	// CurrentSession returns the name of the current session, if any.
	CurrentSession() (string, bool)

	// ActivePaneID returns the pane currently in focus within the
	// orchestrator's session, if one exists.
	ActivePaneID() (string, bool)

	// SwitchToPane focuses the given pane.
	SwitchToPane(paneID string) error

	// ClearStatus removes any status icon previously set on paneID.
	ClearStatus(paneID string) error

	// SetStatus renders icon on paneID's title. If autoClear is true
	// the backend schedules its own removal after a backend-defined
	// interval; the core does not track that timer.
	SetStatus(paneID string, icon StatusIcon, autoClear bool) error

	// EnsureStatusFormat makes sure paneID's title format includes a
	// placeholder for a status icon, idempotently.
	EnsureStatusFormat(paneID string) error

	// WindowExistsInSession reports whether a window whose name has
	// the given prefix and handle already exists, optionally scoped to
	// a named session (empty = the orchestrator's default session).
	WindowExistsInSession(prefix, handle, session string) (bool, error)

	// EnsureSession creates the named session rooted at cwd if it does
	// not already exist; a no-op otherwise.
	EnsureSession(name, cwd string) error

	// SplitPane opens a new pane in the named window, running command
	// in workdir, and returns its pane id.
	SplitPane(window, workdir, command string) (string, error)
}
