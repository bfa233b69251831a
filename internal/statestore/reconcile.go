package statestore

import (
	"log/slog"

	"github.com/arthurnw/workmux/internal/procwatch"
)

// LivePaneInfo is one pane's transient state as reported in a single
// batched multiplexer snapshot. Per-pane polling is disallowed by the
// spec this reconciles against — the multiplexer must hand back the whole
// snapshot in one call.
type LivePaneInfo struct {
	PID            int
	CurrentCommand string
	Session        string
	Window         string
	Title          string
}

// StatusClearer clears a pane's status-bar icon. Implemented by the
// multiplexer adapter; kept as a minimal local interface so this package
// doesn't import the multiplexer package (which itself doesn't need to
// know about AgentState).
type StatusClearer interface {
	ClearStatus(paneID string) error
}

// AgentPane is the live view reconciliation produces: persistent fields
// from the stored AgentState, combined with transient session/window/title
// fields from the multiplexer snapshot.
type AgentPane struct {
	AgentState
	Session string
	Window  string
	Title   string
}

// Reconcile compares every stored AgentState against a live multiplexer
// snapshot and returns the set of live agents, deleting dead records as it
// goes. Records whose PaneKey belongs to a different backend/instance than
// the one currently running are left untouched (foreign — may belong to
// another multiplexer instance or another host).
//
// This is the single hardest algorithm in workmux: pane ids get recycled
// by the OS and by the multiplexer, so PID match is the liveness key, not
// just presence. See the five cases below; they are exhaustive and are
// each covered by a dedicated test in reconcile_test.go.
func Reconcile(store *Store, backend, instance string, snapshot map[string]LivePaneInfo, clearer StatusClearer) ([]AgentPane, error) {
	states, err := store.ListAll()
	if err != nil {
		return nil, err
	}

	var live []AgentPane
	for _, s := range states {
		if s.PaneKey.Backend != backend || s.PaneKey.Instance != instance {
			continue // foreign: belongs to a different backend/instance
		}

		liveInfo, present := snapshot[s.PaneKey.PaneID]

		switch {
		case !present:
			// Gone: no status-bar cleanup possible, nothing to clear.
			if err := store.Delete(s.PaneKey); err != nil {
				slog.Warn("reconcile: failed deleting gone record", "pane", s.PaneKey, "error", err)
			}

		case liveInfo.PID != s.PanePID:
			// Pane id recycled by a new shell process.
			if err := store.Delete(s.PaneKey); err != nil {
				slog.Warn("reconcile: failed deleting recycled-pid record", "pane", s.PaneKey, "error", err)
			}
			if err := clearer.ClearStatus(s.PaneKey.PaneID); err != nil {
				slog.Warn("reconcile: failed clearing status icon", "pane", s.PaneKey, "error", err)
			}

		case liveInfo.CurrentCommand != s.Command:
			if s.Status == nil || s.Restored {
				// Exception A: no hook has confirmed this agent yet, the
				// observed command is likely the startup shell before the
				// agent replaces it. Exception B: record was carried
				// forward by a restore and the agent hasn't booted into
				// place yet. Keep it; pane-close (the !present case above)
				// still catches genuine exits.
				live = append(live, AgentPane{
					AgentState: s,
					Session:    liveInfo.Session,
					Window:     liveInfo.Window,
					Title:      liveInfo.Title,
				})
				continue
			}
			// The agent process exited and the shell prompt returned.
			if err := store.Delete(s.PaneKey); err != nil {
				slog.Warn("reconcile: failed deleting exited-agent record", "pane", s.PaneKey, "error", err)
			}
			if err := clearer.ClearStatus(s.PaneKey.PaneID); err != nil {
				slog.Warn("reconcile: failed clearing status icon", "pane", s.PaneKey, "error", err)
			}

		default:
			live = append(live, AgentPane{
				AgentState: s,
				Session:    liveInfo.Session,
				Window:     liveInfo.Window,
				Title:      liveInfo.Title,
			})
		}
	}

	return live, nil
}

// DrainOrphans deletes every orphaned AgentState for the given
// backend/instance in a single pass, returning them keyed by workdir. It
// must be called exactly once per restore run, across all repos being
// restored — a per-repo drain would let an earlier repo's restore consume
// an orphan that belonged to a later repo, because pane ids recycle across
// the whole multiplexer instance, not per repo.
//
// An orphan is a record whose pane is gone, or whose pane is present but
// now owned by a different pid. DrainOrphans is idempotent: calling it
// again immediately after with the same snapshot returns an empty map,
// since every orphan it found was deleted from the store.
func DrainOrphans(store *Store, backend, instance string, snapshot map[string]LivePaneInfo) (map[string]AgentState, error) {
	states, err := store.ListAll()
	if err != nil {
		return nil, err
	}

	orphans := make(map[string]AgentState)
	for _, s := range states {
		if s.PaneKey.Backend != backend || s.PaneKey.Instance != instance {
			continue
		}

		liveInfo, present := snapshot[s.PaneKey.PaneID]
		isOrphan := !present || liveInfo.PID != s.PanePID
		if !isOrphan {
			continue
		}

		// Independent liveness probe, on top of the snapshot: a process
		// that still answers to signal 0 on the recorded pid despite the
		// multiplexer reporting the pane gone is logged, but the record is
		// still drained — the multiplexer snapshot is authoritative for
		// pane ownership, this is diagnostic only.
		if !present && procwatch.Alive(s.PanePID) {
			slog.Warn("reconcile: draining orphan whose pane pid still answers to signal 0", "pane", s.PaneKey, "pid", s.PanePID)
		}

		if err := store.Delete(s.PaneKey); err != nil {
			slog.Warn("reconcile: failed deleting orphan during drain", "pane", s.PaneKey, "error", err)
			continue
		}
		orphans[s.WorkDir] = s
	}

	return orphans, nil
}
