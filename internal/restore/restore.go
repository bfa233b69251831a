// Package restore implements the multi-repo "restore" operation: reopen
// every known repo's worktrees, recreating panes and carrying forward
// orphaned agent state so reconciliation does not garbage-collect agents
// that haven't reattached yet.
package restore

import (
	"fmt"

	"github.com/arthurnw/workmux/internal/gitrepo"
	"github.com/arthurnw/workmux/internal/multiplexer"
	"github.com/arthurnw/workmux/internal/sessiontrack"
	"github.com/arthurnw/workmux/internal/statestore"
)

// RepoOpener opens one repo's worktrees into fresh panes. It is supplied
// by the CLI layer, which knows how to turn a worktree into a spawned
// agent command; this package only sequences the orphan carry-over
// around that call.
type RepoOpener interface {
	// OpenWorktree creates (or reuses) a pane for wt, returning the new
	// pane's key. focusWindow controls whether the multiplexer steals
	// focus; restore always passes false (see Run).
	OpenWorktree(wt gitrepo.Worktree, focusWindow bool) (statestore.PaneKey, error)
}

// Plan is one planned restore run.
type Plan struct {
	Store     *statestore.Store
	Mux       multiplexer.Multiplexer
	Sessions  *sessiontrack.Store
	Opener    RepoOpener
	DryRun    bool
}

// RepoTarget is one repo to restore, with its worktrees already listed by
// the caller (via gitrepo.Repo.ListWorktrees against its own repo path).
type RepoTarget struct {
	Repo      string
	RepoPath  string
	Worktrees []gitrepo.Worktree
}

// Outcome summarizes what a restore run did, for the CLI to report.
type Outcome struct {
	OrphansDrained  int
	WorktreesOpened int
	CarriedOver     int
}

// Run drains every orphan across the entire set of targets in a single
// global pass before opening any new pane, then opens each target's
// worktrees, stamping carried-over status onto any new pane whose workdir
// matches a drained orphan.
//
// The single global drain is load-bearing: pane ids get recycled, so a
// naive per-repo drain_orphans call would let the first repo in the list
// consume an orphan that actually belonged to a later repo's worktree.
func Run(plan Plan, targets []RepoTarget) (Outcome, error) {
	snapshot, err := plan.Mux.AllLivePaneInfo()
	if err != nil {
		return Outcome{}, fmt.Errorf("querying live panes: %w", err)
	}
	converted := make(map[string]statestore.LivePaneInfo, len(snapshot))
	for id, info := range snapshot {
		converted[id] = statestore.LivePaneInfo(info)
	}

	// A dry run drains nothing and opens nothing: it only counts the
	// worktrees that would be opened.
	if plan.DryRun {
		outcome := Outcome{}
		for _, t := range targets {
			outcome.WorktreesOpened += len(t.Worktrees)
		}
		return outcome, nil
	}

	orphans, err := statestore.DrainOrphans(plan.Store, plan.Mux.Name(), plan.Mux.InstanceID(), converted)
	if err != nil {
		return Outcome{}, fmt.Errorf("draining orphans: %w", err)
	}

	outcome := Outcome{OrphansDrained: len(orphans)}

	for _, target := range targets {
		for _, wt := range target.Worktrees {
			// focus_window = false during restore: mass-reopening many
			// worktrees should not repeatedly steal the user's focus,
			// unlike a normal single `open`.
			key, err := plan.Opener.OpenWorktree(wt, false)
			if err != nil {
				return outcome, fmt.Errorf("opening worktree %s: %w", wt.Path, err)
			}
			outcome.WorktreesOpened++

			orphan, ok := orphans[wt.Path]
			if !ok {
				continue
			}
			delete(orphans, wt.Path)

			// Stamp only status/status_ts/pane_title from the orphan onto
			// the record OpenWorktree just wrote for the new pane — the
			// new pane's own PanePID/Command/UpdatedTS must survive, or
			// the next Reconcile sees a stale PID and deletes the record
			// before it ever reaches the Restored exception.
			carried, ok := plan.Store.Get(key)
			if !ok {
				state := statestore.AgentState{PaneKey: key, WorkDir: wt.Path}
				carried = &state
			}
			carried.Status = orphan.Status
			carried.StatusTS = orphan.StatusTS
			carried.PaneTitle = orphan.PaneTitle
			carried.Restored = true
			if err := plan.Store.Upsert(*carried); err != nil {
				return outcome, fmt.Errorf("carrying over state for %s: %w", wt.Path, err)
			}
			outcome.CarriedOver++
		}
	}

	return outcome, nil
}
