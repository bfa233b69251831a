// Package resolver maps a worktree to its live agent pane(s), sitting
// between the CLI's worktree-name arguments and the reconciled state the
// statestore package produces.
package resolver

import (
	"fmt"

	"github.com/arthurnw/workmux/internal/gitrepo"
	"github.com/arthurnw/workmux/internal/multiplexer"
	"github.com/arthurnw/workmux/internal/statestore"
)

// Resolver looks up live agent panes for worktrees by handle or workdir.
type Resolver struct {
	store *statestore.Store
	mux   multiplexer.Multiplexer
	repo  gitrepo.Repo
}

// New constructs a Resolver over the given collaborators.
func New(store *statestore.Store, mux multiplexer.Multiplexer, repo gitrepo.Repo) *Resolver {
	return &Resolver{store: store, mux: mux, repo: repo}
}

// LivePanes runs reconciliation against the multiplexer's current
// snapshot and returns every live agent pane, regardless of worktree.
func (r *Resolver) LivePanes() ([]statestore.AgentPane, error) {
	snapshot, err := r.mux.AllLivePaneInfo()
	if err != nil {
		return nil, fmt.Errorf("querying live panes: %w", err)
	}
	converted := make(map[string]statestore.LivePaneInfo, len(snapshot))
	for id, info := range snapshot {
		converted[id] = statestore.LivePaneInfo(info)
	}
	return statestore.Reconcile(r.store, r.mux.Name(), r.mux.InstanceID(), converted, clearStatusAdapter{r.mux})
}

// ForWorktree resolves name to its worktree, then returns any live agent
// panes rooted at that worktree's path.
func (r *Resolver) ForWorktree(name string) ([]statestore.AgentPane, error) {
	wt, err := r.repo.FindWorktree(name)
	if err != nil {
		return nil, fmt.Errorf("resolving worktree %q: %w", name, err)
	}

	panes, err := r.LivePanes()
	if err != nil {
		return nil, err
	}

	var matches []statestore.AgentPane
	for _, p := range panes {
		if p.WorkDir == wt.Path {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// clearStatusAdapter bridges multiplexer.Multiplexer.ClearStatus to the
// narrower statestore.StatusClearer interface reconciliation depends on,
// so the statestore package stays ignorant of the full Multiplexer
// surface.
type clearStatusAdapter struct {
	mux multiplexer.Multiplexer
}

func (a clearStatusAdapter) ClearStatus(paneID string) error {
	return a.mux.ClearStatus(paneID)
}
