package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arthurnw/workmux/internal/gitrepo"
	"github.com/arthurnw/workmux/internal/multiplexer"
	"github.com/arthurnw/workmux/internal/restore"
	"github.com/arthurnw/workmux/internal/statestore"
)

var (
	restoreDryRun bool
	restoreAll    bool
)

var restoreCmd = &cobra.Command{
	Use:     "restore",
	GroupID: GroupWorktree,
	Short:   "Reopen worktrees across tracked repos, carrying forward agent status",
	RunE:    runRestore,
}

func init() {
	restoreCmd.Flags().BoolVar(&restoreDryRun, "dry-run", false, "report what would be opened without doing it")
	restoreCmd.Flags().BoolVar(&restoreAll, "all", false, "restore every tracked repo, not just the current one")
	rootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	mux, err := a.mux()
	if err != nil {
		return err
	}

	targets, err := restoreTargets(a, restoreAll)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to restore: no tracked repos found")
		return nil
	}

	opener := &cmdOpener{app: a, mux: mux}
	plan := restore.Plan{Store: a.store, Mux: mux, Sessions: a.sessions, Opener: opener, DryRun: restoreDryRun}

	outcome, err := restore.Run(plan, targets)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "restore: %d orphans drained, %d worktrees opened, %d carried over\n",
		outcome.OrphansDrained, outcome.WorktreesOpened, outcome.CarriedOver)
	return nil
}

// restoreTargets builds the repo/worktree set to restore: either just the
// repo rooted at the current directory, or every repo sessiontrack has
// ever seen, when --all is given.
func restoreTargets(a *app, all bool) ([]restore.RepoTarget, error) {
	if !all {
		repo, err := a.repo("")
		if err != nil {
			return nil, err
		}
		worktrees, err := repo.ListWorktrees()
		if err != nil {
			return nil, err
		}
		return []restore.RepoTarget{{
			Repo:      repoNameFor(repo),
			RepoPath:  mustMainRoot(repo),
			Worktrees: worktrees,
		}}, nil
	}

	entries, err := a.sessions.ListAllRepos()
	if err != nil {
		return nil, fmt.Errorf("listing tracked repos: %w", err)
	}
	targets := make([]restore.RepoTarget, 0, len(entries))
	for _, e := range entries {
		repo, err := a.repo(e.Path)
		if err != nil || !repo.IsGitRepo() {
			continue
		}
		worktrees, err := repo.ListWorktrees()
		if err != nil {
			continue
		}
		targets = append(targets, restore.RepoTarget{Repo: e.Repo, RepoPath: e.Path, Worktrees: worktrees})
	}
	return targets, nil
}

// cmdOpener implements restore.RepoOpener on top of the multiplexer,
// launching the default agent command into a per-repo session without
// stealing the user's focus when focusWindow is false.
type cmdOpener struct {
	app *app
	mux multiplexer.Multiplexer
}

func (o *cmdOpener) OpenWorktree(wt gitrepo.Worktree, focusWindow bool) (statestore.PaneKey, error) {
	prepareWorktreeEnv(wt.Path)

	repo, err := o.app.repo(wt.Path)
	if err != nil {
		return statestore.PaneKey{}, err
	}
	session := sessionNameFor(repoNameFor(repo))
	if err := o.mux.EnsureSession(session, wt.Path); err != nil {
		return statestore.PaneKey{}, err
	}

	prevActive, hadActive := o.mux.ActivePaneID()

	paneID, err := o.mux.SplitPane(session, wt.Path, "claude")
	if err != nil {
		return statestore.PaneKey{}, err
	}

	if !focusWindow && hadActive {
		_ = o.mux.SwitchToPane(prevActive)
	}

	key := statestore.PaneKey{Backend: o.mux.Name(), Instance: o.mux.InstanceID(), PaneID: paneID}

	pid := 0
	if panes, err := o.mux.AllLivePaneInfo(); err == nil {
		if info, ok := panes[paneID]; ok {
			pid = info.PID
		}
	}
	if err := o.app.store.Upsert(statestore.AgentState{
		PaneKey: key,
		WorkDir: wt.Path,
		PanePID: pid,
		Command: "claude",
	}); err != nil {
		return statestore.PaneKey{}, err
	}
	return key, nil
}
