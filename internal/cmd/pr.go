package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var prCmd = &cobra.Command{
	Use:     "pr",
	GroupID: GroupAgent,
	Short:   "Inspect cached pull-request check status for a worktree",
	RunE:    requireSubcommand,
}

var prStatusCmd = &cobra.Command{
	Use:   "status [branch]",
	Short: "Show (and refresh if stale) the cached PR status for a branch",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPRStatus,
}

var prPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove PR-cache entries well past their freshness window",
	RunE:  runPRPrune,
}

func init() {
	prCmd.AddCommand(prStatusCmd, prPruneCmd)
	rootCmd.AddCommand(prCmd)
}

func runPRStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	branch := ""
	if len(args) == 1 {
		branch = args[0]
	} else {
		repo, err := a.repo("")
		if err != nil {
			return err
		}
		branch, err = repo.GetCurrentBranch()
		if err != nil {
			return fmt.Errorf("no branch given and couldn't determine current branch: %w", err)
		}
	}

	now := time.Now()
	entry, ok := a.prcache.Get(branch)
	if !ok || !a.prcache.IsFresh(entry, now) {
		entry, err = a.prcache.Refresh(branch, now)
		if err != nil {
			return fmt.Errorf("refreshing PR status: %w", err)
		}
	}

	if entry.Number == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: no open PR found\n", branch)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: PR #%d %s, checks %s\n", branch, entry.Number, entry.State, entry.Checks)
	return nil
}

func runPRPrune(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.prcache.Prune(time.Now()); err != nil {
		return fmt.Errorf("pruning PR cache: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "pr cache pruned")
	return nil
}
