package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arthurnw/workmux/internal/sessiontrack"
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	GroupID: GroupAgent,
	Short:   "Inspect and capture agent-assigned session ids",
	RunE:    requireSubcommand,
}

var sessionListAll bool

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked (repo, branch) session ids",
	RunE:  runSessionList,
}

var sessionCaptureCmd = &cobra.Command{
	Use:   "capture <branch> [session-id]",
	Short: "Spawn (or record) a session-id capture for the current repo and branch",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSessionCapture,
}

func init() {
	sessionListCmd.Flags().BoolVar(&sessionListAll, "all", false, "include repos whose path no longer exists")
	sessionCmd.AddCommand(sessionListCmd, sessionCaptureCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	var repos []sessiontrack.RepoEntry
	if sessionListAll {
		repos, err = a.sessions.ListAllReposIncludingStale()
	} else {
		repos, err = a.sessions.ListAllRepos()
	}
	if err != nil {
		return fmt.Errorf("listing tracked repos: %w", err)
	}

	for _, r := range repos {
		label := color.New(color.FgGreen).Sprint(r.Repo)
		if _, statErr := os.Stat(r.Path); statErr != nil {
			label = color.New(color.Faint).Sprint(r.Repo) + " (missing)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", label, r.Path)
	}
	return nil
}

func runSessionCapture(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	repo, err := a.repo("")
	if err != nil {
		return err
	}
	branch := args[0]

	if len(args) == 2 {
		// Explicit session id supplied: record it directly, no capture needed.
		return a.sessions.StoreSession(repoNameFor(repo), branch, args[1])
	}

	return a.sessions.SpawnCapture(repoNameFor(repo), branch, defaultSessionCaptureTimeoutSec)
}
