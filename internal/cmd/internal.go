package cmd

import (
	"github.com/spf13/cobra"
)

// internalCmd groups re-exec targets: subcommands the binary spawns
// against itself (detached background work, pane-launched runs) rather
// than ones a user types directly.
var internalCmd = &cobra.Command{
	Use:     "internal",
	GroupID: GroupInternal,
	Hidden:  true,
	Short:   "Internal re-exec targets, not for direct use",
	RunE:    requireSubcommand,
}

var (
	captureRepo         string
	captureBranch       string
	captureInitialCount int
	captureTimeoutSec   int
)

var captureSessionCmd = &cobra.Command{
	Use:    "capture-session",
	Hidden: true,
	Short:  "Detached capture-loop body spawned by `session capture`",
	RunE:   runCaptureSession,
}

func init() {
	captureSessionCmd.Flags().StringVar(&captureRepo, "repo", "", "repo identifier")
	captureSessionCmd.Flags().StringVar(&captureBranch, "branch", "", "branch name")
	captureSessionCmd.Flags().IntVar(&captureInitialCount, "initial-count", 0, "entry count snapshot before the agent started")
	captureSessionCmd.Flags().IntVar(&captureTimeoutSec, "timeout", defaultSessionCaptureTimeoutSec, "capture timeout in seconds")
	captureSessionCmd.MarkFlagRequired("repo")
	captureSessionCmd.MarkFlagRequired("branch")

	internalCmd.AddCommand(captureSessionCmd)
	rootCmd.AddCommand(internalCmd)
}

func runCaptureSession(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	return a.sessions.RunCaptureLoop(captureRepo, captureBranch, captureInitialCount, captureTimeoutSec)
}
