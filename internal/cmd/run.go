package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/arthurnw/workmux/internal/exitcode"
	"github.com/arthurnw/workmux/internal/runartifact"
)

var (
	runWait    bool
	runKeep    bool
	runTimeout int
)

var runCmd = &cobra.Command{
	Use:     "run <name> -- <cmd...>",
	GroupID: GroupWorktree,
	Short:   "Spawn a one-shot command in a worktree and optionally wait for its result",
	Args:    cobra.MinimumNArgs(2),
	RunE:    runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runWait, "wait", false, "block until the command finishes and print its result")
	runCmd.Flags().BoolVar(&runKeep, "keep", false, "retain the run artifact directory after reading it")
	runCmd.Flags().IntVar(&runTimeout, "timeout", defaultRunWaitTimeoutSec, "seconds to wait before giving up (0 = no timeout), only with --wait")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	name := args[0]
	rest := args[1:]
	if len(rest) > 0 && rest[0] == "--" {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return fmt.Errorf("no command given after %q", name)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	repo, err := a.repo("")
	if err != nil {
		return err
	}
	wt, err := repo.FindWorktree(name)
	if err != nil {
		return err
	}

	runID, err := runartifact.NewRunID(time.Now())
	if err != nil {
		return err
	}
	spec := runartifact.Spec{Command: rest[0], Args: rest[1:], WorkDir: wt.Path}
	dir, err := a.runs.Create(runID, spec)
	if err != nil {
		return err
	}

	mux, err := a.mux()
	if err != nil {
		return err
	}
	const runsSession = "workmux-runs"
	if err := mux.EnsureSession(runsSession, a.store.Root()); err != nil {
		return fmt.Errorf("ensuring run session: %w", err)
	}
	launchCmd := fmt.Sprintf("workmux __exec --run-dir %s", shellQuoteArg(dir))
	if _, err := mux.SplitPane(runsSession, wt.Path, launchCmd); err != nil {
		return fmt.Errorf("launching run pane: %w", err)
	}

	if !runWait {
		fmt.Fprintln(cmd.OutOrStdout(), runID)
		return nil
	}

	var timeout time.Duration
	if runTimeout > 0 {
		timeout = time.Duration(runTimeout) * time.Second
	} else {
		timeout = 24 * time.Hour // effectively unbounded for a "no timeout" wait
	}

	result, err := a.runs.Wait(runID, timeout, runKeep)
	if err != nil {
		return err
	}

	stdout, stderr, _ := a.runs.ReadOutput(runID)
	os.Stdout.Write(stdout)
	os.Stderr.Write(stderr)
	if !runKeep {
		_ = a.runs.Remove(runID)
	}

	if result.ExitCode != 0 {
		return exitcode.Wrap(result.ExitCode, fmt.Errorf("command exited with status %d", result.ExitCode))
	}
	return nil
}

// shellQuoteArg single-quote-escapes a string for embedding in a shell
// command line, matching the discipline used for sandbox command wrapping.
func shellQuoteArg(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}
