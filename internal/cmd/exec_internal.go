package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/arthurnw/workmux/internal/atomicfile"
	"github.com/arthurnw/workmux/internal/runartifact"
)

var execRunDir string

// execCmd is the body of a pane-launched one-shot run: it is the process
// tmux actually starts in the split pane, so the pane's own lifecycle
// (and foreground-command fingerprint, for reconciliation) matches the
// wrapped command rather than workmux itself.
var execCmd = &cobra.Command{
	Use:     "__exec",
	GroupID: GroupInternal,
	Hidden:  true,
	Short:   "Run a captured command inside a run-artifact directory (internal)",
	RunE:    runExecInternal,
}

func init() {
	execCmd.Flags().StringVar(&execRunDir, "run-dir", "", "run artifact directory")
	execCmd.MarkFlagRequired("run-dir")
	rootCmd.AddCommand(execCmd)
}

func runExecInternal(cmd *cobra.Command, args []string) error {
	runDir, err := filepath.Abs(execRunDir)
	if err != nil {
		return err
	}
	runID := filepath.Base(runDir)
	stateRoot := filepath.Dir(filepath.Dir(runDir))
	store := runartifact.New(stateRoot)

	var spec runartifact.Spec
	if err := atomicfile.ReadJSON(filepath.Join(runDir, "spec.json"), &spec); err != nil {
		return fmt.Errorf("reading run spec: %w", err)
	}

	stdoutFile, err := os.Create(store.StdoutPath(runID))
	if err != nil {
		return fmt.Errorf("creating stdout capture: %w", err)
	}
	defer stdoutFile.Close()
	stderrFile, err := os.Create(store.StderrPath(runID))
	if err != nil {
		return fmt.Errorf("creating stderr capture: %w", err)
	}
	defer stderrFile.Close()

	c := exec.Command(spec.Command, spec.Args...)
	c.Dir = spec.WorkDir
	c.Stdout = io.MultiWriter(os.Stdout, stdoutFile)
	c.Stderr = io.MultiWriter(os.Stderr, stderrFile)
	c.Stdin = os.Stdin

	runErr := c.Run()

	result := runartifact.Result{}
	if runErr == nil {
		result.ExitCode = 0
	} else if exitErr, ok := runErr.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
		result.Signal = exitSignal(exitErr)
	} else {
		result.ExitCode = 1
	}

	if err := store.WriteResult(runID, result); err != nil {
		return fmt.Errorf("writing run result: %w", err)
	}
	return nil
}
