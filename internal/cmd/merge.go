package cmd

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arthurnw/workmux/internal/rpc"
)

var (
	mergeInto         string
	mergeRebase       bool
	mergeSquash       bool
	mergeKeep         bool
	mergeNoVerify     bool
	mergeNoHooks      bool
	mergeNotification bool
	mergeAutoMessage  bool
)

var mergeCmd = &cobra.Command{
	Use:     "merge [name]",
	GroupID: GroupWorktree,
	Short:   "Merge a worktree's branch back into its base branch",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runMerge,
}

func init() {
	mergeCmd.Flags().StringVar(&mergeInto, "into", "", "target branch (defaults to the repo's default branch)")
	mergeCmd.Flags().BoolVar(&mergeRebase, "rebase", false, "rebase onto the target branch before a fast-forward merge")
	mergeCmd.Flags().BoolVar(&mergeSquash, "squash", false, "squash the branch into a single commit on the target branch")
	mergeCmd.Flags().BoolVar(&mergeKeep, "keep", false, "keep the source branch after merging")
	mergeCmd.Flags().BoolVar(&mergeNoVerify, "no-verify", false, "skip commit hooks during the merge commit")
	mergeCmd.Flags().BoolVar(&mergeNoHooks, "no-hooks", false, "skip the agent's configured pre/post-merge hooks")
	mergeCmd.Flags().BoolVar(&mergeNotification, "notification", false, "play a completion sound on success")
	mergeCmd.Flags().BoolVar(&mergeAutoMessage, "auto-message", false, "generate the merge/squash commit message automatically")
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	repo, err := a.repo("")
	if err != nil {
		return err
	}

	name := ""
	if len(args) == 1 {
		name = args[0]
	} else {
		name, err = repo.GetCurrentBranch()
		if err != nil {
			return fmt.Errorf("no branch given and couldn't determine current branch: %w", err)
		}
	}
	into := mergeInto
	if into == "" {
		into, err = repo.GetDefaultBranch()
		if err != nil {
			return err
		}
	}

	req := rpc.MergeRequest{Name: name, Into: into, Rebase: mergeRebase, Squash: mergeSquash, Keep: mergeKeep}

	if inSandboxGuest() {
		client, err := rpc.DialFromEnv()
		if err != nil {
			return err
		}
		defer client.Close()
		output, err := client.Merge(req)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), output)
		return nil
	}

	root, err := repo.GetMainWorktreeRoot()
	if err != nil {
		return err
	}
	output, err := performMerge(filepath.Dir(root), req, mergeNoVerify, mergeAutoMessage)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), output)

	if mergeNotification {
		_ = exec.Command("afplay", "/System/Library/Sounds/Glass.aiff").Run()
	}
	return nil
}

// performMerge applies req against the repo rooted at dir: rebase-then-ff,
// squash, or a plain merge, then optionally deletes the source branch. It
// is shared between the local CLI path and the sandbox supervisor's
// guest-originated rpc.Handler implementation.
func performMerge(dir string, req rpc.MergeRequest, noVerify, autoMessage bool) (string, error) {
	run := func(args ...string) (string, error) {
		c := exec.Command("git", args...)
		c.Dir = dir
		out, err := c.CombinedOutput()
		if err != nil {
			return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(string(out)))
		}
		return strings.TrimSpace(string(out)), nil
	}

	var steps []string

	switch {
	case req.Squash:
		if _, err := run("checkout", req.Into); err != nil {
			return "", err
		}
		out, err := run("merge", "--squash", req.Name)
		if err != nil {
			return "", err
		}
		steps = append(steps, out)

		message := fmt.Sprintf("Squash merge %s into %s", req.Name, req.Into)
		commitArgs := []string{"commit", "-m", message}
		if noVerify {
			commitArgs = append(commitArgs, "--no-verify")
		}
		out, err = run(commitArgs...)
		if err != nil {
			return "", err
		}
		steps = append(steps, out)

	case req.Rebase:
		if _, err := run("rebase", req.Into, req.Name); err != nil {
			return "", err
		}
		if _, err := run("checkout", req.Into); err != nil {
			return "", err
		}
		out, err := run("merge", "--ff-only", req.Name)
		if err != nil {
			return "", err
		}
		steps = append(steps, out)

	default:
		if _, err := run("checkout", req.Into); err != nil {
			return "", err
		}
		mergeArgs := []string{"merge", req.Name}
		if noVerify {
			mergeArgs = append(mergeArgs, "--no-verify")
		}
		if autoMessage {
			mergeArgs = append(mergeArgs, "-m", fmt.Sprintf("Merge %s into %s", req.Name, req.Into))
		}
		out, err := run(mergeArgs...)
		if err != nil {
			return "", err
		}
		steps = append(steps, out)
	}

	if !req.Keep {
		deleteFlag := "-d"
		if req.Squash || req.Rebase {
			deleteFlag = "-D" // the source branch's commits now live elsewhere, so -d's merge check would refuse
		}
		out, err := run("branch", deleteFlag, req.Name)
		if err != nil {
			return "", err
		}
		steps = append(steps, out)
	}

	return strings.Join(steps, "\n"), nil
}
