package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arthurnw/workmux/internal/agenttrust"
	"github.com/arthurnw/workmux/internal/direnv"
	"github.com/arthurnw/workmux/internal/gitrepo"
	"github.com/arthurnw/workmux/internal/rewrite"
	"github.com/arthurnw/workmux/internal/sandbox"
	"github.com/arthurnw/workmux/internal/statestore"
)

var (
	openNew          bool
	openPrompt       string
	openPromptFile   string
	openPromptEditor bool
	openRunHooks     bool
	openForceFiles   bool
	openAgent        string
)

var openCmd = &cobra.Command{
	Use:     "open [name]",
	GroupID: GroupWorktree,
	Short:   "Open (or focus) an agent pane for a worktree",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runOpen,
}

func init() {
	openCmd.Flags().BoolVar(&openNew, "new", false, "create the worktree if it doesn't exist yet")
	openCmd.Flags().StringVar(&openPrompt, "prompt", "", "inline prompt text to launch the agent with")
	openCmd.Flags().StringVar(&openPromptFile, "prompt-file", "", "path to a file containing the prompt")
	openCmd.Flags().BoolVar(&openPromptEditor, "prompt-editor", false, "compose the prompt in $VISUAL/$EDITOR before launching")
	openCmd.Flags().BoolVar(&openRunHooks, "run-hooks", false, "run the agent's configured post-open hooks")
	openCmd.Flags().BoolVar(&openForceFiles, "force-files", false, "overwrite any agent scaffold files already present in the worktree")
	openCmd.Flags().StringVar(&openAgent, "agent", "claude", "agent command to launch (resolved against agent profiles)")
	rootCmd.AddCommand(openCmd)
}

func runOpen(cmd *cobra.Command, args []string) error {
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
			return fmt.Errorf("no worktree name given and couldn't determine current branch: %w", err)
		}
	}

	wt, err := repo.FindWorktree(name)
	if err != nil {
		if !openNew {
			return err
		}
		wt, err = createWorktree(repo, name)
		if err != nil {
			return err
		}
	}

	mux, err := a.mux()
	if err != nil {
		return err
	}
	res := a.resolver(mux, repo)

	if !openNew {
		live, err := res.ForWorktree(name)
		if err != nil {
			return err
		}
		if len(live) > 0 {
			target := live[0]
			if err := mux.SwitchToPane(target.PaneKey.PaneID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "switched to existing agent pane for %q\n", name)
			return nil
		}
	}

	promptPath, cleanup, err := resolvePromptPath(openPrompt, openPromptFile, openPromptEditor)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	prepareWorktreeEnv(wt.Path)

	repoName := repoNameFor(repo)
	inSandbox, vmName := sandboxActiveFor(a, repoName)
	var sandboxWrap rewrite.SandboxWrapFunc
	if inSandbox {
		sandboxWrap = sandbox.BindVM(vmName, wt.Path)
	}

	cacheRoot := filepath.Join(filepath.Dir(a.store.Root()), "cache")
	if home, err := os.UserHomeDir(); err == nil {
		cacheRoot = filepath.Join(home, ".cache", "workmux")
	}

	composed, err := rewrite.Compose(rewrite.Request{
		AgentCommand: openAgent,
		PromptPath:   promptPath,
		WorkDir:      wt.Path,
		CacheRoot:    cacheRoot,
		InSandbox:    inSandbox,
		SandboxWrap:  sandboxWrap,
	}, a.registry)
	if err != nil {
		return fmt.Errorf("composing agent command: %w", err)
	}

	session := sessionNameFor(repoName)
	if err := mux.EnsureSession(session, wt.Path); err != nil {
		return fmt.Errorf("ensuring session: %w", err)
	}
	paneID, err := mux.SplitPane(session, wt.Path, buildShellLine(composed.Env, composed.Argv))
	if err != nil {
		return fmt.Errorf("launching agent pane: %w", err)
	}

	pid := 0
	if panes, err := mux.AllLivePaneInfo(); err == nil {
		if info, ok := panes[paneID]; ok {
			pid = info.PID
		}
	}

	key := statestore.PaneKey{Backend: mux.Name(), Instance: mux.InstanceID(), PaneID: paneID}
	if err := a.store.Upsert(statestore.AgentState{
		PaneKey: key,
		WorkDir: wt.Path,
		PanePID: pid,
		Command: openAgent,
	}); err != nil {
		return fmt.Errorf("recording agent state: %w", err)
	}

	if err := a.sessions.StoreRepoPath(repoName, mustMainRoot(repo)); err == nil {
		_ = a.sessions.SpawnCapture(repoName, name, defaultSessionCaptureTimeoutSec)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "opened agent pane for %q\n", name)
	return nil
}

// prepareWorktreeEnv runs the environment no-ops an agent pane expects to
// already be satisfied: direnv approval and Claude Code trust, both
// silent no-ops on error or missing tooling, per the ambient "optional
// environment action" failure model.
func prepareWorktreeEnv(dir string) {
	_ = direnv.AutoAllow(dir)
	_ = agenttrust.TrustDirectory(dir)
}

func mustMainRoot(repo gitrepo.Repo) string {
	root, err := repo.GetMainWorktreeRoot()
	if err != nil {
		return ""
	}
	return filepath.Dir(root)
}

func sessionNameFor(repoName string) string {
	return "workmux-" + repoName
}

// sandboxActiveFor reports whether repoName has a registered sandbox
// container, and if so the VM's stable name.
func sandboxActiveFor(a *app, repoName string) (bool, string) {
	containers, err := a.store.ListContainers(repoName)
	if err != nil || len(containers) == 0 {
		return false, ""
	}
	return true, containers[0]
}

func buildShellLine(env []string, argv []string) string {
	var parts []string
	for _, e := range env {
		parts = append(parts, shellQuoteArg(e))
	}
	if len(env) > 0 {
		parts = append([]string{"env"}, parts...)
	}
	for _, a := range argv {
		parts = append(parts, shellQuoteArg(a))
	}
	return strings.Join(parts, " ")
}

func resolvePromptPath(inline, file string, useEditor bool) (string, func(), error) {
	switch {
	case inline != "":
		tmp, err := os.CreateTemp("", "workmux-prompt-*.txt")
		if err != nil {
			return "", nil, err
		}
		if _, err := tmp.WriteString(inline); err != nil {
			tmp.Close()
			return "", nil, err
		}
		tmp.Close()
		return tmp.Name(), func() { os.Remove(tmp.Name()) }, nil
	case file != "":
		return file, nil, nil
	case useEditor:
		tmp, err := os.CreateTemp("", "workmux-prompt-*.txt")
		if err != nil {
			return "", nil, err
		}
		tmp.Close()
		editor := os.Getenv("VISUAL")
		if editor == "" {
			editor = os.Getenv("EDITOR")
		}
		if editor == "" {
			editor = "vi"
		}
		c := exec.Command(editor, tmp.Name())
		c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
		if err := c.Run(); err != nil {
			os.Remove(tmp.Name())
			return "", nil, fmt.Errorf("running prompt editor: %w", err)
		}
		return tmp.Name(), func() { os.Remove(tmp.Name()) }, nil
	default:
		return "", nil, nil
	}
}

// createWorktree is a thin helper used only by `open --new`: git worktree
// creation itself is the out-of-scope git porcelain, but the CLI still
// needs something to call when the worktree doesn't exist yet.
func createWorktree(repo gitrepo.Repo, branch string) (gitrepo.Worktree, error) {
	root, err := repo.GetMainWorktreeRoot()
	if err != nil {
		return gitrepo.Worktree{}, err
	}
	base := filepath.Dir(root)
	path, err := filepath.Abs(filepath.Join(base, "..", filepath.Base(base)+"-worktrees", branch))
	if err != nil {
		return gitrepo.Worktree{}, err
	}

	c := exec.Command("git", "worktree", "add", "-b", branch, path)
	c.Dir = base
	if out, err := c.CombinedOutput(); err != nil {
		return gitrepo.Worktree{}, fmt.Errorf("git worktree add: %s", strings.TrimSpace(string(out)))
	}
	return gitrepo.Worktree{Path: path, Branch: branch}, nil
}
