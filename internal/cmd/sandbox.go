package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arthurnw/workmux/internal/atomicfile"
	"github.com/arthurnw/workmux/internal/sandbox"
)

var (
	sandboxForce  bool
	sandboxMounts []string
)

var sandboxCmd = &cobra.Command{
	Use:     "sandbox",
	GroupID: GroupSandbox,
	Short:   "Provision and manage the micro-VM sandbox for a repo",
	RunE:    requireSubcommand,
}

var sandboxAuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Store a registry credential used to pull the sandbox base image",
	RunE:  runSandboxAuth,
}

var sandboxBuildCmd = &cobra.Command{
	Use:   "build [name]",
	Short: "Boot (or reuse) the sandbox VM for a worktree and start its RPC server",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSandboxBuild,
}

var sandboxPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete sandbox VMs registered against the current repo",
	RunE:  runSandboxPrune,
}

func init() {
	sandboxBuildCmd.Flags().BoolVar(&sandboxForce, "force", false, "tear down and rebuild an already-running VM")
	// Repeatable flag: cobra's Flags() is a *pflag.FlagSet, and StringArrayVar
	// (one value appended per occurrence) has no stdlib flag equivalent.
	sandboxBuildCmd.Flags().StringArrayVar(&sandboxMounts, "mount", nil, "extra host:guest[:ro] bind mount, repeatable")
	sandboxPruneCmd.Flags().BoolVar(&sandboxForce, "force", false, "force-delete VMs even if limactl reports them busy")
	sandboxCmd.AddCommand(sandboxAuthCmd, sandboxBuildCmd, sandboxPruneCmd)
	rootCmd.AddCommand(sandboxCmd)
}

func runSandboxAuth(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	token, err := sandbox.ReadTokenNoEcho(cmd.OutOrStdout(), int(os.Stdin.Fd()), "Registry token: ")
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("empty token, nothing stored")
	}
	path := filepath.Join(a.store.Root(), "sandbox", "auth.token")
	if err := atomicfile.WriteFile(path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("storing registry token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "registry token stored")
	return nil
}

func runSandboxBuild(cmd *cobra.Command, args []string) error {
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
		return err
	}

	repoRoot := mustMainRoot(repo)
	repoName := repoNameFor(repo)

	cfg, err := sandbox.LoadConfigFromFile(filepath.Join(repoRoot, ".workmux", "sandbox.json"))
	if err != nil {
		return err
	}
	cfg = sandbox.Merge(sandbox.DefaultConfig(), cfg)

	extraMounts, err := parseMountFlags(sandboxMounts)
	if err != nil {
		return err
	}
	cfg.Mounts = append(cfg.Mounts, extraMounts...)

	sup := sandbox.NewSupervisor(a.store, a.store.Root(), repoName, name, wt.Path, cfg)

	if sandboxForce && sup.VM.IsRunning() {
		if err := sup.VM.Stop(); err != nil {
			return fmt.Errorf("stopping existing vm: %w", err)
		}
		if err := sup.VM.Delete(true); err != nil {
			return fmt.Errorf("deleting existing vm: %w", err)
		}
	}

	mux, err := a.mux()
	if err != nil {
		return err
	}
	handler := &hostHandler{app: a, mux: mux, repoRoot: repoRoot, paneID: os.Getenv("TMUX_PANE")}

	env, err := sup.Start(handler)
	if err != nil {
		return fmt.Errorf("starting sandbox: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "sandbox %s ready (rpc %s:%d)\n", sup.VM.Name, env.RPCHost, env.RPCPort)
	return nil
}

// parseMountFlags parses repeatable --mount host:guest[:ro] values.
func parseMountFlags(specs []string) ([]sandbox.Mount, error) {
	mounts := make([]sandbox.Mount, 0, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("invalid --mount %q, want host:guest[:ro]", spec)
		}
		m := sandbox.Mount{HostPath: parts[0], GuestPath: parts[1]}
		if len(parts) == 3 {
			if parts[2] != "ro" {
				return nil, fmt.Errorf("invalid --mount %q, third segment must be ro", spec)
			}
			m.ReadOnly = true
		}
		mounts = append(mounts, m)
	}
	return mounts, nil
}

func runSandboxPrune(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	repo, err := a.repo("")
	if err != nil {
		return err
	}
	handle := repoNameFor(repo)

	containers, err := a.store.ListContainers(handle)
	if err != nil {
		return fmt.Errorf("listing sandbox containers: %w", err)
	}
	if len(containers) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no sandbox containers registered for this repo")
		return nil
	}

	for _, name := range containers {
		vm := sandbox.VM{Name: name}
		if err := vm.Delete(sandboxForce); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: deleting %s: %v\n", name, err)
			continue
		}
		if err := a.store.UnregisterContainer(handle, name); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: unregistering %s: %v\n", name, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pruned %s\n", name)
	}
	return nil
}
