// Package cmd implements the workmux command-line surface: opening agent
// worktrees, restoring a desktop, merging branches, one-shot run capture,
// session tracking, sandbox management, and the guest-side RPC dispatch
// commands used from inside a sandboxed VM.
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:     "workmux",
	Short:   "Orchestrate parallel coding agents across worktrees and sandboxes",
	Version: Version,
	Long: `workmux manages parallel AI coding agents across git worktrees and
terminal multiplexer windows, optionally confined to Lima/QEMU micro-VM
sandboxes, and tracks which agents are working, waiting, or done.`,
	SilenceUsage: true,
}

// Command group IDs, used by subcommands to organize help output.
const (
	GroupWorktree = "worktree"
	GroupAgent    = "agent"
	GroupSandbox  = "sandbox"
	GroupInternal = "internal"
)

func init() {
	cobra.EnablePrefixMatching = true

	rootCmd.AddGroup(
		&cobra.Group{ID: GroupWorktree, Title: "Worktrees:"},
		&cobra.Group{ID: GroupAgent, Title: "Agents:"},
		&cobra.Group{ID: GroupSandbox, Title: "Sandbox:"},
		&cobra.Group{ID: GroupInternal, Title: "Internal:"},
	)
	rootCmd.SetHelpCommandGroupID(GroupInternal)
	rootCmd.SetCompletionCommandGroupID(GroupInternal)
}

// Execute runs the root command and returns the process exit code. The
// caller (main) should call os.Exit with this value.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return exitCodeForError(err)
	}
	return 0
}

// buildCommandPath walks the command hierarchy for error messages, e.g.
// "workmux session capture".
func buildCommandPath(cmd *cobra.Command) string {
	var parts []string
	for c := cmd; c != nil; c = c.Parent() {
		parts = append([]string{c.Name()}, parts...)
	}
	return strings.Join(parts, " ")
}

// requireSubcommand is used as RunE on parent commands that only group
// subcommands, so an unknown leaf name fails loudly instead of cobra
// silently printing help and exiting 0.
func requireSubcommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("requires a subcommand\n\nRun '%s --help' for usage", buildCommandPath(cmd))
	}
	return fmt.Errorf("unknown command %q for %q\n\nRun '%s --help' for available commands",
		args[0], buildCommandPath(cmd), buildCommandPath(cmd))
}
