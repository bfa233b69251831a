package cmd

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/arthurnw/workmux/internal/gitrepo"
)

// gitCLI implements gitrepo.Repo by shelling out to the git binary. It is
// the concrete adapter behind the interface the core consumes; git
// porcelain itself is explicitly out of scope for the core's own logic.
type gitCLI struct {
	dir string
}

func newGitRepo(dir string) *gitCLI {
	return &gitCLI{dir: dir}
}

func (g *gitCLI) run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = g.dir
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(string(ee.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (g *gitCLI) IsGitRepo() bool {
	_, err := g.run("rev-parse", "--git-dir")
	return err == nil
}

func (g *gitCLI) ListWorktrees() ([]gitrepo.Worktree, error) {
	out, err := g.run("worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}
	var worktrees []gitrepo.Worktree
	var cur gitrepo.Worktree
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "worktree "):
			if cur.Path != "" {
				worktrees = append(worktrees, cur)
			}
			cur = gitrepo.Worktree{Path: strings.TrimPrefix(line, "worktree ")}
		case strings.HasPrefix(line, "branch "):
			cur.Branch = strings.TrimPrefix(strings.TrimPrefix(line, "branch "), "refs/heads/")
		}
	}
	if cur.Path != "" {
		worktrees = append(worktrees, cur)
	}
	return worktrees, nil
}

func (g *gitCLI) FindWorktree(name string) (gitrepo.Worktree, error) {
	worktrees, err := g.ListWorktrees()
	if err != nil {
		return gitrepo.Worktree{}, err
	}
	for _, wt := range worktrees {
		if wt.Branch == name || wt.Path == name || strings.HasSuffix(wt.Path, "/"+name) {
			return wt, nil
		}
	}
	return gitrepo.Worktree{}, fmt.Errorf("no worktree matching %q", name)
}

func (g *gitCLI) GetMainWorktreeRoot() (string, error) {
	return g.run("rev-parse", "--path-format=absolute", "--git-common-dir")
}

func (g *gitCLI) GetCurrentBranch() (string, error) {
	return g.run("rev-parse", "--abbrev-ref", "HEAD")
}

func (g *gitCLI) GetDefaultBranch() (string, error) {
	out, err := g.run("symbolic-ref", "refs/remotes/origin/HEAD")
	if err != nil {
		return "main", nil
	}
	return strings.TrimPrefix(out, "refs/remotes/origin/"), nil
}

func (g *gitCLI) BranchExists(branch string) bool {
	_, err := g.run("show-ref", "--verify", "--quiet", "refs/heads/"+branch)
	return err == nil
}

func (g *gitCLI) GetMergeBase(a, b string) (string, error) {
	return g.run("merge-base", a, b)
}

func (g *gitCLI) GetUnmergedBranches(base string) ([]string, error) {
	out, err := g.run("branch", "--no-merged", base, "--format=%(refname:short)")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

func (g *gitCLI) SetBranchBase(branch, base string) error {
	_, err := g.run("config", "branch."+branch+".workmuxBase", base)
	return err
}
