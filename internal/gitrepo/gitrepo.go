// Package gitrepo declares the git porcelain interface the core consumes.
// Worktree add/list/remove and branch plumbing are external collaborators;
// this package only names the contract.
package gitrepo

// Worktree pairs a worktree's absolute path with its checked-out branch.
type Worktree struct {
	Path   string
	Branch string
}

// Repo is the external collaborator that owns git porcelain operations.
type Repo interface {
	// IsGitRepo reports whether the current directory is inside a git
	// working tree (main or linked).
	IsGitRepo() bool

	// ListWorktrees returns every worktree linked to the repo,
	// including the main one.
	ListWorktrees() ([]Worktree, error)

	// FindWorktree resolves a handle (worktree directory basename) to
	// its worktree, disambiguating if necessary.
	FindWorktree(name string) (Worktree, error)

	// GetMainWorktreeRoot returns the path of the repo's primary
	// (non-linked) worktree.
	GetMainWorktreeRoot() (string, error)

	// GetCurrentBranch returns the branch checked out in the current
	// worktree.
	GetCurrentBranch() (string, error)

	// GetDefaultBranch returns the repo's configured default branch
	// (main, master, ...).
	GetDefaultBranch() (string, error)

	// BranchExists reports whether branch is a known local or remote
	// branch.
	BranchExists(branch string) bool

	// GetMergeBase returns the merge base commit of a and b.
	GetMergeBase(a, b string) (string, error)

	// GetUnmergedBranches returns branches not yet merged into base.
	GetUnmergedBranches(base string) ([]string, error)

	// SetBranchBase records branch's tracked base branch for later
	// merge-base computation.
	SetBranchBase(branch, base string) error
}
