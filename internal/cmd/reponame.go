package cmd

import (
	"path/filepath"

	"github.com/arthurnw/workmux/internal/gitrepo"
)

// repoNameFor derives the stable repo identifier used to key session and
// sandbox state: the base name of the main worktree root, so that every
// worktree of the same repo shares one session/sandbox namespace.
func repoNameFor(repo gitrepo.Repo) string {
	root, err := repo.GetMainWorktreeRoot()
	if err != nil || root == "" {
		return "unknown"
	}
	return filepath.Base(filepath.Dir(root))
}
