package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/arthurnw/workmux/internal/gitrepo"
	"github.com/arthurnw/workmux/internal/multiplexer"
	"github.com/arthurnw/workmux/internal/profile"
	"github.com/arthurnw/workmux/internal/prcache"
	"github.com/arthurnw/workmux/internal/resolver"
	"github.com/arthurnw/workmux/internal/runartifact"
	"github.com/arthurnw/workmux/internal/sessiontrack"
	"github.com/arthurnw/workmux/internal/statestore"
)

// app bundles the handles a command needs: the state store and the
// external collaborators (git, multiplexer) each command resolves lazily
// so that guest-only or config-only commands never need a live tmux
// session or git checkout.
type app struct {
	store    *statestore.Store
	sessions *sessiontrack.Store
	runs     *runartifact.Store
	prcache  *prcache.Cache
	registry *profile.Registry
}

func newApp() (*app, error) {
	store, err := statestore.New()
	if err != nil {
		return nil, fmt.Errorf("opening state store: %w", err)
	}
	root := store.Root()

	registry := profile.NewRegistry()
	if home, err := os.UserHomeDir(); err == nil {
		if overrides, err := profile.LoadOverrides(filepath.Join(home, ".config", "workmux", "profiles.toml")); err == nil {
			registry.Merge(overrides)
		}
	}

	return &app{
		store:    store,
		sessions: sessiontrack.New(root),
		runs:     runartifact.New(root),
		prcache:  prcache.New(root, prCacheTTL),
		registry: registry,
	}, nil
}

// mux returns a live multiplexer adapter. It is split out from newApp so
// commands that never touch tmux (host-exec, internal capture-session)
// don't pay for or require a multiplexer binary on PATH.
func (a *app) mux() (multiplexer.Multiplexer, error) {
	return newTmuxMultiplexer()
}

// repo opens the git adapter rooted at the given directory (defaults to
// the process's current directory).
func (a *app) repo(dir string) (gitrepo.Repo, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		dir = cwd
	}
	return newGitRepo(dir), nil
}

func (a *app) resolver(mux multiplexer.Multiplexer, repo gitrepo.Repo) *resolver.Resolver {
	return resolver.New(a.store, mux, repo)
}
