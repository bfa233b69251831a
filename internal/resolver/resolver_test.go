package resolver

import (
	"testing"

	"github.com/arthurnw/workmux/internal/gitrepo"
	"github.com/arthurnw/workmux/internal/multiplexer"
	"github.com/arthurnw/workmux/internal/statestore"
)

type fakeMux struct {
	name, instance string
	panes          map[string]multiplexer.LivePaneInfo
	cleared        []string
}

func (f *fakeMux) Name() string       { return f.name }
func (f *fakeMux) InstanceID() string { return f.instance }
func (f *fakeMux) AllLivePaneInfo() (map[string]multiplexer.LivePaneInfo, error) {
	return f.panes, nil
}
func (f *fakeMux) CurrentPaneID() (string, bool)   { return "", false }
func (f *fakeMux) CurrentSession() (string, bool)  { return "", false }
func (f *fakeMux) ActivePaneID() (string, bool)    { return "", false }
func (f *fakeMux) SwitchToPane(string) error       { return nil }
func (f *fakeMux) ClearStatus(paneID string) error { f.cleared = append(f.cleared, paneID); return nil }
func (f *fakeMux) SetStatus(string, multiplexer.StatusIcon, bool) error { return nil }
func (f *fakeMux) EnsureStatusFormat(string) error                     { return nil }
func (f *fakeMux) WindowExistsInSession(string, string, string) (bool, error) {
	return false, nil
}
func (f *fakeMux) EnsureSession(string, string) error             { return nil }
func (f *fakeMux) SplitPane(string, string, string) (string, error) { return "", nil }

type fakeRepo struct {
	worktrees map[string]gitrepo.Worktree
}

func (f *fakeRepo) IsGitRepo() bool                    { return true }
func (f *fakeRepo) ListWorktrees() ([]gitrepo.Worktree, error) {
	var out []gitrepo.Worktree
	for _, wt := range f.worktrees {
		out = append(out, wt)
	}
	return out, nil
}
func (f *fakeRepo) FindWorktree(name string) (gitrepo.Worktree, error) {
	wt, ok := f.worktrees[name]
	if !ok {
		return gitrepo.Worktree{}, errNotFound
	}
	return wt, nil
}
func (f *fakeRepo) GetMainWorktreeRoot() (string, error)            { return "/repo", nil }
func (f *fakeRepo) GetCurrentBranch() (string, error)               { return "main", nil }
func (f *fakeRepo) GetDefaultBranch() (string, error)                { return "main", nil }
func (f *fakeRepo) BranchExists(string) bool                         { return true }
func (f *fakeRepo) GetMergeBase(a, b string) (string, error)         { return "base", nil }
func (f *fakeRepo) GetUnmergedBranches(string) ([]string, error)     { return nil, nil }
func (f *fakeRepo) SetBranchBase(string, string) error               { return nil }

type notFoundErr struct{}

func (notFoundErr) Error() string { return "worktree not found" }

var errNotFound = notFoundErr{}

func newTestStore(t *testing.T) *statestore.Store {
	t.Helper()
	store, err := statestore.NewAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestForWorktreeMatchesByWorkDir(t *testing.T) {
	store := newTestStore(t)
	key := statestore.PaneKey{Backend: "tmux", Instance: "default", PaneID: "%1"}
	statusWorking := statestore.StatusWorking
	if err := store.Upsert(statestore.AgentState{
		PaneKey: key, WorkDir: "/repo/wt/feat-a", PanePID: 111, Command: "claude", Status: &statusWorking,
	}); err != nil {
		t.Fatal(err)
	}

	mux := &fakeMux{
		name: "tmux", instance: "default",
		panes: map[string]multiplexer.LivePaneInfo{
			"%1": {PID: 111, CurrentCommand: "claude", Session: "gt", Window: "1", Title: "feat-a"},
		},
	}
	repo := &fakeRepo{worktrees: map[string]gitrepo.Worktree{
		"feat-a": {Path: "/repo/wt/feat-a", Branch: "feat-a"},
	}}

	r := New(store, mux, repo)
	panes, err := r.ForWorktree("feat-a")
	if err != nil {
		t.Fatalf("ForWorktree error: %v", err)
	}
	if len(panes) != 1 {
		t.Fatalf("expected 1 matching pane, got %d", len(panes))
	}
}

func TestForWorktreeReturnsEmptyForIdleWorktree(t *testing.T) {
	store := newTestStore(t)
	mux := &fakeMux{name: "tmux", instance: "default", panes: map[string]multiplexer.LivePaneInfo{}}
	repo := &fakeRepo{worktrees: map[string]gitrepo.Worktree{
		"feat-b": {Path: "/repo/wt/feat-b", Branch: "feat-b"},
	}}

	r := New(store, mux, repo)
	panes, err := r.ForWorktree("feat-b")
	if err != nil {
		t.Fatalf("ForWorktree error: %v", err)
	}
	if len(panes) != 0 {
		t.Fatalf("expected no panes, got %d", len(panes))
	}
}

func TestForWorktreeUnknownNameErrors(t *testing.T) {
	store := newTestStore(t)
	mux := &fakeMux{name: "tmux", instance: "default", panes: map[string]multiplexer.LivePaneInfo{}}
	repo := &fakeRepo{worktrees: map[string]gitrepo.Worktree{}}

	r := New(store, mux, repo)
	if _, err := r.ForWorktree("nonexistent"); err == nil {
		t.Fatal("expected error resolving unknown worktree name")
	}
}
