package statestore

import (
	"testing"
)

type fakeClearer struct {
	cleared []string
}

func (f *fakeClearer) ClearStatus(paneID string) error {
	f.cleared = append(f.cleared, paneID)
	return nil
}

func statusPtr(s Status) *Status { return &s }

func TestReconcileGoneDeletesRecord(t *testing.T) {
	store := newTestStore(t)
	key := PaneKey{Backend: "tmux", Instance: "default", PaneID: "%1"}
	if err := store.Upsert(AgentState{PaneKey: key, PanePID: 111, Command: "node", Status: statusPtr(StatusWorking)}); err != nil {
		t.Fatal(err)
	}

	clearer := &fakeClearer{}
	live, err := Reconcile(store, "tmux", "default", map[string]LivePaneInfo{}, clearer)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if len(live) != 0 {
		t.Fatalf("expected zero live panes, got %d", len(live))
	}
	if _, ok := store.Get(key); ok {
		t.Fatal("expected record to be deleted")
	}
	// Gone case clears no status bar icon (no pane to clear it on).
	if len(clearer.cleared) != 0 {
		t.Fatalf("expected no clear calls for gone pane, got %v", clearer.cleared)
	}
}

func TestReconcilePIDMismatchDeletesAndClears(t *testing.T) {
	store := newTestStore(t)
	key := PaneKey{Backend: "tmux", Instance: "default", PaneID: "%2"}
	if err := store.Upsert(AgentState{PaneKey: key, PanePID: 111, Command: "node", Status: statusPtr(StatusWorking)}); err != nil {
		t.Fatal(err)
	}

	snapshot := map[string]LivePaneInfo{"%2": {PID: 222, CurrentCommand: "zsh"}}
	clearer := &fakeClearer{}
	live, err := Reconcile(store, "tmux", "default", snapshot, clearer)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if len(live) != 0 {
		t.Fatalf("expected zero live panes, got %d", len(live))
	}
	if _, ok := store.Get(key); ok {
		t.Fatal("expected record to be deleted")
	}
	if len(clearer.cleared) != 1 || clearer.cleared[0] != "%2" {
		t.Fatalf("expected status icon cleared for %%2, got %v", clearer.cleared)
	}
}

func TestReconcileCommandMismatchDeletesWhenStatusKnown(t *testing.T) {
	store := newTestStore(t)
	key := PaneKey{Backend: "tmux", Instance: "default", PaneID: "%3"}
	if err := store.Upsert(AgentState{PaneKey: key, PanePID: 111, Command: "claude", Status: statusPtr(StatusDone)}); err != nil {
		t.Fatal(err)
	}

	snapshot := map[string]LivePaneInfo{"%3": {PID: 111, CurrentCommand: "zsh"}}
	live, err := Reconcile(store, "tmux", "default", snapshot, &fakeClearer{})
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if len(live) != 0 {
		t.Fatalf("expected zero live panes, got %d", len(live))
	}
	if _, ok := store.Get(key); ok {
		t.Fatal("expected record to be deleted")
	}
}

func TestReconcileKeepsRecordWithNoStatusOnCommandMismatch(t *testing.T) {
	store := newTestStore(t)
	key := PaneKey{Backend: "tmux", Instance: "default", PaneID: "%4"}
	// No hook has fired yet: Status is nil. The observed command ("zsh", the
	// startup shell) doesn't match what will eventually be written, but the
	// record must survive — Exception A.
	if err := store.Upsert(AgentState{PaneKey: key, PanePID: 111, Command: "claude"}); err != nil {
		t.Fatal(err)
	}

	snapshot := map[string]LivePaneInfo{"%4": {PID: 111, CurrentCommand: "zsh"}}
	live, err := Reconcile(store, "tmux", "default", snapshot, &fakeClearer{})
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if len(live) != 1 {
		t.Fatalf("expected record to survive, got %d live panes", len(live))
	}
	if _, ok := store.Get(key); !ok {
		t.Fatal("expected record to still exist on disk")
	}
}

func TestReconcileKeepsRestoredRecordOnCommandMismatch(t *testing.T) {
	store := newTestStore(t)
	key := PaneKey{Backend: "tmux", Instance: "default", PaneID: "%5"}
	if err := store.Upsert(AgentState{
		PaneKey: key, PanePID: 111, Command: "claude",
		Status: statusPtr(StatusWaiting), StatusTS: 1000, Restored: true,
	}); err != nil {
		t.Fatal(err)
	}

	snapshot := map[string]LivePaneInfo{"%5": {PID: 111, CurrentCommand: "zsh"}}
	live, err := Reconcile(store, "tmux", "default", snapshot, &fakeClearer{})
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if len(live) != 1 {
		t.Fatalf("expected restored record to survive command mismatch, got %d", len(live))
	}
}

func TestReconcileMatchEmitsLivePaneWithTransientFields(t *testing.T) {
	store := newTestStore(t)
	key := PaneKey{Backend: "tmux", Instance: "default", PaneID: "%6"}
	if err := store.Upsert(AgentState{PaneKey: key, PanePID: 111, Command: "claude", Status: statusPtr(StatusWorking)}); err != nil {
		t.Fatal(err)
	}

	snapshot := map[string]LivePaneInfo{"%6": {PID: 111, CurrentCommand: "claude", Session: "gt-feat-a", Window: "1", Title: "feat-a"}}
	live, err := Reconcile(store, "tmux", "default", snapshot, &fakeClearer{})
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if len(live) != 1 {
		t.Fatalf("expected 1 live pane, got %d", len(live))
	}
	if live[0].Session != "gt-feat-a" || live[0].Window != "1" || live[0].Title != "feat-a" {
		t.Fatalf("unexpected transient fields: %+v", live[0])
	}
}

func TestReconcileSkipsForeignBackend(t *testing.T) {
	store := newTestStore(t)
	key := PaneKey{Backend: "wezterm", Instance: "other", PaneID: "%1"}
	if err := store.Upsert(AgentState{PaneKey: key, PanePID: 999, Command: "claude"}); err != nil {
		t.Fatal(err)
	}

	live, err := Reconcile(store, "tmux", "default", map[string]LivePaneInfo{}, &fakeClearer{})
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if len(live) != 0 {
		t.Fatalf("expected no live panes from foreign backend, got %d", len(live))
	}
	if _, ok := store.Get(key); !ok {
		t.Fatal("expected foreign record to be left untouched, not deleted")
	}
}

func TestDrainOrphansIdempotent(t *testing.T) {
	store := newTestStore(t)
	key := PaneKey{Backend: "tmux", Instance: "default", PaneID: "%7"}
	if err := store.Upsert(AgentState{
		PaneKey: key, WorkDir: "/repo/wt/feat-a", PanePID: 111, Command: "claude",
		Status: statusPtr(StatusWaiting), StatusTS: 1000,
	}); err != nil {
		t.Fatal(err)
	}

	snapshot := map[string]LivePaneInfo{} // pane gone entirely

	orphans, err := DrainOrphans(store, "tmux", "default", snapshot)
	if err != nil {
		t.Fatalf("DrainOrphans error: %v", err)
	}
	if len(orphans) != 1 {
		t.Fatalf("expected 1 orphan, got %d", len(orphans))
	}
	got, ok := orphans["/repo/wt/feat-a"]
	if !ok {
		t.Fatal("expected orphan keyed by workdir")
	}
	if got.Status == nil || *got.Status != StatusWaiting || got.StatusTS != 1000 {
		t.Fatalf("unexpected orphan contents: %+v", got)
	}

	second, err := DrainOrphans(store, "tmux", "default", snapshot)
	if err != nil {
		t.Fatalf("second DrainOrphans error: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("expected idempotent second drain to be empty, got %d", len(second))
	}
}

func TestDrainOrphansClassifiesPIDRecycle(t *testing.T) {
	store := newTestStore(t)
	key := PaneKey{Backend: "tmux", Instance: "default", PaneID: "%8"}
	if err := store.Upsert(AgentState{PaneKey: key, WorkDir: "/repo/wt/b", PanePID: 111, Command: "claude"}); err != nil {
		t.Fatal(err)
	}

	snapshot := map[string]LivePaneInfo{"%8": {PID: 222, CurrentCommand: "zsh"}}
	orphans, err := DrainOrphans(store, "tmux", "default", snapshot)
	if err != nil {
		t.Fatalf("DrainOrphans error: %v", err)
	}
	if _, ok := orphans["/repo/wt/b"]; !ok {
		t.Fatalf("expected pid-recycled pane to be drained as orphan, got %v", orphans)
	}
}
