package runartifact

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arthurnw/workmux/internal/exitcode"
)

func TestValidateRunIDAcceptsAndRejects(t *testing.T) {
	if err := ValidateRunID("1700000000000000000-4242-ab12cd34"); err != nil {
		t.Fatalf("expected valid run id, got error: %v", err)
	}
	for _, bad := range []string{"", ".", "..", "../escape", "has/slash", "has space"} {
		if err := ValidateRunID(bad); err == nil {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}

func TestCreateWriteResultAndPoll(t *testing.T) {
	store := New(t.TempDir())
	runID := "run-1"

	dir, err := store.Create(runID, Spec{Command: "echo hi", WorkDir: "/repo/wt/a"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, specFileName)); err != nil {
		t.Fatalf("expected spec.json to exist: %v", err)
	}

	if _, ok, err := store.Poll(runID); err != nil || ok {
		t.Fatalf("expected no result yet, got ok=%v err=%v", ok, err)
	}

	if err := store.WriteResult(runID, Result{ExitCode: 0}); err != nil {
		t.Fatalf("WriteResult error: %v", err)
	}

	result, ok, err := store.Poll(runID)
	if err != nil || !ok {
		t.Fatalf("expected result present, got ok=%v err=%v", ok, err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestWaitReturnsOnceResultAppears(t *testing.T) {
	store := New(t.TempDir())
	runID := "run-2"
	if _, err := store.Create(runID, Spec{Command: "sleep 1"}); err != nil {
		t.Fatal(err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = store.WriteResult(runID, Result{ExitCode: 7})
	}()

	result, err := store.Wait(runID, 2*time.Second, false)
	if err != nil {
		t.Fatalf("Wait error: %v", err)
	}
	if result.ExitCode != 7 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestWaitTimesOutAndCleansUp(t *testing.T) {
	store := New(t.TempDir())
	runID := "run-3"
	dir, err := store.Create(runID, Spec{Command: "sleep 10"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = store.Wait(runID, 100*time.Millisecond, false)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if exitcode.Code(err) != exitcode.Timeout {
		t.Fatalf("expected exit code %d, got %d", exitcode.Timeout, exitcode.Code(err))
	}
	if _, statErr := os.Stat(dir); !os.IsNotExist(statErr) {
		t.Fatal("expected run directory to be removed after timeout without --keep")
	}
}

func TestWaitTimesOutAndKeepsWithRetention(t *testing.T) {
	store := New(t.TempDir())
	runID := "run-4"
	dir, err := store.Create(runID, Spec{Command: "sleep 10"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = store.Wait(runID, 100*time.Millisecond, true)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if _, statErr := os.Stat(dir); statErr != nil {
		t.Fatal("expected run directory to survive timeout when keep=true")
	}
}

func TestReadOutputHandlesMissingStreams(t *testing.T) {
	store := New(t.TempDir())
	runID := "run-5"
	if _, err := store.Create(runID, Spec{Command: "noop"}); err != nil {
		t.Fatal(err)
	}
	stdout, stderr, err := store.ReadOutput(runID)
	if err != nil {
		t.Fatalf("ReadOutput error: %v", err)
	}
	if stdout != nil || stderr != nil {
		t.Fatalf("expected nil streams before anything is written, got %q %q", stdout, stderr)
	}
}
