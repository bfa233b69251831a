package lock

import (
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
)

type heldLock struct {
	fl *flock.Flock
}

func (h heldLock) release() { _ = h.fl.Unlock() }

func newHolder(t *testing.T, path string) heldLock {
	t.Helper()
	fl := flock.New(path + ".lock")
	locked, err := fl.TryLock()
	if err != nil || !locked {
		t.Fatalf("test setup: failed to take lock: locked=%v err=%v", locked, err)
	}
	return heldLock{fl: fl}
}

func TestWithLockRunsFn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact")
	ran := false
	if err := WithLock(path, func() error { ran = true; return nil }); err != nil {
		t.Fatalf("WithLock error: %v", err)
	}
	if !ran {
		t.Fatal("expected fn to run")
	}
}

func TestTryWithLockFailsWhenHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact")

	holder := newHolder(t, path)
	defer holder.release()

	ok, err := TryWithLock(path, func() error { return nil })
	if err != nil {
		t.Fatalf("TryWithLock error: %v", err)
	}
	if ok {
		t.Fatal("expected TryWithLock to fail while another holder has the lock")
	}
}
