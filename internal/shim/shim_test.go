package shim

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestValidateCommandNameAccepts(t *testing.T) {
	for _, name := range []string{"just", "cargo", "node-v20", "afplay"} {
		if err := ValidateCommandName(name); err != nil {
			t.Errorf("expected %q to be valid, got error: %v", name, err)
		}
	}
}

func TestValidateCommandNameRejects(t *testing.T) {
	cases := []string{
		"",
		"has space",
		"has/slash",
		"has;semicolon",
		".",
		"..",
		DispatcherName,
		"日本語",
		string(make([]byte, 65)), // too long
	}
	for _, name := range cases {
		if err := ValidateCommandName(name); err == nil {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}

func TestEffectiveHostCommandsIncludesBuiltinsInOrder(t *testing.T) {
	got := EffectiveHostCommands([]string{"just", "afplay", "cargo"})
	if len(got) < len(BuiltinCommands) {
		t.Fatalf("expected at least builtins present, got %v", got)
	}
	for i, b := range BuiltinCommands {
		if got[i] != b {
			t.Fatalf("expected builtin %q at position %d, got %v", b, i, got)
		}
	}
	seen := map[string]int{}
	for _, c := range got {
		seen[c]++
	}
	for name, count := range seen {
		if count > 1 {
			t.Fatalf("expected no duplicates, %q appeared %d times in %v", name, count, got)
		}
	}
}

func TestCreateShimDirectoryProducesSymlinksToDispatcher(t *testing.T) {
	dir := t.TempDir()
	if err := CreateShimDirectory(dir, []string{"just", "cargo"}); err != nil {
		t.Fatalf("CreateShimDirectory error: %v", err)
	}

	binDir := filepath.Join(dir, "bin")
	for _, name := range []string{"just", "cargo", "afplay"} {
		target, err := os.Readlink(filepath.Join(binDir, name))
		if err != nil {
			t.Fatalf("expected %s to be a symlink: %v", name, err)
		}
		if target != DispatcherName {
			t.Fatalf("expected %s to link to %s, got %s", name, DispatcherName, target)
		}
	}

	entries, err := os.ReadDir(binDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("found stray tmp entry after creation: %s", e.Name())
		}
	}
}

func TestCreateShimDirectoryConcurrentCallsBothSucceed(t *testing.T) {
	dir := t.TempDir()
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = CreateShimDirectory(dir, []string{"just", "cargo"})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("concurrent call %d failed: %v", i, err)
		}
	}

	binDir := filepath.Join(dir, "bin")
	for _, name := range []string{"just", "cargo"} {
		target, err := os.Readlink(filepath.Join(binDir, name))
		if err != nil || target != DispatcherName {
			t.Fatalf("expected %s -> %s after concurrent creation, got %q, err=%v", name, DispatcherName, target, err)
		}
	}

	entries, err := os.ReadDir(binDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("found stray tmp entry after concurrent creation: %s", e.Name())
		}
	}
}
