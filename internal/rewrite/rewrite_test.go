package rewrite

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthurnw/workmux/internal/profile"
)

func TestDetectToolchainPrefersDevboxOverNix(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "devbox.json"), `{}`)
	write(t, filepath.Join(dir, "flake.nix"), `{}`)

	if got := DetectToolchain(dir); got != ToolchainDevbox {
		t.Fatalf("expected devbox to take precedence, got %v", got)
	}
}

func TestDetectToolchainNone(t *testing.T) {
	if got := DetectToolchain(t.TempDir()); got != ToolchainNone {
		t.Fatalf("expected none, got %v", got)
	}
}

func TestDevboxCacheKeyStableAcrossIdenticalContent(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	write(t, filepath.Join(a, "devbox.json"), `{"packages":["go"]}`)
	write(t, filepath.Join(b, "devbox.json"), `{"packages":["go"]}`)

	ha, err := DevboxCacheKey(a)
	if err != nil {
		t.Fatal(err)
	}
	hb, err := DevboxCacheKey(b)
	if err != nil {
		t.Fatal(err)
	}
	if ha != hb {
		t.Fatalf("expected identical devbox.json to hash the same, got %s != %s", ha, hb)
	}
}

func TestDevboxCacheKeyDiffersOnContent(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	write(t, filepath.Join(a, "devbox.json"), `{"packages":["go"]}`)
	write(t, filepath.Join(b, "devbox.json"), `{"packages":["node"]}`)

	ha, _ := DevboxCacheKey(a)
	hb, _ := DevboxCacheKey(b)
	if ha == hb {
		t.Fatal("expected differing devbox.json to hash differently")
	}
}

func TestMaterializeDevboxCacheSeedsOnce(t *testing.T) {
	workdir := t.TempDir()
	cacheRoot := t.TempDir()
	write(t, filepath.Join(workdir, "devbox.json"), `{"packages":["go"]}`)

	hash, err := DevboxCacheKey(workdir)
	if err != nil {
		t.Fatal(err)
	}
	cacheDir, err := MaterializeDevboxCache(cacheRoot, workdir, hash)
	if err != nil {
		t.Fatalf("MaterializeDevboxCache error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cacheDir, "devbox.json")); err != nil {
		t.Fatalf("expected devbox.json to be copied into cache dir: %v", err)
	}

	// A second worktree with identical content maps to the same cache dir.
	workdir2 := t.TempDir()
	write(t, filepath.Join(workdir2, "devbox.json"), `{"packages":["go"]}`)
	hash2, _ := DevboxCacheKey(workdir2)
	cacheDir2, err := MaterializeDevboxCache(cacheRoot, workdir2, hash2)
	if err != nil {
		t.Fatal(err)
	}
	if cacheDir != cacheDir2 {
		t.Fatalf("expected shared cache dir for identical config, got %s vs %s", cacheDir, cacheDir2)
	}
}

func TestDevboxWrapperNeverInterpolatesCommand(t *testing.T) {
	wrapped := DevboxWrapper("/cache/abc", "/repo/wt/a", []string{"claude", "--dangerous; rm -rf /"})
	// The dangerous payload must appear only as a trailing positional
	// argument, never inside the static shell-string argument.
	for _, arg := range wrapped.Argv {
		if arg == `cd "$_WM_CWD" && exec "$@"` {
			continue
		}
		if strings.Contains(arg, "rm -rf") && arg != "--dangerous; rm -rf /" {
			t.Fatalf("command content leaked into wrapper template: %q", arg)
		}
	}
	last := wrapped.Argv[len(wrapped.Argv)-1]
	if last != "--dangerous; rm -rf /" {
		t.Fatalf("expected raw command as final positional arg, got %q", last)
	}
}

func TestComposeAppliesOuterToInnerOrdering(t *testing.T) {
	registry := profile.NewRegistry()
	dir := t.TempDir()
	write(t, filepath.Join(dir, "devbox.json"), `{}`)

	wrapped, err := Compose(Request{
		AgentCommand: "claude",
		WorkDir:      dir,
		CacheRoot:    t.TempDir(),
		InSandbox:    true,
		SandboxWrap: func(argv []string) []string {
			return append([]string{"SANDBOX"}, argv...)
		},
	}, registry)
	if err != nil {
		t.Fatalf("Compose error: %v", err)
	}
	if wrapped.Argv[0] != "SANDBOX" {
		t.Fatalf("expected sandbox wrapper to be outermost, got %v", wrapped.Argv)
	}
	if wrapped.Argv[1] != "devbox" {
		t.Fatalf("expected devbox wrapper directly inside sandbox wrapper, got %v", wrapped.Argv)
	}
}

func TestComposeSplicesPromptBeforeToolchainWrap(t *testing.T) {
	registry := profile.NewRegistry()
	dir := t.TempDir()

	wrapped, err := Compose(Request{
		AgentCommand: "claude",
		PromptPath:   "/tmp/prompt.txt",
		WorkDir:      dir,
		CacheRoot:    t.TempDir(),
	}, registry)
	if err != nil {
		t.Fatalf("Compose error: %v", err)
	}
	joined := strings.Join(wrapped.Argv, " ")
	if !strings.Contains(joined, "--") || !strings.Contains(joined, "prompt.txt") {
		t.Fatalf("expected prompt splice in composed argv, got %v", wrapped.Argv)
	}
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
