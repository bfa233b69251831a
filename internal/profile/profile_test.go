package profile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveMatchesBuiltin(t *testing.T) {
	r := NewRegistry()
	p := r.Resolve("claude --dangerously-skip-permissions")
	if p.Name != "claude" || !p.NeedsBangDelay || !p.NeedsAutoStatus {
		t.Fatalf("unexpected resolved profile: %+v", p)
	}
}

func TestResolveFallsBackToDefault(t *testing.T) {
	r := NewRegistry()
	p := r.Resolve("some-unknown-agent --flag")
	if p.PromptStyle != StyleDashDash || p.NeedsBangDelay {
		t.Fatalf("expected default profile, got %+v", p)
	}
}

func TestResolveEmptyCommand(t *testing.T) {
	r := NewRegistry()
	p := r.Resolve("")
	if p.PromptStyle != StyleDashDash {
		t.Fatalf("expected default profile for empty command, got %+v", p)
	}
}

func TestResolveFollowsSymlinkStem(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "gemini")
	if err := os.WriteFile(real, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "my-wrapper")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	r := NewRegistry()
	p := r.Resolve(link + " --prompt-wrapper")
	if p.Name != "gemini" {
		t.Fatalf("expected symlink to resolve to gemini profile, got %+v", p)
	}
}

func TestPromptArgumentStyles(t *testing.T) {
	cases := []struct {
		style PromptStyle
		want  []string
	}{
		{StyleDashDash, []string{"--", `"$(cat '/tmp/p.txt')"`}},
		{StyleDashI, []string{"-i", `"$(cat '/tmp/p.txt')"`}},
		{StylePromptFlag, []string{"--prompt", `"$(cat '/tmp/p.txt')"`}},
	}
	for _, c := range cases {
		p := Profile{PromptStyle: c.style}
		got := p.PromptArgument("/tmp/p.txt")
		if len(got) != len(c.want) || got[0] != c.want[0] || got[1] != c.want[1] {
			t.Errorf("style %v: got %v, want %v", c.style, got, c.want)
		}
	}
}

func TestPromptArgumentEscapesSingleQuotes(t *testing.T) {
	p := Profile{PromptStyle: StyleDashDash}
	got := p.PromptArgument("/tmp/it's a test.txt")
	want := `"$(cat '/tmp/it'\''s a test.txt')"`
	if got[1] != want {
		t.Fatalf("got %q, want %q", got[1], want)
	}
}

func TestMergeOverridesAddsAndReplaces(t *testing.T) {
	r := NewRegistry()
	r.Merge(map[string]Profile{
		"claude":  {NeedsBangDelay: false, PromptStyle: StyleDashI},
		"mytool":  {NeedsAutoStatus: true, PromptStyle: StylePromptFlag},
	})

	claude, _ := r.GetByName("claude")
	if claude.NeedsBangDelay {
		t.Fatal("expected override to replace needs_bang_delay")
	}
	custom, ok := r.GetByName("mytool")
	if !ok || !custom.NeedsAutoStatus {
		t.Fatalf("expected new override profile to be added, got %+v, %v", custom, ok)
	}
}

func TestLoadOverridesMissingFileReturnsEmpty(t *testing.T) {
	out, err := LoadOverrides(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("missing overrides file should not error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty overrides, got %v", out)
	}
}

func TestLoadOverridesParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.toml")
	contents := `
[profiles.mytool]
needs_bang_delay = true
prompt_style = "dashi"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := LoadOverrides(path)
	if err != nil {
		t.Fatalf("LoadOverrides error: %v", err)
	}
	p, ok := out["mytool"]
	if !ok || !p.NeedsBangDelay || p.PromptStyle != StyleDashI {
		t.Fatalf("unexpected parsed profile: %+v, ok=%v", p, ok)
	}
}
