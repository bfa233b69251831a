// Package profile resolves per-agent command-composition behavior: how to
// splice a prompt file into an agent's CLI, and which pane-interaction
// workarounds a given agent needs.
package profile

import (
	"path/filepath"
	"strings"
)

// PromptStyle names how a profile splices a filesystem-path prompt into
// the agent's argument list.
type PromptStyle string

const (
	// StyleDashDash appends `-- "$(cat path)"`.
	StyleDashDash PromptStyle = "dashdash"
	// StyleDashI appends `-i "$(cat path)"`.
	StyleDashI PromptStyle = "dashi"
	// StylePromptFlag appends `--prompt "$(cat path)"`.
	StylePromptFlag PromptStyle = "prompt-flag"
)

// Profile declares per-agent behaviors needed by the command rewriter.
type Profile struct {
	// Name is the executable stem this profile matches against
	// ("claude", "gemini", "codex", "opencode").
	Name string

	// NeedsBangDelay is true when a brief delay must follow sending
	// "!" into the pane, working around agents that treat it as a
	// prefix character rather than literal input.
	NeedsBangDelay bool

	// NeedsAutoStatus is true when the orchestrator must inject an
	// auto-status side channel for a prompt-file launch, because this
	// agent's "prompt submitted" hook does not fire for injected
	// prompts.
	NeedsAutoStatus bool

	// PromptStyle selects how PromptArgument splices the prompt path.
	PromptStyle PromptStyle
}

// PromptArgument returns the extra arguments to append to the agent
// command line to deliver the prompt stored at path.
func (p Profile) PromptArgument(path string) []string {
	quoted := `"$(cat ` + shellQuote(path) + `)"`
	switch p.PromptStyle {
	case StyleDashI:
		return []string{"-i", quoted}
	case StylePromptFlag:
		return []string{"--prompt", quoted}
	case StyleDashDash:
		fallthrough
	default:
		return []string{"--", quoted}
	}
}

// shellQuote wraps s in single quotes, escaping any embedded single quote
// using the standard '\'' technique, so it is safe as a literal inside the
// double-quoted $(cat ...) substitution above.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// defaultProfile applies to any executable with no specific entry.
var defaultProfile = Profile{
	Name:        "",
	PromptStyle: StyleDashDash,
}

// builtins is the static table of known agent profiles, keyed by
// executable stem.
var builtins = map[string]Profile{
	"claude": {
		Name:            "claude",
		NeedsBangDelay:  true,
		NeedsAutoStatus: true,
		PromptStyle:     StyleDashDash,
	},
	"gemini": {
		Name:        "gemini",
		PromptStyle: StyleDashI,
	},
	"codex": {
		Name:        "codex",
		PromptStyle: StylePromptFlag,
	},
	"opencode": {
		Name:        "opencode",
		PromptStyle: StyleDashDash,
	},
}

// Registry holds the built-in profile table plus any user overrides
// layered on top.
type Registry struct {
	profiles map[string]Profile
}

// NewRegistry returns a Registry seeded with the built-in profiles.
func NewRegistry() *Registry {
	r := &Registry{profiles: make(map[string]Profile, len(builtins))}
	for name, p := range builtins {
		r.profiles[name] = p
	}
	return r
}

// Merge layers overrides on top of the registry's current table, keyed by
// profile name; an override for an unknown name adds a new profile.
func (r *Registry) Merge(overrides map[string]Profile) {
	for name, p := range overrides {
		if p.Name == "" {
			p.Name = name
		}
		r.profiles[name] = p
	}
}

// GetByName returns the profile registered under name, if any.
func (r *Registry) GetByName(name string) (Profile, bool) {
	p, ok := r.profiles[name]
	return p, ok
}

// Resolve tokenizes command, resolves the first token's path (following
// symlinks), and matches its file stem against the registry. Falls back
// to the default profile (-- splicing) when nothing matches.
func (r *Registry) Resolve(command string) Profile {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return defaultProfile
	}

	stem := executableStem(fields[0])
	if p, ok := r.profiles[stem]; ok {
		return p
	}
	return defaultProfile
}

// executableStem resolves path as far as symlinks allow and returns the
// base name with any extension stripped.
func executableStem(path string) string {
	resolved := path
	if target, err := filepath.EvalSymlinks(path); err == nil {
		resolved = target
	}

	base := filepath.Base(resolved)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
