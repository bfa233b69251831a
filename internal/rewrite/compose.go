package rewrite

import (
	"strings"

	"github.com/arthurnw/workmux/internal/profile"
)

// SandboxWrapFunc wraps an already-composed inner argv for execution
// inside the sandbox guest. It is supplied by the sandbox package (which
// owns the single-quote escaping into `limactl shell ... sh -lc`) so this
// package stays ignorant of VM transport details.
type SandboxWrapFunc func(argv []string) []string

// Request describes one agent launch to compose.
type Request struct {
	AgentCommand string   // e.g. "claude --dangerously-skip-permissions"
	PromptPath   string   // optional; empty means no prompt splice
	WorkDir      string
	CacheRoot    string // e.g. ~/.cache/workmux
	InSandbox    bool
	SandboxWrap  SandboxWrapFunc
}

// Compose builds the final argv for launching an agent, applying stages
// outer to inner exactly as: sandbox wrapper -> toolchain wrapper ->
// prompt splice -> agent command. Each stage treats the argv produced by
// the stage inside it as an opaque positional payload.
func Compose(req Request, registry *profile.Registry) (Wrapped, error) {
	agentArgv := strings.Fields(req.AgentCommand)

	if req.PromptPath != "" {
		prof := registry.Resolve(req.AgentCommand)
		agentArgv = append(agentArgv, prof.PromptArgument(req.PromptPath)...)
	}

	wrapped := Wrapped{Argv: agentArgv}

	switch DetectToolchain(req.WorkDir) {
	case ToolchainDevbox:
		hash, err := DevboxCacheKey(req.WorkDir)
		if err != nil {
			return Wrapped{}, err
		}
		cacheDir, err := MaterializeDevboxCache(req.CacheRoot, req.WorkDir, hash)
		if err != nil {
			return Wrapped{}, err
		}
		wrapped = DevboxWrapper(cacheDir, req.WorkDir, wrapped.Argv)
	case ToolchainNix:
		wrapped = NixWrapper(wrapped.Argv)
	case ToolchainNone:
		// no toolchain wrapper
	}

	if req.InSandbox && req.SandboxWrap != nil {
		wrapped.Argv = req.SandboxWrap(wrapped.Argv)
	}

	return wrapped, nil
}
