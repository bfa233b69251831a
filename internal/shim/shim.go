// Package shim builds the guest-side symlink farm that forwards selected
// host commands into the sandbox supervisor's RPC server via `workmux
// host-exec`.
package shim

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DispatcherName is the reserved name of the dispatcher script every
// command symlink points at.
const DispatcherName = "_shim"

// BuiltinCommands is the list of host commands always exposed to a sandbox
// guest, regardless of user configuration. Ordering is preserved by
// EffectiveHostCommands.
var BuiltinCommands = []string{"afplay"}

// dispatcherScript execs the basename of argv[0] through host-exec,
// forwarding all arguments. It is a static template: no command content is
// ever interpolated into it.
const dispatcherScript = `#!/bin/sh
exec workmux host-exec "$(basename "$0")" "$@"
`

// ValidateCommandName rejects command names that could escape the shim
// directory or collide with the dispatcher itself.
func ValidateCommandName(name string) error {
	if name == "" {
		return fmt.Errorf("command name must not be empty")
	}
	if len(name) > 64 {
		return fmt.Errorf("command name %q exceeds 64 bytes", name)
	}
	if name == DispatcherName {
		return fmt.Errorf("command name %q is reserved", name)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("command name %q is not a valid filename", name)
	}
	first := name[0]
	if !isAlphanumeric(first) {
		return fmt.Errorf("command name %q must start with an alphanumeric character", name)
	}
	for i := 0; i < len(name); i++ {
		if !isShimChar(name[i]) {
			return fmt.Errorf("command name %q contains invalid byte %q", name, name[i])
		}
	}
	return nil
}

func isAlphanumeric(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

func isShimChar(b byte) bool {
	return isAlphanumeric(b) || b == '.' || b == '_' || b == '-'
}

// EffectiveHostCommands returns BuiltinCommands followed by any entries
// from user not already present, preserving BuiltinCommands' ordering and
// dropping duplicates (by value) from user.
func EffectiveHostCommands(user []string) []string {
	seen := make(map[string]bool, len(BuiltinCommands)+len(user))
	out := make([]string, 0, len(BuiltinCommands)+len(user))
	for _, c := range BuiltinCommands {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, c := range user {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// CreateShimDirectory materializes bin/ under stateDir containing the
// dispatcher and one symlink per command in commands. Every file is
// written to a temp sibling then renamed into place, so two concurrent
// supervisors sharing one VM's state directory never observe a partially
// written dispatcher or symlink, and neither leaves stray .tmp entries.
func CreateShimDirectory(stateDir string, commands []string) error {
	binDir := filepath.Join(stateDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating shim bin directory: %w", err)
	}

	dispatcherPath := filepath.Join(binDir, DispatcherName)
	if err := atomicWriteExecutable(dispatcherPath, []byte(dispatcherScript)); err != nil {
		return fmt.Errorf("writing dispatcher: %w", err)
	}

	effective := EffectiveHostCommands(commands)
	for _, name := range effective {
		if err := ValidateCommandName(name); err != nil {
			return fmt.Errorf("rejecting host command: %w", err)
		}
		if err := atomicSymlink(DispatcherName, filepath.Join(binDir, name)); err != nil {
			return fmt.Errorf("linking shim for %s: %w", name, err)
		}
	}
	return nil
}

func atomicWriteExecutable(path string, data []byte) error {
	tmp := path + ".tmp-" + randomSuffix()
	if err := os.WriteFile(tmp, data, 0o755); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// atomicSymlink creates a symlink at linkPath pointing at target via a
// temp-sibling-then-rename sequence, so a concurrent creator racing on the
// same linkPath either wins cleanly or loses cleanly — never leaves a
// half-created link.
func atomicSymlink(target, linkPath string) error {
	tmp := linkPath + ".tmp-" + randomSuffix()
	_ = os.Remove(tmp) // clear any stale leftover from a previous crash
	if err := os.Symlink(target, tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, linkPath); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

var suffixCounter = newCounter()

func randomSuffix() string {
	return fmt.Sprintf("%d-%d", os.Getpid(), suffixCounter.next())
}

type counter struct{ ch chan int }

func newCounter() *counter {
	c := &counter{ch: make(chan int, 1)}
	c.ch <- 0
	return c
}

func (c *counter) next() int {
	v := <-c.ch
	v++
	c.ch <- v
	return v
}

// EnsureBaseName strips any directory part from name (split on '/' or
// '\'), for input that might be a path rather than a bare name.
// CreateShimDirectory does not call it.
func EnsureBaseName(name string) string {
	if strings.ContainsAny(name, "/\\") {
		return filepath.Base(name)
	}
	return name
}
