package sandbox

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
)

// VM wraps limactl invocations for one named instance.
type VM struct {
	Name string
}

// IsRunning reports whether the named Lima instance is currently running.
func (v VM) IsRunning() bool {
	out, err := exec.Command("limactl", "list", "--json", v.Name).Output()
	if err != nil {
		return false
	}
	return bytes.Contains(out, []byte(`"status":"Running"`))
}

// EnsureStarted boots the VM if it is not already running, using cfg to
// size it. Reuse is by name: two supervisors targeting the same repo and
// workspace share one VM.
func (v VM) EnsureStarted(cfg *Config) error {
	if v.IsRunning() {
		return nil
	}

	args := []string{"start", "--name", v.Name,
		"--cpus", strconv.Itoa(cfg.CPUs),
		"--memory", strconv.Itoa(cfg.MemoryGiB),
		"--disk", strconv.Itoa(cfg.DiskGiB),
		"--tty=false",
	}
	for _, m := range cfg.Mounts {
		args = append(args, "--mount", mountArg(m))
	}
	if cfg.Image != "" && cfg.Image != "default" {
		args = append(args, cfg.Image)
	}

	cmd := exec.Command("limactl", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("limactl start failed: %w\n%s", err, tail(stderr.String(), 20))
	}
	return nil
}

// mountArg renders a Mount as limactl's "host:guest[:w]" syntax; limactl
// mounts read-only by default, so write access is the flag that needs
// spelling out rather than the read-only case.
func mountArg(m Mount) string {
	guest := m.GuestPath
	if guest == "" {
		guest = m.HostPath
	}
	s := m.HostPath + ":" + guest
	if !m.ReadOnly {
		s += ":w"
	}
	return s
}

// Stop stops the VM.
func (v VM) Stop() error {
	return exec.Command("limactl", "stop", v.Name).Run()
}

// Delete deletes the VM instance entirely.
func (v VM) Delete(force bool) error {
	args := []string{"delete"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, v.Name)
	return exec.Command("limactl", args...).Run()
}

// tail returns the last n lines of s, for surfacing in a boot-failure
// error without dumping an entire VM boot log.
func tail(s string, n int) string {
	lines := splitLines(s)
	if len(lines) <= n {
		return s
	}
	start := len(lines) - n
	out := ""
	for _, l := range lines[start:] {
		out += l + "\n"
	}
	return out
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
