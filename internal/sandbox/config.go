// Package sandbox supervises a per-worktree Lima/QEMU micro-VM: booting
// or reusing it, injecting mounts and guest RPC environment, writing the
// host-command shim directory, and wrapping the agent command for
// execution inside the guest.
package sandbox

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Mount describes one host path bind-mounted into the guest.
type Mount struct {
	HostPath  string `json:"host_path"`
	GuestPath string `json:"guest_path,omitempty"`
	ReadOnly  bool   `json:"read_only,omitempty"`
}

// Config is the per-repo sandbox configuration, merged from a global
// default and a repo-level override the way the rest of the ambient
// config layer is merged.
type Config struct {
	Image       string   `json:"image,omitempty"`
	CPUs        int      `json:"cpus,omitempty"`
	MemoryGiB   int      `json:"memory_gib,omitempty"`
	DiskGiB     int      `json:"disk_gib,omitempty"`
	HostCmds    []string `json:"host_commands,omitempty"`
	Mounts      []Mount  `json:"mounts,omitempty"`
}

// DefaultConfig returns sensible defaults for a sandbox with no overrides.
func DefaultConfig() *Config {
	return &Config{
		Image:     "default",
		CPUs:      4,
		MemoryGiB: 8,
		DiskGiB:   60,
	}
}

// Merge layers override on top of base, returning a new Config. Scalar
// fields in override replace base's; HostCmds and Mounts in override
// replace base's wholesale (they are already complete lists, not deltas).
func Merge(base, override *Config) *Config {
	if override == nil {
		return base
	}
	if base == nil {
		return override
	}
	result := *base
	if override.Image != "" {
		result.Image = override.Image
	}
	if override.CPUs != 0 {
		result.CPUs = override.CPUs
	}
	if override.MemoryGiB != 0 {
		result.MemoryGiB = override.MemoryGiB
	}
	if override.DiskGiB != 0 {
		result.DiskGiB = override.DiskGiB
	}
	if override.HostCmds != nil {
		result.HostCmds = override.HostCmds
	}
	if override.Mounts != nil {
		result.Mounts = override.Mounts
	}
	return &result
}

// LoadConfigFromFile reads a sandbox Config from path, returning defaults
// if the file does not exist.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path from trusted config location
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading sandbox config %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing sandbox config %s: %w", path, err)
	}
	return &cfg, nil
}

// VMName derives a stable identity for the VM backing repo+workspace, so
// repeated invocations against the same repo reuse one VM rather than
// booting a new one every launch.
func VMName(repo, workspace string) string {
	h := sha256.Sum256([]byte(repo + "\x00" + workspace))
	return "workmux-" + hex.EncodeToString(h[:])[:12]
}

// effectiveMounts always includes the repo path read-write and
// $HOME/.gitconfig read-only, plus whatever the config declares.
func effectiveMounts(repoPath string, homeDir string, configured []Mount) []Mount {
	mounts := []Mount{
		{HostPath: repoPath, GuestPath: repoPath, ReadOnly: false},
		{HostPath: filepath.Join(homeDir, ".gitconfig"), GuestPath: filepath.Join(homeDir, ".gitconfig"), ReadOnly: true},
	}
	return append(mounts, configured...)
}
