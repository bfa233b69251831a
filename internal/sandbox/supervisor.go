package sandbox

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/arthurnw/workmux/internal/rpc"
	"github.com/arthurnw/workmux/internal/shim"
	"github.com/arthurnw/workmux/internal/statestore"
)

// GuestEnv is the set of environment variables injected into the sandbox
// guest so its workmux invocations route through RPC instead of acting
// locally.
type GuestEnv struct {
	SandboxGuest string // WM_SANDBOX_GUEST, always "1"
	RPCHost      string
	RPCPort      int
	RPCToken     string
}

// AsEnv renders GuestEnv as KEY=value pairs suitable for exec.Cmd.Env.
func (g GuestEnv) AsEnv() []string {
	return []string{
		"WM_SANDBOX_GUEST=" + g.SandboxGuest,
		"WM_RPC_HOST=" + g.RPCHost,
		fmt.Sprintf("WM_RPC_PORT=%d", g.RPCPort),
		"WM_RPC_TOKEN=" + g.RPCToken,
	}
}

// Supervisor owns the lifecycle of one sandbox: the VM, its shim
// directory, and its RPC server.
type Supervisor struct {
	VM        VM
	Config    *Config
	StateDir  string // <state-root>/sandbox/<vm-name>/
	RepoPath  string
	repoName  string // handle container markers are filed under
	store     *statestore.Store
	rpcServer *rpc.Server
}

// NewSupervisor constructs a Supervisor for repo at repoPath, keyed by a
// stable VM name derived from repo+workspace. repo is the stable repo
// identifier (e.g. the main worktree root's basename, not the per-
// worktree repoPath), matching the handle `sandbox prune` looks
// containers up by.
func NewSupervisor(store *statestore.Store, stateRoot, repo, workspace, repoPath string, cfg *Config) *Supervisor {
	name := VMName(repo, workspace)
	return &Supervisor{
		VM:       VM{Name: name},
		Config:   cfg,
		StateDir: filepath.Join(stateRoot, "sandbox", name),
		RepoPath: repoPath,
		repoName: repo,
		store:    store,
	}
}

// Start boots (or reuses) the VM, materializes the shim directory, and
// starts the RPC server, registering the VM's container marker so
// `sandbox prune` can discover it later.
func (s *Supervisor) Start(handler rpc.Handler) (GuestEnv, error) {
	cfg := *s.Config
	if home, err := os.UserHomeDir(); err == nil {
		cfg.Mounts = effectiveMounts(s.RepoPath, home, s.Config.Mounts)
	}
	if err := s.VM.EnsureStarted(&cfg); err != nil {
		return GuestEnv{}, err
	}

	if err := shim.CreateShimDirectory(s.StateDir, s.Config.HostCmds); err != nil {
		return GuestEnv{}, fmt.Errorf("writing shim directory: %w", err)
	}

	token, err := GenerateToken()
	if err != nil {
		return GuestEnv{}, err
	}

	srv, err := rpc.NewServer("127.0.0.1:0", token, handler)
	if err != nil {
		return GuestEnv{}, fmt.Errorf("starting rpc server: %w", err)
	}
	s.rpcServer = srv
	go func() { _ = srv.Serve() }()

	if s.store != nil {
		if err := s.store.RegisterContainer(s.vmHandle(), s.VM.Name); err != nil {
			return GuestEnv{}, fmt.Errorf("registering container marker: %w", err)
		}
	}

	_, port, err := splitHostPort(srv.Addr().String())
	if err != nil {
		return GuestEnv{}, err
	}

	return GuestEnv{
		SandboxGuest: "1",
		RPCHost:      "127.0.0.1",
		RPCPort:      port,
		RPCToken:     token,
	}, nil
}

// Stop stops the RPC server and the VM.
func (s *Supervisor) Stop() error {
	if s.rpcServer != nil {
		_ = s.rpcServer.Close()
	}
	if s.store != nil {
		_ = s.store.UnregisterContainer(s.vmHandle(), s.VM.Name)
	}
	return s.VM.Stop()
}

// vmHandle is the repo handle the VM's container marker is filed under,
// matching the identifier `sandbox prune` derives from the main repo
// root (not the per-worktree repoPath, which differs per workspace).
func (s *Supervisor) vmHandle() string {
	return s.repoName
}

func splitHostPort(addr string) (string, int, error) {
	var host string
	var port int
	_, err := fmt.Sscanf(addr, "%[^:]:%d", &host, &port)
	return host, port, err
}
