package sessiontrack

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	settleDelay = 5 * time.Second
	pollPeriod  = 2 * time.Second
)

// sessionEnvDir returns the directory the agent tool drops a per-session
// directory into on startup. Only Claude Code is supported today; other
// agents that don't exhibit this filesystem side effect simply never
// populate a session id, which is a documented best-effort limitation.
func sessionEnvDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".claude", "session-env"), nil
}

func countEntries(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	return len(entries)
}

// SpawnCapture launches a detached background process that will poll for
// the newly-created session-env directory and record it against (repo,
// branch). It snapshots the current entry count synchronously, before the
// agent pane is started, so the background process knows what's new.
func (s *Store) SpawnCapture(repo, branch string, timeoutSec int) error {
	dir, err := sessionEnvDir()
	if err != nil {
		return err
	}
	initialCount := countEntries(dir)

	return spawnCaptureProcess(repo, branch, initialCount, timeoutSec)
}

// RunCaptureLoop is the body of the detached `internal capture-session`
// subcommand: wait for the agent to settle, then poll for a newly created
// session-env directory until one appears or the timeout elapses.
//
// The settle delay exists because the agent tool can take a couple of
// seconds after launch before it creates its session directory; polling
// immediately would just waste the first couple of poll cycles.
func (s *Store) RunCaptureLoop(repo, branch string, initialCount, timeoutSec int) error {
	dir, err := sessionEnvDir()
	if err != nil {
		return err
	}

	time.Sleep(settleDelay)

	deadline := time.Now().Add(time.Duration(timeoutSec) * time.Second)
	for {
		if id, ok := findNewestSince(dir, initialCount); ok {
			if err := s.StoreSession(repo, branch, id); err != nil {
				slog.Warn("sessiontrack: captured id failed validation", "repo", repo, "branch", branch, "id", id, "error", err)
				return nil
			}
			return nil
		}
		if time.Now().After(deadline) {
			slog.Warn("sessiontrack: capture timed out", "repo", repo, "branch", branch)
			return nil
		}
		time.Sleep(pollPeriod)
	}
}

// findNewestSince looks for a new UUID-named directory under dir beyond
// initialCount entries, returning the most recently modified one if there
// are several (the agent may write scratch files before settling on its
// real session directory).
func findNewestSince(dir string, initialCount int) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) <= initialCount {
		return "", false
	}

	type candidate struct {
		name    string
		modTime time.Time
	}
	var candidates []candidate
	for _, e := range entries {
		if !e.IsDir() || !IsValidUUID(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{name: e.Name(), modTime: info.ModTime()})
	}
	if len(candidates) == 0 {
		return "", false
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].modTime.After(candidates[j].modTime) })
	return candidates[0].name, true
}
