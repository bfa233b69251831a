// Package sessiontrack captures and stores externally-assigned agent
// session IDs per (repo, branch) pair, and tracks which repos have been
// seen for multi-repo restore discovery.
//
// The agent tool under orchestration writes a per-session directory under
// a user-home state area when it starts (for Claude Code:
// ~/.claude/session-env/<uuid>/). This package exploits that filesystem
// side effect rather than parsing agent output, since the agent's stdout
// is the pane's business, not ours.
package sessiontrack

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/arthurnw/workmux/internal/atomicfile"
)

const (
	sessionsDirName  = "sessions"
	sessionIDFile    = "session_id"
	repoPathFile     = "repo_path"
	tmuxSessionFile  = "tmux_session"
)

// Store manages SessionRecord persistence under <state-root>/sessions/.
type Store struct {
	root string
}

// New constructs a sessiontrack Store rooted at <stateRoot>/sessions.
func New(stateRoot string) *Store {
	return &Store{root: filepath.Join(stateRoot, sessionsDirName)}
}

func (s *Store) branchDir(repo, branch string) string {
	return filepath.Join(s.root, repo, branch)
}

func (s *Store) repoDir(repo string) string {
	return filepath.Join(s.root, repo)
}

// IsValidUUID reports whether s is a canonical 8-4-4-4-12 hex UUID,
// case-insensitive. uuid.Parse alone accepts other textual forms (braced,
// urn:uuid:, no-dash); requiring the reserialized canonical form to match
// the input (modulo case) rejects those and enforces the dashed format the
// spec requires.
func IsValidUUID(s string) bool {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.String(), s)
}

// StoreSession atomically writes sessionID as the session_id file for
// (repo, branch). Returns an error if sessionID isn't a valid UUID.
func (s *Store) StoreSession(repo, branch, sessionID string) error {
	if !IsValidUUID(sessionID) {
		return fmt.Errorf("invalid session id %q: not a UUID", sessionID)
	}
	path := filepath.Join(s.branchDir(repo, branch), sessionIDFile)
	return atomicfile.WriteFile(path, []byte(sessionID), 0o644)
}

// GetSession reads the stored session id for (repo, branch), if any.
func (s *Store) GetSession(repo, branch string) (string, bool) {
	path := filepath.Join(s.branchDir(repo, branch), sessionIDFile)
	data, err := os.ReadFile(path) //nolint:gosec // G304: path built from repo/branch args
	if err != nil {
		return "", false
	}
	return string(data), true
}

// RemoveSession unlinks the session id for (repo, branch) and opportunistically
// prunes now-empty parent directories. If every branch under a repo has been
// removed, the sibling repo_path marker is removed too.
func (s *Store) RemoveSession(repo, branch string) error {
	branchDir := s.branchDir(repo, branch)
	if err := os.Remove(filepath.Join(branchDir, sessionIDFile)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session id: %w", err)
	}
	_ = os.Remove(filepath.Join(branchDir, tmuxSessionFile)) // best-effort, may not exist
	_ = os.Remove(branchDir)                                  // no-op if non-empty

	repoDir := s.repoDir(repo)
	entries, err := os.ReadDir(repoDir)
	if err != nil {
		return nil // repo dir already gone, nothing left to prune
	}
	remaining := 0
	for _, e := range entries {
		if e.IsDir() {
			remaining++
		}
	}
	if remaining == 0 {
		_ = os.Remove(filepath.Join(repoDir, repoPathFile))
		_ = os.Remove(repoDir)
	}
	return nil
}

// StoreRepoPath records the absolute path of a repo, for multi-repo restore
// discovery (ListAllRepos).
func (s *Store) StoreRepoPath(repo, absPath string) error {
	path := filepath.Join(s.repoDir(repo), repoPathFile)
	return atomicfile.WriteFile(path, []byte(absPath), 0o644)
}

// SetTmuxSession records an optional tmux session name marker for
// multi-session restore targeting.
func (s *Store) SetTmuxSession(repo, branch, sessionName string) error {
	path := filepath.Join(s.branchDir(repo, branch), tmuxSessionFile)
	return atomicfile.WriteFile(path, []byte(sessionName), 0o644)
}

// GetTmuxSession reads the tmux session name marker for (repo, branch).
func (s *Store) GetTmuxSession(repo, branch string) (string, bool) {
	path := filepath.Join(s.branchDir(repo, branch), tmuxSessionFile)
	data, err := os.ReadFile(path) //nolint:gosec // G304
	if err != nil {
		return "", false
	}
	return string(data), true
}

// RepoEntry is one result of ListAllRepos.
type RepoEntry struct {
	Repo string
	Path string
}

// ListAllRepos scans sessions/*/repo_path, reads each, and drops repos
// whose recorded path no longer exists on disk.
func (s *Store) ListAllRepos() ([]RepoEntry, error) {
	return s.listRepos(false)
}

// ListAllReposIncludingStale is ListAllRepos but keeps entries whose
// recorded path no longer exists, for `session list --all`.
func (s *Store) ListAllReposIncludingStale() ([]RepoEntry, error) {
	return s.listRepos(true)
}

func (s *Store) listRepos(includeStale bool) ([]RepoEntry, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing sessions directory: %w", err)
	}

	var repos []RepoEntry
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		repo := e.Name()
		data, err := os.ReadFile(filepath.Join(s.repoDir(repo), repoPathFile)) //nolint:gosec
		if err != nil {
			continue
		}
		path := string(data)
		if _, err := os.Stat(path); err != nil && !includeStale {
			continue // recorded path no longer exists; drop it
		}
		repos = append(repos, RepoEntry{Repo: repo, Path: path})
	}
	return repos, nil
}
