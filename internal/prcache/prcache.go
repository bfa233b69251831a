// Package prcache provides a disk-cached, best-effort aggregation of pull
// request check status, fetched via the gh CLI. Fetch failures never
// propagate: a stale or empty cache entry is always an acceptable answer,
// since PR status is decoration, not correctness-critical state.
package prcache

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthurnw/workmux/internal/atomicfile"
)

// CheckState summarizes a PR's CI check rollup.
type CheckState string

const (
	CheckPending CheckState = "pending"
	CheckPassing CheckState = "passing"
	CheckFailing CheckState = "failing"
	CheckUnknown CheckState = "unknown"
)

// Entry is one cached PR status snapshot.
type Entry struct {
	Branch    string     `json:"branch"`
	Number    int        `json:"number"`
	State     string     `json:"state"` // OPEN, MERGED, CLOSED
	Checks    CheckState `json:"checks"`
	FetchedTS int64      `json:"fetched_ts"`
}

// Cache stores Entry records keyed by branch under <state-root>/prcache/.
type Cache struct {
	root string
	ttl  time.Duration
}

// New constructs a Cache rooted at <stateRoot>/prcache with the given
// freshness window; entries older than ttl are treated as stale (but
// still returned if a refetch fails).
func New(stateRoot string, ttl time.Duration) *Cache {
	return &Cache{root: filepath.Join(stateRoot, "prcache"), ttl: ttl}
}

func (c *Cache) path(branch string) string {
	return filepath.Join(c.root, sanitizeBranch(branch)+".json")
}

// sanitizeBranch replaces path separators so a branch name containing
// slashes (e.g. "feature/foo") cannot escape the cache directory.
func sanitizeBranch(branch string) string {
	return strings.ReplaceAll(branch, "/", "__")
}

// Get returns the cached entry for branch, if any, without triggering a
// fetch.
func (c *Cache) Get(branch string) (Entry, bool) {
	var entry Entry
	if err := atomicfile.ReadJSON(c.path(branch), &entry); err != nil {
		return Entry{}, false
	}
	return entry, true
}

// IsFresh reports whether a cached entry is still within the cache's TTL.
func (c *Cache) IsFresh(entry Entry, now time.Time) bool {
	return now.Unix()-entry.FetchedTS < int64(c.ttl.Seconds())
}

// Refresh fetches the current PR status for branch via gh and stores it,
// returning the cached (possibly stale) entry if the fetch fails.
func (c *Cache) Refresh(branch string, now time.Time) (Entry, error) {
	entry, fetchErr := fetchViaGH(branch)
	if fetchErr != nil {
		if cached, ok := c.Get(branch); ok {
			return cached, nil // best-effort: stale cache beats no answer
		}
		return Entry{Branch: branch, Checks: CheckUnknown}, nil
	}
	entry.FetchedTS = now.Unix()

	if err := atomicfile.WriteJSON(c.path(branch), entry); err != nil {
		return entry, fmt.Errorf("writing prcache entry: %w", err)
	}
	return entry, nil
}

type ghPRListItem struct {
	Number          int    `json:"number"`
	State           string `json:"state"`
	HeadRefName     string `json:"headRefName"`
	StatusCheckUp   string `json:"statusCheckRollup,omitempty"`
}

func fetchViaGH(branch string) (Entry, error) {
	if _, err := exec.LookPath("gh"); err != nil {
		return Entry{}, fmt.Errorf("gh not installed: %w", err)
	}

	cmd := exec.Command("gh", "pr", "list", "--head", branch, "--state", "all",
		"--json", "number,state,headRefName,statusCheckRollup", "--limit", "1")
	out, err := cmd.Output()
	if err != nil {
		return Entry{}, fmt.Errorf("gh pr list failed: %w", err)
	}

	var items []ghPRListItem
	if err := json.Unmarshal(out, &items); err != nil {
		return Entry{}, fmt.Errorf("parsing gh output: %w", err)
	}
	if len(items) == 0 {
		return Entry{Branch: branch, Checks: CheckUnknown}, nil
	}

	item := items[0]
	return Entry{
		Branch: branch,
		Number: item.Number,
		State:  item.State,
		Checks: classifyChecks(item.StatusCheckUp),
	}, nil
}

func classifyChecks(rollup string) CheckState {
	switch {
	case rollup == "":
		return CheckUnknown
	case strings.Contains(rollup, "FAILURE"):
		return CheckFailing
	case strings.Contains(rollup, "PENDING"):
		return CheckPending
	case strings.Contains(rollup, "SUCCESS"):
		return CheckPassing
	default:
		return CheckUnknown
	}
}

// Prune removes cache entries fetched more than four times ttl ago, for
// periodic cleanup. Entries that cannot be read, and files it fails to
// remove, are skipped silently; only a failure to list the cache
// directory is returned.
func (c *Cache) Prune(now time.Time) error {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading prcache directory: %w", err)
	}
	for _, e := range entries {
		path := filepath.Join(c.root, e.Name())
		var entry Entry
		if err := atomicfile.ReadJSON(path, &entry); err != nil {
			continue
		}
		if now.Unix()-entry.FetchedTS > int64(c.ttl.Seconds())*4 {
			_ = os.Remove(path)
		}
	}
	return nil
}
