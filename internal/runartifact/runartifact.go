// Package runartifact implements the on-disk record of one `run --wait`
// external command invocation: its spec, captured stdout/stderr, and a
// result file whose atomic appearance is the completion signal.
package runartifact

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/arthurnw/workmux/internal/atomicfile"
)

// Spec describes the command a run artifact was created for.
type Spec struct {
	Command  string `json:"command"`
	WorkDir  string `json:"work_dir"`
	Args     []string `json:"args,omitempty"`
}

// Result is written once the command completes; its presence under
// result.json is the signal a waiting poller looks for.
type Result struct {
	ExitCode int    `json:"exit_code"`
	Signal   string `json:"signal,omitempty"`
}

const (
	specFileName   = "spec.json"
	stdoutFileName = "stdout"
	stderrFileName = "stderr"
	resultFileName = "result.json"
)

// Store manages run artifact directories under <state-root>/runs/.
type Store struct {
	root string
}

// New constructs a Store rooted at <stateRoot>/runs.
func New(stateRoot string) *Store {
	return &Store{root: filepath.Join(stateRoot, "runs")}
}

// validRunIDChar mirrors the command-name validation discipline used
// elsewhere in the state layer: alphanumeric plus hyphen only, which both
// keeps ids readable and rejects path traversal outright.
func validRunIDChar(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || b == '-'
}

// ValidateRunID rejects empty ids, ids containing anything outside
// [A-Za-z0-9-], and ids that could traverse out of the runs directory.
func ValidateRunID(id string) error {
	if id == "" {
		return fmt.Errorf("run id must not be empty")
	}
	if id == "." || id == ".." {
		return fmt.Errorf("run id %q is not valid", id)
	}
	for i := 0; i < len(id); i++ {
		if !validRunIDChar(id[i]) {
			return fmt.Errorf("run id %q contains invalid byte %q", id, id[i])
		}
	}
	return nil
}

// NewRunID generates a monotonic-looking id from the current time and
// the calling process's pid, with a short random suffix to disambiguate
// two runs started within the same nanosecond-resolution tick on
// platforms with coarser clocks.
func NewRunID(now time.Time) (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("generating run id suffix: %w", err)
	}
	return fmt.Sprintf("%d-%d-%s", now.UnixNano(), os.Getpid(), hex.EncodeToString(suffix)), nil
}

func (s *Store) dir(runID string) string {
	return filepath.Join(s.root, runID)
}

// Create makes a fresh run directory for runID and writes its spec.json.
func (s *Store) Create(runID string, spec Spec) (string, error) {
	if err := ValidateRunID(runID); err != nil {
		return "", err
	}
	dir := s.dir(runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating run directory: %w", err)
	}
	if err := atomicfile.WriteJSON(filepath.Join(dir, specFileName), spec); err != nil {
		return "", fmt.Errorf("writing run spec: %w", err)
	}
	return dir, nil
}

// StdoutPath, StderrPath return the paths a runner should write captured
// output to.
func (s *Store) StdoutPath(runID string) string { return filepath.Join(s.dir(runID), stdoutFileName) }
func (s *Store) StderrPath(runID string) string { return filepath.Join(s.dir(runID), stderrFileName) }

// WriteResult atomically writes result.json, signaling completion to any
// poller.
func (s *Store) WriteResult(runID string, result Result) error {
	if err := ValidateRunID(runID); err != nil {
		return err
	}
	return atomicfile.WriteJSON(filepath.Join(s.dir(runID), resultFileName), result)
}

// Poll checks whether result.json exists yet, returning it if so.
func (s *Store) Poll(runID string) (*Result, bool, error) {
	if err := ValidateRunID(runID); err != nil {
		return nil, false, err
	}
	var result Result
	path := filepath.Join(s.dir(runID), resultFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, false, nil
	}
	if err := atomicfile.ReadJSON(path, &result); err != nil {
		return nil, false, fmt.Errorf("reading run result: %w", err)
	}
	return &result, true, nil
}

// ReadOutput returns the captured stdout and stderr for runID.
func (s *Store) ReadOutput(runID string) (stdout, stderr []byte, err error) {
	if err := ValidateRunID(runID); err != nil {
		return nil, nil, err
	}
	stdout, err = os.ReadFile(s.StdoutPath(runID)) //nolint:gosec // G304: runID validated above
	if err != nil && !os.IsNotExist(err) {
		return nil, nil, err
	}
	stderr, err = os.ReadFile(s.StderrPath(runID)) //nolint:gosec
	if err != nil && !os.IsNotExist(err) {
		return nil, nil, err
	}
	return stdout, stderr, nil
}

// Remove deletes a run artifact directory entirely (the default unless
// the caller requested retention).
func (s *Store) Remove(runID string) error {
	if err := ValidateRunID(runID); err != nil {
		return err
	}
	return os.RemoveAll(s.dir(runID))
}
