package runartifact

import (
	"time"

	"github.com/arthurnw/workmux/internal/exitcode"
)

// pollInterval matches the ~200ms cadence the design calls for: frequent
// enough that `run --wait` feels responsive, coarse enough not to burn a
// core busy-polling a result file.
const pollInterval = 200 * time.Millisecond

// Wait polls for runID's result up to timeout (zero means no timeout),
// returning the result once it appears. On timeout it returns an
// exitcode.Error carrying code 124, and — unless keep is true — removes
// the run artifact before returning.
func (s *Store) Wait(runID string, timeout time.Duration, keep bool) (*Result, error) {
	var deadline time.Time
	hasDeadline := timeout > 0
	if hasDeadline {
		deadline = time.Now().Add(timeout)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		result, ok, err := s.Poll(runID)
		if err != nil {
			return nil, err
		}
		if ok {
			return result, nil
		}
		if hasDeadline && time.Now().After(deadline) {
			if !keep {
				_ = s.Remove(runID)
			}
			return nil, exitcode.Timeoutf("run %s timed out after %s", runID, timeout)
		}
		<-ticker.C
	}
}
