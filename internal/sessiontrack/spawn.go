package sessiontrack

import (
	"strconv"

	"github.com/arthurnw/workmux/internal/procdetach"
)

// spawnCaptureProcess re-executes the current binary as
// `workmux internal capture-session` with the given parameters, detached
// so it survives the caller's process exiting.
func spawnCaptureProcess(repo, branch string, initialCount, timeoutSec int) error {
	args := []string{
		"internal", "capture-session",
		"--repo", repo,
		"--branch", branch,
		"--initial-count", strconv.Itoa(initialCount),
		"--timeout", strconv.Itoa(timeoutSec),
	}
	return procdetach.Spawn(args)
}
