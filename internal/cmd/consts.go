package cmd

import "time"

const (
	// prCacheTTL is how long a cached PR-check entry is considered fresh
	// before `pr status` refreshes it (synchronously) from gh.
	prCacheTTL = 2 * time.Minute

	// defaultSessionCaptureTimeoutSec bounds how long a detached
	// capture-session process waits for a new session-id directory to
	// appear before giving up.
	defaultSessionCaptureTimeoutSec = 30

	// defaultRunWaitTimeoutSec is the fallback timeout for `run --wait`
	// when the caller doesn't pass --timeout.
	defaultRunWaitTimeoutSec = 0 // 0 means no timeout
)
