package cmd

import "os"

// inSandboxGuest reports whether this process is running inside a
// workmux sandbox VM, per the WM_SANDBOX_GUEST=1 convention the
// supervisor injects into the guest environment.
func inSandboxGuest() bool {
	return os.Getenv("WM_SANDBOX_GUEST") == "1"
}
