package cmd

import "github.com/arthurnw/workmux/internal/exitcode"

// exitCodeForError extracts the process exit code an *exitcode.Error
// carries, defaulting to exitcode.General. The error text itself has
// already been printed by cobra's own error handling.
func exitCodeForError(err error) int {
	return exitcode.Code(err)
}
