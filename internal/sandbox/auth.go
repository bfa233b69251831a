package sandbox

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

// ReadTokenNoEcho prompts on w and reads a line from fd without echoing
// it to the terminal, for `sandbox auth` flows that accept a credential
// (e.g. a registry token for a private base image) interactively.
func ReadTokenNoEcho(w io.Writer, fd int, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	data, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
