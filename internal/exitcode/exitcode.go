// Package exitcode defines the process exit codes workmux commands use and
// a typed error that carries one, so callers can set the process exit
// status without string-matching error messages.
package exitcode

import (
	"errors"
	"fmt"
)

// Exit codes, per spec: 0 success, 1 generic failure, 124 timeout (matches
// the conventional `timeout(1)` exit code so scripts wrapping workmux can
// reuse their existing timeout handling).
const (
	Success = 0
	General = 1
	Timeout = 124
)

// Error wraps an underlying error with a specific exit code.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap attaches a code to err. Returns nil if err is nil.
func Wrap(code int, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Err: err}
}

// Timeoutf builds a Timeout-coded error.
func Timeoutf(format string, args ...interface{}) error {
	return &Error{Code: Timeout, Err: fmt.Errorf(format, args...)}
}

// Code extracts the exit code from err, defaulting to General for
// unwrapped errors and Success for a nil error.
func Code(err error) int {
	if err == nil {
		return Success
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return General
}
