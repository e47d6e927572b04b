// Package errs holds user-facing errors shared by the CLI and the gateway.
package errs

import (
	"errors"
	"fmt"
)

// UserErrorf formats an error whose message is shown to the user as is, so it
// may start with a capital letter.
func UserErrorf(format string, a ...any) error {
	return fmt.Errorf(format, a...)
}

// Error pairs an underlying error with a short user-facing Reason. Its
// message is Err's, or Reason when Err is nil.
type Error struct {
	Err    error
	Reason string
}

// Wrap creates an Error with the given underlying error and user-facing reason.
func Wrap(err error, reason string) Error {
	return Error{Err: err, Reason: reason}
}

// Wrapf creates an Error with the given underlying error and a formatted reason.
func Wrapf(err error, format string, a ...any) Error {
	return Error{Err: err, Reason: fmt.Sprintf(format, a...)}
}

func (e Error) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Reason
}

func (e Error) Unwrap() error {
	return e.Err
}

// Reason returns the reason of the first Error in err's chain, or err's own
// message when there is none.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var e Error
	if errors.As(err, &e) && e.Reason != "" {
		return e.Reason
	}
	return err.Error()
}
