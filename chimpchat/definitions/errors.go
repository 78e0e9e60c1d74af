package definitions

import (
	"errors"
	"fmt"
)

var (
	ErrConnectionTimeout = errors.New("connection timeout")
	ErrCommandTimeout    = errors.New("command timeout")
	ErrRemoteRejected    = errors.New("remote rejected command")
	ErrTransportFailure  = errors.New("transport failure")
	ErrSessionClosed     = errors.New("session closed")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrMalformedResult   = errors.New("malformed result")
)

// CommandError reports a failed command together with what the remote said about it.
type CommandError struct {
	Kind    error
	Verb    string
	Command string
	Remote  string
	Err     error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%v: %s", e.Kind, e.Command)
	if e.Remote != "" {
		msg += fmt.Sprintf(" (remote: %s)", e.Remote)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CommandError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}
