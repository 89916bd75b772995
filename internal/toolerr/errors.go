// Package toolerr defines the error kinds surfaced by tools.
package toolerr

import (
	"errors"
	"fmt"
)

// Error kinds. Tools wrap one of these so callers can branch with errors.Is.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidIdentifier    = errors.New("invalid identifier")
	ErrInvalidUsername      = errors.New("invalid username")
	ErrInvalidHost          = errors.New("invalid host")
	ErrNotFound             = errors.New("not found")
	ErrUpstream             = errors.New("upstream failure")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrTimeout              = errors.New("command timeout")
	ErrUnreachable          = errors.New("mysql unreachable")
	ErrCommandFailed        = errors.New("command failed")
	ErrRenderFailed         = errors.New("render failed")
)

var codes = []struct {
	kind error
	code string
}{
	{ErrInvalidIdentifier, "INVALID_IDENTIFIER"},
	{ErrInvalidUsername, "INVALID_USERNAME"},
	{ErrInvalidHost, "INVALID_HOST"},
	{ErrInvalidInput, "INVALID_INPUT"},
	{ErrNotFound, "NOT_FOUND"},
	{ErrConfirmationRequired, "CONFIRMATION_REQUIRED"},
	{ErrTimeout, "COMMAND_TIMEOUT"},
	{ErrUnreachable, "MYSQL_UNREACHABLE"},
	{ErrCommandFailed, "COMMAND_FAILED"},
	{ErrRenderFailed, "RENDER_FAILED"},
	{ErrUpstream, "UPSTREAM_ERROR"},
}

// Error is a tool failure with a stable wire code.
type Error struct {
	Kind    error
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.Error()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

// New creates an Error of the given kind.
func New(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind that keeps err as its cause.
func Wrap(kind error, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Upstream marks err as a failure of an external collaborator. The message
// of err is kept unchanged, and a deadline is not reinterpreted as a
// timeout. Errors that already carry a kind pass through as they are.
func Upstream(err error) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	return &Error{Kind: ErrUpstream, Err: err}
}

// Code returns the wire code for err, or TOOL_EXECUTION_ERROR when the error
// carries no known kind.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.kind) {
			return c.code
		}
	}
	return "TOOL_EXECUTION_ERROR"
}
