package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// Kind classifies a seeding failure. Every kind is fatal to the run.
type Kind string

const (
	KindConfig       Kind = "config"
	KindConnection   Kind = "connection"
	KindPrecondition Kind = "precondition"
	KindWrite        Kind = "write"
	KindInternal     Kind = "internal"
)

// exitCodes maps a kind to the process exit status used by the CLI.
var exitCodes = map[Kind]int{
	KindConfig:       2,
	KindConnection:   3,
	KindPrecondition: 4,
	KindWrite:        5,
	KindInternal:     1,
}

// Error represents a seeding error
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// ExitCode returns the process exit status for this error's kind.
func (e *Error) ExitCode() int {
	if code, ok := exitCodes[e.Kind]; ok {
		return code
	}
	return 1
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New creates a new Error
func New(kind Kind, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Common error types
var (
	ErrConfig       = New(KindConfig, "Invalid configuration", nil)
	ErrConnection   = New(KindConnection, "Datastore connection error", nil)
	ErrPrecondition = New(KindPrecondition, "Precondition violated", nil)
	ErrWrite        = New(KindWrite, "Bulk insert failed", nil)
)

// Config wraps err as a configuration error.
func Config(message string, err error) *Error {
	return New(KindConfig, message, err)
}

// Connection wraps err as a datastore connection error.
func Connection(message string, err error) *Error {
	return New(KindConnection, message, err)
}

// Precondition wraps err as a precondition violation, e.g. sampling an empty collection.
func Precondition(message string, err error) *Error {
	return New(KindPrecondition, message, err)
}

// Write wraps err as a bulk insert failure.
func Write(message string, err error) *Error {
	return New(KindWrite, message, err)
}

// ExitCode returns the exit status for any error; plain errors map to 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.ExitCode()
	}
	return 1
}

// KindOf returns the kind of the outermost *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
