package apperr

import "errors"

// Kind classifies an engine error for transport mapping.
type Kind int

const (
	Unauthenticated Kind = iota
	Forbidden
	NotFound
	Conflict
	Rejected
	Internal
)

// Error is the engine-wide error shape: a kind for status mapping plus a
// caller-safe message. Internal errors keep the underlying cause for
// server-side logging only.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Internal error around a storage/transaction failure. The
// cause is never surfaced to callers.
func Wrap(err error, message string) *Error {
	return &Error{Kind: Internal, Message: message, cause: err}
}

// KindOf extracts the kind from err, defaulting to Internal for anything
// that is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}
