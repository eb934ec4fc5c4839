// Package apperr defines the error kinds surfaced by the ledger.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind string

const (
	// KindValidation marks malformed caller input.
	KindValidation Kind = "validation"
	// KindNotFound marks an unknown user, group or expense id.
	KindNotFound Kind = "not_found"
	// KindConflict marks a uniqueness violation such as a duplicate email.
	KindConflict Kind = "conflict"
	// KindPrecondition marks an operation refused in the current state.
	KindPrecondition Kind = "precondition"
	// KindInvariant marks an internal consistency failure. It is a bug.
	KindInvariant Kind = "invariant"
	// KindUnknown is reported for errors that are not *Error.
	KindUnknown Kind = "unknown"
)

// Error is an error with a kind and a caller-facing message.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Validation builds a KindValidation error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationCause wraps cause as a KindValidation error.
func ValidationCause(cause error) *Error {
	return &Error{Kind: KindValidation, Message: cause.Error(), cause: cause}
}

// NotFound builds a KindNotFound error for an entity id.
func NotFound(entity string, id int64) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found: %d", entity, id)}
}

// Conflict builds a KindConflict error.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Precondition builds a KindPrecondition error.
func Precondition(format string, args ...any) *Error {
	return &Error{Kind: KindPrecondition, Message: fmt.Sprintf(format, args...)}
}

// Invariant builds a KindInvariant error.
func Invariant(format string, args ...any) *Error {
	return &Error{Kind: KindInvariant, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
