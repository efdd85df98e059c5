package errors

import (
	"errors"
	"fmt"
)

// Kind partitions failures by how the caller should react: validation and
// conflict errors are never retried as-is, not-found is terminal, transient
// store failures are the only class a caller may retry.
type Kind int

const (
	KindValidation Kind = iota
	KindConflict
	KindNotFound
	KindTransient
)

// Error is a domain error carrying its taxonomy kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Transient wraps a store failure that did not commit any partial state.
func Transient(msg string, err error) *Error {
	return &Error{Kind: KindTransient, Message: msg, Err: err}
}

// KindOf extracts the taxonomy kind, defaulting to KindTransient for
// untagged errors so unknown failures are never reported as caller mistakes.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindTransient
}

func IsValidation(err error) bool { return is(err, KindValidation) }
func IsConflict(err error) bool   { return is(err, KindConflict) }
func IsNotFound(err error) bool   { return is(err, KindNotFound) }
func IsTransient(err error) bool  { return is(err, KindTransient) }

func is(err error, k Kind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == k
}
