// Package apperr defines the error taxonomy shared by all domain services:
// validation, not-found, duplicate, and persistence failures. Handlers map
// these onto the response envelope; services never touch HTTP codes.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindPersistence Kind = iota
	KindValidation
	KindNotFound
	KindDuplicate
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindDuplicate:
		return "duplicate"
	default:
		return "persistence"
	}
}

// Error is a classified service error. The message is user-facing and goes
// into the response envelope verbatim.
type Error struct {
	Kind Kind
	Msg  string
	Err  error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Duplicate(format string, args ...interface{}) error {
	return &Error{Kind: KindDuplicate, Msg: fmt.Sprintf(format, args...)}
}

// Persistence wraps an unexpected store failure. The user-facing message is
// generic; the cause is kept for logging.
func Persistence(err error) error {
	return &Error{Kind: KindPersistence, Msg: "something went wrong, please try again", Err: err}
}

// KindOf classifies err. Unclassified errors count as persistence failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

// Message returns the user-facing message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "something went wrong, please try again"
}

// Is reports whether err is an apperr of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
