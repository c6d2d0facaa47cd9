// Package booking holds the reservation rules: date ranges and their
// overlap test, availability, pricing, the booking lifecycle and the
// room catalog search.  It talks to persistence only through the Store
// interface so the same rules run against MySQL and the in-memory store.
package booking

import (
	"errors"
	"fmt"
)

// Error kinds.  Every failure produced by this package wraps exactly one
// of these, so callers can branch with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidRange = errors.New("check-out must be at least one day after check-in")
	ErrPastDate     = errors.New("date is in the past")
	ErrConflict     = errors.New("room is not available for the requested dates")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
)

// ErrRoomExists is returned by stores when a room number is already taken.
var ErrRoomExists = &Error{Kind: ErrConflict, Field: "number", Detail: "room number already exists"}

// ErrUnknownRequester is returned by stores when a booking names a user
// that does not exist.
var ErrUnknownRequester = &Error{Kind: ErrNotFound, Field: "user_id", Detail: "user not found"}

// Error carries a kind plus the offending field, if any.
type Error struct {
	Kind   error
	Field  string
	Detail string
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg = e.Detail
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, field, detail string) *Error {
	return &Error{Kind: kind, Field: field, Detail: detail}
}

// Kind returns the error kind wrapped by err, or nil when err does not
// come from this package.
func Kind(err error) error {
	for _, k := range []error{ErrNotFound, ErrInvalidRange, ErrPastDate, ErrConflict, ErrForbidden, ErrValidation} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Field returns the field name attached to err, or "".
func Field(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Field
	}
	return ""
}
