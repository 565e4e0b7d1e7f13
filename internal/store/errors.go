package store

import (
	"errors"
	"fmt"
)

// NotFoundError indicates the requested item does not exist. Callers that
// enforce ownership by partition key report this for foreign items as well,
// so absence and lack of ownership are indistinguishable.
type NotFoundError struct{}

func (e *NotFoundError) Error() string { return "store: item not found" }

// ConflictError indicates a violated write precondition, such as a
// must-not-exist put against an existing key.
type ConflictError struct{ Cause error }

func (e *ConflictError) Error() string { return fmt.Sprintf("store: conflict: %v", e.Cause) }
func (e *ConflictError) Unwrap() error { return e.Cause }

// UnavailableError indicates a transient backend failure that survived the
// adapter's bounded retry budget. Callers may treat it as a generic internal
// failure; the adapter does not retry further.
type UnavailableError struct{ Cause error }

func (e *UnavailableError) Error() string { return fmt.Sprintf("store: unavailable: %v", e.Cause) }
func (e *UnavailableError) Unwrap() error { return e.Cause }

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

// IsUnavailable reports whether err is an UnavailableError.
func IsUnavailable(err error) bool {
	var u *UnavailableError
	return errors.As(err, &u)
}
