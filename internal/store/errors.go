// Package store defines persistence-layer errors shared by store backends.
package store

import "fmt"

// Error is a persistence error. Services translate these to domain errors;
// the store layer stays ignorant of HTTP.
type Error struct {
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

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Message: e.Message, Err: err}
}

// Sentinel errors.
var (
	ErrNotFound = &Error{Message: "resource not found"}

	ErrAlreadyExists = &Error{Message: "resource already exists"}

	// ErrVersionConflict signals that a conditional write lost an optimistic
	// concurrency race: the row's version moved since it was read.
	ErrVersionConflict = &Error{Message: "version conflict"}

	// ErrRunCompleted signals an attempt to mutate a scrape run that has
	// already reached a terminal status. Completed runs are immutable.
	ErrRunCompleted = &Error{Message: "scrape run already completed"}
)
