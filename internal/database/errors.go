package database

import (
	"context"
	"errors"
)

// PersistenceError reports a failed read or write against the backing store.
// Callers surface it as a generic failure; the wrapped error is for logs only.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Wrap returns nil for a nil err.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	return &PersistenceError{Op: op, Err: err}
}

// IsTransient reports whether err is a store failure worth retrying.
func IsTransient(err error) bool {
	var pe *PersistenceError
	if !errors.As(err, &pe) {
		return false
	}

	return !errors.Is(err, context.Canceled)
}
