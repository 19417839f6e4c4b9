package transaction

import "errors"

var (
	ErrNotFound          = errors.New("transaction not found")
	ErrInvalidTransition = errors.New("transaction has already been decided")
)

// ValidationError is a user-correctable rejection of a submission.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
