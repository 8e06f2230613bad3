package domain

import "errors"

// Error kinds raised by the service layer. Module-level errors wrap exactly one of them,
// so callers classify with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidOperation = errors.New("invalid operation")
)

var ErrIllegalTransition = NewError(ErrInvalidOperation, "illegal claim status transition")

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// NewError returns an error with message msg that matches kind under errors.Is.
func NewError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}
