package service

import "errors"

var (
	// ErrValidation is returned for missing or malformed caller input;
	// nothing is persisted and the caller can resubmit.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a record does not exist or is not
	// owned by the acting principal. The two cases are deliberately
	// indistinguishable to the caller.
	ErrNotFound = errors.New("not found or not authorized")

	// ErrInvalidActionState is returned when acting on an approval
	// request that has already settled. No state is mutated.
	ErrInvalidActionState = errors.New("request already settled")
)

// Logger is the minimal logging dependency services require
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}
