package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a trigger is not permitted
	// from the current state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrTerminalState is returned when acting on an already settled
	// expense or approval request
	ErrTerminalState = errors.New("state is terminal")
)
