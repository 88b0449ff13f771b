package domain

import "errors"

var (
	// ErrNotFound means the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition means the requested state-machine move is not
	// legal from the session's current state.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState means the session is Ended and cannot be mutated
	// other than through the idempotent End.
	ErrInvalidState = errors.New("session already ended")

	// ErrSessionExists means a non-Ended session already exists for the
	// (user, project) pair.
	ErrSessionExists = errors.New("active session already exists")
)
