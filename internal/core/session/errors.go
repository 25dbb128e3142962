package session

import "errors"

// Sentinel errors for the pipeline. Services wrap these with context so
// callers can classify failures with errors.Is.
var (
	// ErrNotFound indicates the referenced session or row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition indicates an illegal state move, such as
	// rejecting an approved session.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrValidationBlocked indicates approval was attempted while
	// blocker-severity issues remain.
	ErrValidationBlocked = errors.New("validation blocked")

	// ErrEmptySession indicates the session has no rows to act on.
	ErrEmptySession = errors.New("empty session")

	// ErrCascadeWrite indicates a downstream create step of the approval
	// cascade failed. The cascade transaction rolls back, so the session
	// is never left approved with a partial production graph.
	ErrCascadeWrite = errors.New("cascade write failed")
)
