package service

import "errors"

// Common service errors.
var (
	// ErrForbidden is returned when the acting user is neither the creator
	// nor the assignee of a task (and not an admin).
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidTransition is returned when a status patch would move a task
	// backwards in its todo -> in-progress -> done progression, or out of the
	// terminal done state.
	ErrInvalidTransition = errors.New("invalid status transition")
)
