// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidEmail is returned when an email address is malformed.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidStatus is returned when a task status is not one of the
	// allowed values.
	ErrInvalidStatus = errors.New("invalid task status")

	// ErrInvalidPriority is returned when a task priority is not one of the
	// allowed values.
	ErrInvalidPriority = errors.New("invalid task priority")

	// ErrInvalidTransition is returned when a status change would move a task
	// backwards in its todo -> in-progress -> done progression.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidNotificationType is returned when a notification type is not
	// one of the enumerated values.
	ErrInvalidNotificationType = errors.New("invalid notification type")

	// ErrUnauthorized is returned when an operation is not permitted for the
	// acting user.
	ErrUnauthorized = errors.New("unauthorized operation")
)
