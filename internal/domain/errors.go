// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidReferenceType is returned when a reference type is not
	// one of the known values.
	ErrInvalidReferenceType = errors.New("invalid reference type")

	// ErrInvalidTaskType is returned when a task type is not one of the
	// known values, or is not applicable to the given reference type.
	ErrInvalidTaskType = errors.New("invalid task type")

	// ErrInvalidTaskStatus is returned when a task status is not valid.
	ErrInvalidTaskStatus = errors.New("invalid task status")

	// ErrInvalidPriority is returned when a priority is not valid.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrIllegalTransition is returned when an explicit status update
	// would move a task to a state not reachable from its current one.
	ErrIllegalTransition = errors.New("illegal status transition")
)
