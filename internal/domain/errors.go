package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// The per-field sentinels in each entity file wrap it.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when a storage-assigned identifier is
	// missing or malformed.
	ErrInvalidID = errors.New("invalid ID")
)
