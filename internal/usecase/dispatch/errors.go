package dispatch

import "errors"

// Sentinel errors for dispatch use case operations.
var (
	// ErrUnknownBackend indicates a service config names a backend no
	// implementation is registered for.
	ErrUnknownBackend = errors.New("unknown messaging backend")

	// ErrInvalidConfig indicates the stored config blob could not be parsed
	// or fails validation.
	ErrInvalidConfig = errors.New("invalid messaging service config")
)
