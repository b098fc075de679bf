package services

import "errors"

var (
	// ErrNotFound is returned when the referenced emergency or responder
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a responder loses the acceptance race,
	// or when the emergency is no longer open to offers.
	ErrConflict = errors.New("emergency already accepted by another responder")

	// ErrNoResponders is returned when widening reached the maximum radius
	// without finding a single eligible responder.
	ErrNoResponders = errors.New("no responders available")

	// ErrInvalidState is returned when an operation does not apply to the
	// emergency's or responder's current status.
	ErrInvalidState = errors.New("operation not valid in current state")
)
