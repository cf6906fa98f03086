// Package errs holds the sentinel errors shared across the core. Callers
// classify failures with errors.Is; wrapping with fmt.Errorf("…: %w", err)
// preserves the sentinel.
package errs

import "errors"

var (
	// Validation failures are rejected before any state change.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrValidation         = errors.New("validation failed")

	ErrRideNotFound   = errors.New("ride not found")
	ErrDriverNotFound = errors.New("driver not found")

	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotAParticipant   = errors.New("not a participant of this ride")
	ErrNotADriver        = errors.New("only drivers can update location")
	ErrDriverNotEligible = errors.New("driver not eligible")

	// Pre-check found the ride out of the requested state.
	ErrRideNotAvailable = errors.New("ride no longer available")
	// The conditioned assignment write affected zero rows: a concurrent
	// acceptance won. Kept distinct from ErrRideNotAvailable for diagnostics;
	// both surface to users as "ride no longer available".
	ErrRideAlreadyAccepted = errors.New("ride was just accepted by another driver")

	ErrInvalidTransition = errors.New("invalid status transition")

	// Configuration error; quoting is down until a rule is activated.
	ErrNoActivePricingRule = errors.New("no active pricing rule")

	// Transient storage failure; safe to retry with backoff. The core
	// performs no implicit retries itself.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
