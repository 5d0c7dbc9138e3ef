// Package app contains the application services that orchestrate the
// domain rules over the store ports.
package app

import "errors"

// Service sentinels. HTTP handlers map these to status codes.
var (
	// ErrNotEligible is returned when a lifecycle rule forbids the
	// requested operation (terminal state, future renewal without
	// force, disabled plan).
	ErrNotEligible = errors.New("not eligible")

	// ErrOverlap is returned when an open invoice already covers the
	// requested billing period.
	ErrOverlap = errors.New("billing period overlaps an open invoice")

	// ErrConflict is returned when the entity changed state under the
	// caller, e.g. completing an already-settled transaction.
	ErrConflict = errors.New("state conflict")

	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("invalid input")
)
