package permit

import "errors"

var (
	// ErrInvalidRequest indicates a non-positive permit request, or a
	// blocking request larger than the current max acquire.
	ErrInvalidRequest = errors.New("invalid permit request")

	// ErrInvalidRate indicates a non-positive permit rate.
	ErrInvalidRate = errors.New("permit rate must be positive")

	// ErrInvalidLimit indicates a non-positive permit limit, or one below
	// the current max acquire.
	ErrInvalidLimit = errors.New("permit limit must be positive and not below max acquire")

	// ErrInvalidMaxAcquire indicates a non-positive max acquire, or one
	// above the current permit limit.
	ErrInvalidMaxAcquire = errors.New("max acquire must be positive and not above permit limit")

	// ErrInvalidInterval indicates a non-positive permit interval.
	ErrInvalidInterval = errors.New("permit interval must be positive")

	// ErrClockRequired indicates that a nil Clock was supplied.
	ErrClockRequired = errors.New("clock is required")
)
