package movavg

import "errors"

var (
	// ErrInvalidWidth indicates a non-positive averaging width.
	ErrInvalidWidth = errors.New("width must be positive")

	// ErrInvalidInterval indicates an averaging interval shorter than two
	// nanoseconds.
	ErrInvalidInterval = errors.New("interval must be at least two nanoseconds")

	// ErrTimeRegression indicates an observation earlier than a prior one.
	ErrTimeRegression = errors.New("observation time regressed")
)
