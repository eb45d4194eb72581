package movavg

import (
	"fmt"
	"math"
)

// EMA is a count-weighted exponential moving average (a "modified moving
// average"). Until the observation count reaches the configured width, each
// observation is weighted by 1/count, so the early average tracks the
// arithmetic mean instead of overweighting the first samples.
//
// EMA is not safe for concurrent use. It assumes observations of similar
// scale; wildly mixed magnitudes degrade accuracy.
type EMA struct {
	width   int
	weight  float64
	average float64
	count   int64
}

// NewEMA creates an average over the given observation width. The larger
// the width, the smaller each observation's contribution once the count
// reaches it.
func NewEMA(width int) (*EMA, error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWidth, width)
	}
	return &EMA{
		width:   width,
		weight:  1 / float64(width),
		average: math.NaN(),
	}, nil
}

// Add observes v and returns the updated average. NaN observations are
// ignored.
func (e *EMA) Add(v float64) float64 {
	if math.IsNaN(v) {
		return e.average
	}
	e.count++
	if math.IsNaN(e.average) {
		e.average = v
		return v
	}
	weight := e.weight
	if e.count <= int64(e.width) {
		weight = 1 / float64(e.count)
	}
	e.average += (v - e.average) * weight
	return e.average
}

// Average returns the current average, NaN when nothing has been observed.
func (e *EMA) Average() float64 {
	return e.average
}

// Valid reports whether at least one value has been observed since creation
// or the last Reset.
func (e *EMA) Valid() bool {
	return !math.IsNaN(e.average)
}

// Reset discards all observations.
func (e *EMA) Reset() {
	e.count = 0
	e.average = math.NaN()
}

// Combine merges this average with another into a new instance. Each side's
// contribution is weighted by its effective observation count, capped at its
// width.
func (e *EMA) Combine(other *EMA) *EMA {
	average := math.NaN()
	switch {
	case e.Valid() && other.Valid():
		if e.average == other.average {
			average = e.average
		} else {
			mine := float64(min(e.count, int64(e.width)))
			theirs := float64(min(other.count, int64(other.width)))
			average = (e.average*(mine/theirs) + other.average*(theirs/mine)) / 2
		}
	case e.Valid():
		average = e.average
	case other.Valid():
		average = other.average
	}

	width := e.width
	if e.width != other.width {
		width = (e.width + other.width) / 2
	}

	return &EMA{
		width:   width,
		weight:  1 / float64(width),
		average: average,
		count:   e.count + other.count,
	}
}

func (e *EMA) String() string {
	return fmt.Sprintf("%v", e.average)
}
