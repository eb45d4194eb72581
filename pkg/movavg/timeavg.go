package movavg

import (
	"fmt"
	"math"
	"time"
)

// TimeDecaying is a moving average over a fixed interval of time. New
// observations are weighted by when they occur relative to the most recent
// observation, so a burst of stale history decays rather than dominating.
//
// TimeDecaying is not safe for concurrent use.
type TimeDecaying struct {
	interval time.Duration
	half     time.Duration
	now      func() time.Time

	average   float64
	baseValue float64
	lastValue float64
	base      time.Time
	last      time.Time // zero while no value has been observed
}

// TimeDecayingOption configures a TimeDecaying average.
type TimeDecayingOption func(*TimeDecaying)

// WithNow substitutes the time source, usually for tests.
func WithNow(now func() time.Time) TimeDecayingOption {
	return func(t *TimeDecaying) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTimeDecaying creates a moving average over the given interval, which
// must be at least two nanoseconds so its half is non-zero.
func NewTimeDecaying(interval time.Duration, opts ...TimeDecayingOption) (*TimeDecaying, error) {
	if interval < 2 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInterval, interval)
	}
	t := &TimeDecaying{
		interval: interval,
		half:     interval / 2,
		now:      time.Now,
		average:  math.NaN(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Add observes v at the current time and returns the updated average. NaN
// observations are ignored.
func (t *TimeDecaying) Add(v float64) (float64, error) {
	return t.AddAt(v, t.now())
}

// AddAt observes v at the given time, which must not precede earlier
// observations and must come from the same time source. NaN observations
// are ignored.
func (t *TimeDecaying) AddAt(v float64, when time.Time) (float64, error) {
	if math.IsNaN(v) {
		return t.average, nil
	}
	if t.last.IsZero() {
		t.base, t.last = when, when
		t.baseValue, t.lastValue, t.average = v, v, v
		return t.average, nil
	}

	sinceLast := when.Sub(t.last)
	if sinceLast < 0 {
		return t.average, fmt.Errorf("%w: %v is before %v", ErrTimeRegression, when, t.last)
	}

	newBase := when.Add(-t.interval)
	var newBaseValue float64
	switch {
	case !t.base.Before(newBase):
		// The base stays put; fold the new value into the average by the
		// ratio of the spans before and after the last observation.
		ratio := 0.5 // only one prior value
		if t.last.After(t.base) {
			before := t.last.Sub(t.base)
			after := when.Sub(t.last)
			ratio = 0
			if before > 0 {
				ratio = 1 - float64(after)/float64(before)
			}
		}
		t.last = when
		t.lastValue = v
		t.average = t.average*ratio + v*(1-ratio)
		return t.average, nil

	case sinceLast <= t.interval:
		// Inside the interval: slide the base forward, interpolating its
		// value from the prior base and last observations.
		before := newBase.Sub(t.base)
		after := t.last.Sub(newBase)
		ratio := 1.0
		if after > 0 {
			ratio = float64(before) / float64(after)
		}
		newBaseValue = (t.baseValue + t.lastValue) * ratio

	default:
		// The previous history has aged out entirely; rebase on the old
		// average as if observed half an interval back.
		oldAverageAt := t.last.Add(-t.half)
		before := newBase.Sub(oldAverageAt)
		after := when.Sub(newBase)
		ratio := 1.0
		if after > 0 {
			ratio = float64(before) / float64(after)
		}
		newBaseValue = (t.average + v) * ratio
	}

	t.base = newBase
	t.baseValue = newBaseValue
	t.last = when
	t.lastValue = v
	t.average = (newBaseValue + v) / 2
	return t.average, nil
}

// Average returns the current average, NaN when nothing has been observed.
func (t *TimeDecaying) Average() float64 {
	return t.average
}

// Valid reports whether at least one value has been observed since creation
// or the last Reset.
func (t *TimeDecaying) Valid() bool {
	return !math.IsNaN(t.average)
}

// Reset discards all observations.
func (t *TimeDecaying) Reset() {
	t.base, t.last = time.Time{}, time.Time{}
	t.baseValue, t.lastValue, t.average = math.NaN(), math.NaN(), math.NaN()
}

func (t *TimeDecaying) String() string {
	return fmt.Sprintf("%v", t.average)
}
