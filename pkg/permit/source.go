package permit

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Unlimited marks a rate, limit or max acquire as unbounded.
const Unlimited int64 = math.MaxInt64

// Source is the capability contract shared by every permit source in the
// hierarchy: the root InfiniteSource, the shared pool and the per-key
// buckets. Configuration getters read live values and are not
// snapshot-consistent across calls.
type Source interface {
	// Rate returns the number of permits granted per Interval.
	Rate() int64

	// Limit returns the maximum number of permits the source may hold.
	Limit() int64

	// Interval returns the window over which Rate permits are granted.
	Interval() time.Duration

	// MaxAcquire returns the largest single request the source will
	// satisfy, independent of current availability.
	MaxAcquire() int64

	// Available returns the current permit count without attempting a
	// refill. The value is a conservative under-count while a refill is
	// due but not yet observed.
	Available() int64

	// Acquire blocks until n permits are drawn or ctx is done. It fails
	// fast with ErrInvalidRequest when n is non-positive or exceeds
	// MaxAcquire. Cancellation returns ctx.Err() with zero permits
	// granted and counters untouched.
	Acquire(ctx context.Context, n int64) error

	// AcquireAvailable grants min(Available, min(n, MaxAcquire)) permits
	// after one non-blocking refill probe. It never blocks; the only
	// failure is a non-positive n.
	AcquireAvailable(n int64) (int64, error)

	// TryAcquire grants all n permits or none, performing at most one
	// non-blocking refill attempt on shortfall. A request beyond
	// MaxAcquire is rejected outright without probing availability and
	// the full n is recorded as denied.
	TryAcquire(n int64) (bool, error)
}

// InfiniteSource is an inexhaustible, stateless permit source. It sits at
// the root of the hierarchy: the shared pool draws from it, and key buckets
// draw from it directly when no shared ceiling is configured.
type InfiniteSource struct{}

var _ Source = InfiniteSource{}

func (InfiniteSource) Rate() int64             { return Unlimited }
func (InfiniteSource) Limit() int64            { return Unlimited }
func (InfiniteSource) Interval() time.Duration { return time.Nanosecond }
func (InfiniteSource) MaxAcquire() int64       { return Unlimited }
func (InfiniteSource) Available() int64        { return Unlimited }

// Acquire always succeeds immediately, so ctx is never consulted: this path
// is statically known to never block.
func (InfiniteSource) Acquire(_ context.Context, n int64) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d permits", ErrInvalidRequest, n)
	}
	return nil
}

func (InfiniteSource) AcquireAvailable(n int64) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d permits", ErrInvalidRequest, n)
	}
	return n, nil
}

func (InfiniteSource) TryAcquire(n int64) (bool, error) {
	if n <= 0 {
		return false, fmt.Errorf("%w: %d permits", ErrInvalidRequest, n)
	}
	return true, nil
}
