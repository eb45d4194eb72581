package permit

import (
	"context"
	"fmt"
	"iter"
	"sync/atomic"
	"time"
)

// Limiter partitions a bounded rate of permits across an open-ended set of
// keys while enforcing an optional ceiling shared by all of them. Buckets
// are created lazily on first access; every bucket reads the limiter's
// configuration live, so setter changes reach existing buckets on their next
// operation.
type Limiter[K comparable] struct {
	clock Clock

	// Runtime configuration. Each field is read atomically on its own:
	// concurrent readers may observe a mix of old and new values across
	// fields. That weak consistency is intentional and documented
	// behavior, not a race to fix.
	permitRate     atomic.Int64
	permitLimit    atomic.Int64
	permitMax      atomic.Int64
	permitInterval atomic.Int64 // nanoseconds

	shared Source
	table  table[K]
}

type options struct {
	limit         int64
	maxAcquire    int64
	maxAcquireSet bool
	sharedRate    int64
	sharedLimit   int64
	clock         Clock
}

// Option configures a Limiter at construction.
type Option func(*options)

// WithPermitLimit caps how many permits a bucket may accumulate.
func WithPermitLimit(limit int64) Option {
	return func(o *options) { o.limit = limit }
}

// WithMaxAcquire caps the size of a single acquisition. When not set, the
// cap follows the permit limit.
func WithMaxAcquire(n int64) Option {
	return func(o *options) {
		o.maxAcquire = n
		o.maxAcquireSet = true
	}
}

// WithSharedPool bounds the aggregate supply across all keys: rate permits
// per interval, accumulating up to limit. Pass Unlimited for rate to leave
// the aggregate unbounded (the default).
func WithSharedPool(rate, limit int64) Option {
	return func(o *options) {
		o.sharedRate = rate
		o.sharedLimit = limit
	}
}

// WithClock substitutes the monotonic nanosecond source, usually for tests.
func WithClock(clock Clock) Option {
	return func(o *options) { o.clock = clock }
}

// New creates a limiter granting rate permits per interval to each key.
// Without options, buckets hold unlimited permits, single acquisitions are
// unbounded, no shared ceiling applies and the platform monotonic clock is
// used.
func New[K comparable](rate int64, interval time.Duration, opts ...Option) (*Limiter[K], error) {
	o := options{
		limit:       Unlimited,
		maxAcquire:  Unlimited,
		sharedRate:  Unlimited,
		sharedLimit: Unlimited,
		clock:       Monotonic,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.maxAcquireSet {
		o.maxAcquire = o.limit
	}

	if rate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRate, rate)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInterval, interval)
	}
	if o.limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, o.limit)
	}
	if o.maxAcquire <= 0 || o.maxAcquire > o.limit {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxAcquire, o.maxAcquire)
	}
	if o.clock == nil {
		return nil, ErrClockRequired
	}

	l := &Limiter[K]{clock: o.clock}
	l.permitRate.Store(rate)
	l.permitLimit.Store(o.limit)
	l.permitMax.Store(o.maxAcquire)
	l.permitInterval.Store(int64(interval))

	if o.sharedRate == Unlimited {
		l.shared = InfiniteSource{}
	} else {
		if o.sharedRate <= 0 {
			return nil, fmt.Errorf("%w: shared rate %d", ErrInvalidRate, o.sharedRate)
		}
		if o.sharedLimit <= 0 {
			return nil, fmt.Errorf("%w: shared limit %d", ErrInvalidLimit, o.sharedLimit)
		}
		l.shared = newSharedPool(o.sharedRate, o.sharedLimit, l.clock,
			l.PermitInterval, l.PermitRate, l.table.len, l.removeIdle)
	}

	return l, nil
}

// sourceConfig for key buckets: every getter proxies the live limiter
// configuration.
func (l *Limiter[K]) rate() int64             { return l.permitRate.Load() }
func (l *Limiter[K]) limit() int64            { return l.permitLimit.Load() }
func (l *Limiter[K]) maxAcquire() int64       { return l.permitMax.Load() }
func (l *Limiter[K]) interval() time.Duration { return time.Duration(l.permitInterval.Load()) }

// PermitRate returns the permits granted per bucket per interval.
func (l *Limiter[K]) PermitRate() int64 { return l.permitRate.Load() }

// SetPermitRate adjusts the per-bucket rate. Raising the rate does not wake
// goroutines already parked in a blocking acquire.
func (l *Limiter[K]) SetPermitRate(rate int64) error {
	if rate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRate, rate)
	}
	l.permitRate.Store(rate)
	return nil
}

// PermitLimit returns the maximum permits a bucket may hold.
func (l *Limiter[K]) PermitLimit() int64 { return l.permitLimit.Load() }

// SetPermitLimit adjusts the per-bucket cap. The limit may not drop below
// the current max acquire.
func (l *Limiter[K]) SetPermitLimit(limit int64) error {
	if limit <= 0 || l.permitMax.Load() > limit {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	l.permitLimit.Store(limit)
	return nil
}

// PermitMaxAcquire returns the largest single acquisition a bucket will
// satisfy.
func (l *Limiter[K]) PermitMaxAcquire() int64 { return l.permitMax.Load() }

// SetPermitMaxAcquire adjusts the single-acquisition cap. It may not exceed
// the current permit limit.
func (l *Limiter[K]) SetPermitMaxAcquire(n int64) error {
	if n <= 0 || n > l.permitLimit.Load() {
		return fmt.Errorf("%w: %d", ErrInvalidMaxAcquire, n)
	}
	l.permitMax.Store(n)
	return nil
}

// PermitInterval returns the window over which the rate is granted.
func (l *Limiter[K]) PermitInterval() time.Duration {
	return time.Duration(l.permitInterval.Load())
}

// SetPermitInterval adjusts the refill window. Shrinking the interval does
// not wake goroutines already parked in a blocking acquire.
func (l *Limiter[K]) SetPermitInterval(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInterval, interval)
	}
	l.permitInterval.Store(int64(interval))
	return nil
}

// Acquire draws one permit for key, blocking until it is available or ctx
// is done.
func (l *Limiter[K]) Acquire(ctx context.Context, key Key[K]) error {
	return l.AcquireN(ctx, key, 1)
}

// AcquireN draws n permits for key, blocking until they are available or
// ctx is done. It fails fast with ErrInvalidRequest when n is non-positive
// or exceeds the max acquire; cancellation returns ctx.Err() with no permits
// granted and no counters touched.
func (l *Limiter[K]) AcquireN(ctx context.Context, key Key[K], n int64) error {
	return l.resolve(key).Acquire(ctx, n)
}

// TryAcquire draws one permit for key if immediately obtainable.
func (l *Limiter[K]) TryAcquire(key Key[K]) bool {
	ok, _ := l.resolve(key).TryAcquire(1)
	return ok
}

// TryAcquireN draws all n permits for key or none. Denied permits, including
// requests rejected for exceeding the max acquire, count toward Denied.
func (l *Limiter[K]) TryAcquireN(key Key[K], n int64) (bool, error) {
	return l.resolve(key).TryAcquire(n)
}

// AcquireUpTo draws as many of n permits as are immediately obtainable for
// key, possibly zero.
func (l *Limiter[K]) AcquireUpTo(key Key[K], n int64) (int64, error) {
	return l.resolve(key).AcquireAvailable(n)
}

// Available returns the permits currently held by key's bucket, creating the
// bucket if necessary. The count is conservative while a refill is due.
func (l *Limiter[K]) Available(key Key[K]) int64 {
	return l.resolve(key).Available()
}

// Claimed returns the total permits ever granted for key, zero for a key
// with no bucket.
func (l *Limiter[K]) Claimed(key Key[K]) int64 {
	if b, ok := l.table.load(key); ok {
		return b.claimed.Load()
	}
	return 0
}

// Denied returns the total permits ever refused for key, zero for a key
// with no bucket.
func (l *Limiter[K]) Denied(key Key[K]) int64 {
	if b, ok := l.table.load(key); ok {
		return b.denied.Load()
	}
	return 0
}

// Stats is a point-in-time snapshot of one bucket's counters.
type Stats struct {
	Available int64
	Claimed   int64
	Denied    int64
}

// Stats returns a snapshot of key's bucket without creating it; a key with
// no bucket yields the zero Stats.
func (l *Limiter[K]) Stats(key Key[K]) Stats {
	b, ok := l.table.load(key)
	if !ok {
		return Stats{}
	}
	return Stats{
		Available: b.gauge.available(),
		Claimed:   b.claimed.Load(),
		Denied:    b.denied.Load(),
	}
}

// Remove forgets key's bucket, discarding any permits it held. It reports
// whether the bucket existed.
func (l *Limiter[K]) Remove(key Key[K]) bool {
	return l.table.delete(key)
}

// Buckets returns a one-shot iteration over the keys known at the time of
// the call. The zero Key appears when the default bucket has been used.
func (l *Limiter[K]) Buckets() iter.Seq[Key[K]] {
	keys := l.table.keys()
	return func(yield func(Key[K]) bool) {
		for _, k := range keys {
			if !yield(k) {
				return
			}
		}
	}
}

func (l *Limiter[K]) resolve(key Key[K]) *bucket {
	return l.table.loadOrCreate(key, func() *bucket {
		return newBucket(l.shared, l, l.clock)
	})
}

// removeIdle drops buckets whose last fill is further in the past than idle
// and that were never denied. Invoked by the shared pool after replenishing
// refills.
func (l *Limiter[K]) removeIdle(idle time.Duration) {
	now := l.clock()
	l.table.deleteFunc(func(b *bucket) bool {
		return b.denied.Load() == 0 && time.Duration(now-b.lastFill.Load()) > idle
	})
}
