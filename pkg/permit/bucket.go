package permit

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"
)

// sourceConfig supplies the live configuration a bucket consults on every
// operation. Key buckets proxy the owning Limiter, so runtime configuration
// changes reach all of them on their next call; the shared pool carries its
// own rate and limit.
type sourceConfig interface {
	rate() int64
	limit() int64
	interval() time.Duration
	maxAcquire() int64
}

// bucket is the refill engine shared by the per-key buckets and the shared
// pool. It is a bounded permit counter replenished lazily from elapsed time:
// no background timer runs, and the only synchronization around the refill
// decision is the compare-and-swap on lastFill.
type bucket struct {
	parent Source
	cfg    sourceConfig
	clock  Clock

	gauge    gauge
	lastFill atomic.Int64
	claimed  atomic.Int64
	denied   atomic.Int64

	// refilled, when set, runs after any refill that strictly increased
	// the local counter. The shared pool hooks its idle-key sweep here.
	refilled func()
}

// newBucket seeds the counter with one interval's worth of the configured
// rate, capped at the limit.
func newBucket(parent Source, cfg sourceConfig, clock Clock) *bucket {
	b := &bucket{parent: parent, cfg: cfg, clock: clock}
	b.gauge.init(min(cfg.rate(), cfg.limit()))
	b.lastFill.Store(clock())
	return b
}

var _ Source = (*bucket)(nil)

func (b *bucket) Rate() int64             { return b.cfg.rate() }
func (b *bucket) Limit() int64            { return b.cfg.limit() }
func (b *bucket) Interval() time.Duration { return b.cfg.interval() }
func (b *bucket) MaxAcquire() int64       { return b.cfg.maxAcquire() }

func (b *bucket) Available() int64 {
	return b.gauge.available()
}

// Acquire blocks until n permits are drawn or ctx is done. The request size
// is re-validated against the live max acquire on every pass, so a
// concurrent configuration change that shrinks max acquire below n fails the
// call instead of leaving it parked forever.
func (b *bucket) Acquire(ctx context.Context, n int64) error {
	for {
		if n <= 0 || n > b.cfg.maxAcquire() {
			return fmt.Errorf("%w: %d permits", ErrInvalidRequest, n)
		}
		if b.gauge.tryTake(n) {
			break
		}
		ok, err := b.refill(ctx, n, true)
		if err != nil {
			return err
		}
		if ok {
			break
		}
	}
	b.claimed.Add(n)
	return nil
}

// AcquireAvailable grants whatever portion of n is on hand after one
// non-blocking refill probe.
func (b *bucket) AcquireAvailable(n int64) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d permits", ErrInvalidRequest, n)
	}
	if m := b.cfg.maxAcquire(); n > m {
		n = m
	}
	_, _ = b.refill(context.Background(), 0, false)
	granted := b.gauge.takeUpTo(n)
	b.claimed.Add(granted)
	return granted, nil
}

// TryAcquire grants all n permits or none. Oversized requests are rejected
// before touching the counter or the parent, with the full n recorded as
// denied.
func (b *bucket) TryAcquire(n int64) (bool, error) {
	if n <= 0 {
		return false, fmt.Errorf("%w: %d permits", ErrInvalidRequest, n)
	}
	if n > b.cfg.maxAcquire() {
		b.denied.Add(n)
		return false, nil
	}

	ok := b.gauge.tryTake(n)
	if !ok {
		ok, _ = b.refill(context.Background(), n, false)
	}

	if ok {
		b.claimed.Add(n)
	} else {
		b.denied.Add(n)
	}
	return ok, nil
}

// refill computes how many permits have come due since lastFill, draws them
// from the parent source, reserves need for the caller and deposits the
// remainder locally. Exactly one concurrent caller wins the lastFill
// compare-and-swap and performs the deposit; a loser discards its own
// computation and contends directly for whatever the winner deposited.
// Returns whether need permits were produced for the caller.
func (b *bucket) refill(ctx context.Context, need int64, wait bool) (bool, error) {
	last := b.lastFill.Load()
	now := b.clock()
	rate := b.cfg.rate()
	interval := b.cfg.interval().Nanoseconds()
	if rate <= 0 || interval <= 0 {
		return false, nil
	}

	due := satMulDiv(now-last, rate, interval)
	if due == 0 {
		if !wait {
			return false, nil
		}
		// Park until the missing permits are mathematically due. A
		// deposit from another goroutine ends the wait early; the park
		// itself runs on the wall clock even when a synthetic Clock
		// drives the refill arithmetic.
		await := satMulDiv(need-b.gauge.available(), interval, rate)
		return b.gauge.takeWithin(ctx, need, time.Duration(await))
	}

	drawn, err := b.parent.AcquireAvailable(due)
	if err != nil {
		return false, err
	}

	produced := drawn >= need
	deposit := drawn
	if produced {
		// The refilling caller gets first claim on the fresh permits.
		deposit = drawn - need
	}

	if b.lastFill.CompareAndSwap(last, now) {
		if b.gauge.put(deposit, b.cfg.limit()) > 0 && b.refilled != nil {
			b.refilled()
		}
		return produced, nil
	}

	// Lost the refill race.
	if !produced {
		return false, nil
	}
	return b.gauge.tryTake(need), nil
}

// satMulDiv returns a*b/c, saturating at math.MaxInt64 instead of
// overflowing. Non-positive operands yield zero.
func satMulDiv(a, b, c int64) int64 {
	if a <= 0 || b <= 0 || c <= 0 {
		return 0
	}
	if a > math.MaxInt64/b {
		return math.MaxInt64
	}
	return a * b / c
}
