package permit

import (
	"context"
	"math"
	"time"
)

// sharedPool is the bounded reservoir every key bucket of one Limiter draws
// on. It reuses the bucket refill engine against the infinite root source
// and adds two behaviors on top: its max acquire is a fair share of current
// availability recomputed on every call, and each refill that actually
// replenished the pool sweeps idle key buckets out of the table.
type sharedPool struct {
	*bucket

	permits int64 // pool rate, fixed at construction
	cap     int64 // pool limit, fixed at construction

	ivl        func() time.Duration // owning limiter's live interval
	keyRate    func() int64         // owning limiter's live per-key rate
	activeKeys func() int64
	dropIdle   func(idle time.Duration)
}

var _ Source = (*sharedPool)(nil)
var _ sourceConfig = (*sharedPool)(nil)

func newSharedPool(rate, limit int64, clock Clock, ivl func() time.Duration,
	keyRate func() int64, activeKeys func() int64, dropIdle func(time.Duration)) *sharedPool {

	p := &sharedPool{
		permits:    rate,
		cap:        limit,
		ivl:        ivl,
		keyRate:    keyRate,
		activeKeys: activeKeys,
		dropIdle:   dropIdle,
	}
	p.bucket = newBucket(InfiniteSource{}, p, clock)
	p.bucket.refilled = p.sweep
	return p
}

func (p *sharedPool) rate() int64             { return p.permits }
func (p *sharedPool) limit() int64            { return p.cap }
func (p *sharedPool) interval() time.Duration { return p.ivl() }

// maxAcquire is the pool's fair share: one interval's worth of supply spread
// over the currently active keys, never less than one. It is recomputed
// fresh on every call, refilling first when the pool looks low so the
// estimate reflects current availability. The division is deliberately
// rough; it bounds how much a single key refill can drain in one attempt,
// not a precise quota.
func (p *sharedPool) maxAcquire() int64 {
	available := p.gauge.available()
	if available < p.permits {
		_, _ = p.bucket.refill(context.Background(), 0, false)
		available = p.gauge.available()
	}
	if available > p.permits {
		available = p.permits
	}

	keys := p.activeKeys()
	if keys < 1 {
		keys = 1
	}
	return max(1, available/keys)
}

// sweep removes key buckets that have gone unfilled for longer than the time
// it would take them to accumulate the whole shared limit on their own.
// Buckets with a denial history are kept regardless of idleness: a nonzero
// denied count records real contention. Runs only after a refill that
// strictly increased the pool's counter.
func (p *sharedPool) sweep() {
	keyRate := p.keyRate()
	if keyRate <= 0 {
		return
	}
	idle := satMulDiv(p.ivl().Nanoseconds(), p.cap/keyRate, 1)
	if idle == math.MaxInt64 {
		// Accumulating the whole reservoir would take effectively
		// forever; no bucket is ever idle by that measure.
		return
	}
	p.dropIdle(time.Duration(idle))
}
