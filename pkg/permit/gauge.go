package permit

import (
	"context"
	"sync"
	"time"
)

// gauge is the bounded permit counter a bucket blocks on. Deposits wake
// every parked waiter by closing the current wake channel; woken waiters
// re-contend for the new permits with no FIFO ordering between them.
type gauge struct {
	mu      sync.Mutex
	permits int64
	wake    chan struct{}
}

// init seeds the counter. Must run before any other method.
func (g *gauge) init(permits int64) {
	g.permits = permits
	g.wake = make(chan struct{})
}

func (g *gauge) available() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.permits
}

// tryTake removes n permits if all are available. A zero n trivially
// succeeds.
func (g *gauge) tryTake(n int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.permits < n {
		return false
	}
	g.permits -= n
	return true
}

// takeUpTo removes and returns up to n permits, possibly zero.
func (g *gauge) takeUpTo(n int64) int64 {
	if n <= 0 {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if n > g.permits {
		n = g.permits
	}
	g.permits -= n
	return n
}

// put deposits up to n permits, clamped so the counter never exceeds limit,
// and wakes all waiters when anything was deposited. Returns the amount
// actually deposited.
func (g *gauge) put(n, limit int64) int64 {
	if n <= 0 {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	room := limit - g.permits
	if room < 0 {
		room = 0
	}
	if n > room {
		n = room
	}
	if n > 0 {
		g.permits += n
		close(g.wake)
		g.wake = make(chan struct{})
	}
	return n
}

// takeWithin removes n permits, waiting up to timeout for deposits from
// other goroutines. It returns early on deposit or on ctx cancellation; a
// non-positive timeout degrades to a single immediate attempt. The returned
// error is non-nil only for cancellation.
func (g *gauge) takeWithin(ctx context.Context, n int64, timeout time.Duration) (bool, error) {
	if g.tryTake(n) {
		return true, nil
	}
	if timeout <= 0 {
		return false, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		g.mu.Lock()
		if g.permits >= n {
			g.permits -= n
			g.mu.Unlock()
			return true, nil
		}
		wake := g.wake
		g.mu.Unlock()

		select {
		case <-wake:
		case <-timer.C:
			return false, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}
