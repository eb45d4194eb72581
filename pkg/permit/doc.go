// Package permit provides an in-process hierarchical token-bucket rate
// limiter: permits accrue per key at a configured rate while an optional
// shared pool caps the aggregate across all keys, so no key starves the
// others and no combination of keys exceeds the overall budget.
//
// # Basic Usage
//
// Create a limiter granting each key 100 permits per second:
//
//	limiter, err := permit.New[string](100, time.Second)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	key := permit.KeyOf("tenant-42")
//	if limiter.TryAcquire(key) {
//		// proceed with the work
//	}
//
// The zero Key addresses a default bucket shared by callers without a key
// of their own:
//
//	limiter.TryAcquire(permit.Key[string]{})
//
// # Shared Ceiling
//
// A shared pool bounds aggregate throughput. Each key still accrues its own
// permits, but refills draw on the pool, which hands out at most a fair
// share per draw — current pool availability divided by the number of
// active keys:
//
//	limiter, err := permit.New[string](10, time.Second,
//		permit.WithPermitLimit(20),
//		permit.WithMaxAcquire(10),
//		permit.WithSharedPool(50, 100),
//	)
//
// Key buckets left untouched long enough to have accrued the entire shared
// limit are evicted automatically, unless they have ever been denied.
//
// # Blocking Acquisition
//
// Acquire blocks until permits are available or the context is done:
//
//	if err := limiter.AcquireN(ctx, key, 5); err != nil {
//		// context cancelled, or the request exceeds the max acquire
//	}
//
// No refill timer runs in the background: elapsed time is converted into
// permits lazily on each operation, using a caller-replaceable monotonic
// clock (see WithClock). A blocked acquire parks until enough permits are
// mathematically due; a deposit by another goroutine wakes all waiters,
// which re-contend in no particular order.
//
// # Runtime Configuration
//
// The per-key rate, limit, max acquire and interval may be changed at any
// time and are picked up by every existing bucket on its next operation.
// Concurrent readers may briefly observe a mix of old and new values across
// fields; this weak consistency is intentional.
//
// # HTTP Middleware
//
// Middleware enforces a string-keyed limiter per request:
//
//	keyFunc := func(r *http.Request) string { return clientip.FromRequest(r) }
//	handler := permit.Middleware(limiter, keyFunc)(mux)
//
// # Thread Safety
//
// All Limiter operations are safe for concurrent use. The refill path is
// lock-minimal: a single compare-and-swap on the bucket's last-fill
// timestamp decides which goroutine charges the parent source.
package permit
