package permit

import "time"

// Clock reports a monotonically non-decreasing nanosecond count. The limiter
// trusts monotonicity and never validates it, so tests may drive the limiter
// with a hand-advanced counter.
type Clock func() int64

var epoch = time.Now()

// Monotonic is the default Clock. It counts nanoseconds since process start
// using the runtime's monotonic time source, so it is immune to wall-clock
// adjustments.
func Monotonic() int64 {
	return int64(time.Since(epoch))
}
