package permit

import (
	"net/http"
	"strconv"
	"time"
)

// KeyFunc extracts the rate-limit key from a request. Returning an empty
// string bypasses the limiter for that request.
type KeyFunc func(r *http.Request) string

// Middleware enforces the limiter per request using keyFunc for keying.
// Requests with an empty key pass through unlimited, so a missing header or
// unparsable address fails open rather than collapsing all traffic onto one
// bucket.
//
// Standard rate-limit headers are set on every limited response:
// X-RateLimit-Limit, X-RateLimit-Remaining and, on rejection, Retry-After.
func Middleware(limiter *Limiter[string], keyFunc KeyFunc) func(http.Handler) http.Handler {
	if keyFunc == nil {
		panic("permit.Middleware: keyFunc is required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := keyFunc(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			key := KeyOf(k)
			allowed := limiter.TryAcquire(key)

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limiter.PermitRate(), 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(limiter.Available(key), 10))

			if !allowed {
				w.Header().Set("Retry-After", strconv.FormatInt(retryAfterSeconds(limiter), 10))
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds estimates the wait until one permit comes due, never
// reporting less than a second.
func retryAfterSeconds(limiter *Limiter[string]) int64 {
	rate := limiter.PermitRate()
	if rate <= 0 {
		return 1
	}
	wait := limiter.PermitInterval() / time.Duration(rate)
	seconds := int64(wait / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}
