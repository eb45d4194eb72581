package permit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/permitkit/pkg/permit"
)

func newLimitedRouter(t *testing.T, l *permit.Limiter[string]) http.Handler {
	t.Helper()

	r := chi.NewRouter()
	r.Use(permit.Middleware(l, func(r *http.Request) string {
		return r.Header.Get("X-API-Key")
	}))
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func doRequest(t *testing.T, h http.Handler, apiKey string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareLimitsPerKey(t *testing.T) {
	t.Parallel()

	var clk fakeClock
	l, err := permit.New[string](1, time.Hour, permit.WithClock(clk.Now))
	require.NoError(t, err)
	h := newLimitedRouter(t, l)

	rec := doRequest(t, h, "alice")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = doRequest(t, h, "alice")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3600", rec.Header().Get("Retry-After"))

	rec = doRequest(t, h, "bob")
	assert.Equal(t, http.StatusOK, rec.Code, "keys do not share buckets")

	clk.Advance(time.Hour)
	rec = doRequest(t, h, "alice")
	assert.Equal(t, http.StatusOK, rec.Code, "a due refill lifts the limit")
}

func TestMiddlewareBypassesEmptyKey(t *testing.T) {
	t.Parallel()

	var clk fakeClock
	l, err := permit.New[string](1, time.Hour, permit.WithClock(clk.Now))
	require.NoError(t, err)
	h := newLimitedRouter(t, l)

	for range 5 {
		rec := doRequest(t, h, "")
		assert.Equal(t, http.StatusOK, rec.Code, "unkeyed requests fail open")
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
	assert.EqualValues(t, 0, l.Claimed(permit.KeyOf("")), "no bucket is touched")
}

func TestMiddlewareRetryAfterFloor(t *testing.T) {
	t.Parallel()

	var clk fakeClock
	l, err := permit.New[string](1000, time.Second,
		permit.WithPermitLimit(1), permit.WithClock(clk.Now))
	require.NoError(t, err)
	h := newLimitedRouter(t, l)

	require.Equal(t, http.StatusOK, doRequest(t, h, "alice").Code)
	rec := doRequest(t, h, "alice")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"), "never advertises less than a second")
}

func TestMiddlewareRequiresKeyFunc(t *testing.T) {
	t.Parallel()

	l, err := permit.New[string](1, time.Second)
	require.NoError(t, err)

	assert.Panics(t, func() {
		permit.Middleware(l, nil)
	})
}
