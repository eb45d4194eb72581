package permit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/permitkit/pkg/permit"
)

func TestInfiniteSource(t *testing.T) {
	t.Parallel()

	var src permit.InfiniteSource

	assert.Equal(t, permit.Unlimited, src.Rate())
	assert.Equal(t, permit.Unlimited, src.Limit())
	assert.Equal(t, permit.Unlimited, src.MaxAcquire())
	assert.Equal(t, permit.Unlimited, src.Available())
	assert.Equal(t, time.Nanosecond, src.Interval())
}

func TestInfiniteSourceAcquire(t *testing.T) {
	t.Parallel()

	var src permit.InfiniteSource

	require.NoError(t, src.Acquire(context.Background(), 1_000_000))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, src.Acquire(ctx, 1), "never blocks, so cancellation is irrelevant")

	require.ErrorIs(t, src.Acquire(context.Background(), 0), permit.ErrInvalidRequest)
	require.ErrorIs(t, src.Acquire(context.Background(), -1), permit.ErrInvalidRequest)
}

func TestInfiniteSourceAcquireAvailable(t *testing.T) {
	t.Parallel()

	var src permit.InfiniteSource

	got, err := src.AcquireAvailable(7)
	require.NoError(t, err)
	assert.EqualValues(t, 7, got, "grants the full request")

	_, err = src.AcquireAvailable(0)
	require.ErrorIs(t, err, permit.ErrInvalidRequest)
	_, err = src.AcquireAvailable(-1)
	require.ErrorIs(t, err, permit.ErrInvalidRequest)
}

func TestInfiniteSourceTryAcquire(t *testing.T) {
	t.Parallel()

	var src permit.InfiniteSource

	ok, err := src.TryAcquire(permit.Unlimited)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = src.TryAcquire(0)
	require.ErrorIs(t, err, permit.ErrInvalidRequest)
	assert.False(t, ok)

	ok, err = src.TryAcquire(-1)
	require.ErrorIs(t, err, permit.ErrInvalidRequest)
	assert.False(t, ok)
}
