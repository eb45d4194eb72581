package movavg_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/permitkit/pkg/movavg"
)

func TestNewEMAValidation(t *testing.T) {
	t.Parallel()

	_, err := movavg.NewEMA(0)
	require.ErrorIs(t, err, movavg.ErrInvalidWidth)
	_, err = movavg.NewEMA(-3)
	require.ErrorIs(t, err, movavg.ErrInvalidWidth)
}

func TestEMAStartsInvalid(t *testing.T) {
	t.Parallel()

	e, err := movavg.NewEMA(10)
	require.NoError(t, err)

	assert.False(t, e.Valid())
	assert.True(t, math.IsNaN(e.Average()))
	assert.Equal(t, "NaN", e.String())

	assert.EqualValues(t, 1.0, e.Add(1.0))
	assert.True(t, e.Valid())
	assert.Equal(t, "1", e.String())
}

// Until the observation count reaches the width, the average tracks the
// arithmetic mean of everything seen so far.
func TestEMAWarmupTracksMean(t *testing.T) {
	t.Parallel()

	e, err := movavg.NewEMA(4)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, e.Add(1), 1e-9)
	assert.InDelta(t, 1.5, e.Add(2), 1e-9)
	assert.InDelta(t, 2.0, e.Add(3), 1e-9)
	assert.InDelta(t, 2.5, e.Add(4), 1e-9)

	// Past the width the weight settles at 1/width.
	assert.InDelta(t, 3.5, e.Add(6.5), 1e-9)
}

func TestEMAIgnoresNaN(t *testing.T) {
	t.Parallel()

	e, err := movavg.NewEMA(10)
	require.NoError(t, err)

	e.Add(2.0)
	assert.InDelta(t, 2.0, e.Add(math.NaN()), 1e-9)
	assert.InDelta(t, 2.5, e.Add(3.0), 1e-9, "the ignored observation did not advance the count")
}

func TestEMAReset(t *testing.T) {
	t.Parallel()

	e, err := movavg.NewEMA(10)
	require.NoError(t, err)

	e.Add(5.0)
	require.True(t, e.Valid())

	e.Reset()
	assert.False(t, e.Valid())
	assert.True(t, math.IsNaN(e.Average()))

	assert.InDelta(t, 7.0, e.Add(7.0), 1e-9, "a reset average warms up from scratch")
}

func TestEMACombine(t *testing.T) {
	t.Parallel()

	t.Run("both valid", func(t *testing.T) {
		t.Parallel()

		a, err := movavg.NewEMA(10)
		require.NoError(t, err)
		b, err := movavg.NewEMA(10)
		require.NoError(t, err)

		a.Add(1.0)
		b.Add(0.0)
		combined := a.Combine(b)
		assert.InDelta(t, 0.5, combined.Average(), 1e-9)
	})

	t.Run("equal averages short-circuit", func(t *testing.T) {
		t.Parallel()

		a, err := movavg.NewEMA(10)
		require.NoError(t, err)
		b, err := movavg.NewEMA(10)
		require.NoError(t, err)

		a.Add(3.0)
		b.Add(3.0)
		assert.InDelta(t, 3.0, a.Combine(b).Average(), 1e-9)
	})

	t.Run("one side invalid", func(t *testing.T) {
		t.Parallel()

		a, err := movavg.NewEMA(10)
		require.NoError(t, err)
		b, err := movavg.NewEMA(10)
		require.NoError(t, err)

		a.Add(2.0)
		assert.InDelta(t, 2.0, a.Combine(b).Average(), 1e-9)
		assert.InDelta(t, 2.0, b.Combine(a).Average(), 1e-9)
	})

	t.Run("neither valid", func(t *testing.T) {
		t.Parallel()

		a, err := movavg.NewEMA(10)
		require.NoError(t, err)
		b, err := movavg.NewEMA(10)
		require.NoError(t, err)

		assert.False(t, a.Combine(b).Valid())
	})

	t.Run("mismatched widths average out", func(t *testing.T) {
		t.Parallel()

		a, err := movavg.NewEMA(10)
		require.NoError(t, err)
		b, err := movavg.NewEMA(20)
		require.NoError(t, err)

		a.Add(1.0)
		b.Add(1.0)
		combined := a.Combine(b)
		assert.InDelta(t, 1.0, combined.Average(), 1e-9)
	})
}
