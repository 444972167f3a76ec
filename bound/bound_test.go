package bound

import (
	"math"
	"testing"

	"github.com/hupe1980/clusterkit/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBound(t *testing.T) {
	b := Of(34, 45, 23, 99, 98, 35)
	assert.InDelta(t, 23.0, b.Min(), 1e-6)
	assert.InDelta(t, 99.0, b.Max(), 1e-6)
	assert.InDelta(t, 99.0-23.0, b.Span(), 1e-6)
	assert.InDelta(t, (99+23)/2.0, b.Mid(), 1e-6)
	assert.False(t, b.IsEmpty())
	assert.True(t, b.Contains(23))
	assert.True(t, b.Contains(99))
	assert.False(t, b.Contains(99.0001))
}

func TestEmpty(t *testing.T) {
	b := Empty()
	assert.True(t, b.IsEmpty())
	assert.True(t, math.IsInf(b.Min(), 1))
	assert.True(t, math.IsInf(b.Max(), -1))
	assert.False(t, b.Contains(0))

	b = b.Accumulate(5)
	assert.False(t, b.IsEmpty())
	assert.Equal(t, 5.0, b.Min())
	assert.Equal(t, 5.0, b.Max())

	// Resizing an empty bound is a no-op.
	assert.True(t, Empty().Resize(2).IsEmpty())
}

func TestBoundMap(t *testing.T) {
	b := Of(34, 45, 23, 99, 98, 35)
	assert.InDelta(t, 23.0, b.MapFromCanonical(0), 1e-6)
	assert.InDelta(t, 99.0, b.MapFromCanonical(1), 1e-6)
	assert.InDelta(t, b.Mid(), b.MapFromCanonical(0.5), 1e-6)
}

func TestCanonicalRoundTrip(t *testing.T) {
	bounds := []Bound{Of(0, 10), Of(-1e3, 1e3), Of(5, 25).Resize(1 + 1e-6), Of(0.001, 0.002)}
	for _, b := range bounds {
		for c := 0.0; c <= 1.0; c += 0.0625 {
			assert.InDelta(t, c, b.MapToCanonical(b.MapFromCanonical(c)), 1e-6)
			x := b.MapFromCanonical(c)
			assert.InDelta(t, x, b.MapFromCanonical(b.MapToCanonical(x)), 1e-6)
		}
	}
}

func TestResize(t *testing.T) {
	b := Of(10, 20).Resize(2)
	assert.InDelta(t, 5.0, b.Min(), 1e-9)
	assert.InDelta(t, 25.0, b.Max(), 1e-9)
	assert.InDelta(t, 15.0, b.Mid(), 1e-9)

	slack := Of(10, 20).Resize(1 + 1e-6)
	assert.Less(t, slack.Min(), 10.0)
	assert.Greater(t, slack.Max(), 20.0)
}

func TestPad(t *testing.T) {
	b := Of(3, 3).Pad(0.5)
	assert.InDelta(t, 2.5, b.Min(), 1e-9)
	assert.InDelta(t, 3.5, b.Max(), 1e-9)

	unchanged := Of(1, 2).Pad(0.5)
	assert.Equal(t, Of(1, 2), unchanged)
}

func TestMapCoordinates(t *testing.T) {
	bounds := Bounds{Of(0, 10), Of(20, 10), Of(5, 25)}
	canonical := vector.New(0.25, 0.5, 0.75)

	coordinate, err := bounds.MapFromCanonical(canonical)
	require.NoError(t, err)
	dist, err := vector.DeltaNorm(vector.New(2.5, 15, 20), coordinate)
	require.NoError(t, err)
	assert.InDelta(t, 0, dist, 1e-6)

	back, err := bounds.MapToCanonical(coordinate)
	require.NoError(t, err)
	dist, err = vector.DeltaNorm(canonical, back)
	require.NoError(t, err)
	assert.InDelta(t, 0, dist, 1e-6)

	_, err = bounds.MapToCanonical(vector.New(1, 2))
	var dm *vector.ErrDimensionMismatch
	assert.ErrorAs(t, err, &dm)
}

func TestOfPoints(t *testing.T) {
	points := []vector.Vector{
		vector.New(1, 5),
		vector.New(-2, 7),
		vector.New(4, 6),
	}
	bs, err := OfPoints(points)
	require.NoError(t, err)
	require.Equal(t, 2, bs.Dim())
	assert.Equal(t, -2.0, bs[0].Min())
	assert.Equal(t, 4.0, bs[0].Max())
	assert.Equal(t, 5.0, bs[1].Min())
	assert.Equal(t, 7.0, bs[1].Max())
	assert.True(t, bs.Contains(vector.New(0, 6)))
	assert.False(t, bs.Contains(vector.New(0, 8)))
	assert.False(t, bs.Contains(vector.New(0)))

	_, err = OfPoints(nil)
	assert.ErrorIs(t, err, vector.ErrEmpty)

	_, err = OfPoints([]vector.Vector{vector.New(1, 2), vector.New(1)})
	var dm *vector.ErrDimensionMismatch
	assert.ErrorAs(t, err, &dm)
}
