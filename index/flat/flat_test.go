package flat

import (
	"testing"

	"github.com/hupe1980/clusterkit/index"
	"github.com/hupe1980/clusterkit/testutil"
	"github.com/hupe1980/clusterkit/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		_, err := New(nil)
		assert.ErrorIs(t, err, index.ErrEmptyInput)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		_, err := New([]vector.Vector{vector.New(1, 2), vector.New(3)})
		var dm *vector.ErrDimensionMismatch
		assert.ErrorAs(t, err, &dm)
	})

	t.Run("BoundsHaveSlack", func(t *testing.T) {
		s, err := New([]vector.Vector{vector.New(0, 10), vector.New(10, 20)})
		require.NoError(t, err)
		assert.Equal(t, 2, s.Len())
		assert.Equal(t, 2, s.Dim())

		bs := s.Bounds()
		assert.Less(t, bs[0].Min(), 0.0)
		assert.Greater(t, bs[0].Max(), 10.0)
		assert.Less(t, bs[1].Min(), 10.0)
		assert.Greater(t, bs[1].Max(), 20.0)
	})

	t.Run("NoSlack", func(t *testing.T) {
		s, err := New([]vector.Vector{vector.New(0), vector.New(10)}, func(o *Options) {
			o.Slack = 1
		})
		require.NoError(t, err)
		assert.Equal(t, 0.0, s.Bounds()[0].Min())
		assert.Equal(t, 10.0, s.Bounds()[0].Max())
	})

	t.Run("IdenticalPoints", func(t *testing.T) {
		s, err := New([]vector.Vector{vector.New(3, 3), vector.New(3, 3)})
		require.NoError(t, err)
		for _, b := range s.Bounds() {
			assert.Greater(t, b.Span(), 0.0)
		}
	})

	t.Run("CopiesInput", func(t *testing.T) {
		p := vector.New(1, 2)
		s, err := New([]vector.Vector{p})
		require.NoError(t, err)
		p[0] = 100
		got, err := s.Point(0)
		require.NoError(t, err)
		assert.Equal(t, vector.Vector{1, 2}, got)
	})
}

func TestPoints(t *testing.T) {
	s, err := New([]vector.Vector{vector.New(0), vector.New(1), vector.New(2)})
	require.NoError(t, err)

	pts, err := s.Points([]int{2, 0})
	require.NoError(t, err)
	assert.Equal(t, []vector.Vector{{2}, {0}}, pts)

	var oor *index.ErrIndexOutOfRange
	_, err = s.Point(3)
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 3, oor.Index)
	assert.Equal(t, 3, oor.Len)

	_, err = s.Points([]int{0, -1})
	assert.ErrorAs(t, err, &oor)
}

func TestRangeSearch(t *testing.T) {
	rng := testutil.NewRNG(4711)
	points, _ := rng.UniformBoxes(10000, testutil.ThreeBoxes())

	s, err := New(points)
	require.NoError(t, err)

	locus := vector.New(70.0, 40.0)
	radius := 2.0

	found, err := s.RangeSearch(locus, radius)
	require.NoError(t, err)
	require.NotEmpty(t, found)
	for _, i := range found {
		d, err := vector.DeltaNorm(s.At(i), locus)
		require.NoError(t, err)
		assert.Less(t, d, radius)
	}

	// The exhaustive oracle finds exactly the same set.
	assert.Equal(t, testutil.BruteForceRangeSearch(points, locus, radius), found)

	_, err = s.RangeSearch(vector.New(1, 2, 3), 1)
	var dm *vector.ErrDimensionMismatch
	assert.ErrorAs(t, err, &dm)
}

func TestRangeSearchStrict(t *testing.T) {
	s, err := New([]vector.Vector{vector.New(0, 0), vector.New(3, 4)})
	require.NoError(t, err)

	found, err := s.RangeSearch(vector.New(0, 0), 5)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, found)
}
