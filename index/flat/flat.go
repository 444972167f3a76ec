// Package flat provides the naive point set: points plus bounds, searched exhaustively.
package flat

import (
	"log/slog"

	"github.com/hupe1980/clusterkit/bound"
	"github.com/hupe1980/clusterkit/index"
	"github.com/hupe1980/clusterkit/vector"
)

// Compile-time check to ensure Set satisfies index.PointSet.
var _ index.PointSet = (*Set)(nil)

// Options contains configuration options for a flat set.
type Options struct {
	// Slack is the multiplicative resize applied to the data extent.
	// Values <= 1 disable the resize.
	Slack float64

	// Logger receives construction statistics. Nil disables logging.
	Logger *slog.Logger
}

// DefaultOptions contains the default configuration options for a flat set.
var DefaultOptions = Options{
	Slack: index.DefaultSlack,
}

// Set holds n points and their k bounds.
type Set struct {
	points []vector.Vector
	bounds bound.Bounds
	k      int
}

// New creates a Set over a copy of points.
// Every point must share the dimension of the first one.
func New(points []vector.Vector, optFns ...func(o *Options)) (*Set, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if len(points) == 0 {
		return nil, index.ErrEmptyInput
	}

	owned := make([]vector.Vector, len(points))
	for i, p := range points {
		owned[i] = vector.New(p...)
	}

	bounds, err := bound.OfPoints(owned)
	if err != nil {
		return nil, err
	}
	if opts.Slack > 1 {
		bounds = bounds.Resize(opts.Slack)
	}
	// A zero-span dimension would make canonical mapping divide by zero.
	bounds = bounds.Pad(0.5)

	s := &Set{
		points: owned,
		bounds: bounds,
		k:      bounds.Dim(),
	}

	if opts.Logger != nil {
		opts.Logger.Info("point set built", "n", len(owned), "k", s.k)
		for i, b := range bounds {
			opts.Logger.Debug("bounds", "dimension", i, "min", b.Min(), "max", b.Max())
		}
	}

	return s, nil
}

// NewUnchecked wraps points without copying or resizing. The caller hands over ownership
// and guarantees a consistent dimension. Used by index implementations that reorder points.
func NewUnchecked(points []vector.Vector, bounds bound.Bounds) *Set {
	return &Set{points: points, bounds: bounds, k: bounds.Dim()}
}

// Len returns the number of points.
func (s *Set) Len() int { return len(s.points) }

// Dim returns the dimensionality of the points.
func (s *Set) Dim() int { return s.k }

// Bounds returns the per-dimension bounds.
func (s *Set) Bounds() bound.Bounds { return s.bounds }

// At returns the i-th point without bounds checking.
func (s *Set) At(i int) vector.Vector { return s.points[i] }

// Point returns the i-th point.
func (s *Set) Point(i int) (vector.Vector, error) {
	if i < 0 || i >= len(s.points) {
		return nil, &index.ErrIndexOutOfRange{Index: i, Len: len(s.points)}
	}
	return s.points[i], nil
}

// Points returns the points at the given indices.
func (s *Set) Points(selection []int) ([]vector.Vector, error) {
	out := make([]vector.Vector, len(selection))
	for j, i := range selection {
		p, err := s.Point(i)
		if err != nil {
			return nil, err
		}
		out[j] = p
	}
	return out, nil
}

// CheckLocus validates the dimension of a query point.
func (s *Set) CheckLocus(locus vector.Vector) error {
	if len(locus) != s.k {
		return &vector.ErrDimensionMismatch{Expected: s.k, Actual: len(locus)}
	}
	return nil
}

// RangeSearch scans every point.
func (s *Set) RangeSearch(locus vector.Vector, radius float64) ([]int, error) {
	if err := s.CheckLocus(locus); err != nil {
		return nil, err
	}

	var result []int
	radiusSq := radius * radius
	for i, p := range s.points {
		if vector.SquaredDistance(p, locus) < radiusSq {
			result = append(result, i)
		}
	}
	return result, nil
}
