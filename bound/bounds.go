package bound

import (
	"github.com/hupe1980/clusterkit/vector"
)

// Bounds holds one Bound per dimension.
type Bounds []Bound

// New returns k empty bounds.
func New(k int) Bounds {
	bs := make(Bounds, k)
	for i := range bs {
		bs[i] = Empty()
	}
	return bs
}

// OfPoints returns the per-dimension extent of points. The dimension is taken from the
// first point; every other point must match it.
func OfPoints(points []vector.Vector) (Bounds, error) {
	if len(points) == 0 {
		return nil, vector.ErrEmpty
	}
	bs := New(points[0].Dim())
	for _, p := range points {
		if err := bs.Accumulate(p); err != nil {
			return nil, err
		}
	}
	return bs, nil
}

// Dim returns the number of dimensions.
func (bs Bounds) Dim() int { return len(bs) }

func (bs Bounds) check(v vector.Vector) error {
	if len(v) != len(bs) {
		return &vector.ErrDimensionMismatch{Expected: len(bs), Actual: len(v)}
	}
	return nil
}

// Accumulate grows every bound in place to include v.
func (bs Bounds) Accumulate(v vector.Vector) error {
	if err := bs.check(v); err != nil {
		return err
	}
	for i := range bs {
		bs[i] = bs[i].Accumulate(v[i])
	}
	return nil
}

// Resize returns a copy with every bound resized by ratio.
func (bs Bounds) Resize(ratio float64) Bounds {
	out := make(Bounds, len(bs))
	for i, b := range bs {
		out[i] = b.Resize(ratio)
	}
	return out
}

// Pad returns a copy with every zero-span bound widened by margin on both sides.
func (bs Bounds) Pad(margin float64) Bounds {
	out := make(Bounds, len(bs))
	for i, b := range bs {
		out[i] = b.Pad(margin)
	}
	return out
}

// Contains reports whether every component of v lies inside its bound.
func (bs Bounds) Contains(v vector.Vector) bool {
	if len(v) != len(bs) {
		return false
	}
	for i, b := range bs {
		if !b.Contains(v[i]) {
			return false
		}
	}
	return true
}

// MapToCanonical maps a coordinate vector into canonical space.
func (bs Bounds) MapToCanonical(coordinate vector.Vector) (vector.Vector, error) {
	if err := bs.check(coordinate); err != nil {
		return nil, err
	}
	out := make(vector.Vector, len(bs))
	for i, b := range bs {
		out[i] = b.MapToCanonical(coordinate[i])
	}
	return out, nil
}

// MapFromCanonical maps a canonical vector back into data coordinates.
func (bs Bounds) MapFromCanonical(canonical vector.Vector) (vector.Vector, error) {
	if err := bs.check(canonical); err != nil {
		return nil, err
	}
	out := make(vector.Vector, len(bs))
	for i, b := range bs {
		out[i] = b.MapFromCanonical(canonical[i])
	}
	return out, nil
}
