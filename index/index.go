// Package index provides the point-set abstraction shared by every clustering algorithm.
//
// Two implementations live in sub-packages:
//
//	flat/  the naive O(n) range search, the correctness oracle
//	grid/  a quantized grid index with sub-linear range search
//
// Both are read-only after construction and safe for concurrent readers.
package index

import (
	"errors"
	"fmt"

	"github.com/hupe1980/clusterkit/bound"
	"github.com/hupe1980/clusterkit/vector"
)

// DefaultSlack is the relative margin applied to the data extent so that boundary points
// lie strictly inside the bounds.
const DefaultSlack = 1.0 + 1.0e-6

// ErrEmptyInput is returned when a point set is built from zero points.
var ErrEmptyInput = errors.New("index: empty input")

// ErrIndexOutOfRange indicates a point index outside [0, n).
type ErrIndexOutOfRange struct {
	Index int // Requested index
	Len   int // Number of points
}

// Error returns the error message for an out of range index.
func (e *ErrIndexOutOfRange) Error() string {
	return fmt.Sprintf("index out of range: %d not in [0, %d)", e.Index, e.Len)
}

// PointSet is an immutable collection of n k-dimensional points.
type PointSet interface {
	// Len returns n.
	Len() int

	// Dim returns k.
	Dim() int

	// Point returns the i-th point.
	Point(i int) (vector.Vector, error)

	// Points returns the points at the given indices, in selection order.
	Points(selection []int) ([]vector.Vector, error)

	// Bounds returns the per-dimension bounds (with slack).
	Bounds() bound.Bounds

	// RangeSearch returns the indices of every point whose squared distance to locus is
	// strictly less than radius².
	RangeSearch(locus vector.Vector, radius float64) ([]int, error)
}
