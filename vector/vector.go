package vector

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrEmpty is returned when an operation needs at least one vector.
	ErrEmpty = errors.New("vector: no vectors given")

	// ErrZeroNorm is returned when normalizing a vector with zero length.
	ErrZeroNorm = errors.New("vector: zero norm")
)

// ErrDimensionMismatch indicates operands of differing dimensionality.
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error returns the error message for dimension mismatch.
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Vector is a k-dimensional point. Treat it as immutable.
type Vector []float64

// New returns a vector holding a copy of values.
func New(values ...float64) Vector {
	return Vector(slices.Clone(values))
}

// Fill returns a k-dimensional vector with every component set to value.
func Fill(k int, value float64) Vector {
	v := make(Vector, k)
	for i := range v {
		v[i] = value
	}
	return v
}

// Dim returns the dimensionality of v.
func (v Vector) Dim() int { return len(v) }

// Values returns a copy of the components of v.
func (v Vector) Values() []float64 { return slices.Clone(v) }

// Equal reports whether v and w have the same dimension and components.
func (v Vector) Equal(w Vector) bool { return slices.Equal(v, w) }

// String formats v as "(x0, x1, ...)".
func (v Vector) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, x := range v {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	}
	sb.WriteByte(')')
	return sb.String()
}

// CheckDim returns *ErrDimensionMismatch if a and b differ in dimension.
func CheckDim(a, b Vector) error {
	if len(a) != len(b) {
		return &ErrDimensionMismatch{Expected: len(a), Actual: len(b)}
	}
	return nil
}

// Add returns the component-wise sum of vs. All vectors must share the first one's dimension.
func Add(vs ...Vector) (Vector, error) {
	if len(vs) == 0 {
		return nil, ErrEmpty
	}
	sum := make(Vector, len(vs[0]))
	for _, v := range vs {
		if err := CheckDim(sum, v); err != nil {
			return nil, err
		}
		floats.Add(sum, v)
	}
	return sum, nil
}

// Average returns the arithmetic mean of vs.
func Average(vs ...Vector) (Vector, error) {
	sum, err := Add(vs...)
	if err != nil {
		return nil, err
	}
	floats.Scale(1/float64(len(vs)), sum)
	return sum, nil
}

// Scale returns v multiplied by s.
func Scale(v Vector, s float64) Vector {
	out := make(Vector, len(v))
	floats.ScaleTo(out, s, v)
	return out
}

// Delta returns a - b.
func Delta(a, b Vector) (Vector, error) {
	if err := CheckDim(a, b); err != nil {
		return nil, err
	}
	out := make(Vector, len(a))
	floats.SubTo(out, a, b)
	return out, nil
}

// Dot returns the inner product of a and b.
func Dot(a, b Vector) (float64, error) {
	if err := CheckDim(a, b); err != nil {
		return 0, err
	}
	return floats.Dot(a, b), nil
}

// NormSq returns the squared Euclidean length of v.
func NormSq(v Vector) float64 {
	return floats.Dot(v, v)
}

// Norm returns the Euclidean length of v.
func Norm(v Vector) float64 {
	return floats.Norm(v, 2)
}

// DeltaNormSq returns the squared Euclidean distance between a and b.
func DeltaNormSq(a, b Vector) (float64, error) {
	if err := CheckDim(a, b); err != nil {
		return 0, err
	}
	return SquaredDistance(a, b), nil
}

// DeltaNorm returns the Euclidean distance between a and b.
func DeltaNorm(a, b Vector) (float64, error) {
	if err := CheckDim(a, b); err != nil {
		return 0, err
	}
	return floats.Distance(a, b, 2), nil
}

// SquaredDistance returns the squared Euclidean distance between a and b.
// Assumes vectors are the same length (caller's responsibility).
func SquaredDistance(a, b Vector) float64 {
	var acc float64
	for i := range a {
		d := a[i] - b[i]
		acc += d * d
	}
	return acc
}

// Normalize returns v scaled to unit length.
func Normalize(v Vector) (Vector, error) {
	n := Norm(v)
	if n == 0 || math.IsNaN(n) {
		return nil, ErrZeroNorm
	}
	return Scale(v, 1/n), nil
}
