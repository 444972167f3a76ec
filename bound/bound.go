// Package bound provides per-dimension [min, max] intervals and the mapping between
// data coordinates and canonical space ([0,1] per dimension).
package bound

import "math"

// Bound is a closed interval [Min, Max]. The zero-accumulation state returned by Empty
// uses the (+Inf, -Inf) sentinel pair so that the first accumulated value sets both ends.
type Bound struct {
	min float64
	max float64
}

// Empty returns a Bound that contains nothing.
func Empty() Bound {
	return Bound{min: math.Inf(1), max: math.Inf(-1)}
}

// Of returns the smallest Bound containing all values.
func Of(values ...float64) Bound {
	b := Empty()
	for _, v := range values {
		b = b.Accumulate(v)
	}
	return b
}

// Min returns the lower end.
func (b Bound) Min() float64 { return b.min }

// Max returns the upper end.
func (b Bound) Max() float64 { return b.max }

// Span returns Max - Min.
func (b Bound) Span() float64 { return b.max - b.min }

// Mid returns the midpoint of the interval.
func (b Bound) Mid() float64 { return (b.min + b.max) / 2 }

// IsEmpty reports whether no value has been accumulated.
func (b Bound) IsEmpty() bool { return b.min > b.max }

// Accumulate returns b grown to include value.
func (b Bound) Accumulate(value float64) Bound {
	if value < b.min {
		b.min = value
	}
	if value > b.max {
		b.max = value
	}
	return b
}

// Resize scales the interval around its midpoint by ratio.
func (b Bound) Resize(ratio float64) Bound {
	if b.IsEmpty() {
		return b
	}
	mid := b.Mid()
	return Bound{
		min: mid - (mid-b.min)*ratio,
		max: mid + (b.max-mid)*ratio,
	}
}

// Pad widens a zero-span interval to [v-margin, v+margin]. Other intervals are returned unchanged.
func (b Bound) Pad(margin float64) Bound {
	if b.IsEmpty() || b.Span() > 0 {
		return b
	}
	return Bound{min: b.min - margin, max: b.max + margin}
}

// Contains reports whether value lies in [Min, Max].
func (b Bound) Contains(value float64) bool {
	return value >= b.min && value <= b.max
}

// MapToCanonical maps a coordinate into canonical space: (x-min)/(max-min).
func (b Bound) MapToCanonical(coordinate float64) float64 {
	return (coordinate - b.min) / (b.max - b.min)
}

// MapFromCanonical maps a canonical value back: min + c*(max-min).
func (b Bound) MapFromCanonical(canonical float64) float64 {
	return b.min + (b.max-b.min)*canonical
}
