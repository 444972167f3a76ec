// Package vector provides the fixed-dimension float64 tuple used throughout clusterkit.
//
// A Vector is an ordered sequence of k real numbers. Constructors copy their input and
// no function in this package mutates its arguments, so vectors can be shared freely
// between indexes and clustering results.
//
// Checked operations (Add, Delta, Dot, DeltaNorm, ...) return *ErrDimensionMismatch when
// the operands disagree on k. SquaredDistance is the unchecked variant used on hot paths
// where the dimension has already been validated at construction time.
package vector
