package cluster

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// Members is a set of point indices backed by a 32-bit Roaring bitmap.
type Members struct {
	rb *roaring.Bitmap
}

// NewMembers creates a set holding the given point indices.
func NewMembers(indices ...int) *Members {
	m := &Members{rb: roaring.New()}
	for _, i := range indices {
		m.Add(i)
	}
	return m
}

// Add adds a point index.
func (m *Members) Add(i int) {
	m.rb.Add(uint32(i))
}

// Contains reports whether the point index is a member.
func (m *Members) Contains(i int) bool {
	return m.rb.Contains(uint32(i))
}

// Len returns the number of members.
func (m *Members) Len() int {
	return int(m.rb.GetCardinality())
}

// IsEmpty returns true if the set has no members.
func (m *Members) IsEmpty() bool {
	return m.rb.IsEmpty()
}

// Or adds every member of other.
func (m *Members) Or(other *Members) {
	m.rb.Or(other.rb)
}

// Clone returns a deep copy.
func (m *Members) Clone() *Members {
	return &Members{rb: m.rb.Clone()}
}

// All iterates the point indices in ascending order.
func (m *Members) All() iter.Seq[int] {
	return func(yield func(int) bool) {
		it := m.rb.Iterator()
		for it.HasNext() {
			if !yield(int(it.Next())) {
				return
			}
		}
	}
}

// Indices returns the point indices in ascending order.
func (m *Members) Indices() []int {
	out := make([]int, 0, m.Len())
	for i := range m.All() {
		out = append(out, i)
	}
	return out
}
