package testutil

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/hupe1980/clusterkit/bound"
	"github.com/hupe1980/clusterkit/vector"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Rand returns an independent *rand.Rand seeded from this RNG.
// Use it for components that take an injected generator.
func (r *RNG) Rand() *rand.Rand {
	r.mu.Lock()
	defer r.mu.Unlock()
	return rand.New(rand.NewSource(r.rand.Int63()))
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UniformVectors generates random vectors with values in range [0, 1).
func (r *RNG) UniformVectors(num int, dimensions int) []vector.Vector {
	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([]vector.Vector, num)
	for i := range num {
		vec := make(vector.Vector, dimensions)
		for j := range vec {
			vec[j] = r.rand.Float64()
		}
		vectors[i] = vec
	}
	return vectors
}

// UniformBoxes generates num points, each drawn uniformly from one of boxes chosen
// uniformly at random. Labels holds the box each point came from.
func (r *RNG) UniformBoxes(num int, boxes []bound.Bounds) (points []vector.Vector, labels []int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	points = make([]vector.Vector, num)
	labels = make([]int, num)
	for i := range num {
		box := r.rand.Intn(len(boxes))
		canonical := make(vector.Vector, boxes[box].Dim())
		for j := range canonical {
			canonical[j] = r.rand.Float64()
		}
		// Dimensions match by construction.
		p, _ := boxes[box].MapFromCanonical(canonical)
		points[i] = p
		labels[i] = box
	}
	return points, labels
}

// GaussianBlobs generates num points around centers with standard deviation spread.
// Points are assigned to centers round-robin; labels holds the center index.
func (r *RNG) GaussianBlobs(num int, centers []vector.Vector, spread float64) (points []vector.Vector, labels []int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	points = make([]vector.Vector, num)
	labels = make([]int, num)
	for i := range num {
		c := i % len(centers)
		vec := make(vector.Vector, len(centers[c]))
		for j := range vec {
			vec[j] = centers[c][j] + r.rand.NormFloat64()*spread
		}
		points[i] = vec
		labels[i] = c
	}
	return points, labels
}

// ThreeBoxes returns the well-separated 2-D boxes
// [10,20]x[10,30], [15,25]x[60,80] and [65,90]x[40,50].
func ThreeBoxes() []bound.Bounds {
	return []bound.Bounds{
		{bound.Of(10, 20), bound.Of(10, 30)},
		{bound.Of(15, 25), bound.Of(60, 80)},
		{bound.Of(65, 90), bound.Of(40, 50)},
	}
}

// BruteForceRangeSearch returns the indices of points strictly within radius of locus.
func BruteForceRangeSearch(points []vector.Vector, locus vector.Vector, radius float64) []int {
	var result []int
	radiusSq := radius * radius
	for i, p := range points {
		if vector.SquaredDistance(p, locus) < radiusSq {
			result = append(result, i)
		}
	}
	return result
}

// SortedKeys returns the points as sorted string keys, for comparing point sets
// independent of order.
func SortedKeys(points []vector.Vector) []string {
	keys := make([]string, len(points))
	for i, p := range points {
		keys[i] = p.String()
	}
	sort.Strings(keys)
	return keys
}
