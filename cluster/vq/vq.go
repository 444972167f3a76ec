// Package vq implements vector quantization with Lloyd's algorithm (k-means).
//
// Centroids start at points drawn uniformly with replacement from the data. Each
// iteration assigns every point to its nearest centroid (the lowest index wins a tie) and
// moves each centroid to the mean of its points; a centroid with no points stays where it
// is. Iteration stops when the summed squared centroid movement is exactly zero.
package vq

import (
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/hupe1980/clusterkit/cluster"
	"github.com/hupe1980/clusterkit/index"
	"github.com/hupe1980/clusterkit/vector"
)

// Compile-time check to ensure Quantizer satisfies cluster.Result.
var _ cluster.Result = (*Quantizer)(nil)

// Options contains configuration options for vector quantization.
type Options struct {
	// Rand draws the initial centroids. Nil uses a time-seeded generator.
	Rand *rand.Rand

	// MaxIterations caps the number of assignment/update rounds. 0 means no cap.
	MaxIterations int

	// Logger receives per-iteration movement at Debug. Nil disables logging.
	Logger *slog.Logger
}

// DefaultOptions contains the default configuration options.
var DefaultOptions = Options{}

// Quantizer is the result of vector quantization.
type Quantizer struct {
	*cluster.Partition

	centroids  []vector.Vector
	iterations int
	converged  bool
	distortion float64
}

// New partitions the points of ps into clusterCount clusters.
func New(ps index.PointSet, clusterCount int, optFns ...func(o *Options)) (*Quantizer, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if clusterCount < 1 {
		return nil, &cluster.ErrInvalidParameter{Name: "clusterCount", Value: clusterCount}
	}
	if opts.MaxIterations < 0 {
		return nil, &cluster.ErrInvalidParameter{Name: "MaxIterations", Value: opts.MaxIterations}
	}
	if ps == nil || ps.Len() == 0 {
		return nil, index.ErrEmptyInput
	}

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	n := ps.Len()
	points := make([]vector.Vector, n)
	for i := range n {
		p, err := ps.Point(i)
		if err != nil {
			return nil, err
		}
		points[i] = p
	}

	centroids := make([]vector.Vector, clusterCount)
	for c := range centroids {
		centroids[c] = vector.New(points[rng.Intn(n)]...)
	}

	assignments := make([]int, n)
	iterations := 0
	converged := false
	for opts.MaxIterations == 0 || iterations < opts.MaxIterations {
		iterations++

		assign(points, centroids, assignments)
		next := update(points, centroids, assignments)

		delta := 0.0
		for c := range centroids {
			delta += vector.SquaredDistance(centroids[c], next[c])
		}
		centroids = next

		if opts.Logger != nil {
			opts.Logger.Debug("quantization step", "iteration", iterations, "delta", delta)
		}

		// NaN coordinates make delta NaN; there is nothing left to refine.
		if delta == 0 || math.IsNaN(delta) {
			converged = delta == 0
			break
		}
	}

	// Assignments must match the final centroids when the cap stopped a moving run.
	if !converged {
		assign(points, centroids, assignments)
	}

	distortion := 0.0
	for i, p := range points {
		distortion += vector.SquaredDistance(p, centroids[assignments[i]])
	}

	p, err := cluster.NewPartition(ps, assignments, clusterCount)
	if err != nil {
		return nil, err
	}

	if opts.Logger != nil {
		opts.Logger.Info("quantization finished",
			"n", n,
			"clusters", clusterCount,
			"iterations", iterations,
			"converged", converged,
			"distortion", distortion,
		)
	}

	return &Quantizer{
		Partition:  p,
		centroids:  centroids,
		iterations: iterations,
		converged:  converged,
		distortion: distortion,
	}, nil
}

func assign(points, centroids []vector.Vector, assignments []int) {
	for i, p := range points {
		assignments[i] = nearest(centroids, p)
	}
}

// nearest returns the closest centroid; the lowest index wins a tie.
func nearest(centroids []vector.Vector, p vector.Vector) int {
	best := 0
	bestDist := vector.SquaredDistance(centroids[0], p)
	for c := 1; c < len(centroids); c++ {
		if d := vector.SquaredDistance(centroids[c], p); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

// update returns the mean of each cluster; empty clusters keep their centroid.
func update(points, centroids []vector.Vector, assignments []int) []vector.Vector {
	k := len(centroids[0])
	sums := make([]vector.Vector, len(centroids))
	counts := make([]int, len(centroids))
	for c := range sums {
		sums[c] = make(vector.Vector, k)
	}
	for i, p := range points {
		c := assignments[i]
		for d := range k {
			sums[c][d] += p[d]
		}
		counts[c]++
	}

	next := make([]vector.Vector, len(centroids))
	for c := range next {
		if counts[c] == 0 {
			next[c] = centroids[c]
			continue
		}
		next[c] = vector.Scale(sums[c], 1/float64(counts[c]))
	}
	return next
}

// Centroids returns a copy of the final centroids.
func (q *Quantizer) Centroids() []vector.Vector {
	out := make([]vector.Vector, len(q.centroids))
	for c, v := range q.centroids {
		out[c] = vector.New(v...)
	}
	return out
}

// Iterations returns the number of assignment/update rounds run.
func (q *Quantizer) Iterations() int { return q.iterations }

// Converged reports whether the centroids stopped moving.
func (q *Quantizer) Converged() bool { return q.converged }

// Distortion returns the sum of squared distances from each point to its centroid.
func (q *Quantizer) Distortion() float64 { return q.distortion }

// Nearest returns the index of the centroid closest to v.
func (q *Quantizer) Nearest(v vector.Vector) (int, error) {
	if err := vector.CheckDim(q.centroids[0], v); err != nil {
		return 0, err
	}
	return nearest(q.centroids, v), nil
}
