// Package dbscan implements density-based spatial clustering.
//
// Points are visited in index order. A point with fewer than minPts neighbours within
// radius (itself included) is noise; otherwise it seeds a new cluster that grows through
// its neighbourhood. A reached neighbour keeps growing the cluster only when it has
// strictly more than minPts neighbours of its own.
//
// Expansion uses an explicit stack of neighbour lists, so deep chains never grow the
// goroutine stack.
package dbscan

import (
	"log/slog"
	"math"

	"github.com/hupe1980/clusterkit/cluster"
	"github.com/hupe1980/clusterkit/index"
)

// Compile-time check to ensure Scan satisfies cluster.Result.
var _ cluster.Result = (*Scan)(nil)

// Options contains configuration options for the density scan.
type Options struct {
	// Logger receives the cluster and noise counts. Nil disables logging.
	Logger *slog.Logger
}

// DefaultOptions contains the default configuration options.
var DefaultOptions = Options{}

// Scan is the result of a density scan. Noise points belong to no cluster.
type Scan struct {
	*cluster.Partition

	radius float64
	minPts int
}

// New runs the density scan over ps.
func New(ps index.PointSet, radius float64, minPts int, optFns ...func(o *Options)) (*Scan, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if math.IsNaN(radius) || radius < 0 {
		return nil, &cluster.ErrInvalidParameter{Name: "radius", Value: radius}
	}
	if minPts < 0 {
		return nil, &cluster.ErrInvalidParameter{Name: "minPts", Value: minPts}
	}
	if ps == nil || ps.Len() == 0 {
		return nil, index.ErrEmptyInput
	}

	s := &scanner{
		ps:     ps,
		radius: radius,
		minPts: minPts,
		labels: make([]int, ps.Len()),
	}
	for i := range s.labels {
		s.labels[i] = cluster.Unassigned
	}

	count, err := s.run()
	if err != nil {
		return nil, err
	}

	p, err := cluster.NewPartition(ps, s.labels, count)
	if err != nil {
		return nil, err
	}

	if opts.Logger != nil {
		opts.Logger.Info("density scan finished",
			"n", ps.Len(),
			"radius", radius,
			"min_pts", minPts,
			"clusters", count,
			"noise", p.NoiseCount(),
		)
		for c, size := range p.Sizes() {
			opts.Logger.Debug("cluster", "cluster", c, "size", size)
		}
	}

	return &Scan{Partition: p, radius: radius, minPts: minPts}, nil
}

// Radius returns the neighbourhood radius.
func (s *Scan) Radius() float64 { return s.radius }

// MinPts returns the density threshold.
func (s *Scan) MinPts() int { return s.minPts }

type scanner struct {
	ps     index.PointSet
	radius float64
	minPts int
	labels []int
}

// frame is one pending neighbour list and the position of the next neighbour to visit.
type frame struct {
	neighbors []int
	pos       int
}

func (s *scanner) neighbors(i int) ([]int, error) {
	p, err := s.ps.Point(i)
	if err != nil {
		return nil, err
	}
	return s.ps.RangeSearch(p, s.radius)
}

func (s *scanner) run() (int, error) {
	count := 0
	for i := range s.labels {
		if s.labels[i] != cluster.Unassigned {
			continue
		}

		neighbors, err := s.neighbors(i)
		if err != nil {
			return 0, err
		}
		if len(neighbors) < s.minPts {
			s.labels[i] = cluster.Noise
			continue
		}

		s.labels[i] = count
		if err := s.expand(neighbors, count); err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}

func (s *scanner) expand(neighbors []int, label int) error {
	stack := []frame{{neighbors: neighbors}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.pos == len(top.neighbors) {
			stack = stack[:len(stack)-1]
			continue
		}
		j := top.neighbors[top.pos]
		top.pos++

		switch s.labels[j] {
		case cluster.Unassigned:
			s.labels[j] = label
			next, err := s.neighbors(j)
			if err != nil {
				return err
			}
			if len(next) > s.minPts {
				stack = append(stack, frame{neighbors: next})
			}
		case cluster.Noise:
			// Border point: it joins the cluster but had too few neighbours to grow it.
			s.labels[j] = label
		}
	}
	return nil
}
