package cluster

import (
	"fmt"
	"slices"

	"github.com/hupe1980/clusterkit/index"
	"github.com/hupe1980/clusterkit/vector"
)

// Compile-time check to ensure Partition satisfies Result.
var _ Result = (*Partition)(nil)

// Partition is a flat Result built from a per-point label array.
// Labels in [0, count) select a cluster; Noise and Unassigned points belong to none.
type Partition struct {
	points   index.PointSet
	labels   []int
	clusters []*Members
	noise    *Members
}

// NewPartition groups the points of ps by labels. It copies labels.
func NewPartition(ps index.PointSet, labels []int, count int) (*Partition, error) {
	if len(labels) != ps.Len() {
		return nil, &ErrInvalidParameter{Name: "labels", Value: fmt.Sprintf("len %d, want %d", len(labels), ps.Len())}
	}
	if count < 0 {
		return nil, &ErrInvalidParameter{Name: "count", Value: count}
	}

	p := &Partition{
		points:   ps,
		labels:   slices.Clone(labels),
		clusters: make([]*Members, count),
		noise:    NewMembers(),
	}
	for c := range p.clusters {
		p.clusters[c] = NewMembers()
	}

	for i, l := range labels {
		switch {
		case l >= 0 && l < count:
			p.clusters[l].Add(i)
		case l == Noise || l == Unassigned:
			p.noise.Add(i)
		default:
			return nil, &ErrInvalidParameter{Name: fmt.Sprintf("labels[%d]", i), Value: l}
		}
	}

	return p, nil
}

// ClusterCount returns the number of clusters, including empty ones.
func (p *Partition) ClusterCount() int { return len(p.clusters) }

// PointsInCluster returns the points of cluster i in ascending point order.
func (p *Partition) PointsInCluster(i int) ([]vector.Vector, error) {
	if err := CheckCluster(i, len(p.clusters)); err != nil {
		return nil, err
	}
	return p.points.Points(p.clusters[i].Indices())
}

// Members returns the point indices of cluster i.
func (p *Partition) Members(i int) (*Members, error) {
	if err := CheckCluster(i, len(p.clusters)); err != nil {
		return nil, err
	}
	return p.clusters[i].Clone(), nil
}

// Sizes returns the number of points per cluster.
func (p *Partition) Sizes() []int {
	sizes := make([]int, len(p.clusters))
	for c, m := range p.clusters {
		sizes[c] = m.Len()
	}
	return sizes
}

// Labels returns a copy of the per-point label array.
func (p *Partition) Labels() []int { return slices.Clone(p.labels) }

// Label returns the label of point i.
func (p *Partition) Label(i int) (int, error) {
	if i < 0 || i >= len(p.labels) {
		return 0, &index.ErrIndexOutOfRange{Index: i, Len: len(p.labels)}
	}
	return p.labels[i], nil
}

// NoiseCount returns the number of points outside every cluster.
func (p *Partition) NoiseCount() int { return p.noise.Len() }

// Noise returns the points outside every cluster.
func (p *Partition) Noise() ([]vector.Vector, error) {
	return p.points.Points(p.noise.Indices())
}

// PointSet returns the underlying point set.
func (p *Partition) PointSet() index.PointSet { return p.points }
