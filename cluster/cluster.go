// Package cluster defines the result contract shared by every clustering algorithm.
//
// Algorithms live in sub-packages:
//
//	agglomerative/  bottom-up hierarchical merging with four linkage policies
//	dbscan/         density-based scanning with noise detection
//	vq/             vector quantization (Lloyd's k-means)
//
// Every algorithm returns a Result. Export flattens any Result into a Document that
// the codec package can serialize.
package cluster

import (
	"fmt"

	"github.com/hupe1980/clusterkit/vector"
)

// Label values used in point assignment arrays. Real clusters are labelled 0..c-1.
const (
	// Unassigned marks a point that has not been visited yet.
	Unassigned = -1

	// Noise marks a point that belongs to no cluster.
	Noise = -2
)

// Result is the read-only capability every clustering algorithm exposes.
type Result interface {
	// ClusterCount returns the number of clusters.
	ClusterCount() int

	// PointsInCluster returns the points of cluster i, 0 <= i < ClusterCount().
	PointsInCluster(i int) ([]vector.Vector, error)
}

// ErrInvalidParameter is returned when an algorithm parameter is out of its domain.
type ErrInvalidParameter struct {
	Name  string
	Value any
}

func (e *ErrInvalidParameter) Error() string {
	return fmt.Sprintf("cluster: invalid parameter %s: %v", e.Name, e.Value)
}

// ErrClusterOutOfRange indicates a cluster index outside [0, ClusterCount()).
type ErrClusterOutOfRange struct {
	Cluster int
	Count   int
}

func (e *ErrClusterOutOfRange) Error() string {
	return fmt.Sprintf("cluster: cluster %d out of range [0, %d)", e.Cluster, e.Count)
}

// CheckCluster validates a cluster index against count.
func CheckCluster(i, count int) error {
	if i < 0 || i >= count {
		return &ErrClusterOutOfRange{Cluster: i, Count: count}
	}
	return nil
}
