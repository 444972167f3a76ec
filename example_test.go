package clusterkit_test

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"slices"

	"github.com/hupe1980/clusterkit"
	"github.com/hupe1980/clusterkit/cluster/agglomerative"
	"github.com/hupe1980/clusterkit/vector"
)

func line(xs ...float64) []vector.Vector {
	points := make([]vector.Vector, len(xs))
	for i, x := range xs {
		points[i] = vector.New(x)
	}
	return points
}

// Example_dbscan demonstrates density-based clustering on a grid index.
func Example_dbscan() {
	idx, err := clusterkit.NewSpatialIndex(line(0, 1, 2, 10, 11, 12, 50))
	if err != nil {
		log.Fatal(err)
	}

	scan, err := clusterkit.DBSCAN(idx, 1.5, 2)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("clusters:", scan.ClusterCount(), "noise:", scan.NoiseCount())
	fmt.Println("sizes:", scan.Sizes())
	// Output:
	// clusters: 2 noise: 1
	// sizes: [3 3]
}

// Example_hierarchical demonstrates cutting a single-linkage merge tree.
func Example_hierarchical() {
	ps, err := clusterkit.NewPointSet(line(0, 1, 3, 7))
	if err != nil {
		log.Fatal(err)
	}

	h, err := clusterkit.Hierarchical(context.Background(), ps, agglomerative.LinkageMin)
	if err != nil {
		log.Fatal(err)
	}

	for _, m := range h.Merges() {
		fmt.Printf("%d+%d -> %d at %.0f\n", m.Left, m.Right, m.ID, m.Distance)
	}

	cut, err := h.Cut(2)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("sizes:", cut.Sizes())
	// Output:
	// 0+1 -> 4 at 1
	// 2+4 -> 5 at 2
	// 3+5 -> 6 at 4
	// sizes: [3 1]
}

// Example_vectorQuantization demonstrates seeded k-means.
func Example_vectorQuantization() {
	ps, err := clusterkit.NewPointSet([]vector.Vector{
		vector.New(0, 0), vector.New(0, 1),
		vector.New(10, 10), vector.New(10, 11),
	})
	if err != nil {
		log.Fatal(err)
	}

	q, err := clusterkit.VectorQuantization(ps, 2, clusterkit.WithRand(rand.New(rand.NewSource(1))))
	if err != nil {
		log.Fatal(err)
	}

	sizes := q.Sizes()
	slices.Sort(sizes)
	fmt.Println("converged:", q.Converged(), "sizes:", sizes)
	// Output: converged: true sizes: [2 2]
}
