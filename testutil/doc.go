// Package testutil provides testing utilities for clusterkit.
//
// This package is intended for use in tests, benchmarks and examples only.
// It provides helpers for generating synthetic point clouds and computing
// exact range searches as ground truth.
//
// # Random Point Generation
//
//	rng := testutil.NewRNG(seed)
//	points, labels := rng.UniformBoxes(1000, testutil.ThreeBoxes())
//	blobs, labels := rng.GaussianBlobs(300, centers, 1.5)
//
// # Exact Search (Ground Truth)
//
//	idx := testutil.BruteForceRangeSearch(points, locus, radius)
package testutil
