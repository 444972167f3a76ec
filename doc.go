// Package clusterkit clusters n points in k dimensions.
//
// Points live in an index.PointSet: a flat set with exhaustive range search, or a grid
// index that buckets points into q^k cells for sub-linear range search. Three algorithms
// run on any point set:
//
//   - Hierarchical: agglomerative clustering with min, max, mean or centroid linkage
//   - DBSCAN: density-based clustering with noise
//   - VectorQuantization: Lloyd's k-means with an injected random source
//
// Every result satisfies cluster.Result and can be flattened with cluster.Export.
//
// # Quick Start
//
//	idx, _ := clusterkit.NewSpatialIndex(points)
//	scan, _ := clusterkit.DBSCAN(idx, 2.0, 4)
//	for c := range scan.ClusterCount() {
//	    members, _ := scan.PointsInCluster(c)
//	    fmt.Println(c, len(members))
//	}
//
// # Concurrent Runs
//
// Independent algorithms may share one index. RunAll runs several jobs on it
// concurrently, bounded by the background slots of a resource.Controller:
//
//	results, _ := clusterkit.RunAll(ctx, idx, []clusterkit.Job{
//	    clusterkit.DBSCANJob(2.0, 4),
//	    clusterkit.VQJob(3),
//	}, clusterkit.WithRand(rand.New(rand.NewSource(1))))
//
// # Persistence
//
// Results can be archived to any blobstore.BlobStore (memory, local disk, S3, MinIO,
// SQLite) with the archive package. cmd/clusterd serves the algorithms over HTTP.
package clusterkit
