package clusterkit

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/hupe1980/clusterkit/cluster"
	"github.com/hupe1980/clusterkit/cluster/agglomerative"
	"github.com/hupe1980/clusterkit/cluster/dbscan"
	"github.com/hupe1980/clusterkit/cluster/vq"
	"github.com/hupe1980/clusterkit/index"
	"github.com/hupe1980/clusterkit/index/flat"
	"github.com/hupe1980/clusterkit/index/grid"
	"github.com/hupe1980/clusterkit/vector"
	"golang.org/x/sync/errgroup"
)

// Algorithm names used in logs, metrics and archived records.
const (
	AlgorithmHierarchical = "hierarchical"
	AlgorithmDBSCAN       = "dbscan"
	AlgorithmVQ           = "vq"
)

// NewPointSet builds a flat point set with exhaustive range search.
func NewPointSet(points []vector.Vector, opts ...Option) (*flat.Set, error) {
	o := applyOptions(opts)

	start := time.Now()
	s, err := flat.New(points, func(fo *flat.Options) {
		fo.Logger = o.logger.Logger
	})
	err = translateError(err)
	o.recordIndexBuild("flat", points, s, time.Since(start), err)
	return s, err
}

// NewSpatialIndex builds a grid index over points.
func NewSpatialIndex(points []vector.Vector, opts ...Option) (*grid.Index, error) {
	o := applyOptions(opts)

	start := time.Now()
	g, err := grid.New(points, func(gopts *grid.Options) {
		gopts.Logger = o.logger.Logger
		if o.maxCells > 0 {
			gopts.MaxCells = o.maxCells
		}
	})
	err = translateError(err)
	o.recordIndexBuild("grid", points, g, time.Since(start), err)
	return g, err
}

func (o options) recordIndexBuild(kind string, points []vector.Vector, ps index.PointSet, d time.Duration, err error) {
	dim := 0
	if err == nil {
		dim = ps.Dim()
	}
	o.metricsCollector.RecordIndexBuild(kind, len(points), d, err)
	o.logger.LogIndexBuild(context.Background(), kind, len(points), dim, d, err)
}

// RangeSearch returns the indices of the points of ps strictly within radius of locus.
func RangeSearch(ps index.PointSet, locus vector.Vector, radius float64, opts ...Option) ([]int, error) {
	o := applyOptions(opts)

	start := time.Now()
	if ps == nil {
		o.metricsCollector.RecordRangeSearch(0, time.Since(start), ErrEmptyInput)
		return nil, ErrEmptyInput
	}
	found, err := ps.RangeSearch(locus, radius)
	err = translateError(err)

	o.metricsCollector.RecordRangeSearch(len(found), time.Since(start), err)
	o.logger.LogRangeSearch(context.Background(), radius, len(found), err)
	return found, err
}

// Hierarchical builds the agglomerative merge tree of ps. With a resource controller,
// the distance cache reservation waits on ctx for memory to become available.
func Hierarchical(ctx context.Context, ps index.PointSet, linkage agglomerative.Linkage, opts ...Option) (*agglomerative.Hierarchy, error) {
	o := applyOptions(opts)

	start := time.Now()
	h, err := agglomerative.NewWithContext(ctx, ps, linkage, func(ao *agglomerative.Options) {
		ao.Logger = o.logger.Logger
		ao.Resource = o.resource
	})
	err = translateError(err)

	clusters := 0
	if err == nil {
		clusters = h.ClusterCount()
	}
	o.recordClustering(ctx, AlgorithmHierarchical, ps, clusters, time.Since(start), err)
	return h, err
}

// DBSCAN runs density-based clustering on ps.
func DBSCAN(ps index.PointSet, radius float64, minPts int, opts ...Option) (*dbscan.Scan, error) {
	o := applyOptions(opts)

	start := time.Now()
	s, err := dbscan.New(ps, radius, minPts, func(do *dbscan.Options) {
		do.Logger = o.logger.Logger
	})
	err = translateError(err)

	clusters := 0
	if err == nil {
		clusters = s.ClusterCount()
	}
	o.recordClustering(context.Background(), AlgorithmDBSCAN, ps, clusters, time.Since(start), err)
	return s, err
}

// VectorQuantization partitions ps into clusterCount clusters with Lloyd's algorithm.
// Pass WithRand for reproducible results.
func VectorQuantization(ps index.PointSet, clusterCount int, opts ...Option) (*vq.Quantizer, error) {
	o := applyOptions(opts)

	start := time.Now()
	q, err := vq.New(ps, clusterCount, func(vo *vq.Options) {
		vo.Logger = o.logger.Logger
		vo.Rand = o.rand
		vo.MaxIterations = o.maxIterations
	})
	err = translateError(err)

	clusters := 0
	if err == nil {
		clusters = q.ClusterCount()
	}
	o.recordClustering(context.Background(), AlgorithmVQ, ps, clusters, time.Since(start), err)
	return q, err
}

func (o options) recordClustering(ctx context.Context, algorithm string, ps index.PointSet, clusters int, d time.Duration, err error) {
	n := 0
	if ps != nil {
		n = ps.Len()
	}
	o.metricsCollector.RecordClustering(algorithm, n, clusters, d, err)
	o.logger.LogClustering(ctx, algorithm, n, clusters, d, err)
}

// Encode exports r and serializes the document with the configured codec.
func Encode(r cluster.Result, opts ...Option) ([]byte, error) {
	o := applyOptions(opts)

	doc, err := cluster.Export(r)
	if err != nil {
		return nil, translateError(err)
	}
	return o.codec.Marshal(doc)
}

// Job is one clustering run for RunAll.
type Job struct {
	// Name identifies the job in logs.
	Name string

	run func(ctx context.Context, ps index.PointSet, opts []Option) (cluster.Result, error)
}

// HierarchicalJob returns a Job running Hierarchical.
func HierarchicalJob(linkage agglomerative.Linkage) Job {
	return Job{
		Name: AlgorithmHierarchical + "/" + linkage.String(),
		run: func(ctx context.Context, ps index.PointSet, opts []Option) (cluster.Result, error) {
			return Hierarchical(ctx, ps, linkage, opts...)
		},
	}
}

// DBSCANJob returns a Job running DBSCAN.
func DBSCANJob(radius float64, minPts int) Job {
	return Job{
		Name: AlgorithmDBSCAN,
		run: func(_ context.Context, ps index.PointSet, opts []Option) (cluster.Result, error) {
			return DBSCAN(ps, radius, minPts, opts...)
		},
	}
}

// VQJob returns a Job running VectorQuantization.
func VQJob(clusterCount int) Job {
	return Job{
		Name: AlgorithmVQ,
		run: func(_ context.Context, ps index.PointSet, opts []Option) (cluster.Result, error) {
			return VectorQuantization(ps, clusterCount, opts...)
		},
	}
}

// RunAll runs jobs concurrently on the shared point set and returns their results in
// job order. Each job waits for a background slot of the resource controller; ctx is
// checked before a job starts, but a running job is not interrupted. The first error
// cancels the jobs that have not started yet.
func RunAll(ctx context.Context, ps index.PointSet, jobs []Job, opts ...Option) ([]cluster.Result, error) {
	o := applyOptions(opts)
	if len(jobs) == 0 {
		return nil, ErrNoJobs
	}

	// *rand.Rand is not safe for concurrent use; derive one source per job up front.
	var seeds []int64
	if o.rand != nil {
		seeds = make([]int64, len(jobs))
		for i := range seeds {
			seeds[i] = o.rand.Int63()
		}
	}

	results := make([]cluster.Result, len(jobs))
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	var acquireErr error
	for i, job := range jobs {
		if err := o.resource.AcquireBackground(gctx); err != nil {
			acquireErr = err
			break
		}

		jobOpts := opts
		if seeds != nil {
			jobOpts = append(append([]Option(nil), opts...), WithRand(rand.New(rand.NewSource(seeds[i]))))
		}

		g.Go(func() error {
			defer o.resource.ReleaseBackground()

			o.logger.DebugContext(gctx, "job started", "job", job.Name, "index", i)
			r, err := job.run(gctx, ps, jobOpts)
			if err != nil {
				failed.Add(1)
				return err
			}
			results[i] = r
			return nil
		})
	}

	err := g.Wait()
	o.logger.LogRunAll(ctx, len(jobs), int(failed.Load()))
	if err != nil {
		return nil, err
	}
	if acquireErr != nil {
		return nil, acquireErr
	}
	return results, nil
}
