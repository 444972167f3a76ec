package clusterkit

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordIndexBuild is called after a point set or grid index is built.
	RecordIndexBuild(kind string, n int, duration time.Duration, err error)

	// RecordRangeSearch is called after each range query through the facade.
	RecordRangeSearch(results int, duration time.Duration, err error)

	// RecordClustering is called after each clustering run.
	RecordClustering(algorithm string, n, clusters int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordIndexBuild(string, int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordRangeSearch(int, time.Duration, error)             {}
func (NoopMetricsCollector) RecordClustering(string, int, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	IndexBuildCount       atomic.Int64
	IndexBuildErrors      atomic.Int64
	IndexedPoints         atomic.Int64
	RangeSearchCount      atomic.Int64
	RangeSearchErrors     atomic.Int64
	RangeSearchResults    atomic.Int64
	RangeSearchTotalNanos atomic.Int64
	ClusteringCount       atomic.Int64
	ClusteringErrors      atomic.Int64
	ClusteringTotalNanos  atomic.Int64
	ClustersFound         atomic.Int64
}

// RecordIndexBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIndexBuild(_ string, n int, _ time.Duration, err error) {
	b.IndexBuildCount.Add(1)
	if err != nil {
		b.IndexBuildErrors.Add(1)
		return
	}
	b.IndexedPoints.Add(int64(n))
}

// RecordRangeSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRangeSearch(results int, duration time.Duration, err error) {
	b.RangeSearchCount.Add(1)
	b.RangeSearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RangeSearchErrors.Add(1)
		return
	}
	b.RangeSearchResults.Add(int64(results))
}

// RecordClustering implements MetricsCollector.
func (b *BasicMetricsCollector) RecordClustering(_ string, _ int, clusters int, duration time.Duration, err error) {
	b.ClusteringCount.Add(1)
	b.ClusteringTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ClusteringErrors.Add(1)
		return
	}
	b.ClustersFound.Add(int64(clusters))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		IndexBuildCount:     b.IndexBuildCount.Load(),
		IndexBuildErrors:    b.IndexBuildErrors.Load(),
		IndexedPoints:       b.IndexedPoints.Load(),
		RangeSearchCount:    b.RangeSearchCount.Load(),
		RangeSearchErrors:   b.RangeSearchErrors.Load(),
		RangeSearchResults:  b.RangeSearchResults.Load(),
		RangeSearchAvgNanos: avg(b.RangeSearchTotalNanos.Load(), b.RangeSearchCount.Load()),
		ClusteringCount:     b.ClusteringCount.Load(),
		ClusteringErrors:    b.ClusteringErrors.Load(),
		ClusteringAvgNanos:  avg(b.ClusteringTotalNanos.Load(), b.ClusteringCount.Load()),
		ClustersFound:       b.ClustersFound.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	IndexBuildCount     int64
	IndexBuildErrors    int64
	IndexedPoints       int64
	RangeSearchCount    int64
	RangeSearchErrors   int64
	RangeSearchResults  int64
	RangeSearchAvgNanos int64
	ClusteringCount     int64
	ClusteringErrors    int64
	ClusteringAvgNanos  int64
	ClustersFound       int64
}
