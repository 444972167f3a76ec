package clusterkit

import (
	"errors"
	"fmt"

	"github.com/hupe1980/clusterkit/cluster"
	"github.com/hupe1980/clusterkit/index"
	"github.com/hupe1980/clusterkit/resource"
	"github.com/hupe1980/clusterkit/vector"
)

var (
	// ErrEmptyInput is returned when clustering or indexing zero points.
	ErrEmptyInput = errors.New("empty input")

	// ErrMemoryLimitExceeded is returned when a run does not fit the configured memory limit.
	ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

	// ErrNoJobs is returned by RunAll when called without jobs.
	ErrNoJobs = errors.New("no jobs")
)

// ErrDimensionMismatch indicates points or a locus of differing dimensionality.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrIndexOutOfRange indicates a point or cluster index outside its valid range.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrIndexOutOfRange struct {
	Index int
	Len   int
	cause error
}

func (e *ErrIndexOutOfRange) Error() string {
	return fmt.Sprintf("index out of range: %d not in [0, %d)", e.Index, e.Len)
}

func (e *ErrIndexOutOfRange) Unwrap() error { return e.cause }

// ErrInvalidParameter indicates an algorithm parameter outside its domain.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrInvalidParameter struct {
	Name  string
	Value any
	cause error
}

func (e *ErrInvalidParameter) Error() string {
	return fmt.Sprintf("invalid parameter %s: %v", e.Name, e.Value)
}

func (e *ErrInvalidParameter) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, index.ErrEmptyInput) {
		return fmt.Errorf("%w: %w", ErrEmptyInput, err)
	}
	if errors.Is(err, resource.ErrMemoryLimitExceeded) {
		return fmt.Errorf("%w: %w", ErrMemoryLimitExceeded, err)
	}

	var dm *vector.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	var oor *index.ErrIndexOutOfRange
	if errors.As(err, &oor) {
		return &ErrIndexOutOfRange{Index: oor.Index, Len: oor.Len, cause: err}
	}
	var cor *cluster.ErrClusterOutOfRange
	if errors.As(err, &cor) {
		return &ErrIndexOutOfRange{Index: cor.Cluster, Len: cor.Count, cause: err}
	}
	var ip *cluster.ErrInvalidParameter
	if errors.As(err, &ip) {
		return &ErrInvalidParameter{Name: ip.Name, Value: ip.Value, cause: err}
	}

	return err
}
