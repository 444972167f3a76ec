package clusterkit

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with clusterkit-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithAlgorithm adds an algorithm field to the logger.
func (l *Logger) WithAlgorithm(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("algorithm", name),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogIndexBuild logs the construction of a point set.
func (l *Logger) LogIndexBuild(ctx context.Context, kind string, n, dim int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index build failed",
			"kind", kind,
			"n", n,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "index built",
			"kind", kind,
			"n", n,
			"dimension", dim,
			"duration", duration,
		)
	}
}

// LogRangeSearch logs a range query.
func (l *Logger) LogRangeSearch(ctx context.Context, radius float64, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "range search failed",
			"radius", radius,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "range search completed",
			"radius", radius,
			"results", results,
		)
	}
}

// LogClustering logs a finished clustering run.
func (l *Logger) LogClustering(ctx context.Context, algorithm string, n, clusters int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "clustering failed",
			"algorithm", algorithm,
			"n", n,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "clustering completed",
			"algorithm", algorithm,
			"n", n,
			"clusters", clusters,
			"duration", duration,
		)
	}
}

// LogRunAll logs a batch of concurrent jobs.
func (l *Logger) LogRunAll(ctx context.Context, jobs, failed int) {
	if failed > 0 {
		l.WarnContext(ctx, "jobs completed with failures",
			"total", jobs,
			"failed", failed,
		)
	} else {
		l.InfoContext(ctx, "jobs completed",
			"count", jobs,
		)
	}
}
