// Command clusterd serves the clustering algorithms over HTTP.
//
// Every flag falls back to a CLUSTERD_* environment variable, e.g. -store to
// CLUSTERD_STORE. Archived runs go to the selected blob store:
//
//	memory  in-process, lost on exit
//	local   a directory (-store-path)
//	sqlite  a database file (-store-path)
//	s3      an S3 bucket (-bucket, optional -endpoint)
//	minio   a MinIO bucket (-bucket, -endpoint)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hupe1980/clusterkit"
	"github.com/hupe1980/clusterkit/archive"
	"github.com/hupe1980/clusterkit/blobstore"
	"github.com/hupe1980/clusterkit/blobstore/minio"
	"github.com/hupe1980/clusterkit/blobstore/s3"
	"github.com/hupe1980/clusterkit/blobstore/sqlite"
	"github.com/hupe1980/clusterkit/resource"
	"github.com/hupe1980/clusterkit/server"
)

type config struct {
	addr        string
	logLevel    string
	logFormat   string
	store       string
	storePath   string
	bucket      string
	prefix      string
	endpoint    string
	region      string
	accessKey   string
	secretKey   string
	secure      bool
	compression string
	cacheBytes  int64
	memoryLimit int64
	workers     int64
	ioLimit     int64
	maxPoints   int
	maxHierPts  int
	corsOrigin  string
}

func env(name, def string) string {
	if v, ok := os.LookupEnv("CLUSTERD_" + name); ok {
		return v
	}
	return def
}

func envInt(name string, def int64) int64 {
	if v, ok := os.LookupEnv("CLUSTERD_" + name); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envBool(name string, def bool) bool {
	if v, ok := os.LookupEnv("CLUSTERD_" + name); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func parseFlags(args []string) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("clusterd", flag.ContinueOnError)
	fs.StringVar(&cfg.addr, "addr", env("ADDR", ":8080"), "listen address")
	fs.StringVar(&cfg.logLevel, "log-level", env("LOG_LEVEL", "info"), "debug, info, warn or error")
	fs.StringVar(&cfg.logFormat, "log-format", env("LOG_FORMAT", "text"), "text or json")
	fs.StringVar(&cfg.store, "store", env("STORE", "memory"), "archive store: memory, local, sqlite, s3 or minio")
	fs.StringVar(&cfg.storePath, "store-path", env("STORE_PATH", "./clusterd-data"), "directory (local) or database file (sqlite)")
	fs.StringVar(&cfg.bucket, "bucket", env("BUCKET", ""), "bucket for s3 and minio")
	fs.StringVar(&cfg.prefix, "prefix", env("PREFIX", "clusterd/"), "key prefix for s3 and minio")
	fs.StringVar(&cfg.endpoint, "endpoint", env("ENDPOINT", ""), "S3-compatible endpoint")
	fs.StringVar(&cfg.region, "region", env("REGION", ""), "bucket region")
	fs.StringVar(&cfg.accessKey, "access-key", env("ACCESS_KEY", ""), "minio access key")
	fs.StringVar(&cfg.secretKey, "secret-key", env("SECRET_KEY", ""), "minio secret key")
	fs.BoolVar(&cfg.secure, "secure", envBool("SECURE", true), "use HTTPS for minio")
	fs.StringVar(&cfg.compression, "compression", env("COMPRESSION", "zstd"), "archive compression: none, lz4 or zstd")
	fs.Int64Var(&cfg.cacheBytes, "cache-bytes", envInt("CACHE_BYTES", 64<<20), "archive read cache size, 0 disables")
	fs.Int64Var(&cfg.memoryLimit, "memory-limit", envInt("MEMORY_LIMIT", 1<<30), "hierarchy memory limit in bytes, 0 is unlimited")
	fs.Int64Var(&cfg.workers, "workers", envInt("WORKERS", 4), "concurrent clustering jobs")
	fs.Int64Var(&cfg.ioLimit, "io-limit", envInt("IO_LIMIT", 0), "archive IO limit in bytes per second, 0 is unlimited")
	fs.IntVar(&cfg.maxPoints, "max-points", int(envInt("MAX_POINTS", int64(server.DefaultOptions.MaxPoints))), "largest accepted request, 0 is unlimited")
	fs.IntVar(&cfg.maxHierPts, "max-hierarchy-points", int(envInt("MAX_HIERARCHY_POINTS", int64(server.DefaultOptions.MaxHierarchyPoints))), "largest accepted hierarchical request, 0 is unlimited")
	fs.StringVar(&cfg.corsOrigin, "cors-origin", env("CORS_ORIGIN", ""), "allowed CORS origin, empty disables CORS")
	return cfg, fs.Parse(args)
}

func newLogger(cfg config) (*clusterkit.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.logLevel)); err != nil {
		return nil, err
	}
	switch strings.ToLower(cfg.logFormat) {
	case "text":
		return clusterkit.NewTextLogger(level), nil
	case "json":
		return clusterkit.NewJSONLogger(level), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.logFormat)
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openStore returns the configured store and the closer releasing it.
func openStore(ctx context.Context, cfg config) (blobstore.BlobStore, io.Closer, error) {
	noop := closerFunc(func() error { return nil })

	switch strings.ToLower(cfg.store) {
	case "memory":
		return blobstore.NewMemoryStore(), noop, nil
	case "local":
		if err := os.MkdirAll(cfg.storePath, 0o755); err != nil {
			return nil, nil, err
		}
		return blobstore.NewLocalStore(cfg.storePath), noop, nil
	case "sqlite":
		st, err := sqlite.Open(ctx, cfg.storePath)
		if err != nil {
			return nil, nil, err
		}
		return st, st, nil
	case "s3":
		if cfg.bucket == "" {
			return nil, nil, errors.New("s3 store requires -bucket")
		}
		st, err := s3.New(ctx, cfg.bucket, func(o *s3.Options) {
			o.Prefix = cfg.prefix
			o.Region = cfg.region
			o.Endpoint = cfg.endpoint
			o.UsePathStyle = cfg.endpoint != ""
		})
		if err != nil {
			return nil, nil, err
		}
		return st, noop, nil
	case "minio":
		if cfg.bucket == "" || cfg.endpoint == "" {
			return nil, nil, errors.New("minio store requires -bucket and -endpoint")
		}
		st, err := minio.New(ctx, cfg.endpoint, cfg.bucket, func(o *minio.Options) {
			o.Prefix = cfg.prefix
			o.AccessKey = cfg.accessKey
			o.SecretKey = cfg.secretKey
			o.Secure = cfg.secure
			o.Region = cfg.region
			o.CreateBucket = true
		})
		if err != nil {
			return nil, nil, err
		}
		return st, noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.store)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := parseFlags(args)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	compression, err := archive.ParseCompression(cfg.compression)
	if err != nil {
		return err
	}

	store, closer, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.store, err)
	}
	defer closer.Close()

	if cfg.cacheBytes > 0 {
		store = blobstore.NewCachingStore(store, cfg.cacheBytes, 0)
	}

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:     cfg.memoryLimit,
		MaxBackgroundWorkers: cfg.workers,
		IOLimitBytesPerSec:   cfg.ioLimit,
	})

	arch := archive.New(store, func(o *archive.Options) {
		o.Compression = compression
		o.Resource = rc
		o.Logger = logger.Logger
	})

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(func(o *server.Options) {
		o.Archive = arch
		o.Logger = logger
		o.Metrics = &clusterkit.BasicMetricsCollector{}
		o.Resource = rc
		o.MaxPoints = cfg.maxPoints
		o.MaxHierarchyPoints = cfg.maxHierPts
		o.AllowOrigin = cfg.corsOrigin
	})

	httpServer := &http.Server{
		Addr:              cfg.addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.addr, "store", cfg.store, "compression", compression.String())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "clusterd:", err)
		os.Exit(1)
	}
}
