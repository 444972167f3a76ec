// Package server exposes the clustering algorithms over HTTP with gin.
//
// Routes:
//
//	GET  /healthz
//	POST /v1/cluster        run one algorithm on the posted points
//	POST /v1/range-search   range query over the posted points
//	GET  /v1/runs           list archived runs
//	GET  /v1/runs/*name     load an archived run
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hupe1980/clusterkit"
	"github.com/hupe1980/clusterkit/archive"
	"github.com/hupe1980/clusterkit/blobstore"
	"github.com/hupe1980/clusterkit/resource"
)

// Options configures a Server.
type Options struct {
	// Archive, when set, stores every result requested with "archive": true
	// and serves the /v1/runs routes.
	Archive *archive.Archive

	// Logger receives request logs. Nil disables logging.
	Logger *clusterkit.Logger

	// Metrics receives index and clustering metrics.
	Metrics clusterkit.MetricsCollector

	// Resource bounds hierarchy memory and concurrent runs.
	Resource *resource.Controller

	// MaxPoints rejects larger requests. 0 means no limit.
	MaxPoints int

	// MaxHierarchyPoints rejects larger hierarchical requests, whose cost grows with n² in
	// memory and n³ in time. 0 means no limit beyond MaxPoints.
	MaxHierarchyPoints int

	// AllowOrigin enables CORS for the given origin ("*" for any). Empty disables CORS.
	AllowOrigin string
}

// DefaultOptions contains the default configuration options.
var DefaultOptions = Options{
	MaxPoints:          100_000,
	MaxHierarchyPoints: 2_000,
}

// Server handles clustering requests.
type Server struct {
	opts   Options
	engine *gin.Engine
}

// New creates a Server with its routes registered.
func New(optFns ...func(o *Options)) *Server {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = clusterkit.NoopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = clusterkit.NoopMetricsCollector{}
	}

	s := &Server{opts: opts, engine: gin.New()}
	s.engine.Use(gin.Recovery(), requestLogger(opts.Logger.Logger))
	if opts.AllowOrigin != "" {
		s.engine.Use(cors(opts.AllowOrigin))
	}

	s.engine.GET("/healthz", s.handleHealth)

	v1 := s.engine.Group("/v1")
	v1.POST("/cluster", s.handleCluster)
	v1.POST("/range-search", s.handleRangeSearch)
	v1.GET("/runs", s.handleListRuns)
	v1.GET("/runs/*name", s.handleGetRun)

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) clusterOptions() []clusterkit.Option {
	return []clusterkit.Option{
		clusterkit.WithLogger(s.opts.Logger),
		clusterkit.WithMetricsCollector(s.opts.Metrics),
		clusterkit.WithResourceController(s.opts.Resource),
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.InfoContext(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func cors(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// statusOf maps library errors to HTTP status codes.
func statusOf(err error) int {
	var dm *clusterkit.ErrDimensionMismatch
	var ip *clusterkit.ErrInvalidParameter
	var oor *clusterkit.ErrIndexOutOfRange
	switch {
	case errors.Is(err, blobstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, clusterkit.ErrEmptyInput),
		errors.Is(err, blobstore.ErrInvalidName),
		errors.As(err, &dm),
		errors.As(err, &ip),
		errors.As(err, &oor):
		return http.StatusBadRequest
	case errors.Is(err, clusterkit.ErrMemoryLimitExceeded):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusOf(err), gin.H{"error": err.Error()})
}
