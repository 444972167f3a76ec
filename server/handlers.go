package server

import (
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hupe1980/clusterkit"
	"github.com/hupe1980/clusterkit/archive"
	"github.com/hupe1980/clusterkit/cluster"
	"github.com/hupe1980/clusterkit/cluster/agglomerative"
	"github.com/hupe1980/clusterkit/index"
	"github.com/hupe1980/clusterkit/vector"
)

// ClusterRequest is the body of POST /v1/cluster.
type ClusterRequest struct {
	// Algorithm is "dbscan", "vq" or "hierarchical".
	Algorithm string      `json:"algorithm" binding:"required"`
	Points    [][]float64 `json:"points" binding:"required"`

	// Index is "grid" (default) or "flat".
	Index string `json:"index,omitempty"`

	// DBSCAN
	Radius float64 `json:"radius,omitempty"`
	MinPts int     `json:"min_pts,omitempty"`

	// Vector quantization
	Clusters      int    `json:"clusters,omitempty"`
	Seed          *int64 `json:"seed,omitempty"`
	MaxIterations int    `json:"max_iterations,omitempty"`

	// Hierarchical; Linkage defaults to min and a zero Cut keeps one cluster per point.
	Linkage string `json:"linkage,omitempty"`
	Cut     int    `json:"cut,omitempty"`

	// Archive stores the result when the server has an archive.
	Archive bool `json:"archive,omitempty"`
}

// ClusterResponse is the body returned by POST /v1/cluster.
type ClusterResponse struct {
	Algorithm    string           `json:"algorithm"`
	ClusterCount int              `json:"cluster_count"`
	Clusters     cluster.Document `json:"clusters"`
	Noise        [][]float64      `json:"noise,omitempty"`
	Stats        Stats            `json:"stats"`
	Run          string           `json:"run,omitempty"`
}

// Stats describes the input and timing of a run.
type Stats struct {
	Points     int     `json:"points"`
	Dimensions int     `json:"dimensions"`
	DurationMS float64 `json:"duration_ms"`
}

// RangeSearchRequest is the body of POST /v1/range-search.
type RangeSearchRequest struct {
	Points [][]float64 `json:"points" binding:"required"`
	Locus  []float64   `json:"locus" binding:"required"`
	Radius float64     `json:"radius"`
	Index  string      `json:"index,omitempty"`
}

// RangeSearchResponse lists the matching points in index order.
type RangeSearchResponse struct {
	Count  int         `json:"count"`
	Points [][]float64 `json:"points"`
}

func (s *Server) buildIndex(kind string, raw [][]float64) (index.PointSet, error) {
	if s.opts.MaxPoints > 0 && len(raw) > s.opts.MaxPoints {
		return nil, &clusterkit.ErrInvalidParameter{Name: "points", Value: len(raw)}
	}

	points := make([]vector.Vector, len(raw))
	for i, p := range raw {
		points[i] = vector.New(p...)
	}

	switch strings.ToLower(kind) {
	case "", "grid":
		return clusterkit.NewSpatialIndex(points, s.clusterOptions()...)
	case "flat":
		return clusterkit.NewPointSet(points, s.clusterOptions()...)
	default:
		return nil, &clusterkit.ErrInvalidParameter{Name: "index", Value: kind}
	}
}

func (s *Server) handleCluster(c *gin.Context) {
	var req ClusterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	ps, err := s.buildIndex(req.Index, req.Points)
	if err != nil {
		abort(c, err)
		return
	}

	result, params, err := s.run(c, ps, &req)
	if err != nil {
		abort(c, err)
		return
	}

	doc, err := cluster.Export(result)
	if err != nil {
		abort(c, err)
		return
	}

	resp := ClusterResponse{
		Algorithm:    strings.ToLower(req.Algorithm),
		ClusterCount: result.ClusterCount(),
		Clusters:     doc,
		Stats: Stats{
			Points:     ps.Len(),
			Dimensions: ps.Dim(),
			DurationMS: float64(time.Since(start).Microseconds()) / 1000,
		},
	}
	if p, ok := result.(interface {
		Noise() ([]vector.Vector, error)
	}); ok {
		noise, err := p.Noise()
		if err != nil {
			abort(c, err)
			return
		}
		for _, v := range noise {
			resp.Noise = append(resp.Noise, v.Values())
		}
	}

	if req.Archive && s.opts.Archive != nil {
		name, err := s.opts.Archive.SaveNew(c.Request.Context(), &archive.Record{
			Algorithm: resp.Algorithm,
			Params:    params,
			CreatedAt: time.Now().UTC(),
			Clusters:  resp.Clusters,
			Noise:     resp.Noise,
		})
		if err != nil {
			abort(c, err)
			return
		}
		resp.Run = name
	}

	c.JSON(http.StatusOK, resp)
}

// run dispatches to the requested algorithm and returns the parameters it used.
func (s *Server) run(c *gin.Context, ps index.PointSet, req *ClusterRequest) (cluster.Result, map[string]string, error) {
	opts := s.clusterOptions()

	switch strings.ToLower(req.Algorithm) {
	case clusterkit.AlgorithmDBSCAN:
		params := map[string]string{
			"radius":  strconv.FormatFloat(req.Radius, 'g', -1, 64),
			"min_pts": strconv.Itoa(req.MinPts),
		}
		r, err := clusterkit.DBSCAN(ps, req.Radius, req.MinPts, opts...)
		return r, params, err

	case clusterkit.AlgorithmVQ:
		seed := time.Now().UnixNano()
		if req.Seed != nil {
			seed = *req.Seed
		}
		params := map[string]string{
			"clusters":       strconv.Itoa(req.Clusters),
			"seed":           strconv.FormatInt(seed, 10),
			"max_iterations": strconv.Itoa(req.MaxIterations),
		}
		opts = append(opts,
			clusterkit.WithRand(rand.New(rand.NewSource(seed))),
			clusterkit.WithMaxIterations(req.MaxIterations),
		)
		r, err := clusterkit.VectorQuantization(ps, req.Clusters, opts...)
		return r, params, err

	case clusterkit.AlgorithmHierarchical:
		if limit := s.opts.MaxHierarchyPoints; limit > 0 && ps.Len() > limit {
			return nil, nil, &clusterkit.ErrInvalidParameter{Name: "points", Value: ps.Len()}
		}
		name := req.Linkage
		if name == "" {
			name = "min"
		}
		linkage, err := agglomerative.ParseLinkage(name)
		if err != nil {
			return nil, nil, &clusterkit.ErrInvalidParameter{Name: "linkage", Value: req.Linkage}
		}
		params := map[string]string{"linkage": linkage.String()}

		h, err := clusterkit.Hierarchical(c.Request.Context(), ps, linkage, opts...)
		if err != nil {
			return nil, nil, err
		}
		if req.Cut == 0 {
			return h, params, nil
		}
		params["cut"] = strconv.Itoa(req.Cut)
		p, err := h.Cut(req.Cut)
		if err != nil {
			return nil, nil, &clusterkit.ErrInvalidParameter{Name: "cut", Value: req.Cut}
		}
		return p, params, nil

	default:
		return nil, nil, &clusterkit.ErrInvalidParameter{Name: "algorithm", Value: req.Algorithm}
	}
}

func (s *Server) handleRangeSearch(c *gin.Context) {
	var req RangeSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ps, err := s.buildIndex(req.Index, req.Points)
	if err != nil {
		abort(c, err)
		return
	}

	found, err := clusterkit.RangeSearch(ps, vector.New(req.Locus...), req.Radius, s.clusterOptions()...)
	if err != nil {
		abort(c, err)
		return
	}
	points, err := ps.Points(found)
	if err != nil {
		abort(c, err)
		return
	}

	resp := RangeSearchResponse{Count: len(points), Points: make([][]float64, len(points))}
	for i, p := range points {
		resp.Points[i] = p.Values()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s.opts.Archive == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "archive disabled"})
		return
	}
	names, err := s.opts.Archive.List(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": names})
}

func (s *Server) handleGetRun(c *gin.Context) {
	if s.opts.Archive == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "archive disabled"})
		return
	}
	name := strings.TrimPrefix(c.Param("name"), "/")
	if !s.opts.Archive.Owns(name) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown run"})
		return
	}
	rec, err := s.opts.Archive.Load(c.Request.Context(), name)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
