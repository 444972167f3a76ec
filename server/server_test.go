package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hupe1980/clusterkit"
	"github.com/hupe1980/clusterkit/archive"
	"github.com/hupe1980/clusterkit/blobstore"
	"github.com/hupe1980/clusterkit/cluster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

var twoPairs = [][]float64{{0, 0}, {0, 1}, {100, 100}, {100, 101}}

func TestHealth(t *testing.T) {
	w := do(t, New().Handler(), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCORS(t *testing.T) {
	h := New(func(o *Options) { o.AllowOrigin = "*" }).Handler()

	w := do(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(t, New().Handler(), http.MethodGet, "/healthz", nil)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCluster(t *testing.T) {
	metrics := &clusterkit.BasicMetricsCollector{}
	h := New(func(o *Options) { o.Metrics = metrics }).Handler()

	t.Run("DBSCAN", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/v1/cluster", ClusterRequest{
			Algorithm: "dbscan",
			Index:     "flat",
			Points:    [][]float64{{0}, {0.5}, {10}},
			Radius:    1,
			MinPts:    2,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decode[ClusterResponse](t, w)
		assert.Equal(t, "dbscan", resp.Algorithm)
		assert.Equal(t, 1, resp.ClusterCount)
		assert.Equal(t, cluster.Document{{{0}, {0.5}}}, resp.Clusters)
		assert.Equal(t, [][]float64{{10}}, resp.Noise)
		assert.Equal(t, 3, resp.Stats.Points)
		assert.Equal(t, 1, resp.Stats.Dimensions)
		assert.Empty(t, resp.Run)
	})

	t.Run("VQ", func(t *testing.T) {
		seed := int64(3)
		w := do(t, h, http.MethodPost, "/v1/cluster", ClusterRequest{
			Algorithm: "VQ",
			Points:    twoPairs,
			Clusters:  2,
			Seed:      &seed,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decode[ClusterResponse](t, w)
		assert.Equal(t, "vq", resp.Algorithm)
		assert.Equal(t, 2, resp.ClusterCount)
		assert.Equal(t, 4, resp.Clusters.PointCount())
		assert.Empty(t, resp.Noise)
	})

	t.Run("HierarchicalCut", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/v1/cluster", ClusterRequest{
			Algorithm: "hierarchical",
			Points:    twoPairs,
			Linkage:   "centroid",
			Cut:       2,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decode[ClusterResponse](t, w)
		require.Equal(t, 2, resp.ClusterCount)
		assert.Len(t, resp.Clusters[0], 2)
		assert.Len(t, resp.Clusters[1], 2)
	})

	t.Run("HierarchicalUncut", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/v1/cluster", ClusterRequest{
			Algorithm: "hierarchical",
			Points:    twoPairs,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, 4, decode[ClusterResponse](t, w).ClusterCount)
	})

	stats := metrics.GetStats()
	assert.Equal(t, int64(4), stats.ClusteringCount)
}

func TestClusterErrors(t *testing.T) {
	h := New(func(o *Options) {
		o.MaxPoints = 3
		o.MaxHierarchyPoints = 2
	}).Handler()

	tests := []struct {
		name string
		body any
		code int
	}{
		{"MalformedBody", "not an object", http.StatusBadRequest},
		{"MissingAlgorithm", map[string]any{"points": [][]float64{{1}}}, http.StatusBadRequest},
		{"UnknownAlgorithm", ClusterRequest{Algorithm: "optics", Points: [][]float64{{1}}}, http.StatusBadRequest},
		{"UnknownIndex", ClusterRequest{Algorithm: "dbscan", Index: "tree", Points: [][]float64{{1}}}, http.StatusBadRequest},
		{"UnknownLinkage", ClusterRequest{Algorithm: "hierarchical", Linkage: "ward", Points: [][]float64{{1}}}, http.StatusBadRequest},
		{"EmptyPoints", ClusterRequest{Algorithm: "dbscan", Points: [][]float64{}}, http.StatusBadRequest},
		{"TooManyPoints", ClusterRequest{Algorithm: "dbscan", Points: [][]float64{{1}, {2}, {3}, {4}}}, http.StatusBadRequest},
		{"DimensionMismatch", ClusterRequest{Algorithm: "dbscan", Points: [][]float64{{1}, {2, 3}}}, http.StatusBadRequest},
		{"NegativeRadius", ClusterRequest{Algorithm: "dbscan", Radius: -1, Points: [][]float64{{1}}}, http.StatusBadRequest},
		{"ZeroClusters", ClusterRequest{Algorithm: "vq", Points: [][]float64{{1}}}, http.StatusBadRequest},
		{"TooManyHierarchyPoints", ClusterRequest{Algorithm: "hierarchical", Points: [][]float64{{1}, {2}, {3}}}, http.StatusBadRequest},
		{"CutTooLarge", ClusterRequest{Algorithm: "hierarchical", Cut: 5, Points: [][]float64{{1}, {2}}}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/v1/cluster", tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestRangeSearch(t *testing.T) {
	h := New().Handler()

	for _, kind := range []string{"flat", "grid"} {
		t.Run(kind, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/v1/range-search", RangeSearchRequest{
				Points: [][]float64{{0}, {1}, {5}},
				Locus:  []float64{0},
				Radius: 2,
				Index:  kind,
			})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			resp := decode[RangeSearchResponse](t, w)
			assert.Equal(t, 2, resp.Count)
			assert.ElementsMatch(t, [][]float64{{0}, {1}}, resp.Points)
		})
	}

	t.Run("DimensionMismatch", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/v1/range-search", RangeSearchRequest{
			Points: [][]float64{{0}, {1}},
			Locus:  []float64{0, 0},
			Radius: 1,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRuns(t *testing.T) {
	a := archive.New(blobstore.NewMemoryStore())
	h := New(func(o *Options) { o.Archive = a }).Handler()

	w := do(t, h, http.MethodGet, "/v1/runs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"runs":[]}`, w.Body.String())

	w = do(t, h, http.MethodPost, "/v1/cluster", ClusterRequest{
		Algorithm: "dbscan",
		Index:     "flat",
		Points:    [][]float64{{0}, {0.5}, {10}},
		Radius:    1,
		MinPts:    2,
		Archive:   true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	run := decode[ClusterResponse](t, w).Run
	require.True(t, strings.HasPrefix(run, archive.DefaultPrefix), run)

	w = do(t, h, http.MethodGet, "/v1/runs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{run}, decode[map[string][]string](t, w)["runs"])

	w = do(t, h, http.MethodGet, "/v1/runs/"+run, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rec := decode[archive.Record](t, w)
	assert.Equal(t, "dbscan", rec.Algorithm)
	assert.Equal(t, "2", rec.Params["min_pts"])
	assert.Equal(t, cluster.Document{{{0}, {0.5}}}, rec.Clusters)
	assert.Equal(t, [][]float64{{10}}, rec.Noise)

	w = do(t, h, http.MethodGet, "/v1/runs/runs/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunsOutsideArchive(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// A valid archive just outside the store root, and a blob inside it but outside the prefix.
	outside := archive.New(blobstore.NewLocalStore(dir), func(o *archive.Options) { o.Prefix = "" })
	require.NoError(t, outside.Save(ctx, "secret", &archive.Record{Algorithm: "secret"}))

	store := blobstore.NewLocalStore(filepath.Join(dir, "store"))
	inside := archive.New(store, func(o *archive.Options) { o.Prefix = "" })
	require.NoError(t, inside.Save(ctx, "other/x", &archive.Record{Algorithm: "other"}))

	h := New(func(o *Options) { o.Archive = archive.New(store) }).Handler()

	for _, path := range []string{
		"/v1/runs/../secret",
		"/v1/runs/runs/../../secret",
		"/v1/runs/runs/../other/x",
		"/v1/runs/other/x",
		"/v1/runs/%2e%2e/secret",
	} {
		t.Run(path, func(t *testing.T) {
			w := do(t, h, http.MethodGet, path, nil)
			assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
			assert.NotContains(t, w.Body.String(), `"algorithm"`)
		})
	}
}

func TestRunsDisabled(t *testing.T) {
	h := New().Handler()
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/v1/runs", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/v1/runs/x", nil).Code)
}
