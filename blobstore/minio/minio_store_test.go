package minio

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/hupe1980/clusterkit/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMinioStore_Integration requires a running MinIO instance at MINIO_ENDPOINT.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("Skipping MinIO integration test: MINIO_ENDPOINT not set")
	}

	ctx := context.Background()
	store, err := New(ctx, endpoint, "test-clusterkit", func(o *Options) {
		o.Prefix = fmt.Sprintf("test-%d/", time.Now().UnixNano())
		o.AccessKey = envOr("MINIO_ACCESS_KEY", "minioadmin")
		o.SecretKey = envOr("MINIO_SECRET_KEY", "minioadmin")
		o.CreateBucket = true
	})
	require.NoError(t, err)

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "runs/a", data))

	blob, err := store.Open(ctx, "runs/a")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err := blob.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "minio", string(buf))

	r, err := blob.ReadRange(ctx, 12, 100)
	require.NoError(t, err)
	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "world", string(rest))

	w, err := store.Create(ctx, "runs/b")
	require.NoError(t, err)
	_, err = w.Write([]byte("streamed"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Close(), ErrClosed)

	names, err := store.List(ctx, "runs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"runs/a", "runs/b"}, names)

	got, err := blobstore.ReadAll(ctx, store, "runs/b")
	require.NoError(t, err)
	assert.Equal(t, "streamed", string(got))

	require.NoError(t, store.Delete(ctx, "runs/a"))
	require.NoError(t, store.Delete(ctx, "runs/b"))
	require.NoError(t, store.Delete(ctx, "runs/a"))

	_, err = store.Open(ctx, "runs/a")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
