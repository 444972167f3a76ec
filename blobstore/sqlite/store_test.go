package sqlite

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"

	"github.com/hupe1980/clusterkit/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "blobs.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "runs/b", []byte("bravo")))
	require.NoError(t, store.Put(ctx, "runs/a", []byte("alpha")))
	require.NoError(t, store.Put(ctx, "runs_x", []byte("underscore")))
	require.NoError(t, store.Put(ctx, "empty", nil))

	w, err := store.Create(ctx, "runs/c")
	require.NoError(t, err)
	_, err = w.Write([]byte("char"))
	require.NoError(t, err)
	_, err = w.Write([]byte("lie"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Close(), ErrClosed)

	names, err := store.List(ctx, "runs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"runs/a", "runs/b", "runs/c"}, names)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)

	b, err := store.Open(ctx, "runs/c")
	require.NoError(t, err)
	assert.Equal(t, int64(7), b.Size())

	buf := make([]byte, 4)
	n, err := b.ReadAt(ctx, buf, 4)
	assert.Equal(t, 3, n)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "lie", string(buf[:n]))

	r, err := b.ReadRange(ctx, 1, 3)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "har", string(got))

	empty, err := blobstore.ReadAll(ctx, store, "empty")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, store.Put(ctx, "runs/a", []byte("replaced")))
	got, err = blobstore.ReadAll(ctx, store, "runs/a")
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(got))

	require.NoError(t, store.Delete(ctx, "runs/a"))
	_, err = store.Open(ctx, "runs/a")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, store.Close())

	// Data survives reopening the file.
	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()
	got, err = blobstore.ReadAll(ctx, reopened, "runs/b")
	require.NoError(t, err)
	assert.Equal(t, "bravo", string(got))
}

func TestNew(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.Error(t, err)

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "shared.db"))
	require.NoError(t, err)
	defer db.Close()

	store, err := New(context.Background(), db)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// The caller's handle stays usable.
	require.NoError(t, db.Ping())
}
