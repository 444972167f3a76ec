package archive

import (
	"context"
	"encoding/binary"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hupe1980/clusterkit/blobstore"
	"github.com/hupe1980/clusterkit/blobstore/sqlite"
	"github.com/hupe1980/clusterkit/cluster"
	"github.com/hupe1980/clusterkit/codec"
	"github.com/hupe1980/clusterkit/resource"
	"github.com/hupe1980/clusterkit/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord() *Record {
	rng := testutil.NewRNG(4711)
	points, labels := rng.UniformBoxes(300, testutil.ThreeBoxes())
	doc := make(cluster.Document, 3)
	for i, p := range points {
		doc[labels[i]] = append(doc[labels[i]], p.Values())
	}
	return &Record{
		Algorithm: "dbscan",
		Params:    map[string]string{"radius": "2", "min_pts": "2"},
		CreatedAt: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
		Clusters:  doc,
		Noise:     [][]float64{{100, 100}},
	}
}

func TestEncodeDecode(t *testing.T) {
	want := testRecord()

	for _, c := range []codec.Codec{codec.JSON{}, codec.GoJSON{}} {
		for _, comp := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
			t.Run(c.Name()+"/"+comp.String(), func(t *testing.T) {
				frame, err := Encode(want, c, comp)
				require.NoError(t, err)
				assert.Equal(t, magic, string(frame[:4]))
				assert.Equal(t, byte(comp), frame[5])
				assert.Equal(t, c.Name(), string(frame[7:7+int(frame[6])]))

				got, err := Decode(frame)
				require.NoError(t, err)
				assert.Equal(t, want.Algorithm, got.Algorithm)
				assert.Equal(t, want.Params, got.Params)
				assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
				assert.Equal(t, want.Clusters, got.Clusters)
				assert.Equal(t, want.Noise, got.Noise)
			})
		}
	}
}

func TestEncodeCompresses(t *testing.T) {
	// Identical points compress far below the 90% threshold.
	doc := cluster.Document{make([][]float64, 1000)}
	for i := range doc[0] {
		doc[0][i] = []float64{1.5, 2.5, 3.5}
	}
	rec := &Record{Algorithm: "vq", Clusters: doc}

	raw, err := Encode(rec, codec.JSON{}, CompressionNone)
	require.NoError(t, err)

	for _, comp := range []Compression{CompressionLZ4, CompressionZstd} {
		frame, err := Encode(rec, codec.JSON{}, comp)
		require.NoError(t, err)
		assert.Less(t, len(frame), len(raw)/2, comp.String())

		off := 7 + int(frame[6])
		assert.NotZero(t, binary.LittleEndian.Uint32(frame[off+4:]), comp.String())

		got, err := Decode(frame)
		require.NoError(t, err)
		assert.Equal(t, doc, got.Clusters)
	}
}

func TestDecodeCorrupt(t *testing.T) {
	frame, err := Encode(testRecord(), codec.Default, CompressionZstd)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func([]byte) []byte
		want   error
	}{
		{"Empty", func([]byte) []byte { return nil }, ErrCorrupt},
		{"Magic", func(b []byte) []byte { b[0] = 'X'; return b }, ErrCorrupt},
		{"Version", func(b []byte) []byte { b[4] = 9; return b }, ErrUnsupportedVersion},
		{"Truncated", func(b []byte) []byte { return b[:len(b)-1] }, ErrCorrupt},
		{"Payload", func(b []byte) []byte { b[len(b)-1] ^= 0xff; return b }, ErrCorrupt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.mutate(append([]byte(nil), frame...)))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	// Unknown codec names surface as codec errors.
	bad := append([]byte(nil), frame...)
	copy(bad[7:], "zz-json")
	_, err = Decode(bad)
	var uc *codec.ErrUnknownCodec
	assert.ErrorAs(t, err, &uc)
}

func TestArchive(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	a := New(store, func(o *Options) {
		o.Compression = CompressionLZ4
		o.Resource = resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 30})
	})

	want := testRecord()
	name, err := a.SaveNew(ctx, want)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, DefaultPrefix))

	got, err := a.Load(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, want.Clusters, got.Clusters)

	require.NoError(t, a.Save(ctx, "runs/fixed", &Record{Algorithm: "vq"}))
	require.NoError(t, store.Put(ctx, "elsewhere", []byte("x")))

	names, err := a.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{name, "runs/fixed"}, names)

	require.NoError(t, a.Delete(ctx, "runs/fixed"))
	_, err = a.Load(ctx, "runs/fixed")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	// Run names are unique and sort by creation time.
	first, second := a.NewRunName(), a.NewRunName()
	assert.NotEqual(t, first, second)
	assert.Less(t, first, second)
}

func TestArchiveLocalStore(t *testing.T) {
	ctx := context.Background()
	a := New(blobstore.NewLocalStore(t.TempDir()), func(o *Options) {
		o.Codec = codec.JSON{}
		o.Prefix = "archive/"
	})

	name, err := a.SaveNew(ctx, testRecord())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "archive/"))

	got, err := a.Load(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, "dbscan", got.Algorithm)
	assert.Equal(t, 300, got.Clusters.PointCount())
}

func TestArchiveFailedSaveKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	db, err := sqlite.Open(context.Background(), filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	defer db.Close()

	stores := []struct {
		name  string
		store blobstore.BlobStore
	}{
		{"Memory", blobstore.NewMemoryStore()},
		{"Local", blobstore.NewLocalStore(filepath.Join(dir, "local"))},
		{"SQLite", db},
	}
	for _, tt := range stores {
		t.Run(tt.name, func(t *testing.T) {
			a := New(tt.store, func(o *Options) {
				o.Resource = resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 20})
			})
			require.NoError(t, a.Save(context.Background(), "runs/x", &Record{Algorithm: "good"}))

			canceled, cancel := context.WithCancel(context.Background())
			cancel()
			err := a.Save(canceled, "runs/x", &Record{Algorithm: "bad"})
			require.ErrorIs(t, err, context.Canceled)

			got, err := a.Load(context.Background(), "runs/x")
			require.NoError(t, err)
			assert.Equal(t, "good", got.Algorithm)

			names, err := a.List(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []string{"runs/x"}, names)
		})
	}
}

func TestArchiveOwns(t *testing.T) {
	a := New(blobstore.NewMemoryStore())

	tests := []struct {
		name string
		want bool
	}{
		{a.NewRunName(), true},
		{"runs/x", true},
		{"runs/", false},
		{"other/x", false},
		{"runs/../secret", false},
		{"runs/a/../../secret", false},
		{"runs//x", false},
		{"runs/./x", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, a.Owns(tt.name), tt.name)
	}
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{"": CompressionNone, "none": CompressionNone, "LZ4": CompressionLZ4, " zstd ": CompressionZstd} {
		got, err := ParseCompression(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCompression("gzip")
	assert.Error(t, err)
	assert.Equal(t, "Compression(7)", Compression(7).String())
}
