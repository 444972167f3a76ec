package archive

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/clusterkit/blobstore"
	"github.com/hupe1980/clusterkit/cluster"
	"github.com/hupe1980/clusterkit/codec"
	"github.com/hupe1980/clusterkit/resource"
)

const (
	magic   = "CKAR"
	version = 1

	// DefaultPrefix is the blob name prefix of generated run names.
	DefaultPrefix = "runs/"
)

var (
	// ErrCorrupt is returned when an archive fails header or checksum validation.
	ErrCorrupt = errors.New("archive: corrupt archive")

	// ErrUnsupportedVersion is returned for archives written by a newer format.
	ErrUnsupportedVersion = errors.New("archive: unsupported version")
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Record is one archived clustering run.
type Record struct {
	Algorithm string            `json:"algorithm"`
	Params    map[string]string `json:"params,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	Clusters  cluster.Document  `json:"clusters"`
	Noise     [][]float64       `json:"noise,omitempty"`
}

// Options configures an Archive.
type Options struct {
	// Compression applies to new archives. Reads follow the stored header.
	Compression Compression

	// Codec encodes new archives. Reads use the codec named in the header.
	Codec codec.Codec

	// Prefix is prepended to generated run names.
	Prefix string

	// Resource throttles blob IO. Nil means unlimited.
	Resource *resource.Controller

	// Logger receives save/load events. Nil disables logging.
	Logger *slog.Logger
}

// DefaultOptions contains the default configuration options.
var DefaultOptions = Options{
	Compression: CompressionZstd,
	Codec:       codec.Default,
	Prefix:      DefaultPrefix,
}

// Archive reads and writes Records in a blob store.
type Archive struct {
	store blobstore.BlobStore
	opts  Options
}

// New creates an Archive on store.
func New(store blobstore.BlobStore, optFns ...func(o *Options)) *Archive {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	return &Archive{store: store, opts: opts}
}

// NewRunName returns a fresh, time-ordered run name below the configured prefix.
func (a *Archive) NewRunName() string {
	return a.opts.Prefix + uuid.Must(uuid.NewV7()).String()
}

// Owns reports whether name is a clean run name below the configured prefix.
func (a *Archive) Owns(name string) bool {
	return strings.HasPrefix(name, a.opts.Prefix) && path.Clean(name) == name && name != a.opts.Prefix
}

// Save writes rec under name, replacing any previous archive of that name.
func (a *Archive) Save(ctx context.Context, name string, rec *Record) error {
	frame, err := Encode(rec, a.opts.Codec, a.opts.Compression)
	if err != nil {
		return err
	}

	w, err := a.store.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}

	// A failed write must not replace the previous archive of that name.
	if _, err := resource.NewRateLimitedWriter(ctx, w, a.opts.Resource).Write(frame); err != nil {
		_ = w.Abort()
		return fmt.Errorf("archive %s: %w", name, err)
	}
	if err := w.Sync(); err != nil {
		_ = w.Abort()
		return fmt.Errorf("archive %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}

	if a.opts.Logger != nil {
		a.opts.Logger.Info("archive saved",
			"name", name,
			"clusters", rec.Clusters.ClusterCount(),
			"bytes", len(frame),
			"compression", a.opts.Compression.String(),
		)
	}
	return nil
}

// SaveNew writes rec under a fresh run name and returns the name.
func (a *Archive) SaveNew(ctx context.Context, rec *Record) (string, error) {
	name := a.NewRunName()
	if err := a.Save(ctx, name, rec); err != nil {
		return "", err
	}
	return name, nil
}

// Load reads the archive stored under name.
func (a *Archive) Load(ctx context.Context, name string) (*Record, error) {
	b, err := a.store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("archive %s: %w", name, err)
	}
	defer b.Close()

	rc, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return nil, fmt.Errorf("archive %s: %w", name, err)
	}
	defer rc.Close()

	frame := bytes.NewBuffer(make([]byte, 0, b.Size()))
	r := bufio.NewReader(resource.NewRateLimitedReader(ctx, rc, a.opts.Resource))
	if _, err := frame.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("archive %s: %w", name, err)
	}

	rec, err := Decode(frame.Bytes())
	if err != nil {
		return nil, fmt.Errorf("archive %s: %w", name, err)
	}

	if a.opts.Logger != nil {
		a.opts.Logger.Debug("archive loaded", "name", name, "clusters", rec.Clusters.ClusterCount())
	}
	return rec, nil
}

// List returns the names of all runs below the configured prefix.
func (a *Archive) List(ctx context.Context) ([]string, error) {
	return a.store.List(ctx, a.opts.Prefix)
}

// Delete removes the archive stored under name.
func (a *Archive) Delete(ctx context.Context, name string) error {
	return a.store.Delete(ctx, name)
}

// Encode frames rec with the given codec and compression.
func Encode(rec *Record, c codec.Codec, comp Compression) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	name := c.Name()
	if len(name) > 255 {
		return nil, fmt.Errorf("archive: codec name %q too long", name)
	}

	payload, err := c.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("archive: encode: %w", err)
	}
	if uint64(len(payload)) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("archive: payload of %d bytes too large", len(payload))
	}

	compressed, err := compress(payload, comp)
	if err != nil {
		return nil, err
	}
	body := payload
	if compressed != nil {
		body = compressed
	}

	var buf bytes.Buffer
	buf.Grow(len(magic) + 3 + len(name) + 12 + len(body))
	buf.WriteString(magic)
	buf.WriteByte(version)
	buf.WriteByte(byte(comp))
	buf.WriteByte(byte(len(name)))
	buf.WriteString(name)

	var sizes [12]byte
	binary.LittleEndian.PutUint32(sizes[0:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(sizes[4:], uint32(len(compressed)))
	binary.LittleEndian.PutUint32(sizes[8:], crc32.Checksum(payload, castagnoli))
	buf.Write(sizes[:])
	buf.Write(body)

	return buf.Bytes(), nil
}

// Decode parses a frame written by Encode.
func Decode(frame []byte) (*Record, error) {
	r := bytes.NewReader(frame)

	var head [len(magic) + 3]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, ErrCorrupt
	}
	if string(head[:len(magic)]) != magic {
		return nil, ErrCorrupt
	}
	if head[4] != version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, head[4])
	}
	comp := Compression(head[5])

	name := make([]byte, head[6])
	if _, err := io.ReadFull(r, name); err != nil {
		return nil, ErrCorrupt
	}
	c, err := codec.Lookup(string(name))
	if err != nil {
		return nil, err
	}

	var sizes [12]byte
	if _, err := io.ReadFull(r, sizes[:]); err != nil {
		return nil, ErrCorrupt
	}
	size := binary.LittleEndian.Uint32(sizes[0:])
	stored := binary.LittleEndian.Uint32(sizes[4:])
	sum := binary.LittleEndian.Uint32(sizes[8:])

	body := frame[len(frame)-r.Len():]

	var payload []byte
	if stored == 0 {
		if uint32(len(body)) != size {
			return nil, ErrCorrupt
		}
		payload = body
	} else {
		if uint32(len(body)) != stored {
			return nil, ErrCorrupt
		}
		payload, err = decompress(body, size, comp)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	}

	if crc32.Checksum(payload, castagnoli) != sum {
		return nil, ErrCorrupt
	}

	var rec Record
	if err := c.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("archive: decode: %w", err)
	}
	return &rec, nil
}
