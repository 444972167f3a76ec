package blobstore

import (
	"container/list"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultBlockSize is the read granularity used when filling the cache.
const DefaultBlockSize = 1 << 20

// CachingStore wraps a BlobStore and keeps recently opened blobs in memory.
//
// Archives are small relative to the object stores that hold them and are read whole,
// so a miss fetches the entire blob in parallel block reads. Blobs larger than the
// cache capacity are served from the inner store.
type CachingStore struct {
	inner     BlobStore
	blockSize int64
	capacity  int64

	mu      sync.Mutex
	lru     *list.List
	entries map[string]*list.Element
	size    int64

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	name string
	data []byte
}

// NewCachingStore creates a new CachingStore holding at most capacity bytes.
// A non-positive blockSize selects DefaultBlockSize.
func NewCachingStore(inner BlobStore, capacity, blockSize int64) *CachingStore {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &CachingStore{
		inner:     inner,
		blockSize: blockSize,
		capacity:  capacity,
		lru:       list.New(),
		entries:   make(map[string]*list.Element),
	}
}

// Open opens a blob for reading.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	if data, ok := s.get(name); ok {
		s.hits.Add(1)
		return &bytesBlob{data: data}, nil
	}
	s.misses.Add(1)

	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	if b.Size() > s.capacity {
		return b, nil
	}
	defer b.Close()

	data, err := s.fetch(ctx, b)
	if err != nil {
		return nil, err
	}
	s.set(name, data)
	return &bytesBlob{data: data}, nil
}

// Create creates a new blob in the inner store and invalidates the cached copy.
func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	s.invalidate(name)
	return s.inner.Create(ctx, name)
}

// Put writes to the inner store and invalidates the cached copy.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// Delete removes from the inner store and the cache.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

// List delegates to the inner store.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Stats returns the number of cache hits and misses.
func (s *CachingStore) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

// Size returns the number of cached bytes.
func (s *CachingStore) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// fetch reads a whole blob with up to 16 block reads in flight.
func (s *CachingStore) fetch(ctx context.Context, b Blob) ([]byte, error) {
	size := b.Size()
	data := make([]byte, size)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(16)

	for off := int64(0); off < size; off += s.blockSize {
		g.Go(func() error {
			end := min(off+s.blockSize, size)
			n, err := b.ReadAt(ctx, data[off:end], off)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			if int64(n) < end-off {
				return io.ErrUnexpectedEOF
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *CachingStore) get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return nil, false
	}
	s.lru.MoveToFront(e)
	return e.Value.(*cacheEntry).data, true
}

func (s *CachingStore) set(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[name]; ok {
		s.remove(e)
	}
	s.entries[name] = s.lru.PushFront(&cacheEntry{name: name, data: data})
	s.size += int64(len(data))

	for s.size > s.capacity {
		s.remove(s.lru.Back())
	}
}

func (s *CachingStore) invalidate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[name]; ok {
		s.remove(e)
	}
}

func (s *CachingStore) remove(e *list.Element) {
	entry := s.lru.Remove(e).(*cacheEntry)
	delete(s.entries, entry.name)
	s.size -= int64(len(entry.data))
}
