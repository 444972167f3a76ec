// Package blobstore provides the storage abstraction for clustering archives.
//
// A BlobStore holds immutable named blobs. Archives are written once through Put or
// Create and read back through Open. Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and ephemeral servers
//   - LocalStore: local filesystem with mmap reads
//   - CachingStore: keeps whole blobs of a slower store in memory
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//   - sqlite.Store: a single SQLite database file
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
