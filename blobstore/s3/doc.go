// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket", func(o *s3.Options) {
//	    o.Prefix = "clusterkit/"
//	})
//
//	err = archive.Save(ctx, store, name, result)
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart uploads with CRC32C checksums
//   - Conditional writes for create-once run names
//   - Automatic pagination for listing
package s3
