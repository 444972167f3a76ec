// Package minio provides a BlobStore implementation using the MinIO client.
//
// It works with MinIO and other S3-compatible services such as Ceph, SeaweedFS and
// Garage, without the AWS SDK.
//
// # Basic Usage
//
//	store, err := minio.New(ctx, "localhost:9000", "clusterkit", func(o *minio.Options) {
//	    o.AccessKey = "minioadmin"
//	    o.SecretKey = "minioadmin"
//	    o.CreateBucket = true
//	})
//
// An existing *minio.Client can be wrapped with NewStore.
package minio
