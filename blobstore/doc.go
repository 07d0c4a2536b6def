// Package blobstore provides the storage abstraction the checker reads store
// files through.
//
// A store directory (node store, dynamic label store, label index) is a set
// of named immutable blobs. The checker only needs random-access reads; Put
// exists so that tooling and tests can produce stores.
//
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: Local filesystem with mmap support
//   - MemoryStore: In-memory blobs for tests
//   - CachingStore: Block cache in front of any BlobStore
//   - s3.Store: Amazon S3 with range reads
//   - minio.Store: MinIO and S3-compatible object storage
//
// # Custom Implementations
//
// Implement the BlobStore interface to support custom storage backends:
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Put(ctx, name, data) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
