// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("graph.db/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	res, err := graphcheck.Check(ctx, store)
//
// Record fetches turn into ranged GET requests; wrap the store in a
// blobstore.CachingStore for full-store scans.
package s3
