// Package minio provides a MinIO (S3-compatible) implementation of
// blobstore.BlobStore.
//
// # Usage
//
//	client, _ := minio.New("localhost:9000", &minio.Options{
//	    Creds: credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	})
//	store := graphminio.NewStore(client, "backups", "graph.db/")
package minio
