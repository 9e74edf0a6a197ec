// Package blobstore provides storage for run artifacts.
//
// Store is the interface for reading and writing whole artifacts.
// Implementations must be safe for concurrent use and must make Put atomic:
// a reader sees either the previous content or the new content, never a
// partial write.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, temp file + rename
//   - MemoryStore: in-memory, for tests
//   - s3.Store: Amazon S3, single PutObject per artifact
//   - minio.Store: MinIO and other S3-compatible services
package blobstore
