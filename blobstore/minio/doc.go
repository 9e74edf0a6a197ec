// Package minio stores run artifacts in MinIO or any other S3-compatible
// service (Ceph, Garage, SeaweedFS) through the MinIO Go client.
//
// # Basic Usage
//
//	store, err := minio.New(minio.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	    Bucket:    "vq-runs",
//	    Prefix:    "images/",
//	})
//
// Artifacts are uploaded with one PutObject call each, so partially written
// objects are never visible.
package minio
