// Package s3 stores run artifacts in Amazon S3.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("runs/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
// Each artifact is written with a single PutObject call, so a reader never
// observes a partially written object.
package s3
