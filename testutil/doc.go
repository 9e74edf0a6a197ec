// Package testutil provides testing utilities for vqcodec.
//
// This package is intended for use in tests and benchmarks only.
// It provides seeded generators for synthetic images and block vectors.
//
// # Images
//
//	rng := testutil.NewRNG(seed)
//	img := rng.Image(64, 48, raster.RGB)     // uniform noise
//	img := testutil.Gradient(64, 48, raster.Gray)
//
// # Training Vectors
//
//	vecs := rng.ClusteredVectors(centers, perCenter, spread)
package testutil
