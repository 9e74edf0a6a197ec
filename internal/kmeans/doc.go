// Package kmeans implements the Linde-Buzo-Gray (LBG) codebook trainer:
// k-means clustering of block vectors under squared Euclidean distance.
//
// # Initialization
//
// InitSplit (default) starts from the global centroid and repeatedly splits
// every codevector c into c and c + eps*u, where u is the unit vector from c
// toward the farthest training vector assigned to it (lowest index on ties),
// running Lloyd iterations after each split. When all vectors of a cluster
// coincide with c, u is drawn from a generator seeded with Config.Seed. When
// doubling would overshoot K only the lowest-indexed codevectors are split.
//
// InitRandomSample seeds the codebook with K distinct training vectors drawn
// with the seeded generator and ordered by vector index.
//
// When K equals the number of training vectors every vector becomes its own
// codevector.
//
// # Iteration
//
// The assignment step is partitioned across Config.Workers goroutines; the
// centroid update runs after all workers finished. A codevector left without
// vectors is reseeded from the vector farthest from its own codevector, also
// when a phase is about to stop. A phase stops when the relative decrease of
// total distortion drops below Config.Threshold or after Config.MaxIterations
// passes.
package kmeans
