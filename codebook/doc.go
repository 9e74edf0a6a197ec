// Package codebook holds the trained codevectors of a VQ run, the index
// stream that references them, and the nearest-codevector search used by the
// encoder and the trainer.
//
// A Codebook is immutable: New copies its input and indices 0..K-1 never
// change afterwards. Searcher abstracts nearest-neighbour search so the
// exhaustive LinearSearcher can be swapped for a spatial index without
// touching callers.
package codebook
