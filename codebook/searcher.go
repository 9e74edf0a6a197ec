package codebook

import (
	"math"

	"github.com/hupe1980/vqcodec/distance"
)

// Searcher finds the nearest codevector to a query vector.
//
// Implementations must return the lowest index among equidistant codevectors
// and must be safe for concurrent use.
type Searcher interface {
	// Nearest returns the index of the nearest codevector and its squared
	// distance to v.
	Nearest(v []float32) (int, float64)
}

// SearcherFactory builds a Searcher over k flattened codevectors of length
// dim. The trainer calls it once per assignment pass.
type SearcherFactory func(vectors []float32, dim int) Searcher

// LinearSearcher performs an exhaustive scan.
type LinearSearcher struct {
	vectors []float32
	dim     int
}

// NewLinearSearcher creates an exhaustive searcher. vectors is not copied.
func NewLinearSearcher(vectors []float32, dim int) *LinearSearcher {
	return &LinearSearcher{vectors: vectors, dim: dim}
}

// LinearFactory is the SearcherFactory for LinearSearcher.
func LinearFactory(vectors []float32, dim int) Searcher {
	return NewLinearSearcher(vectors, dim)
}

// Nearest implements Searcher.
func (s *LinearSearcher) Nearest(v []float32) (int, float64) {
	best := 0
	bestDist := math.Inf(1)
	k := len(s.vectors) / s.dim
	for j := 0; j < k; j++ {
		d := distance.SquaredL2(v, s.vectors[j*s.dim:(j+1)*s.dim])
		if d < bestDist {
			bestDist = d
			best = j
		}
	}
	return best, bestDist
}

// Len returns the number of codevectors searched.
func (s *LinearSearcher) Len() int {
	return len(s.vectors) / s.dim
}
