package codebook

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidCodebook is returned for codebooks with illegal shape.
	ErrInvalidCodebook = errors.New("invalid codebook")

	// ErrIndexOutOfRange is returned when an index does not address a codevector.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// ErrDimensionMismatch indicates a vector whose length differs from the
// codevector length.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Codebook is an ordered, immutable set of K codevectors of equal length.
type Codebook struct {
	k    int
	dim  int
	data []float32 // k * dim, row-major
}

// New creates a codebook from k flattened codevectors of length dim.
// data is copied.
func New(k, dim int, data []float32) (*Codebook, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k=%d", ErrInvalidCodebook, k)
	}
	if dim < 1 {
		return nil, fmt.Errorf("%w: dim=%d", ErrInvalidCodebook, dim)
	}
	if len(data) != k*dim {
		return nil, fmt.Errorf("%w: %d samples, want %d", ErrInvalidCodebook, len(data), k*dim)
	}
	for i, v := range data {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, fmt.Errorf("%w: non-finite sample at %d", ErrInvalidCodebook, i)
		}
	}
	return &Codebook{
		k:    k,
		dim:  dim,
		data: append([]float32(nil), data...),
	}, nil
}

// FromVectors creates a codebook from a list of codevectors.
func FromVectors(vectors [][]float32) (*Codebook, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: no vectors", ErrInvalidCodebook)
	}
	dim := len(vectors[0])
	flat := make([]float32, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d: %w", ErrInvalidCodebook, i,
				&ErrDimensionMismatch{Expected: dim, Actual: len(v)})
		}
		flat = append(flat, v...)
	}
	return New(len(vectors), dim, flat)
}

// Len returns K.
func (c *Codebook) Len() int { return c.k }

// Dim returns the codevector length.
func (c *Codebook) Dim() int { return c.dim }

// Vector returns codevector i. The returned slice aliases the codebook and
// must not be modified.
func (c *Codebook) Vector(i int) []float32 {
	return c.data[i*c.dim : (i+1)*c.dim : (i+1)*c.dim]
}

// Data returns a copy of all codevectors, flattened.
func (c *Codebook) Data() []float32 {
	return append([]float32(nil), c.data...)
}

// Equal reports whether both codebooks hold identical codevectors.
func (c *Codebook) Equal(o *Codebook) bool {
	if c == nil || o == nil {
		return c == o
	}
	if c.k != o.k || c.dim != o.dim {
		return false
	}
	for i := range c.data {
		if math.Float32bits(c.data[i]) != math.Float32bits(o.data[i]) {
			return false
		}
	}
	return true
}

// Searcher returns an exhaustive searcher over the codebook.
func (c *Codebook) Searcher() *LinearSearcher {
	return &LinearSearcher{vectors: c.data, dim: c.dim}
}

// Indices is an index stream: one codevector index per block position in
// row-major block order.
type Indices []uint32

// Validate checks every index against k.
func (ix Indices) Validate(k int) error {
	for i, v := range ix {
		if int64(v) >= int64(k) {
			return fmt.Errorf("%w: position %d has index %d, codebook has %d entries",
				ErrIndexOutOfRange, i, v, k)
		}
	}
	return nil
}

// Equal reports element-wise equality.
func (ix Indices) Equal(o Indices) bool {
	if len(ix) != len(o) {
		return false
	}
	for i := range ix {
		if ix[i] != o[i] {
			return false
		}
	}
	return true
}
