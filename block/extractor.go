package block

import (
	"fmt"
	"iter"
	"math"

	"github.com/hupe1980/vqcodec/raster"
)

// Extractor produces the blocks of one image.
type Extractor struct {
	img  *raster.Image
	geom Geometry
}

// NewExtractor validates the image and the block size.
func NewExtractor(img *raster.Image, blockHeight, blockWidth int) (*Extractor, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	g, err := NewGeometry(img.Width, img.Height, img.Channels, blockHeight, blockWidth)
	if err != nil {
		return nil, err
	}
	return &Extractor{img: img, geom: g}, nil
}

// Geometry returns the tiling used by the extractor.
func (e *Extractor) Geometry() Geometry {
	return e.geom
}

// Len returns the number of blocks.
func (e *Extractor) Len() int {
	return e.geom.Count()
}

// Block writes block i into dst (allocating when dst is too small) and
// returns the filled slice.
func (e *Extractor) Block(i int, dst []float32) []float32 {
	g := e.geom
	n := g.VectorLen()
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]

	x0, y0 := g.Origin(i)
	w, c := g.Width, g.Channels
	pix := e.img.Pix

	k := 0
	for dy := 0; dy < g.BlockHeight; dy++ {
		sy := min(y0+dy, g.Height-1)
		for dx := 0; dx < g.BlockWidth; dx++ {
			sx := min(x0+dx, w-1)
			off := (sy*w + sx) * c
			for ch := 0; ch < c; ch++ {
				dst[k] = float32(pix[off+ch])
				k++
			}
		}
	}
	return dst
}

// All returns a lazy sequence of (index, block) pairs in row-major block
// order. Every yielded slice is freshly allocated.
func (e *Extractor) All() iter.Seq2[int, []float32] {
	return func(yield func(int, []float32) bool) {
		for i := 0; i < e.Len(); i++ {
			if !yield(i, e.Block(i, nil)) {
				return
			}
		}
	}
}

// Collect materialises every block into one flat slice of Len()*VectorLen()
// samples, the layout consumed by the trainer.
func (e *Extractor) Collect() []float32 {
	dim := e.geom.VectorLen()
	out := make([]float32, e.Len()*dim)
	for i := 0; i < e.Len(); i++ {
		e.Block(i, out[i*dim:(i+1)*dim])
	}
	return out
}

// Assemble builds an image of g's dimensions from per-block vectors.
// lookup(i) must return the vector for block i. Samples are rounded to the
// nearest integer and clamped to [0, 255]; padded samples are dropped.
func Assemble(g Geometry, lookup func(i int) []float32) (*raster.Image, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	img, err := raster.New(g.Width, g.Height, g.Channels)
	if err != nil {
		return nil, err
	}

	n := g.VectorLen()
	w, c := g.Width, g.Channels
	for i := 0; i < g.Count(); i++ {
		vec := lookup(i)
		if len(vec) != n {
			return nil, fmt.Errorf("block %d: vector length %d, want %d", i, len(vec), n)
		}

		x0, y0 := g.Origin(i)
		k := 0
		for dy := 0; dy < g.BlockHeight; dy++ {
			y := y0 + dy
			if y >= g.Height {
				break
			}
			for dx := 0; dx < g.BlockWidth; dx++ {
				x := x0 + dx
				if x >= w {
					k += c * (g.BlockWidth - dx)
					break
				}
				off := (y*w + x) * c
				for ch := 0; ch < c; ch++ {
					img.Pix[off+ch] = toSample(vec[k])
					k++
				}
			}
		}
	}
	return img, nil
}

func toSample(v float32) uint8 {
	r := math.Round(float64(v))
	switch {
	case r <= 0 || math.IsNaN(r):
		return 0
	case r >= 255:
		return 255
	default:
		return uint8(r)
	}
}
