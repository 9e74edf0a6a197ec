package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/vqcodec/raster"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// Image returns a width x height image filled with uniform noise.
func (r *RNG) Image(width, height, channels int) *raster.Image {
	img, err := raster.New(width, height, channels)
	if err != nil {
		panic(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range img.Pix {
		img.Pix[i] = uint8(r.rand.Intn(256))
	}
	return img
}

// ClusteredVectors returns len(centers)*perCenter vectors, grouped by center,
// each sample displaced from its center by at most spread.
func (r *RNG) ClusteredVectors(centers [][]float32, perCenter int, spread float32) []float32 {
	if len(centers) == 0 {
		return nil
	}
	dim := len(centers[0])
	out := make([]float32, 0, len(centers)*perCenter*dim)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range centers {
		for range perCenter {
			for _, v := range c {
				out = append(out, v+(r.rand.Float32()*2-1)*spread)
			}
		}
	}
	return out
}

// Gradient returns a deterministic image whose samples vary smoothly with
// position, a good stand-in for natural images in codec tests.
func Gradient(width, height, channels int) *raster.Image {
	img, err := raster.New(width, height, channels)
	if err != nil {
		panic(err)
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			off := img.Offset(x, y)
			for c := 0; c < channels; c++ {
				img.Pix[off+c] = uint8((x*255/max(width-1, 1) + y*255/max(height-1, 1) + c*60) / 2)
			}
		}
	}
	return img
}

// Checkerboard returns an image of alternating square tiles with the given
// side length and two gray levels.
func Checkerboard(width, height, tile int, dark, light uint8) *raster.Image {
	img, err := raster.New(width, height, raster.Gray)
	if err != nil {
		panic(err)
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := dark
			if (x/tile+y/tile)%2 == 1 {
				v = light
			}
			img.Pix[y*width+x] = v
		}
	}
	return img
}
