package vqcodec

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/stat"

	"github.com/hupe1980/vqcodec/codebook"
	"github.com/hupe1980/vqcodec/raster"
)

// Utilization returns the set of codevector indices referenced by labels.
func Utilization(labels codebook.Indices) *roaring.Bitmap {
	bm := roaring.New()
	bm.AddMany(labels)
	return bm
}

// Quality compares a reconstruction with its original.
type Quality struct {
	MSE  float64 // mean squared error per sample
	PSNR float64 // peak signal-to-noise ratio in dB, +Inf for identical images
}

// Measure computes the reconstruction quality of got against want.
func Measure(want, got *raster.Image) (Quality, error) {
	if err := want.Validate(); err != nil {
		return Quality{}, translateError(err)
	}
	if err := got.Validate(); err != nil {
		return Quality{}, translateError(err)
	}
	if want.Width != got.Width || want.Height != got.Height || want.Channels != got.Channels {
		return Quality{}, fmt.Errorf("%w: %dx%dx%d vs %dx%dx%d", ErrInvalidImage,
			want.Width, want.Height, want.Channels, got.Width, got.Height, got.Channels)
	}

	sq := make([]float64, len(want.Pix))
	for i := range want.Pix {
		d := float64(want.Pix[i]) - float64(got.Pix[i])
		sq[i] = d * d
	}
	mse := stat.Mean(sq, nil)
	return Quality{MSE: mse, PSNR: PSNR(mse)}, nil
}

// PSNR converts a mean squared error of 8-bit samples to decibels.
func PSNR(mse float64) float64 {
	if mse == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(255*255/mse)
}
