package vqcodec

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vqcodec/block"
	"github.com/hupe1980/vqcodec/codebook"
	"github.com/hupe1980/vqcodec/raster"
	"github.com/hupe1980/vqcodec/testutil"
)

// twoToneImage is a 4x4 gray image: the top two rows are dark, the bottom
// two rows bright.
func twoToneImage(t *testing.T) *raster.Image {
	t.Helper()
	pix := []uint8{
		10, 10, 10, 10,
		10, 10, 10, 10,
		200, 200, 200, 200,
		200, 200, 200, 200,
	}
	img, err := raster.Wrap(4, 4, raster.Gray, pix)
	require.NoError(t, err)
	return img
}

func TestTwoToneScenario(t *testing.T) {
	ctx := context.Background()
	img := twoToneImage(t)

	for _, init := range []InitPolicy{InitSplit, InitRandomSample} {
		t.Run(init.String(), func(t *testing.T) {
			res, err := Train(ctx, img, 2, 2, 2, WithInit(init), WithSeed(1))
			require.NoError(t, err)
			require.Equal(t, 2, res.Codebook.Len())
			assert.Equal(t, 4, res.Codebook.Dim())
			assert.Equal(t, 4, res.Geometry.Count())
			assert.True(t, res.Converged)
			assert.Zero(t, res.Distortion())

			labels, err := Encode(img, 2, 2, res.Codebook)
			require.NoError(t, err)
			require.Len(t, labels, 4)
			for _, l := range labels {
				assert.Less(t, l, uint32(2))
			}
			assert.Equal(t, labels[0], labels[1])
			assert.Equal(t, labels[2], labels[3])
			assert.NotEqual(t, labels[0], labels[2])

			out, err := Decode(res.Codebook, labels, res.Geometry)
			require.NoError(t, err)
			assert.True(t, img.Equal(out))
		})
	}
}

func TestPaddingScenario(t *testing.T) {
	img := testutil.NewRNG(9).Image(5, 5, raster.Gray)

	res, err := Train(context.Background(), img, 2, 2, 4, WithSeed(3))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Geometry.Rows())
	assert.Equal(t, 3, res.Geometry.Cols())
	assert.Equal(t, 6, res.Geometry.PaddedWidth())

	labels, err := Encode(img, 2, 2, res.Codebook)
	require.NoError(t, err)
	assert.Len(t, labels, 9)

	out, err := Decode(res.Codebook, labels, res.Geometry)
	require.NoError(t, err)
	assert.Equal(t, 5, out.Width)
	assert.Equal(t, 5, out.Height)
	assert.Len(t, out.Pix, 25)
}

func TestKEqualsBlockCountIsLossless(t *testing.T) {
	for _, c := range []int{raster.Gray, raster.RGB} {
		t.Run(fmt.Sprintf("channels=%d", c), func(t *testing.T) {
			img := testutil.NewRNG(21).Image(5, 5, c)

			res, err := Train(context.Background(), img, 2, 2, 9)
			require.NoError(t, err)
			assert.Zero(t, res.Distortion())

			labels, err := Encode(img, 2, 2, res.Codebook)
			require.NoError(t, err)
			out, err := Decode(res.Codebook, labels, res.Geometry)
			require.NoError(t, err)
			assert.True(t, img.Equal(out))
		})
	}
}

func TestEncodeDecode_IndicesAlwaysInRange(t *testing.T) {
	rng := testutil.NewRNG(77)
	ctx := context.Background()

	cases := []struct {
		w, h, c, bh, bw, k int
	}{
		{8, 8, 1, 2, 2, 3},
		{13, 7, 3, 3, 2, 5},
		{16, 16, 1, 4, 4, 16},
		{9, 11, 3, 1, 1, 32},
		{6, 6, 1, 6, 6, 1},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%dx%dx%d/%dx%d/k=%d", tc.w, tc.h, tc.c, tc.bh, tc.bw, tc.k), func(t *testing.T) {
			img := rng.Image(tc.w, tc.h, tc.c)
			res, err := Train(ctx, img, tc.bh, tc.bw, tc.k, WithWorkers(3))
			require.NoError(t, err)
			require.Equal(t, tc.k, res.Codebook.Len())

			labels, err := Encode(img, tc.bh, tc.bw, res.Codebook)
			require.NoError(t, err)

			out, err := Decode(res.Codebook, labels, res.Geometry)
			require.NoError(t, err)
			assert.False(t, errors.Is(err, ErrIndexOutOfRange))
			assert.Equal(t, img.Width, out.Width)
			assert.Equal(t, img.Height, out.Height)

			// Distortion never increases while the final phase runs.
			d := res.Distortions
			for i := 1; i < len(d); i++ {
				assert.LessOrEqual(t, d[i], d[i-1]*(1+1e-9)+1e-9)
			}
		})
	}
}

func TestTrain_Deterministic(t *testing.T) {
	img := testutil.Gradient(32, 24, raster.RGB)
	ctx := context.Background()

	a, err := Train(ctx, img, 4, 4, 8, WithSeed(5), WithWorkers(1))
	require.NoError(t, err)
	b, err := Train(ctx, img, 4, 4, 8, WithSeed(5), WithWorkers(6))
	require.NoError(t, err)
	assert.True(t, a.Codebook.Equal(b.Codebook))
	assert.Equal(t, a.Distortions, b.Distortions)
}

func TestTrain_Errors(t *testing.T) {
	ctx := context.Background()
	img := testutil.Gradient(4, 4, raster.Gray)

	_, err := Train(ctx, img, 0, 2, 2)
	assert.ErrorIs(t, err, ErrInvalidBlockSize)

	_, err = Train(ctx, img, 2, 5, 2)
	assert.ErrorIs(t, err, ErrInvalidBlockSize)

	_, err = Train(ctx, img, 2, 2, 0)
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = Train(ctx, img, 2, 2, 5)
	assert.ErrorIs(t, err, ErrTrainingDataInsufficient)

	_, err = Train(ctx, &raster.Image{Width: 2, Height: 2, Channels: 2, Pix: make([]uint8, 8)}, 1, 1, 1)
	assert.ErrorIs(t, err, ErrInvalidImage)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Train(canceled, testutil.Gradient(16, 16, raster.Gray), 2, 2, 4)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEncode_DimensionMismatch(t *testing.T) {
	img := testutil.Gradient(4, 4, raster.Gray)
	cb, err := codebook.New(2, 3, make([]float32, 6))
	require.NoError(t, err)

	_, err = Encode(img, 2, 2, cb)
	var dm *ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 3, dm.Expected)
	assert.Equal(t, 4, dm.Actual)

	_, err = Encode(img, 2, 2, nil)
	assert.ErrorIs(t, err, ErrInvalidCodebook)
}

func TestEncode_DoesNotMutateCodebook(t *testing.T) {
	img := testutil.NewRNG(4).Image(8, 8, raster.Gray)
	cb, err := codebook.New(2, 4, []float32{0, 0, 0, 0, 255, 255, 255, 255})
	require.NoError(t, err)
	before := cb.Data()

	_, err = Encode(img, 2, 2, cb)
	require.NoError(t, err)
	assert.Equal(t, before, cb.Data())
}

func TestEncode_TiesGoToLowestIndex(t *testing.T) {
	img, err := raster.Wrap(2, 1, raster.Gray, []uint8{100, 100})
	require.NoError(t, err)
	cb, err := codebook.New(3, 1, []float32{90, 110, 100})
	require.NoError(t, err)

	labels, err := Encode(img, 1, 1, cb)
	require.NoError(t, err)
	assert.Equal(t, codebook.Indices{2, 2}, labels)

	cb, err = codebook.New(2, 1, []float32{110, 90})
	require.NoError(t, err)
	labels, err = Encode(img, 1, 1, cb)
	require.NoError(t, err)
	assert.Equal(t, codebook.Indices{0, 0}, labels)
}

type fixedSearcher int

func (f fixedSearcher) Nearest([]float32) (int, float64) { return int(f), 0 }

func TestEncodeWith_CustomSearcher(t *testing.T) {
	img := testutil.Gradient(4, 4, raster.Gray)
	cb, err := codebook.New(2, 4, make([]float32, 8))
	require.NoError(t, err)

	labels, err := EncodeWith(img, 2, 2, cb, fixedSearcher(1))
	require.NoError(t, err)
	assert.Equal(t, codebook.Indices{1, 1, 1, 1}, labels)

	_, err = EncodeWith(img, 2, 2, cb, fixedSearcher(2))
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestDecode_Errors(t *testing.T) {
	g, err := block.NewGeometry(4, 4, raster.Gray, 2, 2)
	require.NoError(t, err)
	cb, err := codebook.New(2, 4, make([]float32, 8))
	require.NoError(t, err)

	_, err = Decode(cb, codebook.Indices{0, 1, 0}, g)
	assert.ErrorIs(t, err, ErrStreamLengthMismatch)

	img, err := Decode(cb, codebook.Indices{0, 1, 2, 0}, g)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.Nil(t, img)

	wide, err := codebook.New(2, 12, make([]float32, 24))
	require.NoError(t, err)
	_, err = Decode(wide, codebook.Indices{0, 1, 0, 1}, g)
	var dm *ErrDimensionMismatch
	assert.ErrorAs(t, err, &dm)

	_, err = Decode(nil, codebook.Indices{0, 1, 0, 1}, g)
	assert.ErrorIs(t, err, ErrInvalidCodebook)

	_, err = Decode(cb, nil, block.Geometry{Width: 4, Height: 4, Channels: 1})
	assert.ErrorIs(t, err, ErrInvalidBlockSize)
}

func TestMeasure(t *testing.T) {
	a := testutil.Gradient(8, 8, raster.Gray)
	q, err := Measure(a, a.Clone())
	require.NoError(t, err)
	assert.Zero(t, q.MSE)
	assert.True(t, math.IsInf(q.PSNR, 1))

	b := a.Clone()
	b.Pix[0] ^= 0x10 // off by 16 in one of 64 samples
	q, err = Measure(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 256.0/64, q.MSE, 1e-12)
	assert.InDelta(t, 10*math.Log10(255*255/4.0), q.PSNR, 1e-9)

	_, err = Measure(a, testutil.Gradient(8, 4, raster.Gray))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestUtilization(t *testing.T) {
	used := Utilization(codebook.Indices{3, 0, 3, 7})
	assert.Equal(t, uint64(3), used.GetCardinality())
	assert.True(t, used.Contains(7))
	assert.False(t, used.Contains(1))
}
