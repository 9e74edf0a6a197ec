package vqcodec

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/vqcodec/block"
	"github.com/hupe1980/vqcodec/codebook"
	"github.com/hupe1980/vqcodec/internal/kmeans"
	"github.com/hupe1980/vqcodec/raster"
)

// TrainResult is the outcome of Train.
type TrainResult struct {
	Codebook    *codebook.Codebook
	Geometry    block.Geometry
	Distortions []float64 // total distortion after every assignment pass
	Iterations  int
	Converged   bool
}

// Distortion returns the total squared error of the final codebook over the
// training blocks.
func (r *TrainResult) Distortion() float64 {
	if len(r.Distortions) == 0 {
		return 0
	}
	return r.Distortions[len(r.Distortions)-1]
}

// Train extracts the blocks of img and learns a codebook of exactly k
// codevectors of length blockHeight*blockWidth*channels.
//
// Training is deterministic for a fixed seed and initialization policy,
// independent of the number of workers.
func Train(ctx context.Context, img *raster.Image, blockHeight, blockWidth, k int, optFns ...Option) (*TrainResult, error) {
	o := applyOptions(optFns)
	return train(ctx, o, img, blockHeight, blockWidth, k)
}

func train(ctx context.Context, o options, img *raster.Image, blockHeight, blockWidth, k int) (*TrainResult, error) {
	log := o.logger.WithK(k).WithBlockSize(blockHeight, blockWidth)
	start := time.Now()

	ext, err := block.NewExtractor(img, blockHeight, blockWidth)
	if err != nil {
		err = translateError(err)
		o.metricsCollector.RecordTrain(0, 0, time.Since(start), err)
		log.LogTrain(ctx, 0, nil, err)
		return nil, err
	}

	cfg := o.train
	cfg.K = k
	cfg.Logger = log.Logger

	g := ext.Geometry()
	res, err := kmeans.Train(ctx, ext.Collect(), g.VectorLen(), cfg)
	if err != nil {
		err = translateError(err)
		o.metricsCollector.RecordTrain(ext.Len(), 0, time.Since(start), err)
		log.LogTrain(ctx, ext.Len(), nil, err)
		return nil, err
	}

	cb, err := codebook.New(k, g.VectorLen(), res.Centroids)
	if err != nil {
		err = translateError(err)
		o.metricsCollector.RecordTrain(ext.Len(), res.Iterations, time.Since(start), err)
		log.LogTrain(ctx, ext.Len(), nil, err)
		return nil, err
	}

	out := &TrainResult{
		Codebook:    cb,
		Geometry:    g,
		Distortions: res.Distortions,
		Iterations:  res.Iterations,
		Converged:   res.Converged,
	}
	o.metricsCollector.RecordTrain(ext.Len(), res.Iterations, time.Since(start), nil)
	log.LogTrain(ctx, ext.Len(), out, nil)
	return out, nil
}

// Encode maps every block of img to the index of its nearest codevector
// (ties go to the lowest index). The codebook is not modified.
func Encode(img *raster.Image, blockHeight, blockWidth int, cb *codebook.Codebook) (codebook.Indices, error) {
	if cb == nil {
		return nil, fmt.Errorf("%w: nil codebook", ErrInvalidCodebook)
	}
	return EncodeWith(img, blockHeight, blockWidth, cb, cb.Searcher())
}

// EncodeWith is Encode with a caller-provided nearest-codevector search over
// cb.
func EncodeWith(img *raster.Image, blockHeight, blockWidth int, cb *codebook.Codebook, s codebook.Searcher) (codebook.Indices, error) {
	if cb == nil || s == nil {
		return nil, fmt.Errorf("%w: nil codebook or searcher", ErrInvalidCodebook)
	}
	ext, err := block.NewExtractor(img, blockHeight, blockWidth)
	if err != nil {
		return nil, translateError(err)
	}
	g := ext.Geometry()
	if g.VectorLen() != cb.Dim() {
		return nil, &ErrDimensionMismatch{Expected: cb.Dim(), Actual: g.VectorLen()}
	}

	labels := make(codebook.Indices, ext.Len())
	buf := make([]float32, g.VectorLen())
	for i := range labels {
		buf = ext.Block(i, buf)
		j, _ := s.Nearest(buf)
		if j < 0 || j >= cb.Len() {
			return nil, fmt.Errorf("%w: searcher returned %d for block %d", ErrIndexOutOfRange, j, i)
		}
		labels[i] = uint32(j)
	}
	return labels, nil
}

// Decode rebuilds an image of g's dimensions from the codebook and the index
// stream. Padding is cropped away.
func Decode(cb *codebook.Codebook, labels codebook.Indices, g block.Geometry) (*raster.Image, error) {
	if cb == nil {
		return nil, fmt.Errorf("%w: nil codebook", ErrInvalidCodebook)
	}
	if err := g.Validate(); err != nil {
		return nil, translateError(err)
	}
	if len(labels) != g.Count() {
		return nil, fmt.Errorf("%w: %d indices for %d blocks", ErrStreamLengthMismatch, len(labels), g.Count())
	}
	if cb.Dim() != g.VectorLen() {
		return nil, &ErrDimensionMismatch{Expected: g.VectorLen(), Actual: cb.Dim()}
	}
	if err := labels.Validate(cb.Len()); err != nil {
		return nil, translateError(err)
	}

	img, err := block.Assemble(g, func(i int) []float32 {
		return cb.Vector(int(labels[i]))
	})
	if err != nil {
		return nil, translateError(err)
	}
	return img, nil
}
