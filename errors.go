package vqcodec

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vqcodec/blobstore"
	"github.com/hupe1980/vqcodec/block"
	"github.com/hupe1980/vqcodec/codebook"
	"github.com/hupe1980/vqcodec/format"
	"github.com/hupe1980/vqcodec/internal/kmeans"
	"github.com/hupe1980/vqcodec/raster"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrInvalidBlockSize is returned when a block dimension is not positive
	// or exceeds the image.
	ErrInvalidBlockSize = errors.New("invalid block size")

	// ErrInvalidImage is returned for images with an illegal shape.
	ErrInvalidImage = errors.New("invalid image")

	// ErrInvalidCodebook is returned for a nil or malformed codebook.
	ErrInvalidCodebook = errors.New("invalid codebook")

	// ErrTrainingDataInsufficient is returned when the image has fewer blocks
	// than requested codevectors.
	ErrTrainingDataInsufficient = errors.New("training data insufficient")

	// ErrTrainingTimeout is returned when the training time limit elapses.
	ErrTrainingTimeout = errors.New("training timeout")

	// ErrIndexOutOfRange is returned when an index does not address a
	// codevector.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrStreamLengthMismatch is returned when the index stream length
	// differs from the block count of the geometry.
	ErrStreamLengthMismatch = errors.New("index stream length mismatch")

	// ErrSerializationFormat is returned for malformed or inconsistent
	// artifacts.
	ErrSerializationFormat = errors.New("serialization format error")

	// ErrNotFound is returned when an artifact does not exist.
	ErrNotFound = errors.New("artifact not found")
)

// ErrDimensionMismatch indicates a block/codevector length mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Format errors first: they may describe a nested geometry or codebook
	// problem that must still surface as a format error.
	if errors.Is(err, format.ErrFormat) {
		return fmt.Errorf("%w: %w", ErrSerializationFormat, err)
	}
	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	var dm *codebook.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}

	switch {
	case errors.Is(err, block.ErrInvalidBlockSize):
		return fmt.Errorf("%w: %w", ErrInvalidBlockSize, err)
	case errors.Is(err, raster.ErrInvalidImage):
		return fmt.Errorf("%w: %w", ErrInvalidImage, err)
	case errors.Is(err, codebook.ErrInvalidCodebook):
		return fmt.Errorf("%w: %w", ErrInvalidCodebook, err)
	case errors.Is(err, codebook.ErrIndexOutOfRange):
		return fmt.Errorf("%w: %w", ErrIndexOutOfRange, err)
	case errors.Is(err, kmeans.ErrInvalidK):
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	case errors.Is(err, kmeans.ErrTrainingDataInsufficient):
		return fmt.Errorf("%w: %w", ErrTrainingDataInsufficient, err)
	case errors.Is(err, kmeans.ErrTimeout):
		return fmt.Errorf("%w: %w", ErrTrainingTimeout, err)
	}

	return err
}
