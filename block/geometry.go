package block

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vqcodec/raster"
)

// ErrInvalidBlockSize is returned when a block dimension is not positive or
// exceeds the matching image dimension.
var ErrInvalidBlockSize = errors.New("invalid block size")

// Geometry describes how an image of a given shape is tiled into blocks.
type Geometry struct {
	Width       int
	Height      int
	Channels    int
	BlockHeight int
	BlockWidth  int
}

// NewGeometry returns a validated Geometry.
func NewGeometry(width, height, channels, blockHeight, blockWidth int) (Geometry, error) {
	g := Geometry{
		Width:       width,
		Height:      height,
		Channels:    channels,
		BlockHeight: blockHeight,
		BlockWidth:  blockWidth,
	}
	if err := g.Validate(); err != nil {
		return Geometry{}, err
	}
	return g, nil
}

// Validate checks image shape and block size.
func (g Geometry) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", raster.ErrInvalidImage, g.Width, g.Height)
	}
	if g.Channels != raster.Gray && g.Channels != raster.RGB {
		return fmt.Errorf("%w: %d channels", raster.ErrInvalidImage, g.Channels)
	}
	if g.BlockHeight <= 0 || g.BlockWidth <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidBlockSize, g.BlockHeight, g.BlockWidth)
	}
	if g.BlockHeight > g.Height || g.BlockWidth > g.Width {
		return fmt.Errorf("%w: %dx%d exceeds image %dx%d",
			ErrInvalidBlockSize, g.BlockHeight, g.BlockWidth, g.Height, g.Width)
	}
	return nil
}

// Rows returns ceil(Height / BlockHeight).
func (g Geometry) Rows() int {
	return (g.Height + g.BlockHeight - 1) / g.BlockHeight
}

// Cols returns ceil(Width / BlockWidth).
func (g Geometry) Cols() int {
	return (g.Width + g.BlockWidth - 1) / g.BlockWidth
}

// Count returns the number of blocks, which is also the index stream length.
func (g Geometry) Count() int {
	return g.Rows() * g.Cols()
}

// VectorLen returns the flattened block length bh*bw*C.
func (g Geometry) VectorLen() int {
	return g.BlockHeight * g.BlockWidth * g.Channels
}

// PaddedWidth returns the width covered by all block columns.
func (g Geometry) PaddedWidth() int {
	return g.Cols() * g.BlockWidth
}

// PaddedHeight returns the height covered by all block rows.
func (g Geometry) PaddedHeight() int {
	return g.Rows() * g.BlockHeight
}

// Origin returns the top-left pixel of block i.
func (g Geometry) Origin(i int) (x, y int) {
	cols := g.Cols()
	return (i % cols) * g.BlockWidth, (i / cols) * g.BlockHeight
}

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%dx%d/%dx%d", g.Width, g.Height, g.Channels, g.BlockHeight, g.BlockWidth)
}
