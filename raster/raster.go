package raster

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrInvalidImage is returned for images with illegal dimensions, channel
// counts or buffer lengths.
var ErrInvalidImage = errors.New("invalid image")

// Supported channel counts.
const (
	Gray = 1
	RGB  = 3
)

// Image is a dense pixel buffer.
//
// Invariant: len(Pix) == Width*Height*Channels.
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// New allocates a zeroed image.
func New(width, height, channels int) (*Image, error) {
	m := &Image{Width: width, Height: height, Channels: channels}
	if err := m.validateShape(); err != nil {
		return nil, err
	}
	m.Pix = make([]uint8, width*height*channels)
	return m, nil
}

// Wrap validates pix against the given shape and returns an Image that
// references it without copying.
func Wrap(width, height, channels int, pix []uint8) (*Image, error) {
	m := &Image{Width: width, Height: height, Channels: channels, Pix: pix}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Image) validateShape() error {
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidImage, m.Width, m.Height)
	}
	if m.Channels != Gray && m.Channels != RGB {
		return fmt.Errorf("%w: %d channels (want 1 or 3)", ErrInvalidImage, m.Channels)
	}
	return nil
}

// Validate checks the shape and the buffer length invariant.
func (m *Image) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	if err := m.validateShape(); err != nil {
		return err
	}
	if want := m.Width * m.Height * m.Channels; len(m.Pix) != want {
		return fmt.Errorf("%w: buffer length %d, want %d", ErrInvalidImage, len(m.Pix), want)
	}
	return nil
}

// Offset returns the index in Pix of the first channel of pixel (x, y).
func (m *Image) Offset(x, y int) int {
	return (y*m.Width + x) * m.Channels
}

// Clone returns a deep copy.
func (m *Image) Clone() *Image {
	c := *m
	c.Pix = append([]uint8(nil), m.Pix...)
	return &c
}

// Equal reports whether both images have the same shape and samples.
func (m *Image) Equal(o *Image) bool {
	if m.Width != o.Width || m.Height != o.Height || m.Channels != o.Channels {
		return false
	}
	if len(m.Pix) != len(o.Pix) {
		return false
	}
	for i := range m.Pix {
		if m.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

// ToImage converts the buffer into an image.Image: *image.Gray for one
// channel and opaque *image.NRGBA for three.
func (m *Image) ToImage() image.Image {
	r := image.Rect(0, 0, m.Width, m.Height)
	if m.Channels == Gray {
		g := image.NewGray(r)
		copy(g.Pix, m.Pix)
		return g
	}

	out := image.NewNRGBA(r)
	for i, j := 0, 0; i < len(m.Pix); i, j = i+3, j+4 {
		out.Pix[j] = m.Pix[i]
		out.Pix[j+1] = m.Pix[i+1]
		out.Pix[j+2] = m.Pix[i+2]
		out.Pix[j+3] = 0xff
	}
	return out
}

// FromImage converts src into an Image with the requested channel count.
// channels == 0 selects Gray for grayscale sources and RGB otherwise.
func FromImage(src image.Image, channels int) (*Image, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source", ErrInvalidImage)
	}
	if channels == 0 {
		channels = detectChannels(src)
	}

	b := src.Bounds()
	m, err := New(b.Dx(), b.Dy(), channels)
	if err != nil {
		return nil, err
	}

	// Clone normalises every source model to NRGBA anchored at (0, 0).
	nrgba := imaging.Clone(src)
	if channels == Gray {
		nrgba = imaging.Grayscale(nrgba)
	}

	i := 0
	for y := 0; y < m.Height; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+m.Width*4]
		for x := 0; x < len(row); x += 4 {
			if channels == Gray {
				m.Pix[i] = row[x]
				i++
				continue
			}
			m.Pix[i] = row[x]
			m.Pix[i+1] = row[x+1]
			m.Pix[i+2] = row[x+2]
			i += 3
		}
	}
	return m, nil
}

func detectChannels(src image.Image) int {
	switch src.(type) {
	case *image.Gray, *image.Gray16:
		return Gray
	default:
		return RGB
	}
}
