package raster

import (
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

// Load decodes the image file at path. EXIF orientation is applied.
func Load(path string, channels int) (*Image, error) {
	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return FromImage(src, channels)
}

// Decode reads an encoded image from r.
func Decode(r io.Reader, channels int) (*Image, error) {
	src, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return FromImage(src, channels)
}

// Save encodes m to path; the format is chosen from the file extension.
func Save(path string, m *Image) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if err := imaging.Save(m.ToImage(), path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Encode writes m to w in the given format.
func Encode(w io.Writer, m *Image, format imaging.Format) error {
	if err := m.Validate(); err != nil {
		return err
	}
	return imaging.Encode(w, m.ToImage(), format)
}
