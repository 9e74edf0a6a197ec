package format

import (
	"github.com/hupe1980/vqcodec/block"
	"github.com/hupe1980/vqcodec/codec"
	"github.com/hupe1980/vqcodec/internal/compress"
)

// Metadata is the JSON sidecar of a run. Together with the codebook and
// labels it fully determines the reconstructed image.
type Metadata struct {
	Version     int           `json:"version"`
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	Channels    int           `json:"channels"`
	BlockHeight int           `json:"block_height"`
	BlockWidth  int           `json:"block_width"`
	K           int           `json:"k"`
	VectorLen   int           `json:"vector_len"`
	Compression compress.Type `json:"compression"`
	Codec       string        `json:"codec,omitempty"`
	Source      string        `json:"source,omitempty"`
}

// NewMetadata fills the geometry fields from g.
func NewMetadata(g block.Geometry, k int, c compress.Type, source string) Metadata {
	return Metadata{
		Version:     Version,
		Width:       g.Width,
		Height:      g.Height,
		Channels:    g.Channels,
		BlockHeight: g.BlockHeight,
		BlockWidth:  g.BlockWidth,
		K:           k,
		VectorLen:   g.VectorLen(),
		Compression: c,
		Source:      source,
	}
}

// Geometry returns the block geometry described by m.
func (m Metadata) Geometry() block.Geometry {
	return block.Geometry{
		Width:       m.Width,
		Height:      m.Height,
		Channels:    m.Channels,
		BlockHeight: m.BlockHeight,
		BlockWidth:  m.BlockWidth,
	}
}

// Validate checks internal consistency.
func (m Metadata) Validate() error {
	if m.Version != Version {
		return formatErr("unsupported metadata version %d", m.Version)
	}
	g := m.Geometry()
	if err := g.Validate(); err != nil {
		return formatErr("%v", err)
	}
	if g.Count() > MaxLabels {
		return formatErr("metadata describes %d blocks, limit %d", g.Count(), MaxLabels)
	}
	if m.K < 1 {
		return formatErr("metadata k=%d", m.K)
	}
	if m.VectorLen != g.VectorLen() {
		return formatErr("metadata vector_len %d, geometry needs %d", m.VectorLen, g.VectorLen())
	}
	if !m.Compression.Valid() {
		return formatErr("unknown compression %d", uint8(m.Compression))
	}
	return nil
}

// MarshalMetadata encodes m with c (codec.Default when nil) and records the
// codec name.
func MarshalMetadata(m Metadata, c codec.Codec) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	m.Codec = c.Name()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return c.Marshal(m)
}

// UnmarshalMetadata decodes and validates a metadata sidecar.
func UnmarshalMetadata(data []byte) (Metadata, error) {
	var m Metadata
	if err := codec.Default.Unmarshal(data, &m); err != nil {
		return Metadata{}, formatErr("metadata: %v", err)
	}
	if m.Codec != "" {
		if _, ok := codec.ByName(m.Codec); !ok {
			return Metadata{}, formatErr("unknown metadata codec %q", m.Codec)
		}
	}
	if err := m.Validate(); err != nil {
		return Metadata{}, err
	}
	return m, nil
}
