package format

import (
	"encoding/binary"
	"math"

	"github.com/hupe1980/vqcodec/codebook"
	"github.com/hupe1980/vqcodec/internal/compress"
)

var codebookMagic = [4]byte{'V', 'Q', 'C', 'B'}

const codebookHeaderSize = 16

// MarshalCodebook encodes cb.
//
// Layout: [magic "VQCB"][version u8][compression u8][reserved u16][K u32][dim u32][body]
// where the body holds K*dim float32 samples before compression.
func MarshalCodebook(cb *codebook.Codebook, c compress.Type) ([]byte, error) {
	if cb == nil {
		return nil, formatErr("nil codebook")
	}
	if !c.Valid() {
		return nil, formatErr("unknown compression %d", uint8(c))
	}

	samples := cb.Data()
	raw := make([]byte, 4*len(samples))
	for i, v := range samples {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(v))
	}
	body, err := compress.Compress(raw, c)
	if err != nil {
		return nil, err
	}

	out := make([]byte, codebookHeaderSize, codebookHeaderSize+len(body))
	copy(out[0:4], codebookMagic[:])
	out[4] = Version
	out[5] = byte(c)
	binary.LittleEndian.PutUint32(out[8:], uint32(cb.Len()))
	binary.LittleEndian.PutUint32(out[12:], uint32(cb.Dim()))
	return append(out, body...), nil
}

// UnmarshalCodebook decodes a codebook artifact.
func UnmarshalCodebook(data []byte) (*codebook.Codebook, error) {
	if len(data) < codebookHeaderSize {
		return nil, formatErr("codebook truncated: %d bytes", len(data))
	}
	if [4]byte(data[0:4]) != codebookMagic {
		return nil, formatErr("bad codebook magic %q", data[0:4])
	}
	if data[4] != Version {
		return nil, formatErr("unsupported codebook version %d", data[4])
	}
	c, err := checkCompression(data[5])
	if err != nil {
		return nil, err
	}

	k := binary.LittleEndian.Uint32(data[8:])
	dim := binary.LittleEndian.Uint32(data[12:])
	if k == 0 || dim == 0 {
		return nil, formatErr("empty codebook %dx%d", k, dim)
	}

	raw, err := decodeBody(data[codebookHeaderSize:], c, 4*uint64(k)*uint64(dim))
	if err != nil {
		return nil, err
	}

	samples := make([]float32, len(raw)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	cb, err := codebook.New(int(k), int(dim), samples)
	if err != nil {
		return nil, formatErr("%v", err)
	}
	return cb, nil
}
