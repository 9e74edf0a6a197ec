package format

import (
	"encoding/binary"
	"math"
	"math/bits"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/vqcodec/codebook"
	"github.com/hupe1980/vqcodec/internal/compress"
)

var labelsMagic = [4]byte{'V', 'Q', 'L', 'B'}

const labelsHeaderSize = 16

// IndexBits returns the fixed width of one packed index for a codebook of
// size k: ceil(log2(k)), and 0 for k == 1.
func IndexBits(k int) int {
	if k <= 1 {
		return 0
	}
	return bits.Len(uint(k - 1))
}

// MarshalLabels packs labels with IndexBits(k) bits each.
//
// Layout: [magic "VQLB"][version u8][compression u8][bits u8][reserved u8]
// [count u32][K u32][body]. The body is ceil(count*bits/64) uint64 words;
// index i occupies bits [i*bits, (i+1)*bits), least significant bit first.
func MarshalLabels(labels codebook.Indices, k int, c compress.Type) ([]byte, error) {
	if k < 1 || uint64(k) > math.MaxUint32 {
		return nil, formatErr("invalid codebook size %d", k)
	}
	if len(labels) > MaxLabels {
		return nil, formatErr("%d labels exceed limit %d", len(labels), MaxLabels)
	}
	if !c.Valid() {
		return nil, formatErr("unknown compression %d", uint8(c))
	}
	if err := labels.Validate(k); err != nil {
		return nil, err
	}

	width := IndexBits(k)
	set := bitset.New(uint(len(labels) * width))
	for i, v := range labels {
		base := uint(i * width)
		for b := 0; b < width; b++ {
			if v&(1<<b) != 0 {
				set.Set(base + uint(b))
			}
		}
	}

	words := set.Words()
	raw := make([]byte, 8*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint64(raw[8*i:], w)
	}
	body, err := compress.Compress(raw, c)
	if err != nil {
		return nil, err
	}

	out := make([]byte, labelsHeaderSize, labelsHeaderSize+len(body))
	copy(out[0:4], labelsMagic[:])
	out[4] = Version
	out[5] = byte(c)
	out[6] = byte(width)
	binary.LittleEndian.PutUint32(out[8:], uint32(len(labels)))
	binary.LittleEndian.PutUint32(out[12:], uint32(k))
	return append(out, body...), nil
}

// UnmarshalLabels decodes a labels artifact holding exactly want indices and
// returns the index stream together with the codebook size it was written
// for. The count is checked before anything is allocated.
func UnmarshalLabels(data []byte, want int) (codebook.Indices, int, error) {
	if len(data) < labelsHeaderSize {
		return nil, 0, formatErr("labels truncated: %d bytes", len(data))
	}
	if [4]byte(data[0:4]) != labelsMagic {
		return nil, 0, formatErr("bad labels magic %q", data[0:4])
	}
	if data[4] != Version {
		return nil, 0, formatErr("unsupported labels version %d", data[4])
	}
	c, err := checkCompression(data[5])
	if err != nil {
		return nil, 0, err
	}

	count := uint64(binary.LittleEndian.Uint32(data[8:]))
	if count > MaxLabels {
		return nil, 0, formatErr("%d labels exceed limit %d", count, MaxLabels)
	}
	if want < 0 || count != uint64(want) {
		return nil, 0, formatErr("labels hold %d indices, want %d", count, want)
	}
	k := uint64(binary.LittleEndian.Uint32(data[12:]))
	if k == 0 {
		return nil, 0, formatErr("labels for empty codebook")
	}
	width := IndexBits(int(k))
	if int(data[6]) != width {
		return nil, 0, formatErr("labels use %d bits, codebook of %d needs %d", data[6], k, width)
	}

	nwords := (count*uint64(width) + 63) / 64
	raw, err := decodeBody(data[labelsHeaderSize:], c, 8*nwords)
	if err != nil {
		return nil, 0, err
	}

	labels := make(codebook.Indices, count)
	if width == 0 {
		return labels, int(k), nil
	}

	words := make([]uint64, nwords)
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(raw[8*i:])
	}
	set := bitset.From(words)
	for i := range labels {
		base := uint(i * width)
		var v uint32
		for b := 0; b < width; b++ {
			if set.Test(base + uint(b)) {
				v |= 1 << b
			}
		}
		if uint64(v) >= k {
			return nil, 0, formatErr("label %d at position %d exceeds codebook size %d", v, i, k)
		}
		labels[i] = v
	}
	return labels, int(k), nil
}
