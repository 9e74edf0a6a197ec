package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vqcodec/block"
	"github.com/hupe1980/vqcodec/codebook"
	"github.com/hupe1980/vqcodec/codec"
	"github.com/hupe1980/vqcodec/internal/compress"
	"github.com/hupe1980/vqcodec/testutil"
)

var allCompressions = []compress.Type{compress.None, compress.LZ4, compress.ZSTD}

func randomCodebook(t *testing.T, rng *testutil.RNG, k, dim int) *codebook.Codebook {
	t.Helper()
	data := make([]float32, k*dim)
	for i := range data {
		data[i] = rng.Float32() * 255
	}
	cb, err := codebook.New(k, dim, data)
	require.NoError(t, err)
	return cb
}

func randomLabels(rng *testutil.RNG, n, k int) codebook.Indices {
	labels := make(codebook.Indices, n)
	for i := range labels {
		labels[i] = uint32(rng.Intn(k))
	}
	return labels
}

func TestCodebook_RoundTrip(t *testing.T) {
	rng := testutil.NewRNG(3)
	for _, c := range allCompressions {
		for _, k := range []int{1, 2, 3, 16, 255, 256} {
			for _, dim := range []int{1, 4, 12, 48} {
				t.Run(fmt.Sprintf("%s/k=%d/dim=%d", c, k, dim), func(t *testing.T) {
					cb := randomCodebook(t, rng, k, dim)
					data, err := MarshalCodebook(cb, c)
					require.NoError(t, err)

					got, err := UnmarshalCodebook(data)
					require.NoError(t, err)
					assert.True(t, cb.Equal(got))
				})
			}
		}
	}
}

func TestCodebook_Header(t *testing.T) {
	cb, err := codebook.New(2, 4, []float32{0, 0, 0, 0, 255, 255, 255, 255})
	require.NoError(t, err)

	data, err := MarshalCodebook(cb, compress.None)
	require.NoError(t, err)
	require.Len(t, data, codebookHeaderSize+2*4*4)
	assert.Equal(t, "VQCB", string(data[0:4]))
	assert.Equal(t, byte(Version), data[4])
	assert.Equal(t, byte(0), data[5])
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[8:]))
	assert.Equal(t, uint32(4), binary.LittleEndian.Uint32(data[12:]))
}

func TestCodebook_Malformed(t *testing.T) {
	cb := randomCodebook(t, testutil.NewRNG(1), 4, 4)
	good, err := MarshalCodebook(cb, compress.None)
	require.NoError(t, err)
	zstd, err := MarshalCodebook(cb, compress.ZSTD)
	require.NoError(t, err)

	mutate := func(f func(b []byte) []byte) []byte {
		return f(append([]byte(nil), good...))
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"Empty", nil},
		{"HeaderOnly", good[:codebookHeaderSize]},
		{"Truncated", good[:len(good)-1]},
		{"TrailingBytes", append(append([]byte(nil), good...), 0)},
		{"TruncatedCompressed", zstd[:len(zstd)-2]},
		{"BadMagic", mutate(func(b []byte) []byte { b[0] = 'X'; return b })},
		{"BadVersion", mutate(func(b []byte) []byte { b[4] = 9; return b })},
		{"BadCompression", mutate(func(b []byte) []byte { b[5] = 7; return b })},
		{"ZeroK", mutate(func(b []byte) []byte { binary.LittleEndian.PutUint32(b[8:], 0); return b })},
		{"HugeDim", mutate(func(b []byte) []byte { binary.LittleEndian.PutUint32(b[12:], 1<<31); return b })},
		{"NaN", mutate(func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[codebookHeaderSize:], 0x7fc00000)
			return b
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalCodebook(tt.data)
			assert.ErrorIs(t, err, ErrFormat)
			assert.Nil(t, got)
		})
	}
}

func TestLabels_RoundTrip(t *testing.T) {
	rng := testutil.NewRNG(5)
	for _, c := range allCompressions {
		for _, k := range []int{1, 2, 3, 4, 5, 17, 256, 257, 4096, 70000} {
			for _, n := range []int{0, 1, 7, 64, 1000} {
				t.Run(fmt.Sprintf("%s/k=%d/n=%d", c, k, n), func(t *testing.T) {
					labels := randomLabels(rng, n, k)
					data, err := MarshalLabels(labels, k, c)
					require.NoError(t, err)

					got, gotK, err := UnmarshalLabels(data, n)
					require.NoError(t, err)
					assert.Equal(t, k, gotK)
					assert.True(t, labels.Equal(got))
				})
			}
		}
	}
}

func TestLabels_Packing(t *testing.T) {
	// k=4 needs 2 bits: 3,0,1,2 -> 0b10_01_00_11
	data, err := MarshalLabels(codebook.Indices{3, 0, 1, 2}, 4, compress.None)
	require.NoError(t, err)
	require.Len(t, data, labelsHeaderSize+8)
	assert.Equal(t, "VQLB", string(data[0:4]))
	assert.Equal(t, byte(2), data[6])
	assert.Equal(t, uint32(4), binary.LittleEndian.Uint32(data[8:]))
	assert.Equal(t, uint64(0b10_01_00_11), binary.LittleEndian.Uint64(data[labelsHeaderSize:]))
}

func TestLabels_SingleEntryCodebook(t *testing.T) {
	data, err := MarshalLabels(codebook.Indices{0, 0, 0}, 1, compress.None)
	require.NoError(t, err)
	assert.Len(t, data, labelsHeaderSize)

	got, k, err := UnmarshalLabels(data, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, k)
	assert.Equal(t, codebook.Indices{0, 0, 0}, got)
}

func TestLabels_Errors(t *testing.T) {
	_, err := MarshalLabels(codebook.Indices{0, 3}, 3, compress.None)
	assert.ErrorIs(t, err, codebook.ErrIndexOutOfRange)

	_, err = MarshalLabels(nil, 0, compress.None)
	assert.ErrorIs(t, err, ErrFormat)

	// k=3 uses 2 bits, so the value 3 is representable but illegal.
	data, err := MarshalLabels(codebook.Indices{0, 1, 2}, 4, compress.None)
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(data[12:], 3)
	_, _, err = UnmarshalLabels(append([]byte(nil), data...), 3)
	require.NoError(t, err)

	bad := append([]byte(nil), data...)
	binary.LittleEndian.PutUint64(bad[labelsHeaderSize:], 0b11)
	got, _, err := UnmarshalLabels(bad, 3)
	assert.ErrorIs(t, err, ErrFormat)
	assert.Nil(t, got)

	tests := map[string]func(b []byte) []byte{
		"Truncated":   func(b []byte) []byte { return b[:len(b)-1] },
		"ShortHeader": func(b []byte) []byte { return b[:10] },
		"BadMagic":    func(b []byte) []byte { b[3] = 'X'; return b },
		"BadVersion":  func(b []byte) []byte { b[4] = 2; return b },
		"BadBits":     func(b []byte) []byte { b[6] = 5; return b },
		"ZeroK":       func(b []byte) []byte { binary.LittleEndian.PutUint32(b[12:], 0); return b },
		"MoreLabels":  func(b []byte) []byte { binary.LittleEndian.PutUint32(b[8:], 100); return b },
	}
	for name, f := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := UnmarshalLabels(f(append([]byte(nil), data...)), 3)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestLabels_CountCheckedBeforeAllocation(t *testing.T) {
	header := func(width byte, count, k uint32) []byte {
		b := make([]byte, labelsHeaderSize)
		copy(b, "VQLB")
		b[4] = Version
		b[5] = byte(compress.None)
		b[6] = width
		binary.LittleEndian.PutUint32(b[8:], count)
		binary.LittleEndian.PutUint32(b[12:], k)
		return b
	}

	tests := map[string]struct {
		data []byte
		want int
	}{
		"MaxCountZeroBits":    {header(0, math.MaxUint32, 1), 16},
		"MaxCountEightBits":   {header(8, math.MaxUint32, 256), 16},
		"AboveLimit":          {header(0, MaxLabels+1, 1), MaxLabels + 1},
		"FewerThanExpected":   {header(0, 2, 1), 3},
		"MoreThanExpected":    {header(0, 4, 1), 3},
		"NegativeExpectation": {header(0, 0, 1), -1},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, _, err := UnmarshalLabels(tt.data, tt.want)
			assert.ErrorIs(t, err, ErrFormat)
			assert.Nil(t, got)
		})
	}

	got, k, err := UnmarshalLabels(header(0, 3, 1), 3)
	require.NoError(t, err)
	assert.Equal(t, 1, k)
	assert.Len(t, got, 3)
}

func TestIndexBits(t *testing.T) {
	for k, want := range map[int]int{1: 0, 2: 1, 3: 2, 4: 2, 5: 3, 256: 8, 257: 9} {
		assert.Equal(t, want, IndexBits(k), "k=%d", k)
	}
}

func testMetadata(t *testing.T) Metadata {
	t.Helper()
	g, err := block.NewGeometry(5, 5, 1, 2, 2)
	require.NoError(t, err)
	return NewMetadata(g, 4, compress.ZSTD, "lena.png")
}

func TestMetadata_RoundTrip(t *testing.T) {
	m := testMetadata(t)
	for _, c := range []codec.Codec{codec.JSON{}, codec.GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := MarshalMetadata(m, c)
			require.NoError(t, err)
			assert.Contains(t, string(data), `"compression": "zstd"`)
			assert.Contains(t, string(data), `"vector_len": 4`)

			got, err := UnmarshalMetadata(data)
			require.NoError(t, err)

			want := m
			want.Codec = c.Name()
			assert.Equal(t, want, got)
			assert.Equal(t, 9, got.Geometry().Count())
		})
	}
}

func TestMetadata_Invalid(t *testing.T) {
	tests := map[string]string{
		"NotJSON":     `{"version":`,
		"Version":     `{"version":2,"width":4,"height":4,"channels":1,"block_height":2,"block_width":2,"k":2,"vector_len":4}`,
		"Channels":    `{"version":1,"width":4,"height":4,"channels":2,"block_height":2,"block_width":2,"k":2,"vector_len":8}`,
		"BlockSize":   `{"version":1,"width":4,"height":4,"channels":1,"block_height":5,"block_width":2,"k":2,"vector_len":10}`,
		"K":           `{"version":1,"width":4,"height":4,"channels":1,"block_height":2,"block_width":2,"k":0,"vector_len":4}`,
		"VectorLen":   `{"version":1,"width":4,"height":4,"channels":1,"block_height":2,"block_width":2,"k":2,"vector_len":3}`,
		"Compression": `{"version":1,"width":4,"height":4,"channels":1,"block_height":2,"block_width":2,"k":2,"vector_len":4,"compression":"brotli"}`,
		"Codec":       `{"version":1,"width":4,"height":4,"channels":1,"block_height":2,"block_width":2,"k":2,"vector_len":4,"codec":"msgpack"}`,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := UnmarshalMetadata([]byte(in))
			assert.ErrorIs(t, err, ErrFormat)
		})
	}

	m := testMetadata(t)
	m.K = 0
	_, err := MarshalMetadata(m, nil)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestDumpCodebook(t *testing.T) {
	cb, err := codebook.New(3, 2, []float32{0, 1.5, 100.25, 255, 7, 8})
	require.NoError(t, err)
	m := testMetadata(t)

	var buf bytes.Buffer
	require.NoError(t, DumpCodebook(&buf, cb, m, roaring.BitmapOf(0, 2)))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"# codebook k=3 dim=2",
		"# block 2x2 channels=1",
		"# used 2/3",
		"0: 0.0000 1.5000",
		"1: 100.2500 255.0000 # unused",
		"2: 7.0000 8.0000",
	}, lines)

	buf.Reset()
	require.NoError(t, DumpCodebook(&buf, cb, m, nil))
	assert.NotContains(t, buf.String(), "used")
}

func TestArtifactNames(t *testing.T) {
	n := ArtifactNames("photo")
	assert.Equal(t, Names{
		Codebook: "photo_codebook",
		Labels:   "photo_labels",
		Meta:     "photo_meta.json",
		Dump:     "photo_codebook.txt",
	}, n)
	assert.Equal(t, []string{"photo_codebook", "photo_labels", "photo_codebook.txt", "photo_meta.json"}, n.All())
}
