package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vqcodec/internal/compress"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BlockSize{Height: 4, Width: 4}, cfg.Block)
	assert.Equal(t, 256, cfg.K)
	assert.Equal(t, compress.ZSTD, cfg.Compression)
	assert.Equal(t, BackendLocal, cfg.Store.Backend)
}

func TestDecode(t *testing.T) {
	const doc = `
block: 8x4
k: 64
seed: 7
time_limit: 30s
compression: lz4
init: random
parallel: 3
log_level: debug
store:
  backend: minio
  endpoint: localhost:9000
  bucket: images
  prefix: runs/
`
	cfg, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, BlockSize{Height: 8, Width: 4}, cfg.Block)
	assert.Equal(t, 64, cfg.K)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 30*time.Second, cfg.TimeLimit)
	assert.Equal(t, compress.LZ4, cfg.Compression)
	assert.Equal(t, "random", cfg.Init)
	assert.Equal(t, 3, cfg.Parallel)
	assert.Equal(t, BackendMinIO, cfg.Store.Backend)
	assert.Equal(t, "images", cfg.Store.Bucket)

	// Unset fields keep their defaults.
	assert.Equal(t, Default().Iterations, cfg.Iterations)
	assert.Equal(t, Default().Threshold, cfg.Threshold)
}

func TestDecode_Empty(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDecode_Errors(t *testing.T) {
	tests := map[string]string{
		"UnknownKey":     "blocks: 4x4\n",
		"BadBlock":       "block: fourxfour\n",
		"BadCompression": "compression: brotli\n",
		"ZeroK":          "k: 0\n",
		"BadInit":        "init: kmeans++\n",
		"BadLevel":       "log_level: loud\n",
		"BadBackend":     "store:\n  backend: ftp\n",
		"S3NoBucket":     "store:\n  backend: s3\n",
		"MinIONoHost":    "store:\n  backend: minio\n  bucket: b\n",
		"Syntax":         "k: [\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidate_CollectsAll(t *testing.T) {
	cfg := Default()
	cfg.K = -1
	cfg.Parallel = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "k must be positive")
	assert.Contains(t, err.Error(), "parallel must be positive")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vqcodec.yaml")
	require.NoError(t, os.WriteFile(path, []byte("k: 32\nblock: 2\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.K)
	assert.Equal(t, BlockSize{Height: 2, Width: 2}, cfg.Block)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEncode_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Block = BlockSize{Height: 2, Width: 8}
	cfg.Compression = compress.None
	cfg.TimeLimit = time.Minute
	cfg.Store = Store{Backend: BackendS3, Bucket: "b", Region: "eu-west-1"}

	data, err := Encode(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "block: 2x8")
	assert.Contains(t, string(data), "compression: none")

	got, err := Decode(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestParseBlockSize(t *testing.T) {
	tests := []struct {
		in   string
		want BlockSize
		ok   bool
	}{
		{"4x4", BlockSize{4, 4}, true},
		{"8X2", BlockSize{8, 2}, true},
		{" 3 ", BlockSize{3, 3}, true},
		{"4x", BlockSize{}, false},
		{"x4", BlockSize{}, false},
		{"", BlockSize{}, false},
	}
	for _, tt := range tests {
		got, err := ParseBlockSize(tt.in)
		if !tt.ok {
			assert.ErrorIs(t, err, ErrInvalidConfig, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseLogLevel(t *testing.T) {
	l, err := ParseLogLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)

	l, err = ParseLogLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)

	_, err = ParseLogLevel("loud")
	assert.Error(t, err)
}
