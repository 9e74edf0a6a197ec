// Package config loads the YAML configuration of the vqcodec command.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/vqcodec/internal/compress"
	"github.com/hupe1980/vqcodec/internal/kmeans"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Store backends.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
	BackendMinIO = "minio"
)

// Config is the command configuration. Zero fields in a file keep their
// defaults.
type Config struct {
	Block       BlockSize     `yaml:"block"`
	K           int           `yaml:"k"`
	Seed        int64         `yaml:"seed"`
	Iterations  int           `yaml:"iterations"`
	Threshold   float64       `yaml:"threshold"`
	Workers     int           `yaml:"workers"`
	TimeLimit   time.Duration `yaml:"time_limit"`
	Init        string        `yaml:"init"`
	Compression compress.Type `yaml:"compression"`
	Gray        bool          `yaml:"gray"`
	Parallel    int           `yaml:"parallel"`
	MemoryLimit int64         `yaml:"memory_limit"`
	IOLimit     int64         `yaml:"io_limit"`
	LogLevel    string        `yaml:"log_level"`
	Store       Store         `yaml:"store"`
}

// BlockSize is written as "HxW" or as a single number for square blocks.
type BlockSize struct {
	Height int
	Width  int
}

// ParseBlockSize parses "4x4", "8x4" or "4".
func ParseBlockSize(s string) (BlockSize, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	h, w, found := strings.Cut(s, "x")
	if !found {
		w = h
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return BlockSize{}, fmt.Errorf("%w: block size %q", ErrInvalidConfig, s)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return BlockSize{}, fmt.Errorf("%w: block size %q", ErrInvalidConfig, s)
	}
	return BlockSize{Height: height, Width: width}, nil
}

func (b BlockSize) String() string {
	return fmt.Sprintf("%dx%d", b.Height, b.Width)
}

// MarshalYAML implements yaml.Marshaler.
func (b BlockSize) MarshalYAML() (any, error) {
	return b.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *BlockSize) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseBlockSize(node.Value)
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// Store selects and parameterises the artifact store.
type Store struct {
	Backend string `yaml:"backend"`

	// Dir is the output directory of the local backend.
	Dir string `yaml:"dir"`

	Bucket string `yaml:"bucket,omitempty"`
	Prefix string `yaml:"prefix,omitempty"`
	Region string `yaml:"region,omitempty"`

	// Endpoint overrides the S3 endpoint or names the MinIO server.
	Endpoint  string `yaml:"endpoint,omitempty"`
	PathStyle bool   `yaml:"path_style,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	Secure    bool   `yaml:"secure,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Block:       BlockSize{Height: 4, Width: 4},
		K:           256,
		Seed:        1,
		Iterations:  kmeans.DefaultMaxIterations,
		Threshold:   kmeans.DefaultThreshold,
		Init:        kmeans.InitSplit.String(),
		Compression: compress.ZSTD,
		Parallel:    1,
		LogLevel:    "info",
		Store: Store{
			Backend: BackendLocal,
			Dir:     ".",
		},
	}
}

// Load reads a YAML file on top of Default.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads YAML from r on top of Default. Unknown keys are rejected.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, cfg.Validate()
}

// Encode writes cfg as YAML.
func Encode(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate checks ranges and backend parameters.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Block.Height > 0 && c.Block.Width > 0, "block size %s must be positive", c.Block)
	check(c.K > 0, "k must be positive, got %d", c.K)
	check(c.Iterations > 0, "iterations must be positive, got %d", c.Iterations)
	check(c.Threshold >= 0, "threshold must not be negative, got %g", c.Threshold)
	check(c.Workers >= 0, "workers must not be negative, got %d", c.Workers)
	check(c.TimeLimit >= 0, "time_limit must not be negative, got %s", c.TimeLimit)
	check(c.Parallel > 0, "parallel must be positive, got %d", c.Parallel)
	check(c.MemoryLimit >= 0, "memory_limit must not be negative")
	check(c.IOLimit >= 0, "io_limit must not be negative")
	check(c.Compression.Valid(), "unknown compression %d", c.Compression)

	if _, err := kmeans.ParseInitPolicy(c.Init); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	switch c.Store.Backend {
	case BackendLocal:
		check(c.Store.Dir != "", "local store needs dir")
	case BackendS3:
		check(c.Store.Bucket != "", "s3 store needs bucket")
	case BackendMinIO:
		check(c.Store.Bucket != "", "minio store needs bucket")
		check(c.Store.Endpoint != "", "minio store needs endpoint")
	default:
		check(false, "unknown store backend %q", c.Store.Backend)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
