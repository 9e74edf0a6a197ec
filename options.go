package vqcodec

import (
	"log/slog"
	"time"

	"github.com/hupe1980/vqcodec/codebook"
	"github.com/hupe1980/vqcodec/codec"
	"github.com/hupe1980/vqcodec/internal/compress"
	"github.com/hupe1980/vqcodec/internal/kmeans"
)

// InitPolicy selects how the trainer builds its initial codebook.
type InitPolicy = kmeans.InitPolicy

const (
	// InitSplit grows the codebook from the global mean by LBG splitting.
	InitSplit = kmeans.InitSplit
	// InitRandomSample seeds the codebook with K distinct training blocks.
	InitRandomSample = kmeans.InitRandomSample
)

// ParseInitPolicy parses "split" or "random".
func ParseInitPolicy(s string) (InitPolicy, error) {
	return kmeans.ParseInitPolicy(s)
}

// Compression selects the body compression of binary artifacts.
type Compression = compress.Type

const (
	CompressionNone = compress.None
	CompressionLZ4  = compress.LZ4
	CompressionZSTD = compress.ZSTD
)

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) {
	return compress.ParseType(s)
}

type options struct {
	codec            codec.Codec
	compression      Compression
	metricsCollector MetricsCollector
	logger           *Logger
	train            kmeans.Config
}

// Option configures training and pipeline behavior.
type Option func(*options)

// WithCodec configures the codec used for the metadata sidecar.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression sets the body compression of binary artifacts.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &vqcodec.BasicMetricsCollector{}
//	p := vqcodec.New(store, vqcodec.WithMetricsCollector(metrics))
//	// ... use p ...
//	stats := metrics.GetStats()
//	fmt.Printf("Trains: %d, Avg latency: %dns\n", stats.TrainCount, stats.TrainAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithSeed seeds the trainer's random source.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.train.Seed = seed
	}
}

// WithMaxIterations caps the Lloyd passes per training phase.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.train.MaxIterations = n
	}
}

// WithThreshold sets the relative distortion decrease below which training
// counts as converged.
func WithThreshold(threshold float64) Option {
	return func(o *options) {
		o.train.Threshold = threshold
	}
}

// WithWorkers sets the number of goroutines of the assignment step.
// Results do not depend on this value.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.train.Workers = n
	}
}

// WithTimeLimit bounds the wall-clock time of one training run.
func WithTimeLimit(d time.Duration) Option {
	return func(o *options) {
		o.train.TimeLimit = d
	}
}

// WithInit selects the initialization policy.
func WithInit(p InitPolicy) Option {
	return func(o *options) {
		o.train.Init = p
	}
}

// WithSearcherFactory replaces the exhaustive nearest-codevector search used
// during training and encoding.
func WithSearcherFactory(f codebook.SearcherFactory) Option {
	return func(o *options) {
		o.train.Searcher = f
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		compression:      CompressionZSTD,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.train.Searcher == nil {
		o.train.Searcher = codebook.LinearFactory
	}
	return o
}
