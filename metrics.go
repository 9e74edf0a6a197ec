package vqcodec

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// promcollector package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordTrain is called after each training run.
	// blocks is the number of training vectors, iterations the number of
	// assignment passes.
	RecordTrain(blocks, iterations int, duration time.Duration, err error)

	// RecordEncode is called after each encode operation.
	RecordEncode(blocks int, duration time.Duration, err error)

	// RecordDecode is called after each decode operation.
	RecordDecode(blocks int, duration time.Duration, err error)

	// RecordSave is called after persisting the artifacts of a run.
	// bytes is the total size written.
	RecordSave(bytes int, duration time.Duration, err error)

	// RecordLoad is called after loading the artifacts of a run.
	RecordLoad(bytes int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordTrain(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordEncode(int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordDecode(int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordSave(int, time.Duration, error)       {}
func (NoopMetricsCollector) RecordLoad(int, time.Duration, error)       {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	TrainCount      atomic.Int64
	TrainErrors     atomic.Int64
	TrainIterations atomic.Int64
	TrainTotalNanos atomic.Int64
	EncodeCount     atomic.Int64
	EncodeErrors    atomic.Int64
	EncodeBlocks    atomic.Int64
	DecodeCount     atomic.Int64
	DecodeErrors    atomic.Int64
	DecodeBlocks    atomic.Int64
	SaveCount       atomic.Int64
	SaveErrors      atomic.Int64
	SaveBytes       atomic.Int64
	LoadCount       atomic.Int64
	LoadErrors      atomic.Int64
	LoadBytes       atomic.Int64
}

// RecordTrain implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTrain(blocks, iterations int, duration time.Duration, err error) {
	b.TrainCount.Add(1)
	b.TrainTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.TrainErrors.Add(1)
		return
	}
	b.TrainIterations.Add(int64(iterations))
}

// RecordEncode implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEncode(blocks int, duration time.Duration, err error) {
	b.EncodeCount.Add(1)
	if err != nil {
		b.EncodeErrors.Add(1)
		return
	}
	b.EncodeBlocks.Add(int64(blocks))
}

// RecordDecode implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDecode(blocks int, duration time.Duration, err error) {
	b.DecodeCount.Add(1)
	if err != nil {
		b.DecodeErrors.Add(1)
		return
	}
	b.DecodeBlocks.Add(int64(blocks))
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(bytes int, duration time.Duration, err error) {
	b.SaveCount.Add(1)
	if err != nil {
		b.SaveErrors.Add(1)
		return
	}
	b.SaveBytes.Add(int64(bytes))
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(bytes int, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.LoadBytes.Add(int64(bytes))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		TrainCount:      b.TrainCount.Load(),
		TrainErrors:     b.TrainErrors.Load(),
		TrainIterations: b.TrainIterations.Load(),
		TrainAvgNanos:   b.getAvgTrainNanos(),
		EncodeCount:     b.EncodeCount.Load(),
		EncodeErrors:    b.EncodeErrors.Load(),
		EncodeBlocks:    b.EncodeBlocks.Load(),
		DecodeCount:     b.DecodeCount.Load(),
		DecodeErrors:    b.DecodeErrors.Load(),
		DecodeBlocks:    b.DecodeBlocks.Load(),
		SaveCount:       b.SaveCount.Load(),
		SaveErrors:      b.SaveErrors.Load(),
		SaveBytes:       b.SaveBytes.Load(),
		LoadCount:       b.LoadCount.Load(),
		LoadErrors:      b.LoadErrors.Load(),
		LoadBytes:       b.LoadBytes.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgTrainNanos() int64 {
	count := b.TrainCount.Load()
	if count == 0 {
		return 0
	}
	return b.TrainTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	TrainCount      int64
	TrainErrors     int64
	TrainIterations int64
	TrainAvgNanos   int64
	EncodeCount     int64
	EncodeErrors    int64
	EncodeBlocks    int64
	DecodeCount     int64
	DecodeErrors    int64
	DecodeBlocks    int64
	SaveCount       int64
	SaveErrors      int64
	SaveBytes       int64
	LoadCount       int64
	LoadErrors      int64
	LoadBytes       int64
}
