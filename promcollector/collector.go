// Package promcollector exports codec metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	mc := promcollector.New("vqcodec")
//	reg.MustRegister(mc)
//
//	p := vqcodec.New(store, vqcodec.WithMetricsCollector(mc))
package promcollector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/vqcodec"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

var _ vqcodec.MetricsCollector = (*Collector)(nil)
var _ prometheus.Collector = (*Collector)(nil)

// Collector implements vqcodec.MetricsCollector and prometheus.Collector.
type Collector struct {
	opLatency  *prometheus.HistogramVec
	ops        *prometheus.CounterVec
	blocks     *prometheus.CounterVec
	bytes      *prometheus.CounterVec
	iterations prometheus.Histogram
}

// New creates a collector whose metric names start with namespace.
func New(namespace string) *Collector {
	return &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of codec operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Codec operations by outcome",
		}, []string{"op", "status"}),
		blocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_total",
			Help:      "Blocks processed by successful operations",
		}, []string{"op"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_bytes_total",
			Help:      "Artifact bytes saved or loaded",
		}, []string{"op"}),
		iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "train_iterations",
			Help:      "Assignment passes per training run",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.opLatency.Describe(ch)
	c.ops.Describe(ch)
	c.blocks.Describe(ch)
	c.bytes.Describe(ch)
	c.iterations.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.opLatency.Collect(ch)
	c.ops.Collect(ch)
	c.blocks.Collect(ch)
	c.bytes.Collect(ch)
	c.iterations.Collect(ch)
}

func (c *Collector) observe(op string, d time.Duration, err error) bool {
	status := statusSuccess
	if err != nil {
		status = statusError
	}
	c.opLatency.WithLabelValues(op).Observe(d.Seconds())
	c.ops.WithLabelValues(op, status).Inc()
	return err == nil
}

// RecordTrain implements vqcodec.MetricsCollector.
func (c *Collector) RecordTrain(blocks, iterations int, d time.Duration, err error) {
	if c.observe("train", d, err) {
		c.blocks.WithLabelValues("train").Add(float64(blocks))
		c.iterations.Observe(float64(iterations))
	}
}

// RecordEncode implements vqcodec.MetricsCollector.
func (c *Collector) RecordEncode(blocks int, d time.Duration, err error) {
	if c.observe("encode", d, err) {
		c.blocks.WithLabelValues("encode").Add(float64(blocks))
	}
}

// RecordDecode implements vqcodec.MetricsCollector.
func (c *Collector) RecordDecode(blocks int, d time.Duration, err error) {
	if c.observe("decode", d, err) {
		c.blocks.WithLabelValues("decode").Add(float64(blocks))
	}
}

// RecordSave implements vqcodec.MetricsCollector.
func (c *Collector) RecordSave(bytes int, d time.Duration, err error) {
	if c.observe("save", d, err) {
		c.bytes.WithLabelValues("save").Add(float64(bytes))
	}
}

// RecordLoad implements vqcodec.MetricsCollector.
func (c *Collector) RecordLoad(bytes int, d time.Duration, err error) {
	if c.observe("load", d, err) {
		c.bytes.WithLabelValues("load").Add(float64(bytes))
	}
}
