package vqcodec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/vqcodec/blobstore"
	"github.com/hupe1980/vqcodec/block"
	"github.com/hupe1980/vqcodec/codebook"
	"github.com/hupe1980/vqcodec/format"
	"github.com/hupe1980/vqcodec/raster"
)

// Params describes one compression run.
type Params struct {
	BlockHeight int
	BlockWidth  int
	K           int
	// Source is recorded in the metadata sidecar, typically the input file
	// name.
	Source string
}

// Artifact is a stored artifact and its size in bytes.
type Artifact struct {
	Name string
	Size int
}

// Run is a compressed image: everything needed to rebuild it.
type Run struct {
	Base      string
	Metadata  format.Metadata
	Codebook  *codebook.Codebook
	Labels    codebook.Indices
	Artifacts []Artifact
	// Train is set for runs produced by Compress.
	Train *TrainResult
}

// Geometry returns the block geometry of the run.
func (r *Run) Geometry() block.Geometry {
	return r.Metadata.Geometry()
}

// StoredBytes returns the size of the artifacts needed for decompression.
func (r *Run) StoredBytes() int {
	names := format.ArtifactNames(r.Base)
	total := 0
	for _, a := range r.Artifacts {
		if a.Name != names.Dump {
			total += a.Size
		}
	}
	return total
}

// CompressionRatio returns raw image bytes divided by StoredBytes.
func (r *Run) CompressionRatio() float64 {
	stored := r.StoredBytes()
	if stored == 0 {
		return 0
	}
	g := r.Geometry()
	return float64(g.Width*g.Height*g.Channels) / float64(stored)
}

// Pipeline compresses images into a store and restores them.
type Pipeline struct {
	store blobstore.Store
	opts  options
}

// New returns a Pipeline writing artifacts to store.
func New(store blobstore.Store, optFns ...Option) *Pipeline {
	return &Pipeline{
		store: store,
		opts:  applyOptions(optFns),
	}
}

// Compress trains a codebook on img, encodes img with it and saves the
// artifacts under base. On any error nothing is left in the store.
func (p *Pipeline) Compress(ctx context.Context, base string, img *raster.Image, params Params) (*Run, error) {
	if err := validateBase(base); err != nil {
		return nil, err
	}

	tr, err := train(ctx, p.opts, img, params.BlockHeight, params.BlockWidth, params.K)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	labels, err := EncodeWith(img, params.BlockHeight, params.BlockWidth, tr.Codebook,
		p.opts.train.Searcher(tr.Codebook.Data(), tr.Codebook.Dim()))
	p.opts.metricsCollector.RecordEncode(tr.Geometry.Count(), time.Since(start), err)
	p.opts.logger.WithBase(base).LogEncode(ctx, tr.Geometry.Count(), err)
	if err != nil {
		return nil, err
	}

	run := &Run{
		Base:     base,
		Metadata: format.NewMetadata(tr.Geometry, params.K, p.opts.compression, params.Source),
		Codebook: tr.Codebook,
		Labels:   labels,
		Train:    tr,
	}
	if err := p.Save(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// Save writes the artifacts of run. The metadata sidecar is written last and
// marks the run as complete. When any write fails, every artifact of the
// base is deleted, so a failed save leaves nothing behind, including the
// files of a run previously stored under the same base.
func (p *Pipeline) Save(ctx context.Context, run *Run) (err error) {
	if run == nil {
		return fmt.Errorf("%w: nil run", ErrInvalidCodebook)
	}

	log := p.opts.logger.WithBase(run.Base)
	start := time.Now()
	total := 0
	defer func() {
		p.opts.metricsCollector.RecordSave(total, time.Since(start), err)
		log.LogSave(ctx, run.Base, total, err)
	}()

	if err := validateBase(run.Base); err != nil {
		return err
	}

	blobs, err := p.encodeRun(run)
	if err != nil {
		return translateError(err)
	}

	for _, b := range blobs {
		if err := p.store.Put(ctx, b.name, b.data); err != nil {
			p.rollback(run.Base)
			return fmt.Errorf("save %s: %w", b.name, translateError(err))
		}
	}

	run.Artifacts = run.Artifacts[:0]
	for _, b := range blobs {
		run.Artifacts = append(run.Artifacts, Artifact{Name: b.name, Size: len(b.data)})
		total += len(b.data)
	}
	return nil
}

type namedBlob struct {
	name string
	data []byte
}

func (p *Pipeline) encodeRun(run *Run) ([]namedBlob, error) {
	names := format.ArtifactNames(run.Base)
	m := run.Metadata
	m.Compression = p.opts.compression

	if run.Codebook == nil || run.Codebook.Len() != m.K {
		return nil, fmt.Errorf("%w: codebook does not match metadata k=%d", ErrInvalidCodebook, m.K)
	}
	if run.Codebook.Dim() != m.VectorLen {
		return nil, &ErrDimensionMismatch{Expected: m.VectorLen, Actual: run.Codebook.Dim()}
	}
	if len(run.Labels) != m.Geometry().Count() {
		return nil, fmt.Errorf("%w: %d indices for %d blocks", ErrStreamLengthMismatch, len(run.Labels), m.Geometry().Count())
	}

	cb, err := format.MarshalCodebook(run.Codebook, m.Compression)
	if err != nil {
		return nil, err
	}
	labels, err := format.MarshalLabels(run.Labels, run.Codebook.Len(), m.Compression)
	if err != nil {
		return nil, err
	}
	meta, err := format.MarshalMetadata(m, p.opts.codec)
	if err != nil {
		return nil, err
	}
	var dump bytes.Buffer
	if err := format.DumpCodebook(&dump, run.Codebook, m, Utilization(run.Labels)); err != nil {
		return nil, err
	}

	run.Metadata = m
	run.Metadata.Codec = p.opts.codec.Name()
	return []namedBlob{
		{names.Codebook, cb},
		{names.Labels, labels},
		{names.Dump, dump.Bytes()},
		{names.Meta, meta},
	}, nil
}

// rollback removes every artifact of base, metadata first. It runs on a
// fresh context so cleanup still happens after cancellation.
func (p *Pipeline) rollback(base string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := p.deleteAll(ctx, base); err != nil {
		p.opts.logger.WarnContext(ctx, "rollback delete failed", "base", base, "error", err)
	}
}

// Load reads and validates the artifacts stored under base.
func (p *Pipeline) Load(ctx context.Context, base string) (run *Run, err error) {
	start := time.Now()
	total := 0
	defer func() {
		p.opts.metricsCollector.RecordLoad(total, time.Since(start), err)
		p.opts.logger.LogLoad(ctx, base, total, err)
	}()

	if err := validateBase(base); err != nil {
		return nil, err
	}
	names := format.ArtifactNames(base)

	get := func(name string) ([]byte, error) {
		data, err := p.store.Get(ctx, name)
		if err != nil {
			return nil, translateError(err)
		}
		total += len(data)
		return data, nil
	}

	metaData, err := get(names.Meta)
	if err != nil {
		return nil, err
	}
	cbData, err := get(names.Codebook)
	if err != nil {
		return nil, err
	}
	labelData, err := get(names.Labels)
	if err != nil {
		return nil, err
	}

	m, err := format.UnmarshalMetadata(metaData)
	if err != nil {
		return nil, translateError(err)
	}
	cb, err := format.UnmarshalCodebook(cbData)
	if err != nil {
		return nil, translateError(err)
	}
	labels, k, err := format.UnmarshalLabels(labelData, m.Geometry().Count())
	if err != nil {
		return nil, translateError(err)
	}

	if cb.Len() != m.K || k != m.K {
		return nil, fmt.Errorf("%w: codebook has %d entries, labels expect %d, metadata %d",
			ErrSerializationFormat, cb.Len(), k, m.K)
	}
	if cb.Dim() != m.VectorLen {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFormat,
			&ErrDimensionMismatch{Expected: m.VectorLen, Actual: cb.Dim()})
	}

	return &Run{
		Base:     base,
		Metadata: m,
		Codebook: cb,
		Labels:   labels,
		Artifacts: []Artifact{
			{Name: names.Codebook, Size: len(cbData)},
			{Name: names.Labels, Size: len(labelData)},
			{Name: names.Meta, Size: len(metaData)},
		},
	}, nil
}

// Decompress loads the run stored under base and rebuilds the image.
func (p *Pipeline) Decompress(ctx context.Context, base string) (*raster.Image, error) {
	run, err := p.Load(ctx, base)
	if err != nil {
		return nil, err
	}
	return p.Decode(ctx, run)
}

// Decode rebuilds the image of a loaded run.
func (p *Pipeline) Decode(ctx context.Context, run *Run) (*raster.Image, error) {
	start := time.Now()
	g := run.Geometry()
	img, err := Decode(run.Codebook, run.Labels, g)
	p.opts.metricsCollector.RecordDecode(len(run.Labels), time.Since(start), err)
	p.opts.logger.WithBase(run.Base).LogDecode(ctx, g.Width, g.Height, err)
	return img, err
}

// Delete removes every artifact of base, including the text dump.
func (p *Pipeline) Delete(ctx context.Context, base string) error {
	if err := validateBase(base); err != nil {
		return err
	}
	return p.deleteAll(ctx, base)
}

// deleteAll removes the artifacts of base in reverse write order.
func (p *Pipeline) deleteAll(ctx context.Context, base string) error {
	names := format.ArtifactNames(base).All()
	var errs []error
	for i := len(names) - 1; i >= 0; i-- {
		if err := p.store.Delete(ctx, names[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Inspect lists the stored artifacts of base with their sizes, loads the run
// and reports codebook utilization.
func (p *Pipeline) Inspect(ctx context.Context, base string) (*Report, error) {
	run, err := p.Load(ctx, base)
	if err != nil {
		return nil, err
	}

	names, err := p.store.List(ctx, base+"_")
	if err != nil {
		return nil, err
	}
	own := make(map[string]bool)
	for _, n := range format.ArtifactNames(base).All() {
		own[n] = true
	}

	r := &Report{Run: run}
	for _, name := range names {
		if !own[name] {
			continue
		}
		data, err := p.store.Get(ctx, name)
		if err != nil {
			return nil, translateError(err)
		}
		r.Files = append(r.Files, Artifact{Name: name, Size: len(data)})
	}
	used := Utilization(run.Labels)
	r.Used = int(used.GetCardinality())
	return r, nil
}

// Report summarizes a stored run.
type Report struct {
	Run   *Run
	Files []Artifact
	Used  int // distinct codevectors referenced by the labels
}

func validateBase(base string) error {
	if base == "" {
		return errors.New("empty artifact base name")
	}
	return nil
}
