package kmeans

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"time"

	"github.com/hupe1980/vqcodec/codebook"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrTrainingDataInsufficient is returned when there are fewer training
	// vectors than requested codevectors.
	ErrTrainingDataInsufficient = errors.New("training data insufficient")

	// ErrInvalidTrainingData is returned when the flat training slice does not
	// hold a whole number of vectors.
	ErrInvalidTrainingData = errors.New("invalid training data")

	// ErrTimeout is returned when Config.TimeLimit elapses before convergence.
	ErrTimeout = errors.New("training time limit exceeded")
)

// Defaults applied by Config.withDefaults.
const (
	DefaultMaxIterations = 100
	DefaultThreshold     = 1e-4
	DefaultSplitEpsilon  = 1.0
)

// InitPolicy selects how the initial codebook is built.
type InitPolicy int

const (
	InitSplit InitPolicy = iota
	InitRandomSample
)

func (p InitPolicy) String() string {
	switch p {
	case InitSplit:
		return "split"
	case InitRandomSample:
		return "random"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// ParseInitPolicy parses "split" or "random".
func ParseInitPolicy(s string) (InitPolicy, error) {
	switch s {
	case "split", "":
		return InitSplit, nil
	case "random":
		return InitRandomSample, nil
	default:
		return 0, fmt.Errorf("unknown init policy %q", s)
	}
}

// Config controls a training run.
type Config struct {
	K             int
	MaxIterations int     // Lloyd passes per phase
	Threshold     float64 // relative distortion decrease that counts as converged
	Seed          int64
	Init          InitPolicy
	SplitEpsilon  float32 // perturbation amplitude for InitSplit
	Workers       int
	TimeLimit     time.Duration // 0 disables the limit
	Searcher      codebook.SearcherFactory
	Logger        *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.SplitEpsilon <= 0 {
		c.SplitEpsilon = DefaultSplitEpsilon
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Searcher == nil {
		c.Searcher = codebook.LinearFactory
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Result is the outcome of a training run.
type Result struct {
	Centroids   []float32 // K * dim
	Assignments []int     // nearest codevector per training vector
	Distortions []float64 // total distortion after every assignment pass
	Iterations  int
	Converged   bool
}

// Distortion returns the total distortion of the final codebook.
func (r *Result) Distortion() float64 {
	if len(r.Distortions) == 0 {
		return 0
	}
	return r.Distortions[len(r.Distortions)-1]
}

// Train learns cfg.K codevectors from vectors, a flat slice of n*dim samples.
// Either a complete Result or an error is returned.
func Train(ctx context.Context, vectors []float32, dim int, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()
	if cfg.K < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidK, cfg.K)
	}
	if dim <= 0 || len(vectors)%dim != 0 {
		return nil, fmt.Errorf("%w: %d samples with dim %d", ErrInvalidTrainingData, len(vectors), dim)
	}
	n := len(vectors) / dim
	if n < cfg.K {
		return nil, fmt.Errorf("%w: %d vectors for %d codevectors", ErrTrainingDataInsufficient, n, cfg.K)
	}

	t := &trainer{
		cfg:     cfg,
		vectors: vectors,
		dim:     dim,
		n:       n,
		assign:  make([]int, n),
		dists:   make([]float64, n),
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		res:     &Result{},
	}
	if cfg.TimeLimit > 0 {
		t.deadline = time.Now().Add(cfg.TimeLimit)
	}

	centroids, err := t.run(ctx)
	if err != nil {
		return nil, err
	}

	t.res.Centroids = centroids
	t.res.Assignments = t.assign
	cfg.Logger.DebugContext(ctx, "training completed",
		"k", cfg.K,
		"vectors", n,
		"iterations", t.res.Iterations,
		"distortion", t.res.Distortion(),
		"converged", t.res.Converged,
	)
	return t.res, nil
}

type trainer struct {
	cfg      Config
	vectors  []float32
	dim      int
	n        int
	assign   []int
	dists    []float64
	rng      *rand.Rand
	deadline time.Time
	res      *Result
	stale    bool // centroids changed since the last assignment pass
}

func (t *trainer) vector(i int) []float32 {
	return t.vectors[i*t.dim : (i+1)*t.dim]
}

func (t *trainer) run(ctx context.Context) ([]float32, error) {
	k := t.cfg.K
	if k == t.n {
		centroids := append([]float32(nil), t.vectors...)
		if err := t.pass(ctx, centroids, k); err != nil {
			return nil, err
		}
		t.res.Converged = true
		return centroids, nil
	}

	switch t.cfg.Init {
	case InitRandomSample:
		centroids := t.sampleInit()
		if err := t.lloyd(ctx, centroids, k); err != nil {
			return nil, err
		}
		return t.finish(ctx, centroids, k)
	case InitSplit:
		return t.splitRun(ctx)
	default:
		return nil, fmt.Errorf("unknown init policy %v", t.cfg.Init)
	}
}

// finish runs a last assignment pass when the iteration cap stopped a phase
// right after an update.
func (t *trainer) finish(ctx context.Context, centroids []float32, k int) ([]float32, error) {
	if t.stale {
		if err := t.pass(ctx, centroids, k); err != nil {
			return nil, err
		}
	}
	return centroids, nil
}

func (t *trainer) sampleInit() []float32 {
	picked := t.rng.Perm(t.n)[:t.cfg.K]
	sort.Ints(picked)

	centroids := make([]float32, t.cfg.K*t.dim)
	for j, idx := range picked {
		copy(centroids[j*t.dim:(j+1)*t.dim], t.vector(idx))
	}
	return centroids
}

func (t *trainer) splitRun(ctx context.Context) ([]float32, error) {
	dim := t.dim
	centroids := make([]float32, dim, t.cfg.K*dim)

	mean := make([]float64, dim)
	scratch := make([]float64, dim)
	for i := 0; i < t.n; i++ {
		widen(scratch, t.vector(i))
		floats.Add(mean, scratch)
	}
	floats.Scale(1/float64(t.n), mean)
	narrow(centroids, mean)

	k := 1
	if err := t.lloyd(ctx, centroids, k); err != nil {
		return nil, err
	}

	dir := make([]float32, dim)
	for k < t.cfg.K {
		if t.stale {
			if err := t.pass(ctx, centroids, k); err != nil {
				return nil, err
			}
		}

		m := min(k, t.cfg.K-k)
		for j := 0; j < m; j++ {
			t.splitDirection(centroids, j, dir)
			src := centroids[j*dim : (j+1)*dim]
			for d, v := range src {
				centroids = append(centroids, v+t.cfg.SplitEpsilon*dir[d])
			}
		}
		k += m
		t.stale = true

		t.cfg.Logger.DebugContext(ctx, "codebook split", "size", k)
		if err := t.lloyd(ctx, centroids, k); err != nil {
			return nil, err
		}
	}
	return t.finish(ctx, centroids, k)
}

// splitDirection writes into dir the unit vector from codevector j toward
// the farthest vector assigned to it (lowest index on ties). When every
// assigned vector coincides with the codevector a seeded random direction is
// used instead.
func (t *trainer) splitDirection(centroids []float32, j int, dir []float32) {
	far := -1
	farDist := 0.0
	for i := 0; i < t.n; i++ {
		if t.assign[i] == j && t.dists[i] > farDist {
			far, farDist = i, t.dists[i]
		}
	}

	if far < 0 {
		for d := range dir {
			dir[d] = 2*t.rng.Float32() - 1
		}
		return
	}

	c := centroids[j*t.dim : (j+1)*t.dim]
	v := t.vector(far)
	norm := math.Sqrt(farDist)
	for d := range dir {
		dir[d] = float32(float64(v[d]-c[d]) / norm)
	}
}

// lloyd alternates assignment and update passes until convergence or the
// iteration cap.
func (t *trainer) lloyd(ctx context.Context, centroids []float32, k int) error {
	prev := -1.0
	for iter := 0; iter < t.cfg.MaxIterations; iter++ {
		if err := t.pass(ctx, centroids, k); err != nil {
			return err
		}
		d := t.res.Distortion()
		if d == 0 || (prev > 0 && (prev-d)/prev < t.cfg.Threshold) {
			empty := t.emptyClusters(k)
			if len(empty) == 0 {
				t.res.Converged = true
				return nil
			}
			t.reseed(centroids, empty)
			t.stale = true
			if d == 0 {
				t.res.Converged = true
				return nil
			}
			prev = d
			continue
		}
		prev = d
		t.update(centroids, k)
	}
	t.res.Converged = false
	return nil
}

func (t *trainer) emptyClusters(k int) []int {
	counts := make([]int, k)
	for _, c := range t.assign {
		counts[c]++
	}
	var empty []int
	for j, n := range counts {
		if n == 0 {
			empty = append(empty, j)
		}
	}
	return empty
}

func (t *trainer) checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !t.deadline.IsZero() && time.Now().After(t.deadline) {
		return fmt.Errorf("%w after %d iterations", ErrTimeout, t.res.Iterations)
	}
	return nil
}

// pass assigns every vector to its nearest codevector and records the total
// distortion. Workers only write their own slice ranges.
func (t *trainer) pass(ctx context.Context, centroids []float32, k int) error {
	if err := t.checkpoint(ctx); err != nil {
		return err
	}

	searcher := t.cfg.Searcher(centroids[:k*t.dim], t.dim)
	workers := min(t.cfg.Workers, t.n)
	chunk := (t.n + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < t.n; start += chunk {
		end := min(start+chunk, t.n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if (i-start)&1023 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				t.assign[i], t.dists[i] = searcher.Nearest(t.vector(i))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Summed in index order so the total does not depend on the partitioning.
	var total float64
	for _, d := range t.dists {
		total += d
	}

	t.res.Distortions = append(t.res.Distortions, total)
	t.res.Iterations++
	t.stale = false
	t.cfg.Logger.DebugContext(ctx, "assignment pass",
		"iteration", t.res.Iterations,
		"k", k,
		"distortion", total,
	)
	return nil
}

// update recomputes every codevector as the mean of its assigned vectors and
// reseeds empty ones.
func (t *trainer) update(centroids []float32, k int) {
	dim := t.dim
	sums := make([]float64, k*dim)
	counts := make([]int, k)
	scratch := make([]float64, dim)

	for i := 0; i < t.n; i++ {
		c := t.assign[i]
		widen(scratch, t.vector(i))
		floats.Add(sums[c*dim:(c+1)*dim], scratch)
		counts[c]++
	}

	var empty []int
	for j := 0; j < k; j++ {
		if counts[j] == 0 {
			empty = append(empty, j)
			continue
		}
		row := sums[j*dim : (j+1)*dim]
		floats.Scale(1/float64(counts[j]), row)
		narrow(centroids[j*dim:(j+1)*dim], row)
	}
	t.reseed(centroids, empty)
	t.stale = true
}

// reseed moves every empty codevector onto the vector farthest from its own
// codevector, lowest vector index first on ties. A vector seeds at most one
// codevector per update.
func (t *trainer) reseed(centroids []float32, empty []int) {
	if len(empty) == 0 {
		return
	}
	used := make(map[int]struct{}, len(empty))
	for _, j := range empty {
		far := -1
		farDist := -1.0
		for i := 0; i < t.n; i++ {
			if _, ok := used[i]; ok {
				continue
			}
			if t.dists[i] > farDist {
				farDist = t.dists[i]
				far = i
			}
		}
		if far < 0 {
			return
		}
		used[far] = struct{}{}
		copy(centroids[j*t.dim:(j+1)*t.dim], t.vector(far))
	}
}

func widen(dst []float64, src []float32) {
	for i, v := range src {
		dst[i] = float64(v)
	}
}

func narrow(dst []float32, src []float64) {
	for i, v := range src {
		dst[i] = float32(v)
	}
}
