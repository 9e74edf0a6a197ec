package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when a job needs more memory than the
// configured budget.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Config holds resource limits.
type Config struct {
	// MaxJobs is the maximum number of concurrent jobs.
	// If 0, defaults to 1.
	MaxJobs int64

	// MemoryLimitBytes is the budget for the estimated working set of all
	// running jobs. If 0, memory is only tracked.
	MemoryLimitBytes int64

	// IOLimitBytesPerSec throttles artifact IO. If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages job slots, memory and IO.
type Controller struct {
	cfg Config

	jobSem *semaphore.Weighted

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64
	running atomic.Int64

	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxJobs <= 0 {
		cfg.MaxJobs = 1
	}

	c := &Controller{
		cfg:    cfg,
		jobSem: semaphore.NewWeighted(cfg.MaxJobs),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireJob blocks until a job slot and memoryBytes of budget are
// available. The returned function releases both and must be called exactly
// once.
func (c *Controller) AcquireJob(ctx context.Context, memoryBytes int64) (func(), error) {
	if c == nil {
		return func() {}, nil
	}
	if memoryBytes < 0 {
		memoryBytes = 0
	}
	if c.memSem != nil && memoryBytes > c.cfg.MemoryLimitBytes {
		return nil, ErrMemoryLimitExceeded
	}

	if err := c.jobSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if c.memSem != nil && memoryBytes > 0 {
		if err := c.memSem.Acquire(ctx, memoryBytes); err != nil {
			c.jobSem.Release(1)
			return nil, err
		}
	}
	c.memUsed.Add(memoryBytes)
	c.running.Add(1)

	var once atomic.Bool
	return func() {
		if !once.CompareAndSwap(false, true) {
			return
		}
		c.running.Add(-1)
		c.memUsed.Add(-memoryBytes)
		if c.memSem != nil && memoryBytes > 0 {
			c.memSem.Release(memoryBytes)
		}
		c.jobSem.Release(1)
	}, nil
}

// TryAcquireJob is the non-blocking variant of AcquireJob. It reports false
// when no slot or not enough memory is free.
func (c *Controller) TryAcquireJob(memoryBytes int64) (func(), bool) {
	if c == nil {
		return func() {}, true
	}
	if !c.jobSem.TryAcquire(1) {
		return nil, false
	}
	if c.memSem != nil && memoryBytes > 0 && !c.memSem.TryAcquire(memoryBytes) {
		c.jobSem.Release(1)
		return nil, false
	}
	c.memUsed.Add(memoryBytes)
	c.running.Add(1)

	var once atomic.Bool
	return func() {
		if !once.CompareAndSwap(false, true) {
			return
		}
		c.running.Add(-1)
		c.memUsed.Add(-memoryBytes)
		if c.memSem != nil && memoryBytes > 0 {
			c.memSem.Release(memoryBytes)
		}
		c.jobSem.Release(1)
	}, true
}

// MemoryUsage returns the memory reserved by running jobs.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryLimit returns the configured memory limit in bytes (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// Running returns the number of jobs holding a slot.
func (c *Controller) Running() int {
	if c == nil {
		return 0
	}
	return int(c.running.Load())
}

// AcquireIO waits until the IO limit allows n bytes. Requests larger than
// the bucket are split into bucket-sized waits.
func (c *Controller) AcquireIO(ctx context.Context, n int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for n > 0 {
		chunk := min(n, burst)
		if err := c.ioLimiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

// JobBytes estimates the working set of compressing a width x height image
// with the given block shape and codebook size: the pixels, the float32
// block vectors, one label per block and the codebook.
func JobBytes(width, height, channels, blockHeight, blockWidth, k int) int64 {
	if width <= 0 || height <= 0 || channels <= 0 || blockHeight <= 0 || blockWidth <= 0 {
		return 0
	}
	rows := (height + blockHeight - 1) / blockHeight
	cols := (width + blockWidth - 1) / blockWidth
	blocks := int64(rows * cols)
	dim := int64(blockHeight * blockWidth * channels)

	pix := int64(width*height*channels) * 2 // input and reconstruction
	vectors := blocks * dim * 4
	labels := blocks * 4
	cb := int64(max(k, 0)) * dim * 8 // centroids plus float64 sums
	return pix + vectors + labels + cb
}
