// Package resource governs the shared limits of a batch of codec jobs.
//
//   - Jobs: a weighted semaphore bounds how many images are processed at once.
//   - Memory: each job reserves its estimated working set before it starts.
//   - IO: a token bucket throttles artifact bytes moved through a store.
//
// A job that needs more memory than the whole budget fails fast with
// ErrMemoryLimitExceeded; smaller jobs wait until enough memory is released.
//
//	rc := resource.NewController(resource.Config{
//	    MaxJobs:          4,
//	    MemoryLimitBytes: 1 << 30,
//	})
//
//	release, err := rc.AcquireJob(ctx, resource.JobBytes(w, h, c, 4, 4, 256))
//	if err != nil {
//	    return err
//	}
//	defer release()
//
// All methods handle a nil Controller gracefully; they become no-ops.
package resource
