package resource

import (
	"context"

	"github.com/hupe1980/vqcodec/blobstore"
)

// ThrottledStore wraps a blobstore.Store so that artifact bytes pass through
// the controller's IO limiter.
type ThrottledStore struct {
	blobstore.Store
	rc *Controller
}

// NewThrottledStore returns s unchanged when rc has no IO limit.
func NewThrottledStore(s blobstore.Store, rc *Controller) blobstore.Store {
	if rc == nil || rc.ioLimiter == nil {
		return s
	}
	return &ThrottledStore{Store: s, rc: rc}
}

// Get reads the object, then charges its size.
func (t *ThrottledStore) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := t.Store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := t.rc.AcquireIO(ctx, len(data)); err != nil {
		return nil, err
	}
	return data, nil
}

// Put charges the object's size, then writes it.
func (t *ThrottledStore) Put(ctx context.Context, name string, data []byte) error {
	if err := t.rc.AcquireIO(ctx, len(data)); err != nil {
		return err
	}
	return t.Store.Put(ctx, name, data)
}
