package main

import (
	"context"
	"fmt"

	"github.com/hupe1980/vqcodec"
	"github.com/hupe1980/vqcodec/blobstore"
	"github.com/hupe1980/vqcodec/blobstore/minio"
	"github.com/hupe1980/vqcodec/blobstore/s3"
	"github.com/hupe1980/vqcodec/internal/config"
	"github.com/hupe1980/vqcodec/internal/resource"
)

// openStore connects the configured backend.
func openStore(ctx context.Context, cfg config.Store) (blobstore.Store, error) {
	switch cfg.Backend {
	case config.BackendLocal:
		return blobstore.NewLocalStore(cfg.Dir, nil), nil
	case config.BackendS3:
		st, err := s3.New(ctx, cfg.Bucket,
			s3.WithPrefix(cfg.Prefix),
			s3.WithRegion(cfg.Region),
			s3.WithEndpoint(cfg.Endpoint),
			s3.WithPathStyle(cfg.PathStyle),
		)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.BackendMinIO:
		st, err := minio.New(minio.Config{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Secure:    cfg.Secure,
			Region:    cfg.Region,
			Bucket:    cfg.Bucket,
			Prefix:    cfg.Prefix,
		})
		if err != nil {
			return nil, err
		}
		if err := st.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// pipeline opens the configured store behind the IO limiter.
func (a *app) pipeline(ctx context.Context) (*vqcodec.Pipeline, error) {
	st, err := openStore(ctx, a.cfg.Store)
	if err != nil {
		return nil, err
	}
	return vqcodec.New(resource.NewThrottledStore(st, a.rc), a.options()...), nil
}
