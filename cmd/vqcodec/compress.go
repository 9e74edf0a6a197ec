package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vqcodec"
	"github.com/hupe1980/vqcodec/internal/resource"
	"github.com/hupe1980/vqcodec/raster"
)

func newCompressCmd(a *app) *cobra.Command {
	var (
		f        codecFlags
		parallel int
		name     string
	)

	cmd := &cobra.Command{
		Use:   "compress <image>...",
		Short: "Train a codebook per image and store the artifacts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.apply(cmd.Flags(), &a.cfg); err != nil {
				return err
			}
			if cmd.Flags().Changed("parallel") {
				a.cfg.Parallel = parallel
			}
			if err := a.finish(); err != nil {
				return err
			}
			if name != "" && len(args) > 1 {
				return fmt.Errorf("--name needs exactly one input, got %d", len(args))
			}

			bases, err := baseNames(args, name)
			if err != nil {
				return err
			}

			p, err := a.pipeline(cmd.Context())
			if err != nil {
				return err
			}

			runs := make([]*vqcodec.Run, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(a.cfg.Parallel)
			for i, path := range args {
				g.Go(func() error {
					img, err := raster.Load(path, channels(a.cfg.Gray))
					if err != nil {
						return err
					}

					release, err := a.rc.AcquireJob(ctx, resource.JobBytes(
						img.Width, img.Height, img.Channels, a.cfg.Block.Height, a.cfg.Block.Width, a.cfg.K))
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					defer release()

					run, err := p.Compress(ctx, bases[i], img, vqcodec.Params{
						BlockHeight: a.cfg.Block.Height,
						BlockWidth:  a.cfg.Block.Width,
						K:           a.cfg.K,
						Source:      filepath.Base(path),
					})
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					runs[i] = run
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, run := range runs {
				geo := run.Geometry()
				fmt.Fprintf(out, "%s -> %s: %dx%dx%d, %d blocks, k=%d, %d iterations, distortion %.2f, ratio %.2f\n",
					args[i], run.Base, geo.Width, geo.Height, geo.Channels, geo.Count(), run.Codebook.Len(),
					run.Train.Iterations, run.Train.Distortion(), run.CompressionRatio())
			}
			return nil
		},
	}

	f.register(cmd.Flags())
	cmd.Flags().IntVar(&parallel, "parallel", 1, "images compressed concurrently")
	cmd.Flags().StringVar(&name, "name", "", "artifact base name (default: input file name without extension)")
	return cmd
}

// baseNames derives one artifact base per input and rejects collisions.
func baseNames(paths []string, name string) ([]string, error) {
	if name != "" {
		return []string{name}, nil
	}
	bases := make([]string, len(paths))
	seen := make(map[string]string, len(paths))
	for i, path := range paths {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if prev, ok := seen[base]; ok {
			return nil, fmt.Errorf("%s and %s share the artifact name %q", prev, path, base)
		}
		seen[base] = path
		bases[i] = base
	}
	return bases, nil
}

func channels(gray bool) int {
	if gray {
		return raster.Gray
	}
	return 0
}
