package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vqcodec"
	"github.com/hupe1980/vqcodec/blobstore"
	"github.com/hupe1980/vqcodec/raster"
)

func newEvaluateCmd(a *app) *cobra.Command {
	var (
		f      codecFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "evaluate <image>",
		Short: "Compress in memory and report quality and compression ratio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.apply(cmd.Flags(), &a.cfg); err != nil {
				return err
			}
			if err := a.finish(); err != nil {
				return err
			}

			path := args[0]
			img, err := raster.Load(path, channels(a.cfg.Gray))
			if err != nil {
				return err
			}

			p := vqcodec.New(blobstore.NewMemoryStore(), a.options()...)
			base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			run, err := p.Compress(cmd.Context(), base, img, vqcodec.Params{
				BlockHeight: a.cfg.Block.Height,
				BlockWidth:  a.cfg.Block.Width,
				K:           a.cfg.K,
				Source:      filepath.Base(path),
			})
			if err != nil {
				return err
			}
			rec, err := p.Decode(cmd.Context(), run)
			if err != nil {
				return err
			}
			q, err := vqcodec.Measure(img, rec)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "image: %dx%dx%d\n", img.Width, img.Height, img.Channels)
			fmt.Fprintf(out, "block: %s k=%d\n", a.cfg.Block, a.cfg.K)
			fmt.Fprintf(out, "mse: %.4f\n", q.MSE)
			fmt.Fprintf(out, "psnr: %.2f dB\n", q.PSNR)
			fmt.Fprintf(out, "stored: %d bytes\n", run.StoredBytes())
			fmt.Fprintf(out, "ratio: %.2f\n", run.CompressionRatio())

			if output != "" {
				if err := raster.Save(output, rec); err != nil {
					return err
				}
				fmt.Fprintf(out, "wrote: %s\n", output)
			}
			return nil
		},
	}

	f.register(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "", "also write the reconstruction")
	return cmd
}
