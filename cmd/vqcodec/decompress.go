package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vqcodec/raster"
)

func newDecompressCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "decompress <base>",
		Short: "Rebuild an image from stored artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.finish(); err != nil {
				return err
			}
			p, err := a.pipeline(cmd.Context())
			if err != nil {
				return err
			}

			base := args[0]
			img, err := p.Decompress(cmd.Context(), base)
			if err != nil {
				return err
			}

			if output == "" {
				output = base + ".png"
			}
			if err := raster.Save(output, img); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s: %dx%dx%d\n", base, output, img.Width, img.Height, img.Channels)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output image (default: <base>.png)")
	return cmd
}
