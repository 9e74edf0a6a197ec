package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <base>",
		Short: "Show metadata, artifact sizes and codebook utilization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.finish(); err != nil {
				return err
			}
			p, err := a.pipeline(cmd.Context())
			if err != nil {
				return err
			}

			r, err := p.Inspect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			m := r.Run.Metadata

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "base:\t%s\n", r.Run.Base)
			if m.Source != "" {
				fmt.Fprintf(tw, "source:\t%s\n", m.Source)
			}
			fmt.Fprintf(tw, "image:\t%dx%d channels=%d\n", m.Width, m.Height, m.Channels)
			fmt.Fprintf(tw, "block:\t%dx%d dim=%d\n", m.BlockHeight, m.BlockWidth, m.VectorLen)
			fmt.Fprintf(tw, "codebook:\tk=%d used=%d\n", m.K, r.Used)
			fmt.Fprintf(tw, "compression:\t%s\n", m.Compression)
			fmt.Fprintf(tw, "ratio:\t%.2f\n", r.Run.CompressionRatio())
			for _, f := range r.Files {
				fmt.Fprintf(tw, "file:\t%s\t%d bytes\n", f.Name, f.Size)
			}
			return tw.Flush()
		},
	}
}
