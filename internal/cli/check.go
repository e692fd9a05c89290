package cli

import (
	"fmt"

	"pointadapt/internal/dataset"
	"pointadapt/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (c *CLI) checkCommand() *cobra.Command {
	var loadPoints bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify that every image has a matching pseudo-label file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := c.openDataset()
			if err != nil {
				return err
			}
			entries := ds.Entries()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d image/point pairs in %s\n", len(entries), c.cfg.DatasetDir)
			if len(entries) > 0 {
				fmt.Fprintf(out, "first: %s\nlast:  %s\n", entries[0].Stem, entries[len(entries)-1].Stem)
			}
			if !loadPoints {
				return nil
			}

			var total, outside int
			for _, e := range entries {
				pts, err := dataset.LoadPoints(e.PointPath)
				if err != nil {
					return err
				}
				total += len(pts)
				for _, p := range pts {
					if !p.InFrame(c.cfg.Height, c.cfg.Width) {
						outside++
					}
				}
			}
			logger.Log().Info("points checked", zap.Int("points", total), zap.Int("outside_frame", outside))
			fmt.Fprintf(out, "%d keypoints, %d outside the %dx%d frame\n", total, outside, c.cfg.Height, c.cfg.Width)
			return nil
		},
	}
	cmd.Flags().BoolVar(&loadPoints, "points", false, "also load every point file and count keypoints")
	return cmd
}
