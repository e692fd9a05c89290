package cli

import (
	"fmt"

	"pointadapt/internal/logger"
	"pointadapt/internal/pipeline"
	"pointadapt/internal/preview"
	"pointadapt/internal/raster/cvio"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (c *CLI) previewCommand() *cobra.Command {
	var (
		index   int
		outPath string
		augment bool
		opencv  bool
		scale   float64
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render one training sample with its keypoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := c.openDataset()
			if err != nil {
				return err
			}
			item, err := ds.Item(index)
			if err != nil {
				return err
			}

			cfg := c.cfg
			if augment {
				cfg.DoAugmentation = true
				cfg.AugmentationProbability = 1
			}
			asm, err := pipeline.NewAssembler(cfg, pipeline.WithLogger(logger.Log()))
			if err != nil {
				return err
			}
			sample, err := asm.Train(item, pipeline.NewRand(cfg.Seed, index))
			if err != nil {
				return err
			}

			if opencv {
				err = cvio.WriteKeypoints(outPath, sample.Image, sample.Points)
			} else {
				opts := preview.DefaultOptions()
				opts.Scale = scale
				err = preview.SavePNG(outPath, sample.Image, sample.Points, sample.Validity, opts)
			}
			if err != nil {
				return err
			}

			logger.Log().Info("preview written",
				zap.String("stem", sample.Stem),
				zap.Bool("augmented", sample.Augmented),
				zap.Int("points", len(sample.Points)),
				zap.String("path", outPath))
			fmt.Fprintln(cmd.OutOrStdout(), outPath)
			return nil
		},
	}
	cmd.Flags().IntVarP(&index, "index", "i", 0, "sample index")
	cmd.Flags().StringVarP(&outPath, "out", "o", "preview.png", "output image")
	cmd.Flags().BoolVar(&augment, "augment", false, "always apply augmentation")
	cmd.Flags().BoolVar(&opencv, "opencv", false, "draw with OpenCV instead of the built-in renderer")
	cmd.Flags().Float64Var(&scale, "scale", preview.DefaultOptions().Scale, "output scale factor")
	return cmd
}
