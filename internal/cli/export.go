package cli

import (
	"context"
	"fmt"

	"pointadapt/internal/export"
	"pointadapt/internal/logger"
	"pointadapt/internal/monitor"
	"pointadapt/internal/pipeline"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (c *CLI) exportCommand() *cobra.Command {
	var (
		outDir      string
		mode        string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Assemble every sample and write .npy tensors plus a manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if mode != pipeline.ModeTrain && mode != pipeline.ModeValidation {
				return fmt.Errorf("unknown mode %q (want %s or %s)", mode, pipeline.ModeTrain, pipeline.ModeValidation)
			}
			return c.runExport(cmd.Context(), outDir, mode, metricsAddr)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "export", "output directory")
	cmd.Flags().StringVar(&mode, "mode", pipeline.ModeTrain, "train or validation")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while exporting")
	return cmd
}

func (c *CLI) runExport(ctx context.Context, outDir, mode, metricsAddr string) error {
	log := logger.Log()

	ds, err := c.openDataset()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	metrics := pipeline.NewMetrics(registry)

	if metricsAddr != "" {
		mon, err := monitor.New(registry, log)
		if err != nil {
			return err
		}
		defer serveMetrics(ctx, mon, metricsAddr, log)()
	}

	asm, err := pipeline.NewAssembler(c.cfg, pipeline.WithLogger(log), pipeline.WithMetrics(metrics))
	if err != nil {
		return err
	}
	writer, err := export.NewWriter(outDir, mode)
	if err != nil {
		return err
	}

	log.Info("export started",
		zap.String("mode", mode),
		zap.Int("samples", ds.Len()),
		zap.Int("workers", c.cfg.Workers),
		zap.String("out", outDir))

	runner := pipeline.NewRunner(asm)
	var report pipeline.Report
	if mode == pipeline.ModeTrain {
		report, err = runner.Train(ctx, ds, writer.WriteTrain)
	} else {
		report, err = runner.Validate(ctx, ds, writer.WriteVal)
	}
	if err != nil {
		return err
	}

	manifest, err := writer.Close(c.cfg, report)
	if err != nil {
		return err
	}
	log.Info("export finished",
		zap.String("run_id", manifest.RunID),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", len(report.Failures)))
	return nil
}

// serveMetrics runs mon in the background. The returned func stops it and
// waits until the server has shut down.
func serveMetrics(ctx context.Context, mon *monitor.Server, addr string, log *zap.Logger) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := mon.ListenAndServe(ctx, addr); err != nil {
			log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
