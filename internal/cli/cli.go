// Package cli implements the pointadapt command-line interface.
package cli

import (
	"context"
	"fmt"

	"pointadapt/internal/config"
	"pointadapt/internal/dataset"
	"pointadapt/internal/logger"
	"pointadapt/internal/raster"
	"pointadapt/internal/raster/cvio"
	"pointadapt/internal/version"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// CLI holds state shared by every subcommand.
type CLI struct {
	configPath string
	datasetDir string
	verbose    bool

	cfg config.Config
}

// Execute builds the command tree and runs it.
func Execute(ctx context.Context) error {
	c := &CLI{}
	return c.RootCommand().ExecuteContext(ctx)
}

// RootCommand returns the root command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "pointadapt",
		Short:        "Build keypoint detector training tensors from pseudo-labelled images",
		Version:      version.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}
	root.SetVersionTemplate(version.String() + "\n")

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "YAML or TOML config file (defaults apply when empty)")
	root.PersistentFlags().StringVarP(&c.datasetDir, "dataset", "d", "", "override dataset_dir from the config")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(c.checkCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.versionCommand())
	return root
}

func (c *CLI) setup() error {
	initLog := logger.InitProduction
	if c.verbose {
		initLog = logger.InitDevelopment
	}
	if err := initLog(); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}

	cfg := config.Default()
	if c.configPath != "" {
		loaded, err := config.Load(c.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if c.datasetDir != "" {
		cfg.DatasetDir = c.datasetDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	logger.Log().Debug("configuration loaded",
		zap.String("path", c.configPath),
		zap.String("dataset_dir", cfg.DatasetDir),
		zap.Int("height", cfg.Height),
		zap.Int("width", cfg.Width),
		zap.Uint64("seed", cfg.Seed))
	return nil
}

func (c *CLI) loader() raster.Loader {
	if c.cfg.Loader == config.LoaderOpenCV {
		return cvio.Loader{}
	}
	return raster.NativeLoader{}
}

func (c *CLI) openDataset() (*dataset.Dataset, error) {
	if c.cfg.DatasetDir == "" {
		return nil, fmt.Errorf("%w: dataset_dir is empty", config.ErrInvalidOption)
	}
	return dataset.Open(c.cfg.DatasetDir, c.cfg.ImageExtensions, c.cfg.Limit, c.loader(), c.cfg.Height, c.cfg.Width)
}

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
