package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/born-ml/archbuild/internal/arch"
	"github.com/born-ml/archbuild/internal/backend/cpu"
	"github.com/born-ml/archbuild/internal/config"
	"github.com/born-ml/archbuild/internal/logging"
	"github.com/born-ml/archbuild/internal/nn"
	"github.com/born-ml/archbuild/internal/parallel"
)

// app carries the state shared by all commands of one invocation.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	logLevel string
	seed     string
	workers  string
	format   string
}

func newRootCmd() *cobra.Command {
	a := &app{logger: logging.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "archbuild",
		Short: "Build neural network modules from architecture descriptions",
		Long: `archbuild reads a nested [type, args] architecture description
from JSON or YAML and builds the module it describes.

"Sequential" takes a list of descriptions, "ResBlock" wraps a single
"nested" description as x + nested(x), and any other type name is a
layer from the registry (see "archbuild layers").`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&a.seed, "seed", "", "seed for parameter initialisation and random inputs")
	rootCmd.PersistentFlags().StringVar(&a.workers, "workers", "", "goroutines for convolution and pooling (0 = one per CPU)")
	rootCmd.PersistentFlags().StringVarP(&a.format, "format", "f", "", "description format (json, yaml); default by file extension")

	rootCmd.AddCommand(
		newLayersCmd(a),
		newBuildCmd(a),
		newRunCmd(a),
		newSaveCmd(a),
		newVersionCmd(),
	)

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		if err := cfg.SetLogLevel(a.logLevel); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("seed") {
		if err := cfg.SetSeed(a.seed); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("workers") {
		if err := cfg.SetWorkers(a.workers); err != nil {
			return err
		}
	}

	a.cfg = cfg
	a.logger = logging.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel)
	return nil
}

func (a *app) backend() *cpu.CPUBackend {
	return cpu.NewWithConfig(parallel.WithWorkers(a.cfg.Workers))
}

func (a *app) builder() *arch.Builder[*cpu.CPUBackend] {
	var opts []arch.Option
	if a.cfg.Seed != nil {
		opts = append(opts, arch.WithSeed(*a.cfg.Seed))
	}
	return arch.New(a.backend(), opts...)
}

// buildFile parses and builds the description stored at path.
func (a *app) buildFile(path string) (nn.Module[*cpu.CPUBackend], error) {
	format, err := arch.ParseFormat(a.format)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("building model", "path", path, "format", format)
	model, err := a.builder().BuildFile(path, format)
	if err != nil {
		return nil, err
	}
	a.logger.Info("model built", "path", path, "params", nn.NumParameters(model))
	return model, nil
}
