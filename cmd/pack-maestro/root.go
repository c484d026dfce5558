package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	packer "github.com/tphakala/go-audio-packer"
	"github.com/tphakala/go-audio-packer/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	defaultDatasetDir = "./datasets/maestro/dataset_root"
	defaultWorkspace  = "./workspaces/instruments_separation"

	// Fixed output layout of this command.
	sampleRate  = 44100
	channels    = 2
	split       = "train"
	sourceType  = "piano"
	sourceGroup = "piano_solo"
)

// packFunc is the packaging entry point. Tests substitute a recorder.
type packFunc func(ctx context.Context, params packer.Params, opts packer.Options) (*packer.Report, error)

func newRootCmd(pack packFunc) *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "pack-maestro [dataset_dir] [workspace]",
		Short: "Pack MAESTRO piano recordings into HDF5 files",
		Long: `pack-maestro packs the MAESTRO training split into one HDF5 file per
recording, resampled to 44100 Hz stereo int16.

dataset_dir defaults to ` + defaultDatasetDir + `
workspace defaults to ` + defaultWorkspace + `

Files are written to <workspace>/hdf5s/piano_solo/sr=44100_ch=2/train.
Flags may also be set with ` + config.EnvPrefix + `_<FLAG> environment variables
or a YAML file passed with --config.`,
		Args:         cobra.MaximumNArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			datasetDir, workspace := resolveArgs(args)
			fmt.Fprintf(cmd.OutOrStdout(), "DATASET_DIR=%s\n", datasetDir)
			fmt.Fprintf(cmd.OutOrStdout(), "WORKSPACE=%s\n", workspace)

			settings, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			quality, err := packer.ParseQuality(settings.Quality)
			if err != nil {
				return err
			}

			logger, err := newLogger(settings.Verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			opts := packer.Options{
				Workers:      settings.Workers,
				Quality:      quality,
				SkipExisting: settings.SkipExisting,
				MetadataFile: settings.Metadata,
				Logger:       logger,
			}

			report, packErr := pack(cmd.Context(), buildParams(datasetDir, workspace), opts)
			if settings.Report != "" && report != nil {
				if err := report.WriteYAML(settings.Report); err != nil {
					return errors.Join(packErr, err)
				}
			}
			return packErr
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "YAML settings file")
	flags.Int(config.FlagName(config.KeyWorkers), 0, "recordings packed concurrently (0 = number of CPUs)")
	flags.String(config.FlagName(config.KeyQuality), config.Defaults().Quality, "resampling quality: low, medium, high or veryhigh")
	flags.Bool(config.FlagName(config.KeySkipExisting), false, "keep HDF5 files that already exist")
	flags.String(config.FlagName(config.KeyMetadata), "", "metadata CSV to use instead of <dataset_dir>/maestro-v*.csv")
	flags.BoolP(config.FlagName(config.KeyVerbose), "v", false, "log every recording")
	flags.String(config.FlagName(config.KeyReport), "", "write a YAML run report to this path")

	return cmd
}

// resolveArgs applies the positional defaults.
func resolveArgs(args []string) (datasetDir, workspace string) {
	datasetDir, workspace = defaultDatasetDir, defaultWorkspace
	if len(args) > 0 {
		datasetDir = args[0]
	}
	if len(args) > 1 {
		workspace = args[1]
	}
	return datasetDir, workspace
}

func buildParams(datasetDir, workspace string) packer.Params {
	return packer.Params{
		DatasetDir: datasetDir,
		Split:      split,
		SourceType: sourceType,
		HDF5sDir:   packer.HDF5sDir(workspace, sourceGroup, split, sampleRate, channels),
		SampleRate: sampleRate,
		Channels:   channels,
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
