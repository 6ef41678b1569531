package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/config"
	"github.com/okian/podium/pkg/logger"
)

var errUnitsFailed = errors.New("some units failed")

// rootOptions holds the persistent flags.
type rootOptions struct {
	configPath string
	dataDir    string
	outputDir  string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "podium",
		Short:         "Build derived standings reports from an f1db data tree",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default $"+config.EnvConfig+")")
	pf.StringVar(&opts.dataDir, "data-dir", "", "root of the f1db data tree")
	pf.StringVar(&opts.outputDir, "output-dir", "", "directory receiving the reports")
	pf.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(newBuildCmd(opts), newWatchCmd(opts))
	return root
}

// configFile returns the config file in use, if any.
func (o *rootOptions) configFile() string {
	if o.configPath != "" {
		return o.configPath
	}
	return os.Getenv(config.EnvConfig)
}

// load layers the explicitly set flags over the loaded configuration.
func (o *rootOptions) load(ctx context.Context, flags *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(ctx, o.configPath)
	if err != nil {
		return nil, err
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = o.dataDir
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = o.outputDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initLogging(cfg *config.Config) error {
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithFilter(cfg.LogFilter)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return logger.SetLevelString(cfg.LogLevel)
}

// setup loads the configuration and initializes logging for a subcommand.
func (o *rootOptions) setup(cmd *cobra.Command, args []string) (*config.Config, []service.Kind, error) {
	kinds, err := service.ParseKinds(args)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := o.load(cmd.Context(), cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	if err := initLogging(cfg); err != nil {
		return nil, nil, err
	}
	return cfg, kinds, nil
}

func newBuildCmd(opts *rootOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "build [kinds...]",
		Short: "Rebuild the stale reports once",
		Long: "Rebuild the stale reports once. Kinds are history, qualifying, " +
			"second-driver and second-driver-races; none means all.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, kinds, err := opts.setup(cmd, args)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			svc := service.New(cfg, service.WithLogger(logger.Named("service")))
			sum, err := svc.Run(cmd.Context(), kinds)
			if err != nil {
				return err
			}
			if strict && sum.Failed > 0 {
				return fmt.Errorf("%w: %d of %d: %w", errUnitsFailed, sum.Failed, len(sum.Units), errors.Join(sum.Errors()...))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any unit fails")
	return cmd
}
