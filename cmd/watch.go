package main

import (
	"context"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/config"
	"github.com/okian/podium/pkg/logger"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [kinds...]",
		Short: "Rebuild the stale reports whenever the data tree or configuration changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, kinds, err := opts.setup(cmd, args)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			w := &watcher{opts: opts, cmd: cmd, cfg: cfg, kinds: kinds, log: logger.Named("watch")}
			ctx := cmd.Context()
			w.config = w.configTarget(ctx)
			w.run(ctx)

			return config.Watch(ctx, w.targets(), w.onChange)
		},
	}
}

// watcher re-runs the build serially on every debounced change.
type watcher struct {
	opts  *rootOptions
	cmd   *cobra.Command
	cfg   *config.Config
	kinds []service.Kind
	log   logger.Logger

	// config is the absolute path of the config file, empty when there is
	// none or it could not be resolved.
	config string
}

// configTarget resolves the config file once so change events, which carry
// absolute paths, can be matched against it.
func (w *watcher) configTarget(ctx context.Context) string {
	p := w.opts.configFile()
	if p == "" {
		return ""
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		w.log.Warn(ctx, "config path not resolved; reload on change disabled", logger.String("config", p), logger.Error(err))
		return ""
	}
	return abs
}

// targets lists what is watched. They are fixed when watching starts; a
// config change that moves the data or output directory needs a restart.
func (w *watcher) targets() config.WatchTargets {
	files := []string{
		w.cfg.History.PointsFile,
		w.cfg.Qualifying.PointsFile,
		w.cfg.SecondDriver.PointsFile,
	}
	if w.config != "" {
		files = append(files, w.config)
	}
	ignore := []string{w.cfg.OutputDir}
	if w.cfg.MetricsFile != "" {
		ignore = append(ignore, w.cfg.MetricsFile)
	}
	return config.WatchTargets{
		Files:    lo.Uniq(lo.Compact(files)),
		Dirs:     []string{w.cfg.DataDir},
		Ignore:   ignore,
		Debounce: w.cfg.WatchDebounce,
	}
}

func (w *watcher) onChange(ctx context.Context, changed []string) {
	w.log.Info(ctx, "change detected", logger.Int("paths", len(changed)), logger.String("first", changed[0]))

	if w.config != "" && lo.Contains(changed, w.config) {
		cfg, err := w.opts.load(ctx, w.cmd.Flags())
		if err != nil {
			w.log.Error(ctx, "config reload failed; keeping previous config", logger.Error(err))
		} else {
			w.cfg = cfg
			if err := logger.SetLevelString(cfg.LogLevel); err != nil {
				w.log.Warn(ctx, "invalid log_level", logger.String("log_level", cfg.LogLevel), logger.Error(err))
			}
			w.log.Info(ctx, "config reloaded")
		}
	}
	w.run(ctx)
}

// run performs one build. Errors are logged; the next change retries.
func (w *watcher) run(ctx context.Context) {
	svc := service.New(w.cfg, service.WithLogger(logger.Named("service")))
	if _, err := svc.Run(ctx, w.kinds); err != nil {
		w.log.Error(ctx, "build failed", logger.Error(err))
	}
}
