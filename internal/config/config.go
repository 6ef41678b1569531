// Package config defines podium configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loaders accept context.Context as the first parameter.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/standings"
)

// Points sources for the history report.
const (
	PointsFromTable    = "table"
	PointsFromRecorded = "recorded"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects "console" or "json" log encoding.
	LogFormat string `koanf:"log_format"`

	// LogFilter holds optional zapfilter rules, e.g. "debug+:freshness info+:*".
	LogFilter string `koanf:"log_filter"`

	// DataDir is the root of the f1db data tree.
	DataDir string `koanf:"data_dir"`

	// OutputDir receives the CSV reports and their sidecars.
	OutputDir string `koanf:"output_dir"`

	// MetricsFile, when set, receives a Prometheus textfile after every run.
	MetricsFile string `koanf:"metrics_file"`

	// LogicIdentifier is the file whose content stands for the build logic.
	// Empty means the running executable.
	LogicIdentifier string `koanf:"logic_identifier"`

	// WatchDebounce is the quiet period after a change before watch mode rebuilds.
	WatchDebounce time.Duration `koanf:"watch_debounce"`

	History      HistoryConfig      `koanf:"history"`
	Qualifying   QualifyingConfig   `koanf:"qualifying"`
	SecondDriver SecondDriverConfig `koanf:"second_driver"`
}

// ReportConfig holds the settings shared by every report kind.
type ReportConfig struct {
	// Enabled turns the report on or off.
	Enabled bool `koanf:"enabled"`

	// PointsFile is a JSON or YAML file with points_per_position (and periods).
	PointsFile string `koanf:"points_file"`

	// ColumnOrder is "appearance" or "lexical".
	ColumnOrder string `koanf:"column_order"`

	// TieBreak is "insertion" or "entity".
	TieBreak string `koanf:"tie_break"`

	// LogicVersion must change whenever the report's scoring semantics change.
	LogicVersion string `koanf:"logic_version"`
}

// HistoryConfig configures the multi-season driver history report.
type HistoryConfig struct {
	ReportConfig `koanf:",squash"`

	// PointsSource is "table" (points file by final position) or "recorded".
	PointsSource string `koanf:"points_source"`
}

// QualifyingConfig configures the qualifying report.
type QualifyingConfig struct {
	ReportConfig `koanf:",squash"`

	// TopSegmentField names the record field marking the top segment.
	TopSegmentField string `koanf:"top_segment_field"`

	// SessionOverrides maps "<year>/<race-dir>" to the session scored instead
	// of qualifying, e.g. "2021/10-great-britain": "sprint-qualifying".
	SessionOverrides map[string]string `koanf:"session_overrides"`
}

// SecondDriverConfig configures both second driver reports.
type SecondDriverConfig struct {
	ReportConfig `koanf:",squash"`

	// IncludeSprints also scores sprint races as their own columns.
	IncludeSprints bool `koanf:"include_sprints"`

	// Detail also writes the per-race detail report.
	Detail bool `koanf:"detail"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		LogFormat:     "console",
		DataDir:       "data/f1db/src/data",
		OutputDir:     "docs/data",
		WatchDebounce: 500 * time.Millisecond,
		History: HistoryConfig{
			ReportConfig: ReportConfig{
				Enabled:      true,
				PointsFile:   "config/history-points.json",
				ColumnOrder:  string(standings.ColumnAppearance),
				TieBreak:     string(standings.TieBreakInsertion),
				LogicVersion: "history/1",
			},
			PointsSource: PointsFromTable,
		},
		Qualifying: QualifyingConfig{
			ReportConfig: ReportConfig{
				Enabled:      true,
				PointsFile:   "config/qualifying-points.json",
				ColumnOrder:  string(standings.ColumnAppearance),
				TieBreak:     string(standings.TieBreakInsertion),
				LogicVersion: "qualifying/1",
			},
			TopSegmentField:  "q3",
			SessionOverrides: map[string]string{},
		},
		SecondDriver: SecondDriverConfig{
			ReportConfig: ReportConfig{
				Enabled:      true,
				PointsFile:   "config/second-driver-points.json",
				ColumnOrder:  string(standings.ColumnAppearance),
				TieBreak:     string(standings.TieBreakInsertion),
				LogicVersion: "second-driver/2",
			},
			IncludeSprints: false,
			Detail:         true,
		},
	}
}

// Validate checks the configuration for values no run could use.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch c.LogFormat {
	case "console", "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("%w: output_dir must not be empty", ErrInvalidConfig)
	}
	if c.WatchDebounce < 0 {
		return fmt.Errorf("%w: watch_debounce must not be negative", ErrInvalidConfig)
	}

	reports := map[string]ReportConfig{
		"history":       c.History.ReportConfig,
		"qualifying":    c.Qualifying.ReportConfig,
		"second_driver": c.SecondDriver.ReportConfig,
	}
	for name, r := range reports {
		if err := r.validate(name); err != nil {
			return err
		}
	}

	switch c.History.PointsSource {
	case PointsFromTable, PointsFromRecorded:
	default:
		return fmt.Errorf("%w: history.points_source %q", ErrInvalidConfig, c.History.PointsSource)
	}

	for key, session := range c.Qualifying.SessionOverrides {
		year, race, ok := strings.Cut(key, "/")
		if !ok || year == "" || race == "" {
			return fmt.Errorf("%w: qualifying.session_overrides key %q is not <year>/<race>", ErrInvalidConfig, key)
		}
		if _, ok := model.ParseSession(session); !ok {
			return fmt.Errorf("%w: qualifying.session_overrides[%s] unknown session %q", ErrInvalidConfig, key, session)
		}
	}
	return nil
}

func (r ReportConfig) validate(name string) error {
	if !r.Enabled {
		return nil
	}
	if strings.TrimSpace(r.PointsFile) == "" {
		return fmt.Errorf("%w: %s.points_file must not be empty", ErrInvalidConfig, name)
	}
	if strings.TrimSpace(r.LogicVersion) == "" {
		return fmt.Errorf("%w: %s.logic_version must not be empty", ErrInvalidConfig, name)
	}
	if _, err := standings.ParseColumnOrder(r.ColumnOrder); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, name, err)
	}
	if _, err := standings.ParseTieBreak(r.TieBreak); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, name, err)
	}
	return nil
}

// Override returns the session scored for a race in place of qualifying.
func (q QualifyingConfig) Override(year, race string) (model.Session, bool) {
	v, ok := q.SessionOverrides[year+"/"+race]
	if !ok {
		return "", false
	}
	return model.ParseSession(v)
}

// Resolve makes relative paths absolute against base, typically the
// directory of the config file.
func (c *Config) Resolve(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.DataDir = abs(c.DataDir)
	c.OutputDir = abs(c.OutputDir)
	c.MetricsFile = abs(c.MetricsFile)
	c.LogicIdentifier = abs(c.LogicIdentifier)
	c.History.PointsFile = abs(c.History.PointsFile)
	c.Qualifying.PointsFile = abs(c.Qualifying.PointsFile)
	c.SecondDriver.PointsFile = abs(c.SecondDriver.PointsFile)
}
