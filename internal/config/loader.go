package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables.
const (
	EnvPrefix = "PODIUM_"
	EnvConfig = EnvPrefix + "CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) from path, or PODIUM_CONFIG when path is empty
//  3. env (prefix PODIUM_, "__" separates nested keys)
//
// When a file is used, relative paths are resolved against its directory.
func Load(_ context.Context, path string) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// PODIUM_DATA_DIR -> data_dir, PODIUM_HISTORY__TIE_BREAK -> history.tie_break
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
		cfg.Resolve(filepath.Dir(abs))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Points is the content of a points file.
type Points struct {
	// PerPosition maps a stringified 1-based rank to its points.
	PerPosition map[string]string `koanf:"points_per_position"`

	// Periods lists the seasons of the history report, in column order.
	Periods []string `koanf:"periods"`
}

// LoadPoints reads a points file. JSON files are accepted as YAML.
func LoadPoints(_ context.Context, path string) (*Points, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadPoints, path, err)
	}

	var p Points
	if err := k.UnmarshalWithConf("", &p, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadPoints, path, err)
	}
	if len(p.PerPosition) == 0 {
		return nil, fmt.Errorf("%w: %s: points_per_position is empty", ErrLoadPoints, path)
	}
	for i, period := range p.Periods {
		p.Periods[i] = strings.TrimSpace(period)
	}
	return &p, nil
}
