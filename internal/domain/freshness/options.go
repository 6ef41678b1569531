package freshness

import (
	"io/fs"

	"github.com/okian/podium/pkg/logger"
)

// Option applies a configuration option to the file cache.
type Option func(*fileCache)

// WithSuffix sets the sidecar file suffix (default ".hash").
func WithSuffix(suffix string) Option {
	return func(c *fileCache) {
		if suffix != "" {
			c.suffix = suffix
		}
	}
}

// WithFileMode sets the permission bits of committed records.
func WithFileMode(mode fs.FileMode) Option {
	return func(c *fileCache) {
		if mode != 0 {
			c.mode = mode
		}
	}
}

// WithLogger sets the logger used for cache diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(c *fileCache) {
		if l != nil {
			c.log = l
		}
	}
}
