package report

import (
	"io/fs"

	"github.com/okian/podium/pkg/logger"
)

// Option applies a configuration option to the Writer.
type Option func(*Writer)

// WithFileMode sets the permission bits of written reports.
func WithFileMode(mode fs.FileMode) Option {
	return func(w *Writer) {
		if mode != 0 {
			w.mode = mode
		}
	}
}

// WithLogger sets the writer's logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.log = l
		}
	}
}
