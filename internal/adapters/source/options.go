package source

import "github.com/okian/podium/pkg/logger"

// Option applies a configuration option to the Reader.
type Option func(*Reader)

// WithTopSegmentField sets the qualifying field whose presence marks a
// result as reaching the top segment (default "q3").
func WithTopSegmentField(field string) Option {
	return func(r *Reader) {
		if field != "" {
			r.topSegmentField = field
		}
	}
}

// WithLogger sets the logger used for reference data diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.log = l
		}
	}
}
