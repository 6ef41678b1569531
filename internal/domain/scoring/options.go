package scoring

// Option applies a configuration option to a DirectPositionRule.
type Option func(*DirectPositionRule)

// WithRecordedPoints uses the points recorded in the source when present,
// falling back to the table.
func WithRecordedPoints(enabled bool) Option {
	return func(r *DirectPositionRule) {
		r.recorded = enabled
	}
}

// WithParticipation emits explicit zero awards for entities present in the
// classification without a numeric position.
func WithParticipation(enabled bool) Option {
	return func(r *DirectPositionRule) {
		r.participation = enabled
	}
}
