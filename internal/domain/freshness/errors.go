package freshness

import "errors"

// Sentinel errors.
var (
	ErrMalformedRecord = errors.New("freshness: malformed cache record")
	ErrCommit          = errors.New("freshness: commit failed")
	ErrInvalidate      = errors.New("freshness: invalidate failed")
)
