package metrics

import (
	"errors"
)

// Sentinel kinds for metrics errors.
var (
	ErrGather     = errors.New("metrics gather failed")
	ErrTextfile   = errors.New("metrics textfile write failed")
	ErrNoGatherer = errors.New("metrics gatherer is nil")
)
