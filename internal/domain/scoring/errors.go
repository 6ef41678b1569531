package scoring

import "errors"

// Sentinel errors.
var (
	ErrEmptyPointTable   = errors.New("scoring: point table is empty")
	ErrInvalidPointTable = errors.New("scoring: invalid point table")
)
