package service

import "errors"

// Sentinel errors.
var (
	// ErrPrecondition aborts a run before any output or cache record is touched.
	ErrPrecondition = errors.New("precondition failed")
	// ErrUnit marks the failure of one work unit; the run continues.
	ErrUnit = errors.New("unit failed")
	// ErrUnknownKind is returned for an unrecognised report kind.
	ErrUnknownKind = errors.New("unknown report kind")
)
