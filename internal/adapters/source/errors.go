package source

import "errors"

// Sentinel errors.
var (
	// ErrLayout means the data tree lacks a required top-level directory.
	ErrLayout = errors.New("source: data layout incomplete")
	// ErrMissingInput means a per-event or per-period file does not exist.
	ErrMissingInput = errors.New("source: input file missing")
	// ErrEmptyInput means the file holds no records.
	ErrEmptyInput = errors.New("source: input file empty")
	// ErrUnreadableInput means the file could not be read or parsed.
	ErrUnreadableInput = errors.New("source: input file unreadable")
	// ErrMalformedRecord means one record lacks a required field or repeats
	// an entity already listed.
	ErrMalformedRecord = errors.New("source: malformed record")
)
