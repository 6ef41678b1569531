package report

import "errors"

// ErrWrite wraps every failure to produce a report file.
var ErrWrite = errors.New("report: write failed")
