package ringlog

import "errors"

var (
	// ErrNotFound reports an offset outside the live contents of the log.
	// It means "no data available", not a fault.
	ErrNotFound = errors.New("ringlog: offset not found")
	// ErrInvalidIndex reports a record index at or beyond the live record count.
	ErrInvalidIndex = errors.New("ringlog: invalid record index")
	// ErrInvalidOffset reports a negative offset or an intra-record offset at
	// or beyond the record length.
	ErrInvalidOffset = errors.New("ringlog: invalid offset")
)
