// Package rrdfetch implements the fetch pipeline: archive selection,
// cadence-aligned output windowing, and ring-wrap row materialization
// against a github.com/calvinalkan/rrdgo/pkg/rrdfile handle.
package rrdfetch

import "errors"

var (
	// ErrNoMatchingArchive indicates no RRA in the file has the requested
	// consolidation function.
	ErrNoMatchingArchive = errors.New("rrdfetch: no rra matches requested cf")

	// ErrMalformedTime indicates --start/--end could not be parsed.
	ErrMalformedTime = errors.New("rrdfetch: malformed time")

	// ErrInvalidRange indicates start is not strictly before end once both
	// are resolved.
	ErrInvalidRange = errors.New("rrdfetch: start must be before end")
)
