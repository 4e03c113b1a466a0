// Package rrdfile implements the fixed-layout, mmap-backed binary file
// format that backs a round-robin time series database: the static header,
// DS/RRA definitions, live state, PDP/CDP prep areas, ring pointers, and the
// per-RRA value area, plus the I/O needed to create, open, lock, and
// durably mutate a file in that format.
//
// Callers classify errors with [errors.Is] against the sentinels below.
package rrdfile

import "errors"

var (
	// ErrCorrupt indicates the file's contents are structurally invalid:
	// short file, bad magic, or an invariant the header claims but the
	// file size / counters don't support.
	ErrCorrupt = errors.New("rrdfile: corrupt")

	// ErrWrongArchitecture indicates the float sentinel did not match,
	// meaning the file was written by a binary with a different floating
	// point representation.
	ErrWrongArchitecture = errors.New("rrdfile: wrong architecture")

	// ErrUnsupportedVersion indicates a version field greater than the
	// highest version this package understands.
	ErrUnsupportedVersion = errors.New("rrdfile: unsupported version")

	// ErrInvalidInput indicates a caller-supplied geometry or option is
	// invalid (e.g. pdp_step < 1, zero DS/RRA count).
	ErrInvalidInput = errors.New("rrdfile: invalid input")

	// ErrBusy indicates the write lock is held by another writer.
	ErrBusy = errors.New("rrdfile: busy")

	// ErrClosed indicates an operation was attempted on a closed File.
	ErrClosed = errors.New("rrdfile: closed")

	// ErrExists indicates Create was called against a path that already
	// exists.
	ErrExists = errors.New("rrdfile: exists")
)
