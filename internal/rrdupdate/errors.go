// Package rrdupdate implements the update pipeline: turning a stream of
// "<time>:<v1>:<v2>:..." argument lines into PDP accumulation, CDP rollup,
// and ring-buffer writes against a github.com/calvinalkan/rrdgo/pkg/rrdfile
// handle.
package rrdupdate

import "errors"

var (
	// ErrMalformedArg indicates an argument line had an unparseable time or
	// an unparseable GAUGE/ABSOLUTE value. A wrong field count is reported as
	// [ErrFieldCount].
	ErrMalformedArg = errors.New("rrdupdate: malformed argument")

	// ErrUnknownTemplateName indicates a template entry did not name a DS
	// present in the file.
	ErrUnknownTemplateName = errors.New("rrdupdate: unknown template ds name")

	// ErrDuplicateTemplateName indicates the same DS name appeared twice in
	// a template.
	ErrDuplicateTemplateName = errors.New("rrdupdate: duplicate template ds name")

	// ErrFieldCount indicates an argument's value count did not match the
	// template (or, with no template, the file's non-COMPUTE DS count).
	ErrFieldCount = errors.New("rrdupdate: wrong field count")

	// ErrBadCounterValue indicates a COUNTER/DERIVE value was not an
	// integer literal.
	ErrBadCounterValue = errors.New("rrdupdate: counter/derive value must be an integer")
)
