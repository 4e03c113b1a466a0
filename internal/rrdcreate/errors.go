// Package rrdcreate implements the create pipeline: parsing "DS:" and
// "RRA:" specification tokens, validating them against the schema
// invariants, and initializing a new round-robin file through
// [github.com/calvinalkan/rrdgo/pkg/rrdfile].
package rrdcreate

import "errors"

var (
	// ErrMalformedSpec indicates a DS:/RRA: token did not have the
	// expected field count or an unparseable numeric field.
	ErrMalformedSpec = errors.New("rrdcreate: malformed spec")

	// ErrUnknownType indicates a DS type or CF name is not recognized.
	ErrUnknownType = errors.New("rrdcreate: unknown type")

	// ErrDuplicateName indicates two DS entries share a name.
	ErrDuplicateName = errors.New("rrdcreate: duplicate ds name")

	// ErrInvalidBounds indicates min >= max for a bounded DS.
	ErrInvalidBounds = errors.New("rrdcreate: min must be < max")

	// ErrNoDS indicates no DS: tokens were supplied.
	ErrNoDS = errors.New("rrdcreate: at least one DS required")

	// ErrNoRRA indicates no RRA: tokens were supplied.
	ErrNoRRA = errors.New("rrdcreate: at least one RRA required")
)
