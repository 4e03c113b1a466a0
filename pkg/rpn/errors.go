// Package rpn implements the reverse-polish expression engine used by
// COMPUTE data sources: compiling a comma-separated RPN expression into a
// Program, evaluating a Program against a set of known DS values, and
// packing/unpacking a Program to and from the ten 64-bit parameter slots a
// DS def carries on disk.
package rpn

import "errors"

var (
	// ErrSyntax indicates the expression text could not be tokenized: a
	// token is neither an operator, an in-range integer, nor a valid
	// identifier. A well-formed name that is not an operator is looked up as
	// a DS name and, if unknown, reported as [ErrUnknownData].
	ErrSyntax = errors.New("rpn: syntax error")

	// ErrUnknownData indicates an identifier did not match any known DS name.
	ErrUnknownData = errors.New("rpn: unknown data source")

	// ErrForbiddenOperator indicates a COMPUTE program referenced one of the
	// operators that invariant 5 excludes (TIME, LTIME, PREV, COUNT, TREND,
	// TRENDNAN, PREDICT, PREDICTSIGMA).
	ErrForbiddenOperator = errors.New("rpn: operator forbidden in COMPUTE context")

	// ErrBackwardReference indicates a COMPUTE program referenced a DS whose
	// index is not strictly lower than its own (invariant 6).
	ErrBackwardReference = errors.New("rpn: forward reference to higher-indexed DS")

	// ErrProgramTooLarge indicates the compiled program would not fit in the
	// ten 64-bit parameter slots (~26 node budget, 3 bytes/node).
	ErrProgramTooLarge = errors.New("rpn: program exceeds compact-storage budget")

	// ErrStackUnderflow indicates an operator consumed more stack entries
	// than were present.
	ErrStackUnderflow = errors.New("rpn: stack underflow")

	// ErrStackNotSingular indicates evaluation finished with something
	// other than exactly one value on the stack.
	ErrStackNotSingular = errors.New("rpn: program did not reduce to a single value")

	// ErrNotInGraphContext indicates TREND/TRENDNAN/PREDICT/PREDICTSIGMA
	// was evaluated outside of a graph CDEF context, which this engine
	// does not implement (see component scope notes).
	ErrNotInGraphContext = errors.New("rpn: operator only valid in graph context")

	// ErrInvalidDSIndex indicates a VARIABLE/PREV_OTHER node referenced a
	// DS index that does not exist.
	ErrInvalidDSIndex = errors.New("rpn: invalid data source index")
)
