// Package timeparse implements the time-string grammar used throughout the
// engine: "N", epoch seconds, and a practical subset of the at-style
// grammar (relative offsets, start/end references, and common absolute
// forms). Unlike the reference implementation's strtok-based global
// parser state, every call gets its own [Parser] value, so concurrent
// parses never interfere with each other.
package timeparse

import "errors"

// ErrUnparsable indicates the input did not match any supported form.
var ErrUnparsable = errors.New("timeparse: unparsable time specification")

// ErrNoReference indicates "start" or "end" was used but the Parser was
// not given a reference value for it.
var ErrNoReference = errors.New("timeparse: start/end reference not set")
