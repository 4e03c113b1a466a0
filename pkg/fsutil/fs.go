// Package fsutil provides the filesystem primitives the round-robin file
// layer depends on: preallocating a file to an exact size (rrdfile.Create
// uses this on a scratch file to check for free space before writing the
// real one), and the single advisory writer lock held by every
// rrdfile.OpenWriter handle, including the handle rrdfile.Create returns.
//
// The round-robin file model has exactly one lock per file, held only by
// writers for the duration of their handle — readers map the file and
// never flock it (see pkg/rrdfile's doc comment) — so this package exposes
// no shared/read-lock variant, unlike a generic multi-reader file store.
package fsutil

import "os"

// File is the subset of *os.File the locker needs: a descriptor to flock,
// Stat for inode comparison against the path, and Close.
type File interface {
	Fd() uintptr
	Stat() (os.FileInfo, error)
	Close() error
}

// FS abstracts the os-package calls [Locker] and [Real.Preallocate] need,
// so tests can substitute a fake without touching the real filesystem.
type FS interface {
	OpenFile(path string, flag int, perm os.FileMode) (File, error)
	MkdirAll(path string, perm os.FileMode) error
	Stat(path string) (os.FileInfo, error)
}

// Compile-time interface check.
var _ File = (*os.File)(nil)
