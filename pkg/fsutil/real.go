package fsutil

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Real implements [FS] against the real filesystem.
type Real struct{}

// NewReal returns a new [Real] filesystem.
func NewReal() *Real {
	return &Real{}
}

func (r *Real) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(path, flag, perm)
}

func (r *Real) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (r *Real) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// Preallocate reserves exactly size bytes for the file at path, creating it
// if necessary, without writing any of them.
//
// A round-robin file's total size is fully known before a single byte of
// its header is rendered (Geometry.TotalSize is a pure function of its
// DS/RRA counts and row counts), unlike an ordinary file that grows as a
// stream of writes lands. Preallocate lets rrdfile.Create reserve that
// space up front with one fallocate(2) call and fail fast on ENOSPC before
// materializing the image, rather than discovering a full disk partway
// through writing it.
func (r *Real) Preallocate(path string, size int64) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("fsutil: open %s for preallocate: %w", path, err)
	}
	defer f.Close()

	if size > 0 {
		if err := unix.Fallocate(int(f.Fd()), 0, 0, size); err != nil {
			return fmt.Errorf("fsutil: fallocate %s to %d bytes: %w", path, size, err)
		}
	}

	return nil
}

// Compile-time interface check.
var _ FS = (*Real)(nil)
