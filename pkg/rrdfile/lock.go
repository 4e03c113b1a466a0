package rrdfile

import (
	"errors"
	"fmt"

	"github.com/calvinalkan/rrdgo/pkg/fsutil"
)

// locker is the package-level file locker used to coordinate writers across
// processes. A single writer lock at path+".lock" is held by every
// OpenWriter handle (including the one Create returns), so at most one
// writer has a file open at a time. Create's existence check and image
// write happen before it takes the lock. Readers never take it, matching
// the reference implementation's "one writer, many concurrent readers via
// mmap" model.
var locker = fsutil.NewLocker(fsutil.NewReal())

// acquireWriteLock takes the non-blocking exclusive lock for path. It
// returns ErrBusy if another writer currently holds it.
func acquireWriteLock(path string) (*fsutil.Lock, error) {
	lk, err := locker.TryLock(path + ".lock")
	if err != nil {
		if errors.Is(err, fsutil.ErrWouldBlock) {
			return nil, ErrBusy
		}

		return nil, fmt.Errorf("rrdfile: acquire write lock: %w", err)
	}

	return lk, nil
}
