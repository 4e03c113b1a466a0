package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"
)

var (
	// ErrWouldBlock is returned by [Locker.TryLock] when another process
	// already holds the round-robin file's writer lock.
	ErrWouldBlock = errors.New("lock would block")

	// errInodeMismatch is an internal sentinel indicating the lock file was
	// replaced between open and flock. Callers should retry.
	errInodeMismatch = errors.New("inode mismatch")
)

// Locker acquires the round-robin file's single advisory writer lock.
//
// flock locks an inode (the open file descriptor), not a pathname, so a
// lock file replaced out from under an in-progress acquisition (rename,
// delete+recreate) is detected by comparing the locked descriptor's inode
// against the path's current inode, and the acquisition is retried.
type Locker struct {
	fs    FS
	flock func(fd int, how int) error
}

// NewLocker creates a Locker that uses fs for lock-file operations.
func NewLocker(fs FS) *Locker {
	return &Locker{
		fs:    fs,
		flock: syscall.Flock,
	}
}

// Lock represents a held writer lock. Call [Lock.Close] to release it.
type Lock struct {
	mu    sync.Mutex
	file  File
	flock func(fd int, how int) error
}

// Close releases the lock and closes the underlying file descriptor. It is
// idempotent: calling it more than once is safe and returns nil after the
// first call.
func (lk *Lock) Close() error {
	lk.mu.Lock()
	defer lk.mu.Unlock()

	if lk.file == nil {
		return nil
	}

	fd := int(lk.file.Fd())

	unlockErr := flockRetryEINTR(lk.flock, fd, syscall.LOCK_UN)
	closeErr := lk.file.Close()
	lk.file = nil

	if unlockErr != nil {
		return fmt.Errorf("unlocking lock: %w", unlockErr)
	}

	if closeErr != nil {
		return fmt.Errorf("closing lock fd: %w", closeErr)
	}

	return nil
}

const (
	lockFilePerm = 0o600
	lockDirPerm  = 0o755
)

// TryLock attempts to acquire the writer lock for path without blocking. It
// returns [ErrWouldBlock] immediately if another process already holds it,
// matching rrd_update's own fail-fast behavior on lock contention — a
// writer competing for an in-use file reports busy rather than queuing
// behind the holder.
//
// If the file or its parent directories do not exist, they are created
// lazily.
func (l *Locker) TryLock(path string) (*Lock, error) {
	for {
		file, err := l.openLockFile(path)
		if err != nil {
			return nil, fmt.Errorf("opening lockfile: %w", err)
		}

		err = l.acquire(file, path)
		if err == nil {
			return &Lock{file: file, flock: l.flock}, nil
		}

		_ = file.Close()

		if errors.Is(err, errInodeMismatch) {
			continue
		}

		return nil, err
	}
}

// acquire attempts to flock file non-blocking and verify its inode still
// matches path. On failure the file is unlocked (if needed) but NOT
// closed — the caller must close it.
func (l *Locker) acquire(file File, path string) error {
	fd := int(file.Fd())

	if err := flockRetryEINTR(l.flock, fd, syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		if isWouldBlock(err) {
			return ErrWouldBlock
		}

		return err
	}

	match, err := l.inodeMatchesPath(path, file)
	if err != nil {
		_ = flockRetryEINTR(l.flock, fd, syscall.LOCK_UN)

		if errors.Is(err, os.ErrNotExist) {
			return errInodeMismatch
		}

		return fmt.Errorf("verifying inode match: %w", err)
	}

	if !match {
		_ = flockRetryEINTR(l.flock, fd, syscall.LOCK_UN)

		return errInodeMismatch
	}

	return nil
}

func (l *Locker) openLockFile(path string) (File, error) {
	flag := os.O_RDWR | os.O_CREATE

	f, err := l.fs.OpenFile(path, flag, lockFilePerm)
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		return f, err
	}

	if err := l.fs.MkdirAll(filepath.Dir(path), lockDirPerm); err != nil {
		return nil, err
	}

	return l.fs.OpenFile(path, flag, lockFilePerm)
}

// inodeMatchesPath compares (dev,inode) of the open fd (via [File.Stat]) to
// the current (dev,inode) at path (via [FS.Stat]), so a caller can detect
// "I locked a descriptor that used to be at path, but path now points
// somewhere else" and retry instead of silently coordinating on the wrong
// inode.
func (l *Locker) inodeMatchesPath(path string, f File) (bool, error) {
	openInfo, err := f.Stat()
	if err != nil {
		return false, err
	}

	openSys, ok := openInfo.Sys().(*syscall.Stat_t)
	if !ok || openSys == nil {
		return false, fmt.Errorf("file.Stat Sys=%T, want *syscall.Stat_t", openInfo.Sys())
	}

	pathInfo, err := l.fs.Stat(path)
	if err != nil {
		return false, err
	}

	pathSys, ok := pathInfo.Sys().(*syscall.Stat_t)
	if !ok || pathSys == nil {
		return false, fmt.Errorf("fs.Stat Sys=%T, want *syscall.Stat_t", pathInfo.Sys())
	}

	return openSys.Dev == pathSys.Dev && openSys.Ino == pathSys.Ino, nil
}

func isWouldBlock(err error) bool {
	return errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EAGAIN)
}

// flockRetryEINTR wraps flock, retrying on EINTR (the syscall was
// interrupted by a signal before it could complete, not a real failure).
// Retries are capped so a pathological signal storm can't spin forever;
// Go's own stdlib retries EINTR unbounded, but 10000 is far beyond any
// realistic signal rate for a single flock call.
func flockRetryEINTR(flock func(fd int, how int) error, fd int, how int) error {
	const maxEINTRRetries = 10000

	var err error

	for range maxEINTRRetries {
		err = flock(fd, how)
		if err == nil || !errors.Is(err, syscall.EINTR) {
			return err
		}
	}

	return err
}
