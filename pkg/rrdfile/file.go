package rrdfile

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/calvinalkan/rrdgo/pkg/fsutil"
)

// File is an open handle to a round-robin database file: a memory-mapped
// region plus the geometry needed to address its sections.
//
// A File opened with [Open] is read-only. A File opened with [OpenWriter]
// or [Create] holds the interprocess writer lock for its entire lifetime
// and may mutate the mapping; callers must call [File.Sync] after a batch
// of mutations and [File.Close] when done.
type File struct {
	mu sync.RWMutex

	path     string
	fd       int
	data     []byte
	geo      Geometry
	writable bool
	closed   bool

	// plock is the interprocess advisory lock (nil for read-only handles).
	plock *fsutil.Lock
}

// Path returns the filesystem path this handle was opened from.
func (f *File) Path() string { return f.path }

// Geometry returns the file's computed section layout.
func (f *File) Geometry() Geometry { return f.geo }

// Writable reports whether this handle may mutate the mapping.
func (f *File) Writable() bool { return f.writable }

func (f *File) checkOpen() error {
	if f.closed {
		return ErrClosed
	}

	return nil
}

func (f *File) checkWritable() error {
	if err := f.checkOpen(); err != nil {
		return err
	}

	if !f.writable {
		return fmt.Errorf("rrdfile: handle is read-only: %w", ErrInvalidInput)
	}

	return nil
}

// StaticHeader returns the decoded static header.
func (f *File) StaticHeader() (StaticHeader, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if err := f.checkOpen(); err != nil {
		return StaticHeader{}, err
	}

	return decodeStaticHeader(f.data[f.geo.StaticHeaderOffset:])
}

// DSDef returns the decoded Data Source definition at index i.
func (f *File) DSDef(i int) (DSDef, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if err := f.checkOpen(); err != nil {
		return DSDef{}, err
	}

	if i < 0 || i >= f.geo.DSCount {
		return DSDef{}, fmt.Errorf("rrdfile: ds index %d out of range: %w", i, ErrInvalidInput)
	}

	off := f.geo.DSDefOffsetAt(i)

	return decodeDSDef(f.data[off:])
}

// SetDSDef overwrites the DS definition at index i.
func (f *File) SetDSDef(i int, d DSDef) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkWritable(); err != nil {
		return err
	}

	if i < 0 || i >= f.geo.DSCount {
		return fmt.Errorf("rrdfile: ds index %d out of range: %w", i, ErrInvalidInput)
	}

	off := f.geo.DSDefOffsetAt(i)
	encodeDSDef(f.data[off:off+DSDefSize], d)

	return nil
}

// RRADef returns the decoded RRA definition at index i.
func (f *File) RRADef(i int) (RRADef, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if err := f.checkOpen(); err != nil {
		return RRADef{}, err
	}

	if i < 0 || i >= f.geo.RRACount {
		return RRADef{}, fmt.Errorf("rrdfile: rra index %d out of range: %w", i, ErrInvalidInput)
	}

	off := f.geo.RRADefOffsetAt(i)

	return decodeRRADef(f.data[off:])
}

// LiveHead returns the current live header (last update timestamp).
func (f *File) LiveHead() (LiveHead, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if err := f.checkOpen(); err != nil {
		return LiveHead{}, err
	}

	buf := f.data[f.geo.LiveHeadOffset:]
	if f.geo.LiveHeadSize == LiveHeadLegacySize {
		return decodeLiveHeadLegacy(buf), nil
	}

	return decodeLiveHead(buf), nil
}

// SetLiveHead writes the live header.
func (f *File) SetLiveHead(h LiveHead) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkWritable(); err != nil {
		return err
	}

	off := f.geo.LiveHeadOffset
	if f.geo.LiveHeadSize == LiveHeadLegacySize {
		nativeEndian.PutUint64(f.data[off:off+8], uint64(h.LastUp))
		return nil
	}

	encodeLiveHead(f.data[off:off+LiveHeadSize], h)

	return nil
}

// PDPPrep returns the decoded PDP prep area for DS index i.
func (f *File) PDPPrep(i int) (PDPPrep, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if err := f.checkOpen(); err != nil {
		return PDPPrep{}, err
	}

	off := f.geo.PDPPrepOffsetAt(i)

	return decodePDPPrep(f.data[off:])
}

// SetPDPPrep writes the PDP prep area for DS index i.
func (f *File) SetPDPPrep(i int, p PDPPrep) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkWritable(); err != nil {
		return err
	}

	off := f.geo.PDPPrepOffsetAt(i)
	encodePDPPrep(f.data[off:off+PDPPrepSize], p)

	return nil
}

// CDPPrep returns the decoded CDP prep area for (rraIdx, dsIdx).
func (f *File) CDPPrep(rraIdx, dsIdx int) (CDPPrep, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if err := f.checkOpen(); err != nil {
		return CDPPrep{}, err
	}

	off := f.geo.CDPPrepOffsetAt(rraIdx, dsIdx)

	return decodeCDPPrep(f.data[off:])
}

// SetCDPPrep writes the CDP prep area for (rraIdx, dsIdx).
func (f *File) SetCDPPrep(rraIdx, dsIdx int, c CDPPrep) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkWritable(); err != nil {
		return err
	}

	off := f.geo.CDPPrepOffsetAt(rraIdx, dsIdx)
	encodeCDPPrep(f.data[off:off+CDPPrepSize], c)

	return nil
}

// RRAPtr returns the ring cursor (current row index) for rraIdx.
func (f *File) RRAPtr(rraIdx int) (uint64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if err := f.checkOpen(); err != nil {
		return 0, err
	}

	off := f.geo.RRAPtrOffsetAt(rraIdx)

	return nativeEndian.Uint64(f.data[off : off+8]), nil
}

// SetRRAPtr writes the ring cursor for rraIdx.
func (f *File) SetRRAPtr(rraIdx int, cur uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkWritable(); err != nil {
		return err
	}

	off := f.geo.RRAPtrOffsetAt(rraIdx)
	nativeEndian.PutUint64(f.data[off:off+8], cur)

	return nil
}

// Row returns the DSCount values stored at the given ring row of rraIdx.
// row must already be reduced modulo the RRA's row count.
func (f *File) Row(rraIdx int, row uint64) ([]float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if err := f.checkOpen(); err != nil {
		return nil, err
	}

	off := f.geo.RowOffset(rraIdx, row)
	out := make([]float64, f.geo.DSCount)

	for i := 0; i < f.geo.DSCount; i++ {
		bits := nativeEndian.Uint64(f.data[off+int64(i)*8 : off+int64(i)*8+8])
		out[i] = math.Float64frombits(bits)
	}

	return out, nil
}

// SetRow overwrites the DSCount values stored at the given ring row.
func (f *File) SetRow(rraIdx int, row uint64, values []float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkWritable(); err != nil {
		return err
	}

	if len(values) != f.geo.DSCount {
		return fmt.Errorf("rrdfile: row has %d values, want %d: %w", len(values), f.geo.DSCount, ErrInvalidInput)
	}

	off := f.geo.RowOffset(rraIdx, row)

	for i, v := range values {
		bits := math.Float64bits(v)
		nativeEndian.PutUint64(f.data[off+int64(i)*8:off+int64(i)*8+8], bits)
	}

	return nil
}

// Sync flushes the mapping to disk. Required for durability before Close
// on a writable handle; read-only handles may call it as a no-op-safe API.
func (f *File) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkOpen(); err != nil {
		return err
	}

	if !f.writable {
		return nil
	}

	if err := unix.Msync(f.data, unix.MS_SYNC); err != nil {
		return fmt.Errorf("rrdfile: msync: %w", err)
	}

	return nil
}

// Close unmaps the file, releases the interprocess lock (if held), and
// closes the file descriptor. Close is idempotent.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}

	f.closed = true

	// Hint the kernel that these pages are unlikely to be needed again soon,
	// matching rrdtool's practice of dropping its own page cache footprint
	// once a file handle is done with a (potentially large) value area.
	_ = unix.Madvise(f.data, unix.MADV_DONTNEED)

	unmapErr := unix.Munmap(f.data)
	closeErr := unix.Close(f.fd)

	var lockErr error
	if f.plock != nil {
		lockErr = f.plock.Close()
	}

	switch {
	case unmapErr != nil:
		return fmt.Errorf("rrdfile: munmap: %w", unmapErr)
	case closeErr != nil:
		return fmt.Errorf("rrdfile: close: %w", closeErr)
	case lockErr != nil:
		return fmt.Errorf("rrdfile: release lock: %w", lockErr)
	default:
		return nil
	}
}
