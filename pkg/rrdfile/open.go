package rrdfile

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Open opens an existing round-robin file read-only. Multiple readers may
// have the same file open concurrently with no locking; a reader never
// blocks a writer and vice versa, matching the reference implementation's
// mmap-based reader model.
func Open(path string) (*File, error) {
	return openFile(path, false)
}

func openFile(path string, writable bool) (*File, error) {
	flags := unix.O_RDONLY
	prot := unix.PROT_READ

	if writable {
		flags = unix.O_RDWR
		prot = unix.PROT_READ | unix.PROT_WRITE
	}

	fd, err := unix.Open(path, flags, 0)
	if err != nil {
		return nil, fmt.Errorf("rrdfile: open %s: %w", path, err)
	}

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("rrdfile: stat %s: %w", path, err)
	}

	size := stat.Size
	if size < StaticHeaderSize {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("rrdfile: %s is smaller than the static header: %w", path, ErrCorrupt)
	}

	data, err := unix.Mmap(fd, 0, int(size), prot, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("rrdfile: mmap %s: %w", path, err)
	}

	header, err := decodeStaticHeader(data)
	if err != nil {
		_ = unix.Munmap(data)
		_ = unix.Close(fd)
		return nil, err
	}

	if header.Version != Version3 && header.Version != Version4 {
		_ = unix.Munmap(data)
		_ = unix.Close(fd)
		return nil, fmt.Errorf("rrdfile: version %q: %w", header.Version, ErrUnsupportedVersion)
	}

	if header.DSCount == 0 || header.RRACount == 0 {
		_ = unix.Munmap(data)
		_ = unix.Close(fd)
		return nil, fmt.Errorf("rrdfile: ds_cnt/rra_cnt must be > 0: %w", ErrCorrupt)
	}

	if header.DSCount > maxReasonableCount || header.RRACount > maxReasonableCount {
		_ = unix.Munmap(data)
		_ = unix.Close(fd)
		return nil, fmt.Errorf("rrdfile: implausible ds_cnt/rra_cnt: %w", ErrCorrupt)
	}

	dsCount := int(header.DSCount)
	rraCount := int(header.RRACount)

	// A geometry built from placeholder row counts of 1 is enough to locate
	// the rra_def table: every offset up to and including RRADefOffset is
	// independent of row counts, which live inside that very table.
	prelimGeo, err := geometryWithPlaceholderRows(header.Version, dsCount, rraCount)
	if err != nil {
		_ = unix.Munmap(data)
		_ = unix.Close(fd)
		return nil, err
	}

	if int64(len(data)) < prelimGeo.RRADefOffset+int64(rraCount)*RRADefSize {
		_ = unix.Munmap(data)
		_ = unix.Close(fd)
		return nil, fmt.Errorf("rrdfile: file too short for rra_def table: %w", ErrCorrupt)
	}

	rowCnts := make([]uint64, rraCount)

	for i := 0; i < rraCount; i++ {
		off := prelimGeo.RRADefOffsetAt(i)

		r, err := decodeRRADef(data[off:])
		if err != nil {
			_ = unix.Munmap(data)
			_ = unix.Close(fd)
			return nil, err
		}

		if r.RowCnt == 0 {
			_ = unix.Munmap(data)
			_ = unix.Close(fd)
			return nil, fmt.Errorf("rrdfile: rra %d has row_cnt 0: %w", i, ErrCorrupt)
		}

		rowCnts[i] = r.RowCnt
	}

	geo, err := NewGeometry(header.Version, dsCount, rraCount, rowCnts)
	if err != nil {
		_ = unix.Munmap(data)
		_ = unix.Close(fd)
		return nil, err
	}

	if int64(len(data)) != geo.TotalSize {
		_ = unix.Munmap(data)
		_ = unix.Close(fd)
		return nil, fmt.Errorf("rrdfile: file size %d does not match computed layout size %d: %w", len(data), geo.TotalSize, ErrCorrupt)
	}

	return &File{
		path:     path,
		fd:       fd,
		data:     data,
		geo:      geo,
		writable: writable,
	}, nil
}

// maxReasonableCount bounds ds_cnt/rra_cnt to guard against multiplying a
// corrupt counter into an enormous or negative allocation.
const maxReasonableCount = 1 << 20

// geometryWithPlaceholderRows is a tiny helper used only to locate the
// rra_def table before the real row counts are known.
func geometryWithPlaceholderRows(version string, dsCount, rraCount int) (Geometry, error) {
	placeholder := make([]uint64, rraCount)
	for i := range placeholder {
		placeholder[i] = 1
	}

	return NewGeometry(version, dsCount, rraCount, placeholder)
}
