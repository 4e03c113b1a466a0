package rrdfile

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/calvinalkan/rrdgo/pkg/fsutil"
)

// CreateOptions describes the file to create: its DS/RRA schema, step, and
// starting timestamp. It deliberately mirrors the shape rrdcreate builds
// from parsed "DS:" and "RRA:" tokens, not a convenience wrapper over them.
type CreateOptions struct {
	// Version selects the on-disk format label ("0003" or "0004"). Callers
	// creating a file with any HWPREDICT/SEASONAL/DEVSEASONAL/FAILURES RRA
	// should use "0004". The 30-byte last_ds field is the same in both.
	Version string

	PDPStep uint64
	LastUp  int64

	DSDefs  []DSDef
	RRADefs []RRADef

	// Rand seeds the ring pointers' starting offsets. When nil, rand.New
	// with a fixed source is used, matching rrd_create's practice of
	// spreading RRAs' initial cur_row across the ring rather than always
	// starting at row 0 (it avoids every RRA rolling over in lockstep).
	Rand *rand.Rand
}

// Create creates a new, fully initialized round-robin file at path using a
// temp-file-plus-rename sequence so a concurrent reader never observes a
// partially written file. It fails with [ErrExists] if path already exists.
func Create(path string, opts CreateOptions) (*File, error) {
	geo, header, err := validateAndPlan(opts)
	if err != nil {
		return nil, err
	}

	if _, statErr := os.Stat(path); statErr == nil {
		return nil, fmt.Errorf("rrdfile: create %s: %w", path, ErrExists)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("rrdfile: mkdir: %w", err)
	}

	if err := preflightCapacity(path, geo.TotalSize); err != nil {
		return nil, err
	}

	buf := make([]byte, geo.TotalSize)

	if err := renderImage(buf, geo, header, opts); err != nil {
		return nil, err
	}

	if err := atomic.WriteFile(path, bytes.NewReader(buf)); err != nil {
		return nil, fmt.Errorf("rrdfile: write: %w", err)
	}

	return OpenWriter(path)
}

// preflightCapacity reserves size bytes at a scratch path beside the
// destination via fallocate(2) and immediately releases them. A round-robin
// file's full size is known before rendering a single section of it, so
// Create fails fast on ENOSPC here rather than discovering a full disk
// partway through materializing a potentially large in-memory image (an
// archive with many rows easily runs to tens of megabytes) or inside the
// atomic writer's own temp-file-plus-rename.
func preflightCapacity(path string, size int64) error {
	scratch := path + ".prealloc-check"

	if err := fsutil.NewReal().Preallocate(scratch, size); err != nil {
		return fmt.Errorf("rrdfile: preflight capacity check for %s: %w", path, err)
	}

	if err := os.Remove(scratch); err != nil {
		return fmt.Errorf("rrdfile: removing capacity-check scratch file: %w", err)
	}

	return nil
}

func validateAndPlan(opts CreateOptions) (Geometry, StaticHeader, error) {
	version := opts.Version
	if version == "" {
		version = Version3
	}

	if version != Version3 && version != Version4 {
		return Geometry{}, StaticHeader{}, fmt.Errorf("rrdfile: unsupported create version %q: %w", version, ErrInvalidInput)
	}

	if opts.PDPStep < 1 {
		return Geometry{}, StaticHeader{}, fmt.Errorf("rrdfile: pdp_step must be >= 1: %w", ErrInvalidInput)
	}

	if len(opts.DSDefs) == 0 {
		return Geometry{}, StaticHeader{}, fmt.Errorf("rrdfile: at least one DS required: %w", ErrInvalidInput)
	}

	if len(opts.RRADefs) == 0 {
		return Geometry{}, StaticHeader{}, fmt.Errorf("rrdfile: at least one RRA required: %w", ErrInvalidInput)
	}

	rowCnts := make([]uint64, len(opts.RRADefs))
	for i, r := range opts.RRADefs {
		rowCnts[i] = r.RowCnt
	}

	geo, err := NewGeometry(version, len(opts.DSDefs), len(opts.RRADefs), rowCnts)
	if err != nil {
		return Geometry{}, StaticHeader{}, err
	}

	header := StaticHeader{
		Version:  version,
		DSCount:  uint64(len(opts.DSDefs)),
		RRACount: uint64(len(opts.RRADefs)),
		PDPStep:  opts.PDPStep,
	}

	return geo, header, nil
}

// renderImage writes every section of a freshly created file into buf,
// which must already be sized to geo.TotalSize.
func renderImage(buf []byte, geo Geometry, header StaticHeader, opts CreateOptions) error {
	encodeStaticHeader(buf[geo.StaticHeaderOffset:geo.StaticHeaderOffset+StaticHeaderSize], header)

	for i, d := range opts.DSDefs {
		off := geo.DSDefOffsetAt(i)
		encodeDSDef(buf[off:off+DSDefSize], d)
	}

	for i, r := range opts.RRADefs {
		off := geo.RRADefOffsetAt(i)
		encodeRRADef(buf[off:off+RRADefSize], r)
	}

	live := LiveHead{LastUp: opts.LastUp}
	if geo.LiveHeadSize == LiveHeadLegacySize {
		nativeEndian.PutUint64(buf[geo.LiveHeadOffset:geo.LiveHeadOffset+8], uint64(live.LastUp))
	} else {
		encodeLiveHead(buf[geo.LiveHeadOffset:geo.LiveHeadOffset+LiveHeadSize], live)
	}

	pdpPhase := opts.LastUp % int64(header.PDPStep)
	if pdpPhase < 0 {
		pdpPhase += int64(header.PDPStep)
	}

	for i, d := range opts.DSDefs {
		off := geo.PDPPrepOffsetAt(i)
		p := PDPPrep{LastDS: "U"}

		if d.Type == DSCompute {
			p.LastDS = ""
		}

		// A freshly created PDP window starts with its leading (last_up mod
		// pdp_step) seconds already unaccounted for, matching rrd_create's
		// pdp_prep.scratch[PDP_unkn_sec_cnt] seed.
		p.Scratch[0] = math.Float64bits(float64(pdpPhase))

		encodePDPPrep(buf[off:off+PDPPrepSize], p)
	}

	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(1))
	}

	for rraIdx, r := range opts.RRADefs {
		for dsIdx := range opts.DSDefs {
			off := geo.CDPPrepOffsetAt(rraIdx, dsIdx)

			var c CDPPrep
			if !r.CF.IsHW() {
				c.Scratch[0] = math.Float64bits(initialCDPValue(r.CF))
				c.Scratch[1] = math.Float64bits(initialUnknownPDPCnt(opts.LastUp, pdpPhase, header.PDPStep, r.PDPCnt))
			}

			encodeCDPPrep(buf[off:off+CDPPrepSize], c)
		}

		startRow := uint64(0)
		if r.RowCnt > 0 {
			startRow = uint64(rnd.Int63n(int64(r.RowCnt)))
		}

		ptrOff := geo.RRAPtrOffsetAt(rraIdx)
		nativeEndian.PutUint64(buf[ptrOff:ptrOff+8], startRow)

		fillRRAUnknown(buf, geo, rraIdx)
	}

	return nil
}

// fillRRAUnknown fills every row of RRA rraIdx's value area with NaN,
// matching rrd_create's practice of seeding a fresh archive as entirely
// unknown rather than zero.
func fillRRAUnknown(buf []byte, geo Geometry, rraIdx int) {
	nan := math.Float64bits(math.NaN())

	base := geo.RRAValueOffset[rraIdx]
	count := geo.RRAValueSize[rraIdx] / 8

	for i := int64(0); i < count; i++ {
		off := base + i*8
		nativeEndian.PutUint64(buf[off:off+8], nan)
	}
}

// initialCDPValue seeds a fresh CDP's running accumulator so the first
// rollup behaves correctly before any PDP has been folded in: the additive
// identity for AVERAGE/LAST, +Inf for a MIN running extremum (anything
// folded in is smaller), -Inf for MAX (anything folded in is larger).
func initialCDPValue(cf CF) float64 {
	switch cf {
	case CFMinimum:
		return math.Inf(1)
	case CFMaximum:
		return math.Inf(-1)
	default:
		return 0
	}
}

// initialUnknownPDPCnt computes the phase offset a freshly created CDP
// prep starts at so its first consolidation boundary lines up with
// wall-clock step boundaries rather than always starting a fresh window at
// row 0: ((last_up - pdp_unkn_sec_cnt) mod (pdp_step*pdp_cnt)) / pdp_step,
// where pdp_unkn_sec_cnt (pdpPhase) is last_up's own offset into its
// in-progress PDP window.
func initialUnknownPDPCnt(lastUp, pdpPhase int64, pdpStep, pdpCnt uint64) float64 {
	window := int64(pdpStep * pdpCnt)
	if window <= 0 {
		return 0
	}

	phase := (lastUp - pdpPhase) % window
	if phase < 0 {
		phase += window
	}

	return float64(phase) / float64(pdpStep)
}

// OpenWriter opens an existing file for read-write access, acquiring the
// interprocess writer lock for the lifetime of the handle. It returns
// [ErrBusy] if another writer already holds the lock.
func OpenWriter(path string) (*File, error) {
	lk, err := acquireWriteLock(path)
	if err != nil {
		return nil, err
	}

	f, err := openFile(path, true)
	if err != nil {
		_ = lk.Close()
		return nil, err
	}

	f.plock = lk

	return f, nil
}
