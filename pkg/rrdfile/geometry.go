package rrdfile

// Geometry describes the byte layout of one RRD file: the offset and size
// of every fixed-size section plus the per-RRA value area, computed once
// from ds_cnt, rra_cnt, and each RRA's row_cnt (Invariant: file size is a
// pure function of these three quantities plus the legacy/v3 header
// choice).
type Geometry struct {
	Version string

	DSCount  int
	RRACount int
	RowCnts  []uint64 // len == RRACount

	LiveHeadSize int // LiveHeadSize or LiveHeadLegacySize

	StaticHeaderOffset int64
	DSDefOffset        int64
	RRADefOffset       int64
	LiveHeadOffset     int64
	PDPPrepOffset      int64
	CDPPrepOffset      int64
	RRAPtrOffset       int64
	ValueAreaOffset    int64

	// RRAValueOffset[k] is the byte offset of RRA k's value area.
	RRAValueOffset []int64
	// RRAValueSize[k] is RowCnts[k]*DSCount*8.
	RRAValueSize []int64

	TotalSize int64
}

// NewGeometry computes the file layout for a header with the given
// ds/rra counts and per-RRA row counts.
func NewGeometry(version string, dsCount, rraCount int, rowCnts []uint64) (Geometry, error) {
	if dsCount <= 0 || rraCount <= 0 {
		return Geometry{}, ErrInvalidInput
	}

	if len(rowCnts) != rraCount {
		return Geometry{}, ErrInvalidInput
	}

	for _, rc := range rowCnts {
		if rc == 0 {
			return Geometry{}, ErrInvalidInput
		}
	}

	g := Geometry{
		Version:  version,
		DSCount:  dsCount,
		RRACount: rraCount,
		RowCnts:  append([]uint64(nil), rowCnts...),
	}

	if version == Version3 || version == Version4 {
		g.LiveHeadSize = LiveHeadSize
	} else {
		g.LiveHeadSize = LiveHeadLegacySize
	}

	off := int64(0)

	g.StaticHeaderOffset = off
	off += StaticHeaderSize

	g.DSDefOffset = off
	off += int64(dsCount) * DSDefSize

	g.RRADefOffset = off
	off += int64(rraCount) * RRADefSize

	g.LiveHeadOffset = off
	off += int64(g.LiveHeadSize)

	g.PDPPrepOffset = off
	off += int64(dsCount) * PDPPrepSize

	g.CDPPrepOffset = off
	off += int64(rraCount*dsCount) * CDPPrepSize

	g.RRAPtrOffset = off
	off += int64(rraCount) * RRAPtrSize

	g.ValueAreaOffset = off

	g.RRAValueOffset = make([]int64, rraCount)
	g.RRAValueSize = make([]int64, rraCount)

	for k := 0; k < rraCount; k++ {
		g.RRAValueOffset[k] = off
		size := int64(rowCnts[k]) * int64(dsCount) * 8
		g.RRAValueSize[k] = size
		off += size
	}

	g.TotalSize = off

	return g, nil
}

// CDPIndex returns the flat index of the CDP prep for (rraIdx, dsIdx),
// matching the reference row-major layout: all DS CDP preps for RRA 0,
// then all DS CDP preps for RRA 1, etc.
func (g Geometry) CDPIndex(rraIdx, dsIdx int) int {
	return rraIdx*g.DSCount + dsIdx
}

// CDPPrepOffsetAt returns the byte offset of the CDP prep for (rraIdx, dsIdx).
func (g Geometry) CDPPrepOffsetAt(rraIdx, dsIdx int) int64 {
	return g.CDPPrepOffset + int64(g.CDPIndex(rraIdx, dsIdx))*CDPPrepSize
}

// PDPPrepOffsetAt returns the byte offset of the PDP prep for dsIdx.
func (g Geometry) PDPPrepOffsetAt(dsIdx int) int64 {
	return g.PDPPrepOffset + int64(dsIdx)*PDPPrepSize
}

// DSDefOffsetAt returns the byte offset of the DS def at dsIdx.
func (g Geometry) DSDefOffsetAt(dsIdx int) int64 {
	return g.DSDefOffset + int64(dsIdx)*DSDefSize
}

// RRADefOffsetAt returns the byte offset of the RRA def at rraIdx.
func (g Geometry) RRADefOffsetAt(rraIdx int) int64 {
	return g.RRADefOffset + int64(rraIdx)*RRADefSize
}

// RRAPtrOffsetAt returns the byte offset of the ring pointer for rraIdx.
func (g Geometry) RRAPtrOffsetAt(rraIdx int) int64 {
	return g.RRAPtrOffset + int64(rraIdx)*RRAPtrSize
}

// RowOffset returns the byte offset of row (within the ring, i.e. already
// modulo row_cnt) of rraIdx's value area.
func (g Geometry) RowOffset(rraIdx int, row uint64) int64 {
	rowSize := int64(g.DSCount) * 8
	return g.RRAValueOffset[rraIdx] + int64(row)*rowSize
}
