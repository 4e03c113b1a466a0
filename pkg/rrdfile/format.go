package rrdfile

import (
	"encoding/binary"
	"math"
)

// On-disk layout constants, reproducing the byte layout of the reference
// rrdlite C structs (stat_head_t, ds_def_t, rra_def_t, live_head_t,
// pdp_prep_t, cdp_prep_t, rra_ptr_t) on a 64-bit target: unsigned long,
// time_t, long and the rrd_value_t/unival union are all 8 bytes, and every
// 8-byte field is naturally aligned, which is why the char arrays below are
// followed by explicit padding to the next multiple of 8.
const (
	cookieText  = "RRD"
	Version3    = "0003"
	Version4    = "0004"
	maxVersion  = 4
	floatCookie = 8.642135e130

	dsNameSize = 20
	dstypeSize = 20
	cfNameSize = 20
	lastDSSize = 30

	// StaticHeaderSize is sizeof(stat_head_t): cookie[4] + version[5] +
	// 7 pad bytes + float_cookie(8) + ds_cnt/rra_cnt/pdp_step(8 each) +
	// par[10](80).
	StaticHeaderSize = 4 + 5 + 7 + 8 + 8 + 8 + 8 + 10*8

	// DSDefSize is sizeof(ds_def_t): ds_nam[20] + dst[20] + par[10](80).
	DSDefSize = dsNameSize + dstypeSize + 10*8

	// RRADefSize is sizeof(rra_def_t): cf_nam[20] + 4 pad + row_cnt(8) +
	// pdp_cnt(8) + par[10](80).
	RRADefSize = cfNameSize + 4 + 8 + 8 + 10*8

	// LiveHeadSize is sizeof(live_head_t) for version >= 3: last_up(8) +
	// last_up_usec(8).
	LiveHeadSize = 8 + 8

	// LiveHeadLegacySize is sizeof(time_t) alone, for version < 3.
	LiveHeadLegacySize = 8

	// PDPPrepSize is sizeof(pdp_prep_t): last_ds[30] + 2 pad + scratch[10](80).
	PDPPrepSize = lastDSSize + 2 + 10*8

	// CDPPrepSize is sizeof(cdp_prep_t): scratch[10](80).
	CDPPrepSize = 10 * 8

	// RRAPtrSize is sizeof(rra_ptr_t): cur_row(8).
	RRAPtrSize = 8

	// dsParamCount / rraParamCount / prepSlotCount are the ten reserved
	// 64-bit parameter slots carried by every DS def, RRA def, PDP prep,
	// and CDP prep record.
	dsParamCount   = 10
	rraParamCount  = 10
	prepSlotCount  = 10
	headerParCount = 10
)

// nativeEndian is the byte order used for every numeric field in the file,
// matching the reference implementation's "native byte order, no portable
// format" choice (cross-architecture portability is an explicit non-goal;
// the float sentinel is what detects a mismatch).
var nativeEndian = binary.NativeEndian

// DSType enumerates the five Data Source types.
type DSType int

const (
	DSCounter DSType = iota
	DSAbsolute
	DSGauge
	DSDerive
	DSCompute
)

func (t DSType) String() string {
	switch t {
	case DSCounter:
		return "COUNTER"
	case DSAbsolute:
		return "ABSOLUTE"
	case DSGauge:
		return "GAUGE"
	case DSDerive:
		return "DERIVE"
	case DSCompute:
		return "COMPUTE"
	default:
		return "UNKNOWN"
	}
}

// ParseDSType maps a type name to its enum value.
func ParseDSType(s string) (DSType, bool) {
	switch s {
	case "COUNTER":
		return DSCounter, true
	case "ABSOLUTE":
		return DSAbsolute, true
	case "GAUGE":
		return DSGauge, true
	case "DERIVE":
		return DSDerive, true
	case "COMPUTE":
		return DSCompute, true
	default:
		return 0, false
	}
}

// CF enumerates the Consolidation Functions. Indices match the reference
// cf_en ordering so on-disk CF names round-trip against the same set.
type CF int

const (
	CFAverage CF = iota
	CFMinimum
	CFMaximum
	CFLast
	CFHWPredict
	CFSeasonal
	CFDevPredict
	CFDevSeasonal
	CFFailures
	CFMHWPredict
)

func (c CF) String() string {
	switch c {
	case CFAverage:
		return "AVERAGE"
	case CFMinimum:
		return "MIN"
	case CFMaximum:
		return "MAX"
	case CFLast:
		return "LAST"
	case CFHWPredict:
		return "HWPREDICT"
	case CFSeasonal:
		return "SEASONAL"
	case CFDevPredict:
		return "DEVPREDICT"
	case CFDevSeasonal:
		return "DEVSEASONAL"
	case CFFailures:
		return "FAILURES"
	case CFMHWPredict:
		return "MHWPREDICT"
	default:
		return "UNKNOWN"
	}
}

// ParseCF maps a CF name to its enum value.
func ParseCF(s string) (CF, bool) {
	switch s {
	case "AVERAGE":
		return CFAverage, true
	case "MIN":
		return CFMinimum, true
	case "MAX":
		return CFMaximum, true
	case "LAST":
		return CFLast, true
	case "HWPREDICT":
		return CFHWPredict, true
	case "SEASONAL":
		return CFSeasonal, true
	case "DEVPREDICT":
		return CFDevPredict, true
	case "DEVSEASONAL":
		return CFDevSeasonal, true
	case "FAILURES":
		return CFFailures, true
	case "MHWPREDICT":
		return CFMHWPredict, true
	default:
		return 0, false
	}
}

// IsHW reports whether cf belongs to the Holt-Winters family, which shares
// the ten CDP-prep scratch slots for a different purpose (intercept, slope,
// seasonal, deviation coefficients) than the AVERAGE/MIN/MAX/LAST family.
func (c CF) IsHW() bool {
	switch c {
	case CFHWPredict, CFSeasonal, CFDevPredict, CFDevSeasonal, CFFailures, CFMHWPredict:
		return true
	default:
		return false
	}
}

// --- StaticHeader ---

// StaticHeader is the file's fixed identification and structure-definition
// section (stat_head_t).
type StaticHeader struct {
	Version  string // "0003" or "0004"
	DSCount  uint64
	RRACount uint64
	PDPStep  uint64
	Par      [headerParCount]uint64
}

func encodeStaticHeader(buf []byte, h StaticHeader) {
	copy(buf[0:4], cookieText)
	buf[3] = 0

	copy(buf[4:9], h.Version)
	buf[8] = 0

	for i := 9; i < 16; i++ {
		buf[i] = 0
	}

	nativeEndian.PutUint64(buf[16:24], math.Float64bits(floatCookie))
	nativeEndian.PutUint64(buf[24:32], h.DSCount)
	nativeEndian.PutUint64(buf[32:40], h.RRACount)
	nativeEndian.PutUint64(buf[40:48], h.PDPStep)

	for i := 0; i < headerParCount; i++ {
		off := 48 + i*8
		nativeEndian.PutUint64(buf[off:off+8], h.Par[i])
	}
}

func decodeStaticHeader(buf []byte) (StaticHeader, error) {
	if len(buf) < StaticHeaderSize {
		return StaticHeader{}, ErrCorrupt
	}

	if string(buf[0:3]) != cookieText || buf[3] != 0 {
		return StaticHeader{}, ErrCorrupt
	}

	cookieBits := nativeEndian.Uint64(buf[16:24])
	if math.Float64frombits(cookieBits) != floatCookie {
		return StaticHeader{}, ErrWrongArchitecture
	}

	version := cStringFromBytes(buf[4:9])

	var h StaticHeader
	h.Version = version
	h.DSCount = nativeEndian.Uint64(buf[24:32])
	h.RRACount = nativeEndian.Uint64(buf[32:40])
	h.PDPStep = nativeEndian.Uint64(buf[40:48])

	for i := 0; i < headerParCount; i++ {
		off := 48 + i*8
		h.Par[i] = nativeEndian.Uint64(buf[off : off+8])
	}

	return h, nil
}

// --- DSDef ---

// DSDef is one Data Source definition (ds_def_t).
type DSDef struct {
	Name string
	Type DSType
	// Par holds the ten raw 64-bit parameter slots. For non-COMPUTE types
	// these are {heartbeat, min, max, 0, ...} with min/max stored as the
	// float64 bit pattern (NaN meaning unbounded). For COMPUTE types these
	// hold the compacted RPN program (see pkg/rpn).
	Par [dsParamCount]uint64
}

// Heartbeat returns slot 0 interpreted as an integer heartbeat (non-COMPUTE only).
func (d DSDef) Heartbeat() uint64 { return d.Par[0] }

// Min returns slot 1 interpreted as a float64 (non-COMPUTE only).
func (d DSDef) Min() float64 { return math.Float64frombits(d.Par[1]) }

// Max returns slot 2 interpreted as a float64 (non-COMPUTE only).
func (d DSDef) Max() float64 { return math.Float64frombits(d.Par[2]) }

// NewNonComputeDSDef builds a DSDef for COUNTER/ABSOLUTE/GAUGE/DERIVE.
func NewNonComputeDSDef(name string, dstype DSType, heartbeat uint64, min, max float64) DSDef {
	var d DSDef
	d.Name = name
	d.Type = dstype
	d.Par[0] = heartbeat
	d.Par[1] = math.Float64bits(min)
	d.Par[2] = math.Float64bits(max)

	return d
}

func encodeDSDef(buf []byte, d DSDef) {
	encodeCString(buf[0:dsNameSize], d.Name)
	encodeCString(buf[dsNameSize:dsNameSize+dstypeSize], d.Type.String())

	base := dsNameSize + dstypeSize
	for i := 0; i < dsParamCount; i++ {
		off := base + i*8
		nativeEndian.PutUint64(buf[off:off+8], d.Par[i])
	}
}

func decodeDSDef(buf []byte) (DSDef, error) {
	if len(buf) < DSDefSize {
		return DSDef{}, ErrCorrupt
	}

	var d DSDef

	d.Name = cStringFromBytes(buf[0:dsNameSize])

	typeName := cStringFromBytes(buf[dsNameSize : dsNameSize+dstypeSize])

	dstype, ok := ParseDSType(typeName)
	if !ok {
		return DSDef{}, ErrCorrupt
	}

	d.Type = dstype

	base := dsNameSize + dstypeSize
	for i := 0; i < dsParamCount; i++ {
		off := base + i*8
		d.Par[i] = nativeEndian.Uint64(buf[off : off+8])
	}

	return d, nil
}

// --- RRADef ---

// RRADef is one Round-Robin Archive definition (rra_def_t).
type RRADef struct {
	CF     CF
	RowCnt uint64
	PDPCnt uint64
	Par    [rraParamCount]uint64
}

// XFF returns slot 0 interpreted as a float64 (AVERAGE/MIN/MAX/LAST only).
func (r RRADef) XFF() float64 { return math.Float64frombits(r.Par[0]) }

// NewSimpleRRADef builds an RRADef for AVERAGE/MIN/MAX/LAST.
func NewSimpleRRADef(cf CF, xff float64, pdpCnt, rowCnt uint64) RRADef {
	var r RRADef
	r.CF = cf
	r.RowCnt = rowCnt
	r.PDPCnt = pdpCnt
	r.Par[0] = math.Float64bits(xff)

	return r
}

func encodeRRADef(buf []byte, r RRADef) {
	encodeCString(buf[0:cfNameSize], r.CF.String())

	for i := cfNameSize; i < cfNameSize+4; i++ {
		buf[i] = 0
	}

	base := cfNameSize + 4
	nativeEndian.PutUint64(buf[base:base+8], r.RowCnt)
	nativeEndian.PutUint64(buf[base+8:base+16], r.PDPCnt)

	parBase := base + 16
	for i := 0; i < rraParamCount; i++ {
		off := parBase + i*8
		nativeEndian.PutUint64(buf[off:off+8], r.Par[i])
	}
}

func decodeRRADef(buf []byte) (RRADef, error) {
	if len(buf) < RRADefSize {
		return RRADef{}, ErrCorrupt
	}

	cfName := cStringFromBytes(buf[0:cfNameSize])

	cf, ok := ParseCF(cfName)
	if !ok {
		return RRADef{}, ErrCorrupt
	}

	var r RRADef
	r.CF = cf

	base := cfNameSize + 4
	r.RowCnt = nativeEndian.Uint64(buf[base : base+8])
	r.PDPCnt = nativeEndian.Uint64(buf[base+8 : base+16])

	parBase := base + 16
	for i := 0; i < rraParamCount; i++ {
		off := parBase + i*8
		r.Par[i] = nativeEndian.Uint64(buf[off : off+8])
	}

	return r, nil
}

// --- LiveHead ---

// LiveHead is the live update-time state (live_head_t).
type LiveHead struct {
	LastUp     int64
	LastUpUsec int64 // always 0 for version < 3
}

func encodeLiveHead(buf []byte, h LiveHead) {
	nativeEndian.PutUint64(buf[0:8], uint64(h.LastUp))
	nativeEndian.PutUint64(buf[8:16], uint64(h.LastUpUsec))
}

func decodeLiveHead(buf []byte) LiveHead {
	return LiveHead{
		LastUp:     int64(nativeEndian.Uint64(buf[0:8])),
		LastUpUsec: int64(nativeEndian.Uint64(buf[8:16])),
	}
}

func decodeLiveHeadLegacy(buf []byte) LiveHead {
	return LiveHead{LastUp: int64(nativeEndian.Uint64(buf[0:8]))}
}

// --- PDPPrep ---

// PDPPrep is the per-DS PDP accumulator (pdp_prep_t).
type PDPPrep struct {
	LastDS  string // up to 29 bytes + NUL; "U" means unknown
	Scratch [prepSlotCount]uint64
}

// UnknownSecCnt returns scratch slot 0 (seconds of the in-progress PDP
// known to be unknown).
func (p PDPPrep) UnknownSecCnt() float64 { return math.Float64frombits(p.Scratch[0]) }

// Value returns scratch slot 1 (accumulated value over the current window).
func (p PDPPrep) Value() float64 { return math.Float64frombits(p.Scratch[1]) }

func encodePDPPrep(buf []byte, p PDPPrep) {
	encodeCString(buf[0:lastDSSize], p.LastDS)

	for i := 0; i < prepSlotCount; i++ {
		off := lastDSSize + 2 + i*8
		nativeEndian.PutUint64(buf[off:off+8], p.Scratch[i])
	}
}

func decodePDPPrep(buf []byte) (PDPPrep, error) {
	if len(buf) < PDPPrepSize {
		return PDPPrep{}, ErrCorrupt
	}

	var p PDPPrep

	p.LastDS = cStringFromBytes(buf[0:lastDSSize])

	for i := 0; i < prepSlotCount; i++ {
		off := lastDSSize + 2 + i*8
		p.Scratch[i] = nativeEndian.Uint64(buf[off : off+8])
	}

	return p, nil
}

// --- CDPPrep ---

// CDPPrep is the per-(RRA,DS) CDP accumulator (cdp_prep_t). For non-HW CFs,
// Scratch[0]=value, [1]=unknown PDP count, [8]=primary_val, [9]=secondary_val.
type CDPPrep struct {
	Scratch [prepSlotCount]uint64
}

func (c CDPPrep) value() float64           { return math.Float64frombits(c.Scratch[0]) }
func (c CDPPrep) unknownPDPCount() float64 { return math.Float64frombits(c.Scratch[1]) }
func (c CDPPrep) primaryVal() float64      { return math.Float64frombits(c.Scratch[8]) }
func (c CDPPrep) secondaryVal() float64    { return math.Float64frombits(c.Scratch[9]) }

func encodeCDPPrep(buf []byte, c CDPPrep) {
	for i := 0; i < prepSlotCount; i++ {
		off := i * 8
		nativeEndian.PutUint64(buf[off:off+8], c.Scratch[i])
	}
}

func decodeCDPPrep(buf []byte) (CDPPrep, error) {
	if len(buf) < CDPPrepSize {
		return CDPPrep{}, ErrCorrupt
	}

	var c CDPPrep
	for i := 0; i < prepSlotCount; i++ {
		off := i * 8
		c.Scratch[i] = nativeEndian.Uint64(buf[off : off+8])
	}

	return c, nil
}

// --- helpers ---

// encodeCString writes s into dst as a NUL-padded ASCII field, truncating
// to len(dst) bytes if necessary. A string of len(dst) bytes or more fills
// the field completely and leaves no terminating NUL; callers keep names
// and last_ds values short enough that one remains.
func encodeCString(dst []byte, s string) {
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// cStringFromBytes returns the NUL-terminated ASCII string stored in b.
func cStringFromBytes(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}

	return string(b)
}
