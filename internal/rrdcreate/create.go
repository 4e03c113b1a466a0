package rrdcreate

import (
	"fmt"
	"math"

	"github.com/calvinalkan/rrdgo/pkg/rpn"
	"github.com/calvinalkan/rrdgo/pkg/rrdfile"
)

// Options mirrors rrdtool's "create" verb: a step, a start time, and an
// ordered list of "DS:" / "RRA:" tokens.
type Options struct {
	Step  uint64
	Start int64
	Specs []string
}

// Create parses specs, validates them against the schema invariants, and
// initializes a new round-robin file at path through [rrdfile.Create].
func Create(path string, opts Options) (*rrdfile.File, error) {
	dsSpecs, rraSpecs, err := splitSpecs(opts.Specs)
	if err != nil {
		return nil, err
	}

	if len(dsSpecs) == 0 {
		return nil, ErrNoDS
	}

	if len(rraSpecs) == 0 {
		return nil, ErrNoRRA
	}

	dsDefs, _, err := buildDSDefs(dsSpecs)
	if err != nil {
		return nil, err
	}

	rraParsed := make([]rraSpec, 0, len(rraSpecs))
	for _, tok := range rraSpecs {
		s, err := parseRRA(tok)
		if err != nil {
			return nil, err
		}

		rraParsed = append(rraParsed, s)
	}

	rraDefs, needsV4 := expandRRASpecs(rraParsed)

	version := rrdfile.Version3
	if needsV4 {
		version = rrdfile.Version4
	}

	createOpts := rrdfile.CreateOptions{
		Version: version,
		PDPStep: opts.Step,
		LastUp:  opts.Start,
		DSDefs:  dsDefs,
		RRADefs: rraDefs,
	}

	return rrdfile.Create(path, createOpts)
}

func splitSpecs(specs []string) (dsToks, rraToks []string, err error) {
	for _, s := range specs {
		switch {
		case len(s) >= 3 && s[:3] == "DS:":
			dsToks = append(dsToks, s)
		case len(s) >= 4 && s[:4] == "RRA:":
			rraToks = append(rraToks, s)
		default:
			return nil, nil, fmt.Errorf("%w: %q", ErrMalformedSpec, s)
		}
	}

	return dsToks, rraToks, nil
}

// buildDSDefs parses every "DS:" token and compiles any COMPUTE expressions,
// enforcing invariant 6 (a COMPUTE DS may only reference DS entries declared
// earlier in the same create call) via rpn.ValidateForCompute.
func buildDSDefs(toks []string) ([]rrdfile.DSDef, []string, error) {
	specs := make([]dsSpec, 0, len(toks))
	names := make([]string, 0, len(toks))
	seen := make(map[string]bool, len(toks))

	for _, tok := range toks {
		spec, err := parseDS(tok)
		if err != nil {
			return nil, nil, err
		}

		if seen[spec.name] {
			return nil, nil, fmt.Errorf("%w: %q", ErrDuplicateName, spec.name)
		}

		seen[spec.name] = true
		specs = append(specs, spec)
		names = append(names, spec.name)
	}

	defs := make([]rrdfile.DSDef, len(specs))

	for i, spec := range specs {
		if spec.dstype != rrdfile.DSCompute {
			defs[i] = rrdfile.NewNonComputeDSDef(spec.name, spec.dstype, spec.heartbeat, spec.min, spec.max)
			continue
		}

		prog, err := compileComputeDS(spec.rpnExpr, names[:i])
		if err != nil {
			return nil, nil, err
		}

		if err := rpn.ValidateForCompute(prog, i); err != nil {
			return nil, nil, err
		}

		slots, err := rpn.CompactEncode(prog)
		if err != nil {
			return nil, nil, err
		}

		var d rrdfile.DSDef
		d.Name = spec.name
		d.Type = rrdfile.DSCompute
		d.Par = slots

		defs[i] = d
	}

	return defs, names, nil
}

// expandRRASpecs parses every "RRA:" token, expanding a bare HWPREDICT or
// MHWPREDICT entry into the five Holt-Winters RRAs rrd_create derives from
// it (itself plus SEASONAL, DEVSEASONAL, DEVPREDICT, FAILURES). It reports
// whether format version "0004" is required (MHWPREDICT, or any RRA beyond
// the four AVERAGE/MIN/MAX/LAST CFs).
func expandRRASpecs(specs []rraSpec) ([]rrdfile.RRADef, bool) {
	defs := make([]rrdfile.RRADef, 0, len(specs))
	needsV4 := false

	for _, s := range specs {
		switch s.cf {
		case rrdfile.CFAverage, rrdfile.CFMinimum, rrdfile.CFMaximum, rrdfile.CFLast:
			defs = append(defs, rrdfile.NewSimpleRRADef(s.cf, s.xff, s.pdpCnt, s.rowCnt))
		case rrdfile.CFHWPredict:
			needsV4 = true

			if s.isMHW {
				defs = append(defs, newMHWPredictDef(s.rowCnt))
			} else {
				defs = append(defs, newHWPredictDef(s.rowCnt))
			}

			defs = append(defs,
				newSeasonalDef(rrdfile.CFSeasonal, s.rowCnt),
				newSeasonalDef(rrdfile.CFDevSeasonal, s.rowCnt),
				newAuxDef(rrdfile.CFDevPredict, s.rowCnt),
				newAuxDef(rrdfile.CFFailures, s.rowCnt),
			)
		default:
			needsV4 = true
			defs = append(defs, newAuxDef(s.cf, s.rowCnt))
		}
	}

	return defs, needsV4
}

func newHWPredictDef(rowCnt uint64) rrdfile.RRADef {
	var r rrdfile.RRADef
	r.CF = rrdfile.CFHWPredict
	r.RowCnt = rowCnt
	r.PDPCnt = 1
	r.Par[0] = math.Float64bits(defaultAlpha)
	r.Par[1] = math.Float64bits(defaultBeta)
	r.Par[2] = uint64(defaultSeasonLen)

	return r
}

func newMHWPredictDef(rowCnt uint64) rrdfile.RRADef {
	r := newHWPredictDef(rowCnt)
	r.CF = rrdfile.CFMHWPredict

	return r
}

func newSeasonalDef(cf rrdfile.CF, seasonLen uint64) rrdfile.RRADef {
	var r rrdfile.RRADef
	r.CF = cf
	r.RowCnt = seasonLen
	r.PDPCnt = 1
	r.Par[1] = math.Float64bits(defaultGamma)

	return r
}

func newAuxDef(cf rrdfile.CF, rowCnt uint64) rrdfile.RRADef {
	var r rrdfile.RRADef
	r.CF = cf
	r.RowCnt = rowCnt
	r.PDPCnt = 1

	return r
}

// Holt-Winters parameters stored in every HWPREDICT/MHWPREDICT RRA and its
// auto-created SEASONAL/DEVSEASONAL companions. parseHWPredictRRA does not
// read the alpha, beta or season_length fields of an "RRA:HWPREDICT:..."
// token, so these values are written regardless of what the token says.
// These RRAs exist so create/update accept the full CF vocabulary; no
// Holt-Winters forecasting is performed.
const (
	defaultAlpha     = 0.1
	defaultBeta      = 0.0035
	defaultGamma     = 0.1
	defaultSeasonLen = 1440
)
