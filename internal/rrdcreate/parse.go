package rrdcreate

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/calvinalkan/rrdgo/pkg/rpn"
	"github.com/calvinalkan/rrdgo/pkg/rrdfile"
)

// dsSpec is a parsed "DS:" token, not yet resolved to a [rrdfile.DSDef]
// (COMPUTE programs are compiled later, once every DS name is known).
type dsSpec struct {
	name      string
	dstype    rrdfile.DSType
	heartbeat uint64
	min, max  float64
	rpnExpr   string
}

// rraSpec is a parsed "RRA:" token.
type rraSpec struct {
	cf       rrdfile.CF
	xff      float64
	pdpCnt   uint64
	rowCnt   uint64
	isMHW    bool
	hasSmooth bool
}

// parseDS parses a "DS:name:TYPE:..." token.
func parseDS(tok string) (dsSpec, error) {
	fields := strings.Split(tok, ":")
	if len(fields) < 3 || fields[0] != "DS" {
		return dsSpec{}, fmt.Errorf("%w: %q", ErrMalformedSpec, tok)
	}

	name := fields[1]
	if !validDSName(name) {
		return dsSpec{}, fmt.Errorf("%w: invalid ds name %q", ErrMalformedSpec, name)
	}

	typeName := strings.ToUpper(fields[2])

	if typeName == "COMPUTE" {
		if len(fields) != 4 {
			return dsSpec{}, fmt.Errorf("%w: %q", ErrMalformedSpec, tok)
		}

		return dsSpec{name: name, dstype: rrdfile.DSCompute, rpnExpr: fields[3]}, nil
	}

	dstype, ok := rrdfile.ParseDSType(typeName)
	if !ok {
		return dsSpec{}, fmt.Errorf("%w: %q", ErrUnknownType, typeName)
	}

	if len(fields) != 6 {
		return dsSpec{}, fmt.Errorf("%w: %q", ErrMalformedSpec, tok)
	}

	hb, err := strconv.ParseUint(fields[3], 10, 64)
	if err != nil {
		return dsSpec{}, fmt.Errorf("%w: heartbeat %q: %v", ErrMalformedSpec, fields[3], err)
	}

	minV, err := parseBoundOrUnknown(fields[4])
	if err != nil {
		return dsSpec{}, err
	}

	maxV, err := parseBoundOrUnknown(fields[5])
	if err != nil {
		return dsSpec{}, err
	}

	if !math.IsNaN(minV) && !math.IsNaN(maxV) && minV >= maxV {
		return dsSpec{}, fmt.Errorf("%w: %v >= %v", ErrInvalidBounds, minV, maxV)
	}

	return dsSpec{name: name, dstype: dstype, heartbeat: hb, min: minV, max: maxV}, nil
}

func parseBoundOrUnknown(s string) (float64, error) {
	if s == "U" || s == "u" {
		return math.NaN(), nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bound %q: %v", ErrMalformedSpec, s, err)
	}

	return v, nil
}

func validDSName(name string) bool {
	if len(name) < 1 || len(name) > 19 {
		return false
	}

	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}

	return true
}

// parseRRA parses an "RRA:CF:..." token.
func parseRRA(tok string) (rraSpec, error) {
	fields := strings.Split(tok, ":")
	if len(fields) < 2 || fields[0] != "RRA" {
		return rraSpec{}, fmt.Errorf("%w: %q", ErrMalformedSpec, tok)
	}

	cfName := strings.ToUpper(fields[1])

	switch cfName {
	case "AVERAGE", "MIN", "MAX", "LAST":
		return parseSimpleRRA(cfName, fields, tok)
	case "HWPREDICT", "MHWPREDICT":
		return parseHWPredictRRA(cfName, fields, tok)
	case "SEASONAL", "DEVSEASONAL":
		return parseSeasonalRRA(cfName, fields, tok)
	case "DEVPREDICT":
		return parseDevPredictRRA(fields, tok)
	case "FAILURES":
		return parseFailuresRRA(fields, tok)
	default:
		return rraSpec{}, fmt.Errorf("%w: %q", ErrUnknownType, cfName)
	}
}

func parseSimpleRRA(cfName string, fields []string, tok string) (rraSpec, error) {
	if len(fields) != 5 {
		return rraSpec{}, fmt.Errorf("%w: %q", ErrMalformedSpec, tok)
	}

	cf, _ := rrdfile.ParseCF(cfName)

	xff, err := strconv.ParseFloat(fields[2], 64)
	if err != nil || xff < 0 || xff >= 1 {
		return rraSpec{}, fmt.Errorf("%w: xff %q must be in [0,1)", ErrMalformedSpec, fields[2])
	}

	pdpCnt, err := strconv.ParseUint(fields[3], 10, 64)
	if err != nil || pdpCnt < 1 {
		return rraSpec{}, fmt.Errorf("%w: pdp_cnt %q must be >= 1", ErrMalformedSpec, fields[3])
	}

	rowCnt, err := strconv.ParseUint(fields[4], 10, 64)
	if err != nil || rowCnt < 1 {
		return rraSpec{}, fmt.Errorf("%w: row_cnt %q must be >= 1", ErrMalformedSpec, fields[4])
	}

	return rraSpec{cf: cf, xff: xff, pdpCnt: pdpCnt, rowCnt: rowCnt}, nil
}

// parseHWPredictRRA parses "RRA:HWPREDICT:row_cnt:alpha:beta:season_length[:smoothing-window=<v>]".
// A dependent-RRA index is not accepted here: per §4.4, when HWPREDICT/
// MHWPREDICT appears without one, four auto-created RRAs are appended
// (handled by expandRRASpecs in create.go), so this parser only ever sees the
// "auto-expand" form.
func parseHWPredictRRA(cfName string, fields []string, tok string) (rraSpec, error) {
	if len(fields) < 5 {
		return rraSpec{}, fmt.Errorf("%w: %q", ErrMalformedSpec, tok)
	}

	rowCnt, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil || rowCnt < 1 {
		return rraSpec{}, fmt.Errorf("%w: row_cnt %q must be >= 1", ErrMalformedSpec, fields[2])
	}

	hasSmooth := false

	for _, extra := range fields[5:] {
		if strings.HasPrefix(strings.ToLower(extra), "smoothing-window=") {
			hasSmooth = true
		}
	}

	cf := rrdfile.CFHWPredict

	return rraSpec{
		cf:        cf,
		pdpCnt:    1,
		rowCnt:    rowCnt,
		isMHW:     cfName == "MHWPREDICT",
		hasSmooth: hasSmooth,
	}, nil
}

func parseSeasonalRRA(cfName string, fields []string, tok string) (rraSpec, error) {
	if len(fields) < 3 {
		return rraSpec{}, fmt.Errorf("%w: %q", ErrMalformedSpec, tok)
	}

	rowCnt, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil || rowCnt < 1 {
		return rraSpec{}, fmt.Errorf("%w: season length %q must be >= 1", ErrMalformedSpec, fields[2])
	}

	cf, _ := rrdfile.ParseCF(cfName)

	return rraSpec{cf: cf, pdpCnt: 1, rowCnt: rowCnt}, nil
}

func parseDevPredictRRA(fields []string, tok string) (rraSpec, error) {
	if len(fields) < 3 {
		return rraSpec{}, fmt.Errorf("%w: %q", ErrMalformedSpec, tok)
	}

	rowCnt, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil || rowCnt < 1 {
		return rraSpec{}, fmt.Errorf("%w: row_cnt %q must be >= 1", ErrMalformedSpec, fields[2])
	}

	return rraSpec{cf: rrdfile.CFDevPredict, pdpCnt: 1, rowCnt: rowCnt}, nil
}

func parseFailuresRRA(fields []string, tok string) (rraSpec, error) {
	if len(fields) < 3 {
		return rraSpec{}, fmt.Errorf("%w: %q", ErrMalformedSpec, tok)
	}

	rowCnt, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil || rowCnt < 1 {
		return rraSpec{}, fmt.Errorf("%w: row_cnt %q must be >= 1", ErrMalformedSpec, fields[2])
	}

	return rraSpec{cf: rrdfile.CFFailures, pdpCnt: 1, rowCnt: rowCnt}, nil
}

// compileComputeDS compiles a COMPUTE DS's RPN expression against the
// names of every DS declared so far (forward-only dependency, invariant 6).
func compileComputeDS(expr string, names []string) (rpn.Program, error) {
	resolve := func(name string) (int, bool) {
		for i, n := range names {
			if n == name {
				return i, true
			}
		}

		return 0, false
	}

	return rpn.Compile(expr, resolve)
}
