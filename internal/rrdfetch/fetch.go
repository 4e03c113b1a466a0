package rrdfetch

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/calvinalkan/rrdgo/internal/timeparse"
	"github.com/calvinalkan/rrdgo/pkg/rrdfile"
)

// Options describes one fetch call.
type Options struct {
	CF rrdfile.CF

	// Start and End are at-style time specifications (spec.md §4.7).
	// Start defaults to "end-1day", End defaults to "now".
	Start string
	End   string

	// Resolution requests a step in seconds; 0 lets archive selection pick
	// whichever cadence best matches the requested range.
	Resolution int64

	// Now resolves "N"/"now" and relative specs. Defaults to time.Now.
	Now func() time.Time
}

// Result is the adjusted query window plus the dense rows × ds_cnt array of
// doubles, row-major, time ascending.
type Result struct {
	Start   int64
	End     int64
	Step    int64
	DSNames []string
	Rows    [][]float64
}

// Fetch reads the archive that best matches opts against f, returning a
// dense, cadence-aligned block of rows.
func Fetch(f *rrdfile.File, opts Options) (Result, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	header, err := f.StaticHeader()
	if err != nil {
		return Result{}, err
	}

	live, err := f.LiveHead()
	if err != nil {
		return Result{}, err
	}

	start, end, err := resolveWindow(opts, now())
	if err != nil {
		return Result{}, err
	}

	if start >= end {
		return Result{}, fmt.Errorf("%w: start=%d end=%d", ErrInvalidRange, start, end)
	}

	want := opts.Resolution
	if want <= 0 {
		want = int64(header.PDPStep)
	}

	chosen, err := selectArchive(f, opts.CF, live.LastUp, int64(header.PDPStep), int(header.RRACount), start, end, want)
	if err != nil {
		return Result{}, err
	}

	r, err := f.RRADef(chosen)
	if err != nil {
		return Result{}, err
	}

	step := int64(r.PDPCnt) * int64(header.PDPStep)

	start -= floorMod(start, step)

	if rem := floorMod(end, step); rem == 0 {
		end += step
	} else {
		end += step - rem
	}

	rows := (end-start)/step + 1

	names := make([]string, header.DSCount)
	for i := range names {
		d, err := f.DSDef(i)
		if err != nil {
			return Result{}, err
		}

		names[i] = d.Name
	}

	data, err := readBlock(f, chosen, r, header.DSCount, live.LastUp, step, start, rows)
	if err != nil {
		return Result{}, err
	}

	return Result{Start: start, End: end, Step: step, DSNames: names, Rows: data}, nil
}

// readBlock materializes exactly rows rows of header.DSCount doubles each,
// reading forward through rraIdx's ring with a single wrap and filling
// positions before the archive's retained start or after its current end
// with NaN, per spec.md §4.6.
//
// The reference computes the trip count as row_cnt-end_offset-start_offset,
// which is algebraically always one less than (end-start)/step+1 — every
// query under-fills its own output buffer by exactly one row. Rather than
// port that discrepancy, the loop here runs exactly rows times starting at
// start_offset, which is what the spec's "compute ring offsets... read
// forward with a single wrap" prose describes and what a caller expecting
// rows output rows actually needs. See DESIGN.md.
func readBlock(f *rrdfile.File, rraIdx int, r rrdfile.RRADef, dsCount uint64, lastUp, step, start, rows int64) ([][]float64, error) {
	cur, err := f.RRAPtr(rraIdx)
	if err != nil {
		return nil, err
	}

	rowCnt := int64(r.RowCnt)

	rraEndTime := lastUp - floorMod(lastUp, step)
	rraStartTime := rraEndTime - step*(rowCnt-1)

	startOffset := (start + step - rraStartTime) / step

	ringPos := int64(cur) + 1
	if startOffset > 0 {
		ringPos += startOffset
	}

	ringPos = ((ringPos % rowCnt) + rowCnt) % rowCnt

	out := make([][]float64, 0, rows)

	for count := int64(0); count < rows; count++ {
		i := startOffset + count

		if i < 0 || i >= rowCnt {
			out = append(out, nanRow(int(dsCount)))
			continue
		}

		row, err := f.Row(rraIdx, uint64(ringPos))
		if err != nil {
			return nil, err
		}

		out = append(out, row)
		ringPos = (ringPos + 1) % rowCnt
	}

	return out, nil
}

func nanRow(n int) []float64 {
	row := make([]float64, n)
	for i := range row {
		row[i] = math.NaN()
	}

	return row
}

// resolveWindow parses opts.Start/opts.End against wallNow. End is resolved
// first, so Start may reference it ("end-1d"); End cannot reference Start.
func resolveWindow(opts Options, wallNow time.Time) (int64, int64, error) {
	endSpec := strings.TrimSpace(opts.End)
	if endSpec == "" {
		endSpec = "now"
	}

	startSpec := strings.TrimSpace(opts.Start)
	if startSpec == "" {
		startSpec = "end-1d"
	}

	p := timeparse.NewParser(wallNow)

	endT, err := p.Parse(endSpec)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: end %q: %v", ErrMalformedTime, endSpec, err)
	}

	p.End = &endT

	startT, err := p.Parse(startSpec)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: start %q: %v", ErrMalformedTime, startSpec, err)
	}

	return startT.Unix(), endT.Unix(), nil
}
