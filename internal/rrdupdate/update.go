package rrdupdate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/calvinalkan/rrdgo/internal/timeparse"
	"github.com/calvinalkan/rrdgo/pkg/rrdfile"
)

// Options describes one update call: an optional DS-name template fixing
// the argument field order, and the argument lines themselves.
type Options struct {
	// Template, if non-empty, lists DS names in the order values appear in
	// each argument line. DS names omitted from Template are treated as
	// unknown ("U") for every argument in this call. Empty means file
	// order, every non-COMPUTE DS required.
	Template []string

	// Args are argument lines of the form "<time>:<v1>:<v2>:...".
	Args []string

	// Now resolves "N" and relative time specs. Defaults to time.Now.
	Now func() time.Time
}

// Outcome reports how many argument lines were applied versus silently
// dropped for being non-monotonic (spec.md §9.1: a deliberately undecided
// point in the reference; this engine treats it as a typed outcome rather
// than inventing a new error class).
type Outcome struct {
	Applied int
	Skipped int
}

// Update applies opts.Args to f in order, each argument fully committed
// before the next; already-applied arguments remain committed even if a
// later one fails.
func Update(f *rrdfile.File, opts Options) (Outcome, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	order, err := resolveTemplate(f, opts.Template)
	if err != nil {
		return Outcome{}, err
	}

	header, err := f.StaticHeader()
	if err != nil {
		return Outcome{}, err
	}

	var out Outcome

	for _, arg := range opts.Args {
		applied, err := applyArg(f, header, order, arg, now())
		if err != nil {
			return out, err
		}

		if applied {
			out.Applied++
		} else {
			out.Skipped++
		}
	}

	return out, nil
}

func applyArg(f *rrdfile.File, header rrdfile.StaticHeader, order []int, arg string, wallNow time.Time) (bool, error) {
	fields := strings.Split(arg, ":")
	if len(fields) < 1 {
		return false, fmt.Errorf("%w: %q", ErrMalformedArg, arg)
	}

	if len(fields)-1 != len(order) {
		return false, fmt.Errorf("%w: got %d values, want %d", ErrFieldCount, len(fields)-1, len(order))
	}

	sampleTime, err := parseUpdateTime(wallNow, fields[0])
	if err != nil {
		return false, fmt.Errorf("%w: time %q: %v", ErrMalformedArg, fields[0], err)
	}

	literals := make([]string, int(header.DSCount))
	for i := range literals {
		literals[i] = "U"
	}

	for pos, dsIdx := range order {
		literals[dsIdx] = strings.TrimSpace(fields[pos+1])
	}

	live, err := f.LiveHead()
	if err != nil {
		return false, err
	}

	nowSec := sampleTime.Unix()
	nowUs := int64(sampleTime.Nanosecond() / 1000)

	if nowSec < live.LastUp || (nowSec == live.LastUp && nowUs <= live.LastUpUsec) {
		return false, nil
	}

	nowTotal := float64(nowSec) + float64(nowUs)/1e6
	lastTotal := float64(live.LastUp) + float64(live.LastUpUsec)/1e6
	interval := nowTotal - lastTotal

	step := int64(header.PDPStep)
	elapsed := floorDiv(nowSec, step) - floorDiv(live.LastUp, step)

	var pre, post float64
	if elapsed == 0 {
		pre, post = interval, 0
	} else {
		firstBoundary := (floorDiv(live.LastUp, step) + 1) * step
		pre = float64(firstBoundary) - lastTotal
		lastBoundary := floorDiv(nowSec, step) * step
		post = nowTotal - float64(lastBoundary)
	}

	nonPeriodic := false

	pdpTemps := make([]float64, header.DSCount)
	var dsDefs []rrdfile.DSDef

	for i := 0; i < int(header.DSCount); i++ {
		d, err := f.DSDef(i)
		if err != nil {
			return false, err
		}

		dsDefs = append(dsDefs, d)

		if lit := literals[i]; lit != "" && lit != "U" {
			switch d.Type {
			case rrdfile.DSCounter, rrdfile.DSDerive:
				if digits := strings.TrimPrefix(lit, "-"); digits == "" || strings.Trim(digits, "0123456789") != "" {
					return false, fmt.Errorf("%w: ds %q value %q", ErrBadCounterValue, d.Name, lit)
				}
			case rrdfile.DSGauge, rrdfile.DSAbsolute:
				if _, err := strconv.ParseFloat(lit, 64); err != nil {
					return false, fmt.Errorf("%w: ds %q value %q", ErrMalformedArg, d.Name, lit)
				}
			}
		}

		if d.Heartbeat() > 0 && float64(d.Heartbeat()) < interval {
			nonPeriodic = true
		}
	}

	for i, d := range dsDefs {
		prep, err := f.PDPPrep(i)
		if err != nil {
			return false, err
		}

		contribution := math.NaN()
		if d.Type != rrdfile.DSCompute {
			contribution = rawContribution(d, prep.LastDS, literals[i], interval)
		}

		newPrep := prep

		if elapsed == 0 {
			if math.IsNaN(contribution) {
				newPrep.Scratch[0] = floatBits(prep.UnknownSecCnt() + math.Floor(interval))
			} else {
				base := prep.Value()
				if math.IsNaN(base) {
					base = 0
				}

				newPrep.Scratch[1] = floatBits(base + contribution)
			}

			pdpTemps[i] = math.NaN()
		} else {
			// unknownSecondsBefore is the PDP window's accounting from
			// before this call; the reference checks it against a fixed
			// half-step threshold, not half the (possibly multi-step)
			// window that just elapsed.
			unknownSecondsBefore := prep.UnknownSecCnt()

			base := prep.Value()
			if math.IsNaN(base) {
				base = 0
			}

			preUnknown := 0.0
			if math.IsNaN(contribution) {
				preUnknown = pre
			} else if interval > 0 {
				base += contribution / interval * pre
			} else {
				base += contribution
			}

			window := float64(elapsed) * float64(header.PDPStep)

			var pdpTemp float64
			switch {
			case d.Type == rrdfile.DSCompute:
				pdpTemp = math.NaN() // resolved later, from other DS pdp_temps
			case float64(header.PDPStep)/2.0 < unknownSecondsBefore:
				pdpTemp = math.NaN()
			default:
				pdpTemp = base / (window - unknownSecondsBefore - preUnknown)
			}

			pdpTemps[i] = pdpTemp

			if math.IsNaN(contribution) {
				newPrep.Scratch[0] = floatBits(math.Floor(post))
				newPrep.Scratch[1] = floatBits(math.NaN())
			} else {
				seedVal := contribution
				if interval > 0 {
					seedVal = contribution / interval * post
				}

				newPrep.Scratch[0] = floatBits(0)
				newPrep.Scratch[1] = floatBits(seedVal)
			}
		}

		newPrep.LastDS = truncateLastDS(literals[i])

		if err := f.SetPDPPrep(i, newPrep); err != nil {
			return false, err
		}
	}

	// Resolve COMPUTE DSes now that every non-COMPUTE pdp_temp is known;
	// invariant 6 guarantees forward-only references, so a single
	// left-to-right pass resolves every dependency.
	if elapsed != 0 {
		if err := resolveComputePDPs(dsDefs, pdpTemps); err != nil {
			return false, err
		}
	}

	if elapsed != 0 {
		if err := rollupAndWrite(f, int(header.RRACount), int(header.DSCount), elapsed, pdpTemps, nonPeriodic); err != nil {
			return false, err
		}
	}

	if err := f.SetLiveHead(rrdfile.LiveHead{LastUp: nowSec, LastUpUsec: nowUs}); err != nil {
		return false, err
	}

	if err := f.Sync(); err != nil {
		return false, err
	}

	return true, nil
}

func floatBits(v float64) uint64 { return math.Float64bits(v) }

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}

	return q
}

func parseUpdateTime(wallNow time.Time, s string) (time.Time, error) {
	tok := strings.TrimPrefix(s, "@")
	return timeparse.Parse(wallNow, tok)
}
