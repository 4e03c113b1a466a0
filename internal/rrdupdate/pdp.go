package rrdupdate

import (
	"math"
	"strconv"

	"github.com/calvinalkan/rrdgo/pkg/rrdfile"
)

// rawContribution computes one DS's raw PDP contribution for the interval
// that just elapsed: a "total over interval" quantity (not yet a rate),
// consistent across DS types so the pdp_temp formula in finalizePDP can
// treat them uniformly. It returns NaN when the reading, the heartbeat, or
// the derived rate disqualifies the sample (spec.md §4.5 step 2).
func rawContribution(d rrdfile.DSDef, prevLiteral, curLiteral string, interval float64) float64 {
	if curLiteral == "" || curLiteral == "U" {
		return math.NaN()
	}

	if d.Heartbeat() > 0 && float64(d.Heartbeat()) < interval {
		return math.NaN()
	}

	var contribution float64

	switch d.Type {
	case rrdfile.DSCounter, rrdfile.DSDerive:
		prevKnown := prevLiteral != "" && prevLiteral != "U"
		if !prevKnown {
			return math.NaN()
		}

		cur, ok := parseCounterLiteral(curLiteral)
		if !ok {
			return math.NaN()
		}

		prev, ok := parseCounterLiteral(prevLiteral)
		if !ok {
			return math.NaN()
		}

		diff := cur - prev

		if d.Type == rrdfile.DSCounter {
			if diff < 0 {
				diff += 4294967296 // 2^32
			}

			if diff < 0 {
				diff += 18446744069414584320.0 // 2^64 - 2^32
			}
		}

		contribution = diff
	case rrdfile.DSAbsolute:
		v, err := strconv.ParseFloat(curLiteral, 64)
		if err != nil {
			return math.NaN()
		}

		contribution = v
	case rrdfile.DSGauge:
		v, err := strconv.ParseFloat(curLiteral, 64)
		if err != nil {
			return math.NaN()
		}

		contribution = v * interval
	case rrdfile.DSCompute:
		// resolved later, during PDP finalization, from other DS's pdp_temp.
		return math.NaN()
	}

	if interval <= 0 {
		return contribution
	}

	rate := contribution / interval

	min, max := d.Min(), d.Max()
	if !math.IsNaN(min) && rate < min {
		return math.NaN()
	}

	if !math.IsNaN(max) && rate > max {
		return math.NaN()
	}

	return contribution
}

func parseCounterLiteral(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}

	return v, true
}

// truncateLastDS caps a reading literal at 29 bytes, matching the on-disk
// last_ds field's capacity.
func truncateLastDS(s string) string {
	const maxLen = 29
	if len(s) <= maxLen {
		return s
	}

	return s[:maxLen]
}
