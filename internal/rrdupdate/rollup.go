package rrdupdate

import (
	"math"

	"github.com/calvinalkan/rrdgo/pkg/rrdfile"
)

// rollupAndWrite folds elapsed PDPs into every RRA's CDP state and, for any
// RRA that closes at least one CDP boundary, writes the resulting rows into
// the ring.
//
// Per-(RRA,DS) CDP bookkeeping uses the documented scratch slots (value at
// 0, unknown-PDP-count at 1, primary/secondary at 8/9) plus one slot (2)
// not given a meaning by the reference format, here repurposed to track how
// many PDPs have accumulated into the in-progress CDP window — the
// reference computes this from ring/row arithmetic relative to last_up
// instead of storing it explicitly; storing it directly is an equivalent,
// simpler invariant to maintain across update calls.
func rollupAndWrite(f *rrdfile.File, rraCount, dsCount int, elapsed int64, pdpTemps []float64, nonPeriodic bool) error {
	for rraIdx := 0; rraIdx < rraCount; rraIdx++ {
		r, err := f.RRADef(rraIdx)
		if err != nil {
			return err
		}

		if r.CF.IsHW() {
			// Holt-Winters rollup math is out of scope for the core (spec.md
			// §1): this archive's CDP prep is left untouched and no rows are
			// written to it. Each RRA keeps its own CDP bookkeeping, so the
			// AVERAGE/MIN/MAX/LAST RRAs in the same file are unaffected.
			continue
		}

		primary := make([]float64, dsCount)
		secondary := make([]float64, dsCount)

		stepCnt, err := foldRRA(f, rraIdx, dsCount, r, elapsed, pdpTemps, primary, secondary)
		if err != nil {
			return err
		}

		if stepCnt == 0 {
			continue
		}

		if err := writeRows(f, rraIdx, r, stepCnt, primary, secondary, nonPeriodic); err != nil {
			return err
		}
	}

	return nil
}

// foldRRA updates the CDP state for every DS of one RRA and returns how
// many CDP boundaries were crossed (0 if the RRA's window hasn't filled
// yet), populating primary/secondary with the values to write if any.
func foldRRA(
	f *rrdfile.File, rraIdx, dsCount int, r rrdfile.RRADef, elapsed int64, pdpTemps []float64,
	primary, secondary []float64,
) (uint64, error) {
	pdpsPerCDP := r.PDPCnt
	if pdpsPerCDP == 0 {
		pdpsPerCDP = 1
	}

	var stepCnt uint64

	for dsIdx := 0; dsIdx < dsCount; dsIdx++ {
		c, err := f.CDPPrep(rraIdx, dsIdx)
		if err != nil {
			return 0, err
		}

		pdpTemp := pdpTemps[dsIdx]
		already := uint64(math.Float64frombits(c.Scratch[2]))
		total := already + uint64(elapsed)

		thisStepCnt := total / pdpsPerCDP
		if thisStepCnt > stepCnt {
			stepCnt = thisStepCnt
		}

		if thisStepCnt == 0 {
			for k := int64(0); k < elapsed; k++ {
				accumulate(r.CF, &c, pdpTemp)
			}
			c.Scratch[2] = math.Float64bits(float64(total))

			if err := f.SetCDPPrep(rraIdx, dsIdx, c); err != nil {
				return 0, err
			}

			continue
		}

		newPDPsToClose := pdpsPerCDP - already
		if already == 0 {
			newPDPsToClose = pdpsPerCDP
		}

		unknownCount := math.Float64frombits(c.Scratch[1])
		if math.IsNaN(pdpTemp) {
			unknownCount += float64(newPDPsToClose)
		}

		xff := r.XFF()

		primary[dsIdx] = finalizeCDP(r.CF, math.Float64frombits(c.Scratch[0]), pdpTemp, newPDPsToClose, pdpsPerCDP, unknownCount, xff)
		secondary[dsIdx] = pdpTemp

		leftover := total - thisStepCnt*pdpsPerCDP

		var reseed float64

		switch r.CF {
		case rrdfile.CFMinimum:
			reseed = math.Inf(1)
		case rrdfile.CFMaximum:
			reseed = math.Inf(-1)
		default:
			reseed = 0
		}

		reseedUnknown := 0.0

		if leftover > 0 && !math.IsNaN(pdpTemp) {
			switch r.CF {
			case rrdfile.CFAverage:
				reseed = pdpTemp * float64(leftover)
			case rrdfile.CFMinimum, rrdfile.CFMaximum, rrdfile.CFLast:
				reseed = pdpTemp
			}
		} else if leftover > 0 {
			reseedUnknown = float64(leftover)
		}

		c.Scratch[0] = math.Float64bits(reseed)
		c.Scratch[1] = math.Float64bits(reseedUnknown)
		c.Scratch[2] = math.Float64bits(float64(leftover))
		c.Scratch[8] = math.Float64bits(primary[dsIdx])
		c.Scratch[9] = math.Float64bits(secondary[dsIdx])

		if err := f.SetCDPPrep(rraIdx, dsIdx, c); err != nil {
			return 0, err
		}
	}

	return stepCnt, nil
}

// accumulate folds one PDP's pdp_temp into an in-progress (not yet closing)
// CDP window per the CF's consolidation rule. The unknown-PDP count (used
// by every CF's xff check, not just AVERAGE's) is tracked uniformly.
func accumulate(cf rrdfile.CF, c *rrdfile.CDPPrep, pdpTemp float64) {
	if math.IsNaN(pdpTemp) {
		c.Scratch[1] = math.Float64bits(math.Float64frombits(c.Scratch[1]) + 1)
		return
	}

	val := math.Float64frombits(c.Scratch[0])

	switch cf {
	case rrdfile.CFAverage:
		val += pdpTemp
	case rrdfile.CFMinimum:
		val = math.Min(val, pdpTemp)
	case rrdfile.CFMaximum:
		val = math.Max(val, pdpTemp)
	case rrdfile.CFLast:
		val = pdpTemp
	}

	c.Scratch[0] = math.Float64bits(val)
}

// finalizeCDP computes the primary CDP value closing a CDP window: the
// window's running accumulator folded with the newPDPs-worth of the
// just-closed pdp_temp, turned into a single consolidated value, NaN if
// the unknown fraction exceeds xff.
func finalizeCDP(cf rrdfile.CF, accumulated, pdpTemp float64, newPDPs, pdpsPerCDP uint64, unknownCount, xff float64) float64 {
	if pdpsPerCDP > 0 && unknownCount/float64(pdpsPerCDP) > xff {
		return math.NaN()
	}

	switch cf {
	case rrdfile.CFAverage:
		sum := accumulated
		if !math.IsNaN(pdpTemp) {
			sum += pdpTemp * float64(newPDPs)
		}

		return sum / float64(pdpsPerCDP)
	case rrdfile.CFMinimum:
		if math.IsNaN(pdpTemp) {
			return accumulated
		}

		return math.Min(accumulated, pdpTemp)
	case rrdfile.CFMaximum:
		if math.IsNaN(pdpTemp) {
			return accumulated
		}

		return math.Max(accumulated, pdpTemp)
	case rrdfile.CFLast:
		if math.IsNaN(pdpTemp) {
			return accumulated
		}

		return pdpTemp
	default:
		return pdpTemp
	}
}

// writeRows advances rraIdx's ring pointer by stepCnt and writes the
// resulting rows: row 1 gets the primary CDP, every subsequent row gets the
// secondary CDP (or NaN, if nonPeriodic forces intermediate rows unknown
// per spec.md §4.5 step 7 and the Open-Question decision in DESIGN.md).
func writeRows(f *rrdfile.File, rraIdx int, r rrdfile.RRADef, stepCnt uint64, primary, secondary []float64, nonPeriodic bool) error {
	cur, err := f.RRAPtr(rraIdx)
	if err != nil {
		return err
	}

	numRows := stepCnt
	if numRows > r.RowCnt {
		numRows = r.RowCnt
	}

	for step := uint64(1); step <= numRows; step++ {
		row := (cur + step) % r.RowCnt

		values := secondary
		if step == 1 {
			values = primary
		} else if nonPeriodic {
			values = nanRow(len(primary))
		}

		if err := f.SetRow(rraIdx, row, values); err != nil {
			return err
		}
	}

	newCur := (cur + stepCnt) % r.RowCnt

	return f.SetRRAPtr(rraIdx, newCur)
}

func nanRow(n int) []float64 {
	row := make([]float64, n)
	for i := range row {
		row[i] = math.NaN()
	}

	return row
}
