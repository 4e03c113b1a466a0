package rrdfetch

import (
	"fmt"

	"github.com/calvinalkan/rrdgo/pkg/rrdfile"
)

// candidate is one RRA's retained-window bookkeeping used by archive
// selection, mirroring rrd_fetch_fn's best_full_rra/best_part_rra tracking.
type candidate struct {
	index   int
	cadence int64
}

// selectArchive picks the RRA that best serves [start, end] at the
// requested resolution, per spec.md §4.6: prefer any RRA whose retained
// window fully contains start, breaking ties by cadence closeness to want;
// otherwise the RRA whose retained window covers the largest portion of
// [start, end], ties again broken by cadence closeness.
func selectArchive(f *rrdfile.File, cf rrdfile.CF, lastUp int64, pdpStep int64, rraCount int, start, end, want int64) (int, error) {
	var (
		haveFull, havePart         bool
		bestFull, bestPart         candidate
		bestFullDiff, bestPartDiff int64
		bestPartCoverage           int64
	)

	fullRange := end - start

	for i := 0; i < rraCount; i++ {
		r, err := f.RRADef(i)
		if err != nil {
			return 0, err
		}

		if r.CF != cf {
			continue
		}

		cadence := int64(r.PDPCnt) * pdpStep
		if cadence <= 0 {
			continue
		}

		calEnd := lastUp - floorMod(lastUp, cadence)
		calStart := calEnd - int64(r.RowCnt)*cadence

		stepDiff := abs64(want - cadence)

		if calStart <= start {
			if !haveFull || stepDiff < bestFullDiff {
				haveFull = true
				bestFullDiff = stepDiff
				bestFull = candidate{index: i, cadence: cadence}
			}

			continue
		}

		coverage := fullRange
		if calStart > start {
			coverage -= calStart - start
		}

		if !havePart || coverage > bestPartCoverage || (coverage == bestPartCoverage && stepDiff < bestPartDiff) {
			havePart = true
			bestPartCoverage = coverage
			bestPartDiff = stepDiff
			bestPart = candidate{index: i, cadence: cadence}
		}
	}

	if haveFull {
		return bestFull.index, nil
	}

	if havePart {
		return bestPart.index, nil
	}

	return 0, fmt.Errorf("%w: cf %s", ErrNoMatchingArchive, cf.String())
}

func floorMod(a, m int64) int64 {
	r := a % m
	if r < 0 {
		r += m
	}

	return r
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}

	return v
}
