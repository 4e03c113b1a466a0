package rrdupdate

import (
	"github.com/calvinalkan/rrdgo/pkg/rpn"
	"github.com/calvinalkan/rrdgo/pkg/rrdfile"
)

// resolveComputePDPs fills in pdpTemps[i] for every COMPUTE DS by
// evaluating its compacted RPN program against the pdp_temp values of
// lower-indexed DSes, which is why this runs after every non-COMPUTE
// pdp_temp has already been finalized and why invariant 6 (forward-only
// dependency) makes a single left-to-right pass sufficient.
func resolveComputePDPs(dsDefs []rrdfile.DSDef, pdpTemps []float64) error {
	for i, d := range dsDefs {
		if d.Type != rrdfile.DSCompute {
			continue
		}

		prog, err := rpn.CompactDecode(d.Par)
		if err != nil {
			return err
		}

		v, err := rpn.Eval(prog, rpn.EvalContext{Values: pdpTemps, OwnIndex: i})
		if err != nil {
			return err
		}

		pdpTemps[i] = v
	}

	return nil
}
