package rpn

import "fmt"

// ValidateForCompute enforces invariants 5 and 6 against a COMPUTE DS's
// program: forbidden operators are rejected, and every VARIABLE/PREV_OTHER
// reference must name a DS strictly lower-indexed than ownIndex (forward
// dependencies only).
func ValidateForCompute(prog Program, ownIndex int) error {
	for _, n := range prog {
		if forbiddenInCompute[n.Op] {
			return fmt.Errorf("%w: %s", ErrForbiddenOperator, n.Op)
		}

		switch n.Op {
		case OpVariable, OpPrevOther:
			if int(n.Val) >= ownIndex {
				return fmt.Errorf("%w: ds index %d referenced from ds index %d", ErrBackwardReference, n.Val, ownIndex)
			}
		}
	}

	return nil
}
