package rpn

import (
	"fmt"
	"math"
	"sort"
)

// EvalContext supplies the external state an evaluation may reference.
// rpn has no package-level mutable state: every call carries its own
// context, so concurrent evaluations never interfere with each other.
type EvalContext struct {
	// Values holds each DS's freshly computed pdp_temp, indexed by DS
	// index. A COMPUTE program may only read indices lower than its own
	// (enforced by [ValidateForCompute], not by Eval).
	Values []float64

	// Prevs holds each DS's previous evaluation result, indexed by DS
	// index; used by PREV (own index) and PREV_OTHER.
	Prevs []float64

	// OwnIndex is the DS index the program is being evaluated for, used to
	// resolve PREV against Prevs[OwnIndex].
	OwnIndex int

	// Now is the current step time, used by NOW/TIME/LTIME.
	Now float64

	// Count is a caller-maintained evaluation counter, used by COUNT.
	Count int64
}

// Eval runs prog to completion and returns the single value left on the
// stack. Stack underflow, a final stack depth != 1, or a graph-only
// operator (TREND/TRENDNAN/PREDICT/PREDICTSIGMA) are errors.
func Eval(prog Program, ctx EvalContext) (float64, error) {
	var stack []float64

	pop := func() (float64, error) {
		if len(stack) == 0 {
			return 0, ErrStackUnderflow
		}

		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		return v, nil
	}

	popCount := func() (int, error) {
		n, err := pop()
		if err != nil {
			return 0, err
		}

		if math.IsNaN(n) || n < 0 {
			return 0, fmt.Errorf("%w: invalid aggregation count %v", ErrSyntax, n)
		}

		return int(n), nil
	}

	popN := func(n int) ([]float64, error) {
		if len(stack) < n {
			return nil, ErrStackUnderflow
		}

		vals := append([]float64(nil), stack[len(stack)-n:]...)
		stack = stack[:len(stack)-n]

		return vals, nil
	}

	push := func(v float64) { stack = append(stack, v) }

	boolf := func(b bool) float64 {
		if b {
			return 1
		}

		return 0
	}

	for _, n := range prog {
		switch n.Op {
		case OpNumber:
			push(float64(n.Val))
		case OpVariable:
			v, err := valueAt(ctx.Values, int(n.Val))
			if err != nil {
				return 0, err
			}

			push(v)
		case OpInf:
			push(math.Inf(1))
		case OpNegInf:
			push(math.Inf(-1))
		case OpUnkn:
			push(math.NaN())
		case OpNow:
			push(ctx.Now)
		case OpTime:
			push(ctx.Now)
		case OpLTime:
			push(ctx.Now)
		case OpCount:
			push(float64(ctx.Count))
		case OpPrev:
			v, err := valueAt(ctx.Prevs, ctx.OwnIndex)
			if err != nil {
				return 0, err
			}

			push(v)
		case OpPrevOther:
			v, err := valueAt(ctx.Prevs, int(n.Val))
			if err != nil {
				return 0, err
			}

			push(v)

		case OpAdd, OpSub, OpMul, OpDiv, OpMod:
			b, err := pop()
			if err != nil {
				return 0, err
			}

			a, err := pop()
			if err != nil {
				return 0, err
			}

			switch n.Op {
			case OpAdd:
				push(a + b)
			case OpSub:
				push(a - b)
			case OpMul:
				push(a * b)
			case OpDiv:
				push(a / b)
			case OpMod:
				push(math.Mod(a, b))
			}
		case OpAddNan:
			b, err := pop()
			if err != nil {
				return 0, err
			}

			a, err := pop()
			if err != nil {
				return 0, err
			}

			if math.IsNaN(a) {
				a = 0
			}

			if math.IsNaN(b) {
				b = 0
			}

			push(a + b)

		case OpSin, OpCos, OpLog, OpExp, OpSqrt, OpAtan, OpFloor, OpCeil, OpRad2Deg, OpDeg2Rad, OpAbs:
			a, err := pop()
			if err != nil {
				return 0, err
			}

			switch n.Op {
			case OpSin:
				push(math.Sin(a))
			case OpCos:
				push(math.Cos(a))
			case OpLog:
				push(math.Log(a))
			case OpExp:
				push(math.Exp(a))
			case OpSqrt:
				push(math.Sqrt(a))
			case OpAtan:
				push(math.Atan(a))
			case OpFloor:
				push(math.Floor(a))
			case OpCeil:
				push(math.Ceil(a))
			case OpRad2Deg:
				push(a * 180 / math.Pi)
			case OpDeg2Rad:
				push(a * math.Pi / 180)
			case OpAbs:
				push(math.Abs(a))
			}
		case OpAtan2:
			b, err := pop()
			if err != nil {
				return 0, err
			}

			a, err := pop()
			if err != nil {
				return 0, err
			}

			push(math.Atan2(a, b))

		case OpDup:
			a, err := pop()
			if err != nil {
				return 0, err
			}

			push(a)
			push(a)
		case OpExc:
			b, err := pop()
			if err != nil {
				return 0, err
			}

			a, err := pop()
			if err != nil {
				return 0, err
			}

			push(b)
			push(a)
		case OpPop:
			if _, err := pop(); err != nil {
				return 0, err
			}

		case OpLT, OpLE, OpGT, OpGE, OpEQ, OpNE:
			b, err := pop()
			if err != nil {
				return 0, err
			}

			a, err := pop()
			if err != nil {
				return 0, err
			}

			if math.IsNaN(a) || math.IsNaN(b) {
				push(math.NaN())
				continue
			}

			switch n.Op {
			case OpLT:
				push(boolf(a < b))
			case OpLE:
				push(boolf(a <= b))
			case OpGT:
				push(boolf(a > b))
			case OpGE:
				push(boolf(a >= b))
			case OpEQ:
				push(boolf(a == b))
			case OpNE:
				push(boolf(a != b))
			}
		case OpIf:
			c, err := pop()
			if err != nil {
				return 0, err
			}

			b, err := pop()
			if err != nil {
				return 0, err
			}

			a, err := pop()
			if err != nil {
				return 0, err
			}

			switch {
			case math.IsNaN(a):
				push(math.NaN())
			case a != 0:
				push(b)
			default:
				push(c)
			}
		case OpIsInf:
			a, err := pop()
			if err != nil {
				return 0, err
			}

			push(boolf(math.IsInf(a, 0)))
		case OpUn:
			a, err := pop()
			if err != nil {
				return 0, err
			}

			push(boolf(math.IsNaN(a)))

		case OpMin, OpMax:
			b, err := pop()
			if err != nil {
				return 0, err
			}

			a, err := pop()
			if err != nil {
				return 0, err
			}

			if n.Op == OpMin {
				push(math.Min(a, b))
			} else {
				push(math.Max(a, b))
			}
		case OpMinNan, OpMaxNan:
			b, err := pop()
			if err != nil {
				return 0, err
			}

			a, err := pop()
			if err != nil {
				return 0, err
			}

			push(minMaxNan(n.Op == OpMaxNan, a, b))
		case OpLimit:
			maxV, err := pop()
			if err != nil {
				return 0, err
			}

			minV, err := pop()
			if err != nil {
				return 0, err
			}

			val, err := pop()
			if err != nil {
				return 0, err
			}

			if math.IsNaN(val) || val < minV || val > maxV {
				push(math.NaN())
			} else {
				push(val)
			}

		case OpSort, OpRev, OpAvg:
			cnt, err := popCount()
			if err != nil {
				return 0, err
			}

			vals, err := popN(cnt)
			if err != nil {
				return 0, err
			}

			switch n.Op {
			case OpSort:
				sort.Float64s(vals)
				stack = append(stack, vals...)
			case OpRev:
				for i, j := 0, len(vals)-1; i < j; i, j = i+1, j-1 {
					vals[i], vals[j] = vals[j], vals[i]
				}

				stack = append(stack, vals...)
			case OpAvg:
				push(avgSkipNan(vals))
			}

		case OpTrend, OpTrendNan, OpPredict, OpPredictSigma:
			return 0, fmt.Errorf("%w: %s", ErrNotInGraphContext, n.Op)

		default:
			return 0, fmt.Errorf("%w: unhandled operator %s", ErrSyntax, n.Op)
		}
	}

	if len(stack) != 1 {
		return 0, ErrStackNotSingular
	}

	return stack[0], nil
}

func valueAt(vals []float64, idx int) (float64, error) {
	if idx < 0 || idx >= len(vals) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDSIndex, idx)
	}

	return vals[idx], nil
}

func minMaxNan(wantMax bool, a, b float64) float64 {
	switch {
	case math.IsNaN(a):
		return b
	case math.IsNaN(b):
		return a
	case wantMax:
		return math.Max(a, b)
	default:
		return math.Min(a, b)
	}
}

func avgSkipNan(vals []float64) float64 {
	sum := 0.0
	n := 0

	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}

		sum += v
		n++
	}

	if n == 0 {
		return math.NaN()
	}

	return sum / float64(n)
}
