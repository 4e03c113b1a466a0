package rpn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func dsResolver(names ...string) DSIndexFunc {
	return func(name string) (int, bool) {
		for i, n := range names {
			if n == name {
				return i, true
			}
		}

		return 0, false
	}
}

func TestCompileSimpleExpression(t *testing.T) {
	prog, err := Compile("ds0,ds1,ADD", dsResolver("ds0", "ds1"))
	require.NoError(t, err)
	require.Equal(t, Program{
		{Op: OpVariable, Val: 0},
		{Op: OpVariable, Val: 1},
		{Op: OpAdd},
	}, prog)
}

func TestCompileNumberLiteral(t *testing.T) {
	prog, err := Compile("100,ds0,ADD", dsResolver("ds0"))
	require.NoError(t, err)
	require.Equal(t, Node{Op: OpNumber, Val: 100}, prog[0])
}

func TestCompileRejectsOutOfRangeLiteral(t *testing.T) {
	_, err := Compile("40000,ds0,ADD", dsResolver("ds0"))
	require.ErrorIs(t, err, ErrSyntax)
}

func TestCompileUnknownData(t *testing.T) {
	_, err := Compile("nosuch,ds0,ADD", dsResolver("ds0"))
	require.ErrorIs(t, err, ErrUnknownData)
}

func TestCompilePrevOther(t *testing.T) {
	prog, err := Compile("PREV(ds0)", dsResolver("ds0", "ds1"))
	require.NoError(t, err)
	require.Equal(t, Program{{Op: OpPrevOther, Val: 0}}, prog)
}

func TestCompileEmptyExpressionRejected(t *testing.T) {
	_, err := Compile("", dsResolver())
	require.Error(t, err)
}

func TestValidateForComputeRejectsForbiddenOp(t *testing.T) {
	prog := Program{{Op: OpCount}}
	err := ValidateForCompute(prog, 2)
	require.ErrorIs(t, err, ErrForbiddenOperator)
}

func TestValidateForComputeRejectsBackwardReference(t *testing.T) {
	prog := Program{{Op: OpVariable, Val: 2}}
	err := ValidateForCompute(prog, 2)
	require.ErrorIs(t, err, ErrBackwardReference)
}

func TestValidateForComputeAcceptsForwardReference(t *testing.T) {
	prog := Program{{Op: OpVariable, Val: 0}, {Op: OpVariable, Val: 1}, {Op: OpAdd}}
	require.NoError(t, ValidateForCompute(prog, 2))
}

func TestCompactEncodeDecodeRoundTrip(t *testing.T) {
	prog := Program{
		{Op: OpVariable, Val: 0},
		{Op: OpNumber, Val: -5},
		{Op: OpAdd},
	}

	slots, err := CompactEncode(prog)
	require.NoError(t, err)

	got, err := CompactDecode(slots)
	require.NoError(t, err)
	require.Equal(t, prog, got)
}

func TestCompactEncodeRejectsOversizedProgram(t *testing.T) {
	prog := make(Program, MaxNodes)
	for i := range prog {
		prog[i] = Node{Op: OpDup}
	}

	_, err := CompactEncode(prog)
	require.ErrorIs(t, err, ErrProgramTooLarge)
}

func TestEvalArithmetic(t *testing.T) {
	prog, err := Compile("ds0,ds1,ADD", dsResolver("ds0", "ds1"))
	require.NoError(t, err)

	v, err := Eval(prog, EvalContext{Values: []float64{2, 3}})
	require.NoError(t, err)
	require.Equal(t, 5.0, v)
}

func TestEvalIfTernary(t *testing.T) {
	prog, err := Compile("ds0,1,0,IF", dsResolver("ds0"))
	require.NoError(t, err)

	v, err := Eval(prog, EvalContext{Values: []float64{1}})
	require.NoError(t, err)
	require.Equal(t, 1.0, v)

	v, err = Eval(prog, EvalContext{Values: []float64{0}})
	require.NoError(t, err)
	require.Equal(t, 0.0, v)
}

func TestEvalAddNanTreatsNanAsZero(t *testing.T) {
	prog := Program{{Op: OpUnkn}, {Op: OpNumber, Val: 5}, {Op: OpAddNan}}

	v, err := Eval(prog, EvalContext{})
	require.NoError(t, err)
	require.Equal(t, 5.0, v)
}

func TestEvalMinMaxPropagateNan(t *testing.T) {
	prog := Program{{Op: OpUnkn}, {Op: OpNumber, Val: 5}, {Op: OpMax}}

	v, err := Eval(prog, EvalContext{})
	require.NoError(t, err)
	require.True(t, math.IsNaN(v))
}

func TestEvalStackUnderflow(t *testing.T) {
	prog := Program{{Op: OpAdd}}

	_, err := Eval(prog, EvalContext{})
	require.ErrorIs(t, err, ErrStackUnderflow)
}

func TestEvalGraphOnlyOperatorRejected(t *testing.T) {
	prog := Program{{Op: OpTrend}}

	_, err := Eval(prog, EvalContext{})
	require.ErrorIs(t, err, ErrNotInGraphContext)
}

func TestEvalLimitOutOfRangeIsNan(t *testing.T) {
	prog := Program{{Op: OpNumber, Val: 50}, {Op: OpNumber, Val: 0}, {Op: OpNumber, Val: 10}, {Op: OpLimit}}

	v, err := Eval(prog, EvalContext{})
	require.NoError(t, err)
	require.True(t, math.IsNaN(v))
}
