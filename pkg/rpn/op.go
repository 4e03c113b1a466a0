package rpn

// Op identifies an RPN operator. Values are stable and append-only: they
// are persisted as the one-byte op field of every compacted program node,
// so existing values must never be renumbered.
type Op uint8

const (
	OpNumber Op = iota
	OpVariable
	OpInf
	OpPrev
	OpNegInf
	OpUnkn
	OpNow
	OpTime
	OpLTime
	OpCount
	OpPrevOther

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAddNan

	OpSin
	OpCos
	OpLog
	OpExp
	OpSqrt
	OpAtan
	OpAtan2
	OpFloor
	OpCeil
	OpRad2Deg
	OpDeg2Rad
	OpAbs

	OpDup
	OpExc
	OpPop

	OpLT
	OpLE
	OpGT
	OpGE
	OpEQ
	OpNE
	OpIf
	OpIsInf
	OpUn

	OpMin
	OpMax
	OpMinNan
	OpMaxNan
	OpLimit
	OpSort
	OpRev
	OpAvg

	OpTrend
	OpTrendNan
	OpPredict
	OpPredictSigma

	// OpEnd terminates a compacted program. It must remain the last entry
	// so forbiddenInCompute (defined below in this file) never has to special
	// case it.
	OpEnd
)

var opNames = map[Op]string{
	OpNumber:    "NUMBER",
	OpVariable:  "VARIABLE",
	OpInf:       "INF",
	OpPrev:      "PREV",
	OpNegInf:    "NEGINF",
	OpUnkn:      "UNKN",
	OpNow:       "NOW",
	OpTime:      "TIME",
	OpLTime:     "LTIME",
	OpCount:     "COUNT",
	OpPrevOther: "PREV_OTHER",

	OpAdd:    "ADD",
	OpSub:    "SUB",
	OpMul:    "MUL",
	OpDiv:    "DIV",
	OpMod:    "MOD",
	OpAddNan: "ADDNAN",

	OpSin:     "SIN",
	OpCos:     "COS",
	OpLog:     "LOG",
	OpExp:     "EXP",
	OpSqrt:    "SQRT",
	OpAtan:    "ATAN",
	OpAtan2:   "ATAN2",
	OpFloor:   "FLOOR",
	OpCeil:    "CEIL",
	OpRad2Deg: "RAD2DEG",
	OpDeg2Rad: "DEG2RAD",
	OpAbs:     "ABS",

	OpDup: "DUP",
	OpExc: "EXC",
	OpPop: "POP",

	OpLT:    "LT",
	OpLE:    "LE",
	OpGT:    "GT",
	OpGE:    "GE",
	OpEQ:    "EQ",
	OpNE:    "NE",
	OpIf:    "IF",
	OpIsInf: "ISINF",
	OpUn:    "UN",

	OpMin:    "MIN",
	OpMax:    "MAX",
	OpMinNan: "MINNAN",
	OpMaxNan: "MAXNAN",
	OpLimit:  "LIMIT",
	OpSort:   "SORT",
	OpRev:    "REV",
	OpAvg:    "AVG",

	OpTrend:        "TREND",
	OpTrendNan:     "TRENDNAN",
	OpPredict:      "PREDICT",
	OpPredictSigma: "PREDICTSIGMA",

	OpEnd: "END",
}

var namesToOp = func() map[string]Op {
	m := make(map[string]Op, len(opNames))
	for op, name := range opNames {
		m[name] = op
	}

	return m
}()

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}

	return "UNKNOWN"
}

// lookupOp maps a token's uppercase spelling to its Op, if any.
func lookupOp(name string) (Op, bool) {
	op, ok := namesToOp[name]
	return op, ok
}

// forbiddenInCompute is the set excluded by invariant 5: a COMPUTE DS's
// program must not reference these operators.
var forbiddenInCompute = map[Op]bool{
	OpTime:         true,
	OpLTime:        true,
	OpPrev:         true,
	OpCount:        true,
	OpTrend:        true,
	OpTrendNan:     true,
	OpPredict:      true,
	OpPredictSigma: true,
}

// Node is one instruction of a Program.
type Node struct {
	Op Op
	// Val carries a NUMBER's literal integer value, or the DS index for
	// VARIABLE/PREV_OTHER. Unused by every other operator.
	Val int16
}

// Program is a compiled RPN expression: an ordered list of Nodes, logically
// terminated by an implicit OpEnd (not stored explicitly in this slice;
// OpEnd only appears in the compact on-disk encoding).
type Program []Node
