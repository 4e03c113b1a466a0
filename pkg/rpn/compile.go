package rpn

import (
	"fmt"
	"strconv"
	"strings"
)

// DSIndexFunc resolves a DS name to its index. Compile calls it once per
// non-operator, non-numeric token.
type DSIndexFunc func(name string) (idx int, ok bool)

// Compile parses a comma-separated RPN expression into a Program.
//
// Each comma-separated token is one of: an operator name (e.g. "ADD"), an
// integer literal, a "PREV(name)" reference, or a bare DS name. Numeric
// parsing is integer-only and under the C locale (period decimal separator
// is irrelevant here since fractional literals aren't representable in the
// compact on-disk form; see [CompactEncode]).
func Compile(expr string, resolve DSIndexFunc) (Program, error) {
	tokens := strings.Split(expr, ",")

	prog := make(Program, 0, len(tokens))

	for _, raw := range tokens {
		tok := strings.TrimSpace(raw)
		if tok == "" {
			return nil, fmt.Errorf("%w: empty token", ErrSyntax)
		}

		node, err := compileToken(tok, resolve)
		if err != nil {
			return nil, err
		}

		prog = append(prog, node)
	}

	if len(prog) == 0 {
		return nil, fmt.Errorf("%w: empty expression", ErrSyntax)
	}

	return prog, nil
}

func compileToken(tok string, resolve DSIndexFunc) (Node, error) {
	if inner, ok := parsePrevOther(tok); ok {
		idx, ok := resolve(inner)
		if !ok {
			return Node{}, fmt.Errorf("%w: %q", ErrUnknownData, inner)
		}

		return Node{Op: OpPrevOther, Val: int16(idx)}, nil
	}

	if op, ok := lookupOp(tok); ok && op != OpNumber && op != OpVariable && op != OpPrevOther && op != OpEnd {
		return Node{Op: op}, nil
	}

	if n, err := strconv.ParseInt(tok, 10, 32); err == nil {
		if n < -32768 || n > 32767 {
			return Node{}, fmt.Errorf("%w: literal %d out of compact range [-32768,32767]", ErrSyntax, n)
		}

		return Node{Op: OpNumber, Val: int16(n)}, nil
	}

	if !isValidIdentifier(tok) {
		return Node{}, fmt.Errorf("%w: %q", ErrSyntax, tok)
	}

	idx, ok := resolve(tok)
	if !ok {
		return Node{}, fmt.Errorf("%w: %q", ErrUnknownData, tok)
	}

	return Node{Op: OpVariable, Val: int16(idx)}, nil
}

func parsePrevOther(tok string) (name string, ok bool) {
	const prefix = "PREV("

	if !strings.HasPrefix(tok, prefix) || !strings.HasSuffix(tok, ")") {
		return "", false
	}

	inner := tok[len(prefix) : len(tok)-1]
	if inner == "" || !isValidIdentifier(inner) {
		return "", false
	}

	return inner, true
}

// isValidIdentifier matches [-_A-Za-z0-9]{1,255}.
func isValidIdentifier(s string) bool {
	if len(s) < 1 || len(s) > 255 {
		return false
	}

	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}

	return true
}
