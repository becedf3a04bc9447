package expr

import (
	"errors"
	"fmt"
)

// ErrDivisionByZero is returned when a division or modulo has a zero divisor.
var ErrDivisionByZero = errors.New("division by zero")

// Operator is a binary or unary arithmetic operator.
type Operator byte

const (
	Add Operator = '+'
	Sub Operator = '-'
	Mul Operator = '*'
	Div Operator = '/'
	Mod Operator = '%'
	// Neg is the only unary operator.
	Neg Operator = '-'
)

// Precedence table shared by parsing and rendering.
const (
	PrecAdditive       = 1
	PrecModulo         = 2
	PrecMultiplicative = 3
	PrecUnary          = 5
	PrecAtom           = 10
)

func (op Operator) String() string { return string(op) }

// IsBinary reports whether op is one of + - * / %.
func (op Operator) IsBinary() bool {
	switch op {
	case Add, Sub, Mul, Div, Mod:
		return true
	}
	return false
}

// BinaryPrecedence returns the rendering precedence of a binary operator.
func (op Operator) BinaryPrecedence() int {
	switch op {
	case Mul, Div:
		return PrecMultiplicative
	case Mod:
		return PrecModulo
	default:
		return PrecAdditive
	}
}

// grammarLevel groups operators the way the parser does: + and - share one
// level, * / and % share the other.
func (op Operator) grammarLevel() int {
	if op == Add || op == Sub {
		return 1
	}
	return 2
}

// Apply computes a op b with floor division and true modulo.
func (op Operator) Apply(a, b int) (int, error) {
	switch op {
	case Add:
		return a + b, nil
	case Sub:
		return a - b, nil
	case Mul:
		return a * b, nil
	case Div:
		if b == 0 {
			return 0, fmt.Errorf("expr: %d / 0: %w", a, ErrDivisionByZero)
		}
		return FloorDiv(a, b), nil
	case Mod:
		if b == 0 {
			return 0, fmt.Errorf("expr: %d %% 0: %w", a, ErrDivisionByZero)
		}
		return TrueMod(a, b), nil
	}
	return 0, fmt.Errorf("expr: unknown binary operator %q", byte(op))
}

// FloorDiv divides rounding toward negative infinity.
//
// Precondition: b != 0.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// TrueMod returns a mod b carrying the sign of b, so the result is
// non-negative whenever b is positive.
//
// Precondition: b != 0.
func TrueMod(a, b int) int {
	r := a % b
	if r != 0 && ((r < 0) != (b < 0)) {
		r += b
	}
	return r
}
