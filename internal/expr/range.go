package expr

import (
	"errors"
	"fmt"
)

// ErrAmbiguousDivision is returned when a divisor's range includes zero.
var ErrAmbiguousDivision = errors.New("divisor range includes zero")

// Interval is a closed integer range [Min, Max].
type Interval struct {
	Min int
	Max int
}

func (i Interval) String() string { return fmt.Sprintf("[%d, %d]", i.Min, i.Max) }

// Contains reports whether v lies within the interval.
func (i Interval) Contains(v int) bool { return v >= i.Min && v <= i.Max }

// Size is the number of integers in the interval.
func (i Interval) Size() int { return i.Max - i.Min + 1 }

// Range computes the static [min, max] of every value n can produce.
//
// Postcondition: Returns the interval or an error wrapping ErrAmbiguousDivision
// when a / or % divisor may be zero.
func Range[L any](n Node[L]) (Interval, error) {
	return Fold(n, Reducer[L, Interval]{
		Number: func(x *Number[L]) (Interval, error) {
			return Interval{x.value, x.value}, nil
		},
		Dice: func(x *DiceTerm[L]) (Interval, error) {
			return Interval{x.dice.MinRoll(), x.dice.MaxRoll()}, nil
		},
		Binary: func(x *Binary[L], l, r Interval) (Interval, error) {
			return binaryRange(x.op, l, r)
		},
		Unary: func(_ *Unary[L], v Interval) (Interval, error) {
			return Interval{-v.Max, -v.Min}, nil
		},
	})
}

func binaryRange(op Operator, l, r Interval) (Interval, error) {
	switch op {
	case Add:
		return Interval{l.Min + r.Min, l.Max + r.Max}, nil
	case Sub:
		return Interval{l.Min - r.Max, l.Max - r.Min}, nil
	case Mul:
		return corners(l, r, func(a, b int) int { return a * b }), nil
	case Div:
		if r.Min <= 0 && r.Max >= 0 {
			return Interval{}, fmt.Errorf("expr: / by %s: %w", r, ErrAmbiguousDivision)
		}
		return corners(l, r, FloorDiv), nil
	case Mod:
		if r.Contains(0) {
			return Interval{}, fmt.Errorf("expr: %% by %s: %w", r, ErrAmbiguousDivision)
		}
		return modRange(l, r), nil
	}
	return Interval{}, fmt.Errorf("expr: unknown binary operator %q", byte(op))
}

// corners evaluates f at the four corners of l x r. Either operand may be
// negative, so any corner can be extremal.
func corners(l, r Interval, f func(a, b int) int) Interval {
	vals := [4]int{f(l.Min, r.Min), f(l.Min, r.Max), f(l.Max, r.Min), f(l.Max, r.Max)}
	out := Interval{vals[0], vals[0]}
	for _, v := range vals[1:] {
		out.Min = min(out.Min, v)
		out.Max = max(out.Max, v)
	}
	return out
}

// modRange enumerates every (a, b) pair. This is quadratic in the operand
// sizes; dice ranges are small enough that the exact bounds are worth it.
func modRange(l, r Interval) Interval {
	out := Interval{TrueMod(l.Min, r.Min), TrueMod(l.Min, r.Min)}
	for a := l.Min; a <= l.Max; a++ {
		for b := r.Min; b <= r.Max; b++ {
			if b == 0 {
				continue
			}
			v := TrueMod(a, b)
			out.Min = min(out.Min, v)
			out.Max = max(out.Max, v)
		}
	}
	return out
}
