package expr

import (
	"errors"
	"fmt"
)

// ErrFoldInconsistent indicates a bug in a reducer or traversal: the fold
// did not finish with exactly one accumulated result.
var ErrFoldInconsistent = errors.New("fold finished with inconsistent stack")

// Reducer holds one reduction per node variant. Binary and Unary receive
// the already-reduced results of their operands.
type Reducer[L, R any] struct {
	Number func(n *Number[L]) (R, error)
	Dice   func(n *DiceTerm[L]) (R, error)
	Binary func(n *Binary[L], left, right R) (R, error)
	Unary  func(n *Unary[L], operand R) (R, error)
}

// Fold reduces n bottom-up. Operands are reduced before their parent, left
// before right, and intermediate results live on an explicit stack. Fold is
// the only place traversal order is defined; Range, EvaluateExpr, Relabel
// and the standard-dice expander are all built on it.
//
// Precondition: every field of r is non-nil.
// Postcondition: Returns the single reduced value, the first reducer error,
// or an error wrapping ErrFoldInconsistent.
func Fold[L, R any](n Node[L], r Reducer[L, R]) (R, error) {
	var zero R
	if r.Number == nil || r.Dice == nil || r.Binary == nil || r.Unary == nil {
		return zero, fmt.Errorf("expr: incomplete reducer: %w", ErrFoldInconsistent)
	}

	var (
		stack []R
		err   error
	)
	push := func(v R, e error) {
		if e != nil {
			err = e
			return
		}
		stack = append(stack, v)
	}
	pop := func() (R, bool) {
		if len(stack) == 0 {
			return zero, false
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, true
	}

	n.Walk(Visitor[L]{
		Number: func(x *Number[L]) {
			if err == nil {
				push(r.Number(x))
			}
		},
		Dice: func(x *DiceTerm[L]) {
			if err == nil {
				push(r.Dice(x))
			}
		},
		Binary: func(x *Binary[L]) {
			if err != nil {
				return
			}
			right, okR := pop()
			left, okL := pop()
			if !okR || !okL {
				err = fmt.Errorf("expr: binary %q missing operands: %w", x.op, ErrFoldInconsistent)
				return
			}
			push(r.Binary(x, left, right))
		},
		Unary: func(x *Unary[L]) {
			if err != nil {
				return
			}
			operand, ok := pop()
			if !ok {
				err = fmt.Errorf("expr: unary missing operand: %w", ErrFoldInconsistent)
				return
			}
			push(r.Unary(x, operand))
		},
	})

	if err != nil {
		return zero, err
	}
	if len(stack) != 1 {
		return zero, fmt.Errorf("expr: %d results remain: %w", len(stack), ErrFoldInconsistent)
	}
	return stack[0], nil
}

// Relabel rebuilds n with every label replaced by fn(label, node). The
// shape of the tree is unchanged.
func Relabel[L, M any](n Node[L], fn func(L, Node[L]) M) (Node[M], error) {
	return Fold(n, Reducer[L, Node[M]]{
		Number: func(x *Number[L]) (Node[M], error) {
			return NewNumber(x.value, fn(x.label, x)), nil
		},
		Dice: func(x *DiceTerm[L]) (Node[M], error) {
			return NewDiceTerm(x.dice, fn(x.label, x)), nil
		},
		Binary: func(x *Binary[L], left, right Node[M]) (Node[M], error) {
			return NewBinary(left, x.op, right, fn(x.label, x)), nil
		},
		Unary: func(x *Unary[L], operand Node[M]) (Node[M], error) {
			return NewUnary(operand, fn(x.label, x)), nil
		},
	})
}

// Strip discards every label, returning a NoLabel tree.
func Strip[L any](n Node[L]) Node[NoLabel] {
	out, err := Relabel(n, func(L, Node[L]) NoLabel { return NoLabel{} })
	if err != nil {
		// Relabel's reducers never fail; a non-nil error is a traversal bug.
		panic(err.Error())
	}
	return out
}

// DiceTerms returns every dice term of n in depth-first visit order.
func DiceTerms[L any](n Node[L]) []*DiceTerm[L] {
	var terms []*DiceTerm[L]
	n.Walk(Visitor[L]{Dice: func(d *DiceTerm[L]) { terms = append(terms, d) }})
	return terms
}

// PhysicalDice counts the individual dice a person must roll for n.
func PhysicalDice[L any](n Node[L]) int {
	total := 0
	for _, d := range DiceTerms(n) {
		total += d.dice.Count
	}
	return total
}

// Size counts the nodes of n.
func Size[L any](n Node[L]) int {
	size := 0
	n.Walk(Visitor[L]{
		Number: func(*Number[L]) { size++ },
		Dice:   func(*DiceTerm[L]) { size++ },
		Binary: func(*Binary[L]) { size++ },
		Unary:  func(*Unary[L]) { size++ },
	})
	return size
}
