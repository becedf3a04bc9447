package expr

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRolls is returned when no rolls are available for a dice term.
	ErrMissingRolls = errors.New("no rolls found")
	// ErrRollCount is returned when the number of rolls differs from the dice count.
	ErrRollCount = errors.New("wrong number of rolls")
	// ErrRollOutOfRange is returned when a roll is outside [1, sides].
	ErrRollOutOfRange = errors.New("invalid roll values")
)

// Evaluated extends a label with the node's computed value. Rolls is set on
// dice terms only.
type Evaluated[L any] struct {
	Label L
	Value int
	Rolls []int
}

// RollsFor supplies the ordered faces rolled for a dice term. visitIndex is
// the term's position in depth-first order. ok is false when no rolls are
// available.
type RollsFor[L any] func(term *DiceTerm[L], visitIndex int) (rolls []int, ok bool)

// EvaluateExpr applies concrete rolls to n, attaching value and rolls labels
// to every node. Existing labels are preserved inside Evaluated.
//
// Precondition: rollsFor must be non-nil.
// Postcondition: Every dice term's rolls have length dice.Count and lie in
// [1, sides]; otherwise an error wrapping ErrMissingRolls, ErrRollCount or
// ErrRollOutOfRange is returned.
func EvaluateExpr[L any](n Node[L], rollsFor RollsFor[L]) (Node[Evaluated[L]], error) {
	visit := 0
	return Fold(n, Reducer[L, Node[Evaluated[L]]]{
		Number: func(x *Number[L]) (Node[Evaluated[L]], error) {
			return NewNumber(x.value, Evaluated[L]{Label: x.label, Value: x.value}), nil
		},
		Dice: func(x *DiceTerm[L]) (Node[Evaluated[L]], error) {
			index := visit
			visit++
			rolls, ok := rollsFor(x, index)
			if !ok {
				return nil, fmt.Errorf("expr: %w for expression %s", ErrMissingRolls, x)
			}
			if len(rolls) != x.dice.Count {
				return nil, fmt.Errorf("expr: %s: expected %d rolls, got %d: %w",
					x, x.dice.Count, len(rolls), ErrRollCount)
			}
			var invalid []int
			sum := 0
			for _, r := range rolls {
				if !x.dice.Contains(r) {
					invalid = append(invalid, r)
				}
				sum += r
			}
			if len(invalid) > 0 {
				return nil, fmt.Errorf("expr: %s: %w %v", x, ErrRollOutOfRange, invalid)
			}
			kept := append([]int(nil), rolls...)
			return NewDiceTerm(x.dice, Evaluated[L]{Label: x.label, Value: sum, Rolls: kept}), nil
		},
		Binary: func(x *Binary[L], left, right Node[Evaluated[L]]) (Node[Evaluated[L]], error) {
			v, err := x.op.Apply(left.Label().Value, right.Label().Value)
			if err != nil {
				return nil, err
			}
			return NewBinary(left, x.op, right, Evaluated[L]{Label: x.label, Value: v}), nil
		},
		Unary: func(x *Unary[L], operand Node[Evaluated[L]]) (Node[Evaluated[L]], error) {
			return NewUnary(operand, Evaluated[L]{Label: x.label, Value: -operand.Label().Value}), nil
		},
	})
}

// RollsByNode answers RollsFor from an association keyed by dice-term
// identity.
func RollsByNode[L any](rolls map[*DiceTerm[L]][]int) RollsFor[L] {
	return func(term *DiceTerm[L], _ int) ([]int, bool) {
		r, ok := rolls[term]
		return r, ok
	}
}

// RollRecord is one entry of a flat roll supply.
type RollRecord struct {
	Rolls []int
}

// SequentialRolls answers RollsFor by consuming records in order. The supply
// must match the depth-first order in which EvaluateExpr visits dice terms,
// and may be shared across several evaluations. It is consumed once.
func SequentialRolls[L any](records []RollRecord) RollsFor[L] {
	next := 0
	return func(*DiceTerm[L], int) ([]int, bool) {
		if next >= len(records) {
			return nil, false
		}
		r := records[next]
		next++
		return r.Rolls, true
	}
}

// Numbered extends a label with a dice term's depth-first index. Index is -1
// on every other node.
type Numbered[L any] struct {
	Label L
	Index int
}

// NumberDiceTerms labels each dice term with offset plus its visit index.
// It returns the relabeled tree and the number of dice terms found.
func NumberDiceTerms[L any](n Node[L], offset int) (Node[Numbered[L]], int, error) {
	count := 0
	out, err := Fold(n, Reducer[L, Node[Numbered[L]]]{
		Number: func(x *Number[L]) (Node[Numbered[L]], error) {
			return NewNumber(x.value, Numbered[L]{Label: x.label, Index: -1}), nil
		},
		Dice: func(x *DiceTerm[L]) (Node[Numbered[L]], error) {
			index := offset + count
			count++
			return NewDiceTerm(x.dice, Numbered[L]{Label: x.label, Index: index}), nil
		},
		Binary: func(x *Binary[L], left, right Node[Numbered[L]]) (Node[Numbered[L]], error) {
			return NewBinary(left, x.op, right, Numbered[L]{Label: x.label, Index: -1}), nil
		},
		Unary: func(x *Unary[L], operand Node[Numbered[L]]) (Node[Numbered[L]], error) {
			return NewUnary(operand, Numbered[L]{Label: x.label, Index: -1}), nil
		},
	})
	return out, count, err
}
