package standard

import (
	"github.com/cory-johannsen/stddice/internal/expr"
)

// Labeler chooses the label of a node introduced by Expand. original is
// the label of the replaced dice term. isNewRoot is true for the node that
// takes the term's place in the tree. index is the copy's position within
// the expansion, or -1 for the sum joining several copies.
type Labeler[L any] func(original L, isNewRoot bool, term *expr.DiceTerm[L], index int) L

// KeepLabel gives the new root the replaced term's label and every other
// introduced node the zero label.
func KeepLabel[L any](original L, isNewRoot bool, _ *expr.DiceTerm[L], _ int) L {
	if isNewRoot {
		return original
	}
	var zero L
	return zero
}

// Expand replaces every non-standard dice term NdM in n with the sum of N
// independently labeled copies of the factorization of M. Each copy carries
// the term's kind. Standard terms, and subtrees containing none, are
// returned unchanged.
//
// Precondition: f must be non-nil; label may be nil (KeepLabel is used).
// Postcondition: Range(result) == Range(n).
func Expand[L any](n expr.Node[L], f *Factorizer, label Labeler[L]) (expr.Node[L], error) {
	if label == nil {
		label = KeepLabel[L]
	}
	return expr.Fold(n, expr.Reducer[L, expr.Node[L]]{
		Number: func(x *expr.Number[L]) (expr.Node[L], error) {
			return x, nil
		},
		Dice: func(x *expr.DiceTerm[L]) (expr.Node[L], error) {
			d := x.Dice()
			if IsStandard(d.Sides) {
				return x, nil
			}
			canonical, err := f.FactorizeKind(d.Sides, d.Kind)
			if err != nil {
				return nil, err
			}
			body, err := expr.Relabel(canonical, func(expr.NoLabel, expr.Node[expr.NoLabel]) L {
				var zero L
				return zero
			})
			if err != nil {
				return nil, err
			}
			return sumOfCopies(body, x, d.Count, label), nil
		},
		Binary: func(x *expr.Binary[L], left, right expr.Node[L]) (expr.Node[L], error) {
			if left == x.Left() && right == x.Right() {
				return x, nil
			}
			return expr.NewBinary(left, x.Op(), right, x.Label()), nil
		},
		Unary: func(x *expr.Unary[L], operand expr.Node[L]) (expr.Node[L], error) {
			if operand == x.Operand() {
				return x, nil
			}
			return expr.NewUnary(operand, x.Label()), nil
		},
	})
}

func sumOfCopies[L any](body expr.Node[L], term *expr.DiceTerm[L], count int, label Labeler[L]) expr.Node[L] {
	original := term.Label()
	copies := make([]expr.Node[L], count)
	for i := range copies {
		isRoot := count == 1
		copies[i] = body.Copy().UpdateLabel(func(L, expr.Node[L]) L {
			return label(original, isRoot, term, i)
		})
	}
	if count == 1 {
		return copies[0]
	}
	var zero L
	sum := copies[0]
	for _, c := range copies[1:] {
		sum = expr.NewBinary(sum, expr.Add, c, zero)
	}
	return sum.UpdateLabel(func(L, expr.Node[L]) L {
		return label(original, true, term, -1)
	})
}

// ExpandAll expands n with KeepLabel.
func ExpandAll[L any](n expr.Node[L], f *Factorizer) (expr.Node[L], error) {
	return Expand(n, f, nil)
}
