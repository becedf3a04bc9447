package group

import (
	"fmt"

	"github.com/cory-johannsen/stddice/internal/expr"
	"github.com/cory-johannsen/stddice/internal/standard"
)

// ExprLabel is the label of a node in an evaluated expression group: the
// slot provenance, the dice term's position in the rolled group, and the
// computed value.
type ExprLabel = expr.Evaluated[expr.Numbered[Tag]]

// slotProvenance tags nodes introduced by expansion with the slot of the
// term they replace and the copy index.
func slotProvenance(original Tag, isNewRoot bool, _ *expr.DiceTerm[Tag], index int) Tag {
	return Tag{Slot: original.Slot, Die: index, Set: isNewRoot}
}

// RollExprGroup standardizes every slot of g, rolls all resulting dice
// terms with a single call to r and evaluates each slot. A nil f rolls the
// slots as written.
//
// Nodes of the input carry Tag{Slot: i, Die: -1, Set: true}. Nodes added by
// expansion carry the copy index in Die, or -1 on the sum of several copies.
//
// Precondition: r must be non-nil.
// Postcondition: len(result) == len(g).
func RollExprGroup(g []expr.Node[expr.NoLabel], f *standard.Factorizer, r Roller) ([]expr.Node[ExprLabel], error) {
	tagged := make([]expr.Node[Tag], len(g))
	for i, n := range g {
		t, err := expr.Relabel(n, func(expr.NoLabel, expr.Node[expr.NoLabel]) Tag {
			return Tag{Slot: i, Die: -1, Set: true}
		})
		if err != nil {
			return nil, err
		}
		tagged[i] = t
	}

	expanded := tagged
	if f != nil {
		var err error
		expanded, err = StandardizeExprGroup(tagged, f, slotProvenance)
		if err != nil {
			return nil, err
		}
	}

	numbered := make([]expr.Node[expr.Numbered[Tag]], len(expanded))
	offset := 0
	for i, n := range expanded {
		nn, count, err := expr.NumberDiceTerms(n, offset)
		if err != nil {
			return nil, err
		}
		numbered[i] = nn
		offset += count
	}

	rolled, err := r.Roll(CollectDice(numbered))
	if err != nil {
		return nil, err
	}
	if len(rolled) != offset {
		return nil, fmt.Errorf("group: expected %d results, got %d: %w", offset, len(rolled), ErrResultCount)
	}
	rollsFor := func(term *expr.DiceTerm[expr.Numbered[Tag]], _ int) ([]int, bool) {
		i := term.Label().Index
		if i < 0 || i >= len(rolled) {
			return nil, false
		}
		return rolled[i].Rolls, true
	}

	out := make([]expr.Node[ExprLabel], len(numbered))
	for i, n := range numbered {
		evaluated, err := expr.EvaluateExpr(n, rollsFor)
		if err != nil {
			return nil, fmt.Errorf("group: slot %d: %w", i, err)
		}
		out[i] = evaluated
	}
	return out, nil
}
