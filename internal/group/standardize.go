package group

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/stddice/internal/dice"
	"github.com/cory-johannsen/stddice/internal/expr"
	"github.com/cory-johannsen/stddice/internal/standard"
)

var (
	// ErrUntagged indicates a standardized root without a slot tag. It is a
	// bug in the transformation that produced the tree.
	ErrUntagged = errors.New("standardized node missing slot tag")
	// ErrResultCount is returned when a roller answers with the wrong number
	// of results.
	ErrResultCount = errors.New("roller returned wrong number of results")
)

// StandardizeDiceGroup rewrites g into a flat sequence of expressions over
// standard dice. A standard slot becomes its own dice term tagged
// {slot, 0}. A non-standard slot NdM becomes N copies of the factorization
// of M tagged {slot, 0} through {slot, N-1}.
//
// Precondition: f must be non-nil.
// Postcondition: every returned root has Tag.Set; every dice term is standard
// unless its face count has no standard factorization.
func StandardizeDiceGroup(g dice.Group, f *standard.Factorizer) ([]expr.Node[Tag], error) {
	var out []expr.Node[Tag]
	for slot, d := range g {
		if standard.IsStandard(d.Sides) {
			out = append(out, expr.NewDiceTerm(d, Tag{Slot: slot, Set: true}))
			continue
		}
		canonical, err := f.FactorizeKind(d.Sides, d.Kind)
		if err != nil {
			return nil, fmt.Errorf("group: slot %d: %w", slot, err)
		}
		body, err := expr.Relabel(canonical, func(expr.NoLabel, expr.Node[expr.NoLabel]) Tag {
			return Tag{}
		})
		if err != nil {
			return nil, err
		}
		for die := range d.Count {
			out = append(out, body.Copy().UpdateLabel(func(Tag, expr.Node[Tag]) Tag {
				return Tag{Slot: slot, Die: die, Set: true}
			}))
		}
	}
	return out, nil
}

// StandardizeExprGroup expands every slot of g with standard.Expand using
// the caller's labeler for provenance.
func StandardizeExprGroup[L any](g []expr.Node[L], f *standard.Factorizer, label standard.Labeler[L]) ([]expr.Node[L], error) {
	out := make([]expr.Node[L], len(g))
	for i, n := range g {
		expanded, err := standard.Expand(n, f, label)
		if err != nil {
			return nil, fmt.Errorf("group: slot %d: %w", i, err)
		}
		out[i] = expanded
	}
	return out, nil
}

// CollectDice lists every dice term of nodes in evaluation order, the order
// in which Reassemble consumes roller results.
func CollectDice[L any](nodes []expr.Node[L]) dice.Group {
	var g dice.Group
	for _, n := range nodes {
		for _, term := range expr.DiceTerms(n) {
			g = append(g, term.Dice())
		}
	}
	return g
}
