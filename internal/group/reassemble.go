package group

import (
	"fmt"

	"github.com/cory-johannsen/stddice/internal/dice"
	"github.com/cory-johannsen/stddice/internal/expr"
)

// Reassemble evaluates standardized against the inner roller's results and
// folds the values back onto the slots of original.
//
// A slot's Value is the sum of every root tagged with it. Its Rolls are the
// contributing dice terms' own rolls, or the value of a composite root; each
// composite root is also kept in Subexpressions.
//
// Precondition: standardized came from StandardizeDiceGroup(original, ...);
// rolled holds one result per term of CollectDice(standardized).
// Postcondition: len(result) == len(original).
func Reassemble(original dice.Group, standardized []expr.Node[Tag], rolled []Result) ([]Result, error) {
	terms := len(CollectDice(standardized))
	if len(rolled) != terms {
		return nil, fmt.Errorf("group: expected %d results, got %d: %w", terms, len(rolled), ErrResultCount)
	}
	records := make([]expr.RollRecord, len(rolled))
	for i, r := range rolled {
		records[i] = expr.RollRecord{Rolls: r.Rolls}
	}
	rollsFor := expr.SequentialRolls[Tag](records)

	results := make([]Result, len(original))
	for i, d := range original {
		results[i] = Result{Dice: d}
	}
	for _, n := range standardized {
		evaluated, err := expr.EvaluateExpr(n, rollsFor)
		if err != nil {
			return nil, fmt.Errorf("group: %w", err)
		}
		label := evaluated.Label()
		if !label.Label.Set || label.Label.Slot < 0 || label.Label.Slot >= len(results) {
			return nil, fmt.Errorf("group: %s: %w", n, ErrUntagged)
		}
		slot := &results[label.Label.Slot]
		slot.Value += label.Value
		if term, ok := evaluated.(*expr.DiceTerm[Label]); ok {
			slot.Rolls = append(slot.Rolls, term.Label().Rolls...)
			continue
		}
		slot.Rolls = append(slot.Rolls, label.Value)
		slot.Subexpressions = append(slot.Subexpressions, evaluated)
	}
	return results, nil
}
