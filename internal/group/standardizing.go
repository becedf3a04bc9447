package group

import (
	"context"

	"github.com/cory-johannsen/stddice/internal/dice"
	"github.com/cory-johannsen/stddice/internal/standard"
)

// StandardizingRoller lets a Roller that only understands standard dice
// roll any group: it standardizes, delegates the flattened standard group
// to the inner roller, and reassembles per-slot results.
type StandardizingRoller struct {
	inner      Roller
	factorizer *standard.Factorizer
}

// NewStandardizingRoller wraps inner.
//
// Precondition: inner and f must be non-nil.
func NewStandardizingRoller(inner Roller, f *standard.Factorizer) *StandardizingRoller {
	return &StandardizingRoller{inner: inner, factorizer: f}
}

// Roll standardizes g, rolls it through the inner roller and reassembles.
//
// Postcondition: len(result) == len(g) on success.
func (r *StandardizingRoller) Roll(g dice.Group) ([]Result, error) {
	nodes, err := StandardizeDiceGroup(g, r.factorizer)
	if err != nil {
		return nil, err
	}
	rolled, err := r.inner.Roll(CollectDice(nodes))
	if err != nil {
		return nil, err
	}
	return Reassemble(g, nodes, rolled)
}

// AsyncStandardizingRoller is StandardizingRoller over an AsyncRoller.
type AsyncStandardizingRoller struct {
	inner      AsyncRoller
	factorizer *standard.Factorizer
}

// NewAsyncStandardizingRoller wraps inner.
//
// Precondition: inner and f must be non-nil.
func NewAsyncStandardizingRoller(inner AsyncRoller, f *standard.Factorizer) *AsyncStandardizingRoller {
	return &AsyncStandardizingRoller{inner: inner, factorizer: f}
}

// RollAsync standardizes g, awaits the inner roller and reassembles. The
// returned channel delivers exactly one Outcome.
func (r *AsyncStandardizingRoller) RollAsync(ctx context.Context, g dice.Group) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		nodes, err := StandardizeDiceGroup(g, r.factorizer)
		if err != nil {
			out <- Outcome{Err: err}
			return
		}
		rolled, err := Await(ctx, r.inner.RollAsync(ctx, CollectDice(nodes)))
		if err != nil {
			out <- Outcome{Err: err}
			return
		}
		results, err := Reassemble(g, nodes, rolled)
		out <- Outcome{Results: results, Err: err}
	}()
	return out
}
