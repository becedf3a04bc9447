// Package group rolls ordered groups of dice slots, optionally rewriting
// non-standard dice into standard ones before delegating to an inner roller
// and folding the results back onto the original slots.
package group

import (
	"context"

	"github.com/cory-johannsen/stddice/internal/dice"
	"github.com/cory-johannsen/stddice/internal/expr"
)

// Tag identifies the original slot and die a standardized node stands in
// for. Set is false on nodes introduced inside a factorization.
type Tag struct {
	Slot int
	Die  int
	Set  bool
}

// Label is the label of an evaluated standardized node.
type Label = expr.Evaluated[Tag]

// Result is the outcome of one group slot.
//
// Invariant: Value is the sum of the slot's contributing evaluations.
type Result struct {
	Dice  dice.Dice
	Value int
	Rolls []int
	// Subexpressions holds the composite trees that produced the slot when
	// it was standardized; nil for directly rolled slots.
	Subexpressions []expr.Node[Label]
}

// Roller rolls every slot of a group and returns one Result per slot.
type Roller interface {
	Roll(g dice.Group) ([]Result, error)
}

// Outcome is the single value delivered by an AsyncRoller.
type Outcome struct {
	Results []Result
	Err     error
}

// AsyncRoller is a Roller whose results arrive later, e.g. after an
// animated roll. The returned channel delivers exactly one Outcome and is
// then closed.
type AsyncRoller interface {
	RollAsync(ctx context.Context, g dice.Group) <-chan Outcome
}

// Await blocks until ch delivers or ctx is done.
func Await(ctx context.Context, ch <-chan Outcome) ([]Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o, ok := <-ch:
		if !ok {
			return nil, context.Canceled
		}
		return o.Results, o.Err
	}
}

type asyncAdapter struct {
	r Roller
}

// Async adapts a synchronous Roller to AsyncRoller.
//
// Precondition: r must be non-nil.
func Async(r Roller) AsyncRoller {
	return asyncAdapter{r: r}
}

func (a asyncAdapter) RollAsync(ctx context.Context, g dice.Group) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		if err := ctx.Err(); err != nil {
			out <- Outcome{Err: err}
			return
		}
		results, err := a.r.Roll(g)
		out <- Outcome{Results: results, Err: err}
	}()
	return out
}

// DirectRoller rolls each slot's dice with a Source, without any
// standardization.
type DirectRoller struct {
	src dice.Source
}

// NewDirectRoller creates a DirectRoller.
//
// Precondition: src must be non-nil.
func NewDirectRoller(src dice.Source) *DirectRoller {
	return &DirectRoller{src: src}
}

// Roll rolls every slot in order.
//
// Postcondition: len(result) == len(g); each Value is the sum of its Rolls.
func (r *DirectRoller) Roll(g dice.Group) ([]Result, error) {
	results := make([]Result, len(g))
	for i, d := range g {
		rolls := d.Roll(r.src)
		total := 0
		for _, face := range rolls {
			total += face
		}
		results[i] = Result{Dice: d, Value: total, Rolls: rolls}
	}
	return results, nil
}
