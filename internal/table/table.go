// Package table implements lookup tables read off a group of dice, such as
// a d66 encounter table where two d6 are read as tens and units.
package table

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cory-johannsen/stddice/internal/combinator"
	"github.com/cory-johannsen/stddice/internal/dice"
	"github.com/cory-johannsen/stddice/internal/expr"
	"github.com/cory-johannsen/stddice/internal/group"
)

var (
	// ErrTableOverlap is returned when two entries select the same roll.
	ErrTableOverlap = errors.New("table entries overlap")
	// ErrTableNoEntry is returned when no entry covers a roll.
	ErrTableNoEntry = errors.New("no table entry for roll")
)

// Entry is one row of a table. Ranges are the composite-die values selected
// by Spec.
type Entry struct {
	Spec   string
	Ranges []expr.Interval
	Result string
}

// Table maps rolls of Dice to results.
//
// Invariant: after Validate succeeds no composite value is covered by more
// than one entry.
type Table struct {
	ID      string
	Dice    dice.Group
	Entries []Entry
}

// Rolled is the outcome of Table.Roll.
type Rolled struct {
	Value   int
	Results []group.Result
	Entry   Entry
}

// Validate checks the table has an ID, dice and non-overlapping entries.
//
// Postcondition: Returns nil or an error wrapping ErrTableOverlap for the
// first overlapping pair.
func (t *Table) Validate() error {
	if t.ID == "" {
		return errors.New("table ID must not be empty")
	}
	if len(t.Dice) == 0 {
		return fmt.Errorf("table %q: %w", t.ID, dice.ErrEmptyGroup)
	}

	type span struct {
		expr.Interval
		entry int
	}
	var spans []span
	for i, e := range t.Entries {
		for _, r := range e.Ranges {
			spans = append(spans, span{Interval: r, entry: i})
		}
	}
	slices.SortFunc(spans, func(a, b span) int { return a.Min - b.Min })
	for i := 1; i < len(spans); i++ {
		prev, cur := spans[i-1], spans[i]
		if cur.Min <= prev.Max {
			return fmt.Errorf("table %q: entries %q and %q both cover %d: %w",
				t.ID, t.Entries[prev.entry].Spec, t.Entries[cur.entry].Spec, cur.Min, ErrTableOverlap)
		}
	}
	return nil
}

// Lookup returns the entry covering composite value v.
func (t *Table) Lookup(v int) (Entry, error) {
	for _, e := range t.Entries {
		for _, r := range e.Ranges {
			if r.Contains(v) {
				return e, nil
			}
		}
	}
	return Entry{}, fmt.Errorf("table %q: %d: %w", t.ID, v, ErrTableNoEntry)
}

// Roll rolls the table's dice with r and looks up the combined value.
//
// Precondition: r must be non-nil.
func (t *Table) Roll(r group.Roller) (Rolled, error) {
	results, err := r.Roll(t.Dice)
	if err != nil {
		return Rolled{}, err
	}
	totals := make([]int, len(results))
	for i, res := range results {
		totals[i] = res.Value
	}
	v, err := combinator.CombineFaces(t.Dice, totals)
	if err != nil {
		return Rolled{}, fmt.Errorf("table %q: %w", t.ID, err)
	}
	e, err := t.Lookup(v)
	if err != nil {
		return Rolled{}, err
	}
	return Rolled{Value: v, Results: results, Entry: e}, nil
}
