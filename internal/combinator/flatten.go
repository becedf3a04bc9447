// Package combinator reads a group of dice slots as the digits of one
// virtual composite die, so that multi-die lookup tables (two d6 read as
// tens and units) become a single sequential range table.
//
// Slots are mixed-radix digits with the last slot least significant. A slot
// NdM contributes a digit of radix N*M-N+1 whose value is the slot total
// minus N; for single dice this is (face - 1) with radix M.
package combinator

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cory-johannsen/stddice/internal/dice"
	"github.com/cory-johannsen/stddice/internal/expr"
)

var (
	// ErrSlotCount is returned when a spec or face list does not have one
	// entry per dice slot.
	ErrSlotCount = errors.New("slot count mismatch")
	// ErrRangeSpec is returned for a malformed or out-of-range sub-range.
	ErrRangeSpec = errors.New("invalid range spec")
	// ErrMultiDieSlot is returned when a single-die combination is requested
	// for a slot with more than one die.
	ErrMultiDieSlot = errors.New("slot has more than one die")
)

// AnyFace selects a slot's whole range in a range spec.
const AnyFace = "*"

func slotRange(d dice.Dice) expr.Interval {
	return expr.Interval{Min: d.MinRoll(), Max: d.MaxRoll()}
}

// ParseRangeSpec parses one sub-range per slot from spec, e.g. "1;1-3" or
// "6;*". Each part is a single value, an inclusive "lo-hi" range or AnyFace.
//
// Postcondition: len(result) == len(slots); each interval lies within its
// slot's range.
func ParseRangeSpec(slots dice.Group, spec string) ([]expr.Interval, error) {
	parts := strings.Split(spec, dice.GroupSeparator)
	if len(parts) != len(slots) {
		return nil, fmt.Errorf("combinator: %q has %d slots, dice %s has %d: %w",
			spec, len(parts), slots, len(slots), ErrSlotCount)
	}
	out := make([]expr.Interval, len(parts))
	for i, part := range parts {
		iv, err := parseSubRange(strings.TrimSpace(part), slotRange(slots[i]))
		if err != nil {
			return nil, fmt.Errorf("combinator: slot %d of %q: %w", i, spec, err)
		}
		out[i] = iv
	}
	return out, nil
}

func parseSubRange(s string, bounds expr.Interval) (expr.Interval, error) {
	if s == AnyFace {
		return bounds, nil
	}
	loText, hiText, isRange := strings.Cut(s, "-")
	if !isRange {
		hiText = loText
	}
	lo, err := strconv.Atoi(strings.TrimSpace(loText))
	if err != nil {
		return expr.Interval{}, fmt.Errorf("%q: %w", s, ErrRangeSpec)
	}
	hi, err := strconv.Atoi(strings.TrimSpace(hiText))
	if err != nil {
		return expr.Interval{}, fmt.Errorf("%q: %w", s, ErrRangeSpec)
	}
	if lo > hi || !bounds.Contains(lo) || !bounds.Contains(hi) {
		return expr.Interval{}, fmt.Errorf("%q outside %s: %w", s, bounds, ErrRangeSpec)
	}
	return expr.Interval{Min: lo, Max: hi}, nil
}

// FlattenRangeExpr maps a per-slot range spec onto the composite die of
// slots and returns the selected composite values as sorted, disjoint,
// non-adjacent intervals.
//
// Precondition: slots is non-empty.
// Postcondition: every interval lies within [1, Composite(slots).Sides].
func FlattenRangeExpr(slots dice.Group, spec string) ([]expr.Interval, error) {
	if len(slots) == 0 {
		return nil, fmt.Errorf("combinator: %w", dice.ErrEmptyGroup)
	}
	ranges, err := ParseRangeSpec(slots, spec)
	if err != nil {
		return nil, err
	}

	values := []int{0}
	place := 1
	for i := len(slots) - 1; i >= 0; i-- {
		base := slotRange(slots[i])
		next := make([]int, 0, len(values)*ranges[i].Size())
		for _, v := range values {
			for face := ranges[i].Min; face <= ranges[i].Max; face++ {
				next = append(next, v+(face-base.Min)*place)
			}
		}
		values = next
		place *= base.Size()
	}
	for i := range values {
		values[i]++
	}
	slices.Sort(values)
	return merge(values), nil
}

func merge(sorted []int) []expr.Interval {
	var out []expr.Interval
	for _, v := range sorted {
		if n := len(out); n > 0 && v == out[n-1].Max+1 {
			out[n-1].Max = v
			continue
		}
		out = append(out, expr.Interval{Min: v, Max: v})
	}
	return out
}

// FlattenDiceCombination returns the single die equivalent to reading a
// sequence of single dice as place-value digits, e.g. "1d6;1d6" is 1d36.
// The result carries the kind of the first slot.
func FlattenDiceCombination(slots dice.Group) (dice.Dice, error) {
	if len(slots) == 0 {
		return dice.Dice{}, fmt.Errorf("combinator: %w", dice.ErrEmptyGroup)
	}
	sides := 1
	for i := len(slots) - 1; i >= 0; i-- {
		if slots[i].Count != 1 {
			return dice.Dice{}, fmt.Errorf("combinator: slot %d is %s: %w", i, slots[i], ErrMultiDieSlot)
		}
		sides *= slots[i].Sides
	}
	d, err := dice.New(1, sides)
	if err != nil {
		return dice.Dice{}, err
	}
	return d.WithKind(slots[0].Kind), nil
}

// Composite returns the size of the virtual composite die of slots as a
// single die. Unlike FlattenDiceCombination it accepts multi-die slots.
func Composite(slots dice.Group) dice.Dice {
	sides := 1
	for _, d := range slots {
		sides *= slotRange(d).Size()
	}
	return dice.MustNew(1, sides)
}

// CombineFaces converts one rolled total per slot into the matching face
// of the composite die.
//
// Postcondition: 1 <= result <= Composite(slots).Sides.
func CombineFaces(slots dice.Group, totals []int) (int, error) {
	if len(totals) != len(slots) {
		return 0, fmt.Errorf("combinator: %d totals for %d slots: %w", len(totals), len(slots), ErrSlotCount)
	}
	value := 0
	place := 1
	for i := len(slots) - 1; i >= 0; i-- {
		base := slotRange(slots[i])
		if !base.Contains(totals[i]) {
			return 0, fmt.Errorf("combinator: slot %d total %d outside %s: %w", i, totals[i], base, ErrRangeSpec)
		}
		value += (totals[i] - base.Min) * place
		place *= base.Size()
	}
	return value + 1, nil
}
