package dice

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyGroup is returned when a group spec has no slots.
var ErrEmptyGroup = errors.New("empty dice group")

// GroupSeparator separates independent slots in group text, e.g. "1d6;1d6".
const GroupSeparator = ";"

// Group is an ordered sequence of Dice, one per independent roll slot.
// Order is significant and positional.
type Group []Dice

// ParseGroup parses semicolon-separated dice text such as "1d6;2d9".
//
// Postcondition: Returns a non-empty Group or an error.
func ParseGroup(s string) (Group, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("dice: %w", ErrEmptyGroup)
	}
	parts := strings.Split(s, GroupSeparator)
	g := make(Group, 0, len(parts))
	for i, part := range parts {
		d, err := Parse(part)
		if err != nil {
			return nil, fmt.Errorf("dice: group slot %d: %w", i, err)
		}
		g = append(g, d)
	}
	return g, nil
}

// String renders the group in its canonical "1d6;1d6" form.
func (g Group) String() string {
	parts := make([]string, len(g))
	for i, d := range g {
		parts[i] = d.String()
	}
	return strings.Join(parts, GroupSeparator)
}

// DieCount returns the total number of physical dice across every slot.
func (g Group) DieCount() int {
	n := 0
	for _, d := range g {
		n += d.Count
	}
	return n
}
