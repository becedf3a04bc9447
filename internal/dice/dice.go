// Package dice provides the immutable Dice value, dice groups, and the
// randomness abstraction used by every roller in stddice.
package dice

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
)

var (
	// ErrMalformedDice is returned when text is not of the form "NdM".
	ErrMalformedDice = errors.New("malformed dice")
	// ErrNonPositive is returned when a dice count or side count is < 1.
	ErrNonPositive = errors.New("dice count and sides must be positive")
)

// Kind is an opaque tag attached to a Dice value, e.g. the colour or owner of
// a physical die. The empty Kind means "untagged".
type Kind string

// Dice is an immutable (count, sides, kind) triple. Equality is structural.
//
// Invariant: Count >= 1 and Sides >= 1 for every Dice built by New or Parse.
type Dice struct {
	Count int
	Sides int
	Kind  Kind
}

// New constructs a Dice value.
//
// Precondition: count >= 1 and sides >= 1.
// Postcondition: Returns a valid Dice or an error wrapping ErrNonPositive.
func New(count, sides int) (Dice, error) {
	if count <= 0 || sides <= 0 {
		return Dice{}, fmt.Errorf("dice: %dd%d: %w", count, sides, ErrNonPositive)
	}
	return Dice{Count: count, Sides: sides}, nil
}

// MustNew is New that panics on error. Intended for package-level values.
func MustNew(count, sides int) Dice {
	d, err := New(count, sides)
	if err != nil {
		panic(err.Error())
	}
	return d
}

// Parse parses canonical "NdM" text, e.g. "3d4".
//
// Precondition: s is non-empty.
// Postcondition: Returns a valid Dice or an error wrapping ErrMalformedDice or ErrNonPositive.
func Parse(s string) (Dice, error) {
	countStr, sidesStr, ok := strings.Cut(strings.TrimSpace(s), "d")
	if !ok || !isDigits(countStr) || !isDigits(sidesStr) {
		return Dice{}, fmt.Errorf("dice: %q: %w", s, ErrMalformedDice)
	}
	count, err := strconv.Atoi(countStr)
	if err != nil {
		return Dice{}, fmt.Errorf("dice: invalid count in %q: %w", s, ErrMalformedDice)
	}
	sides, err := strconv.Atoi(sidesStr)
	if err != nil {
		return Dice{}, fmt.Errorf("dice: invalid sides in %q: %w", s, ErrMalformedDice)
	}
	return New(count, sides)
}

// MustParse parses s and panics on error.
func MustParse(s string) Dice {
	d, err := Parse(s)
	if err != nil {
		panic("dice: MustParse failed for " + s + ": " + err.Error())
	}
	return d
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// MinRoll is the smallest achievable total.
func (d Dice) MinRoll() int { return d.Count }

// MaxRoll is the largest achievable total.
func (d Dice) MaxRoll() int { return d.Count * d.Sides }

// Flip returns the complement of roll within [MinRoll, MaxRoll].
//
// Postcondition: Flip(MaxRoll()) == 1 and Flip(1) == MaxRoll().
func (d Dice) Flip(roll int) int {
	return d.MaxRoll() - roll + 1
}

// WithKind returns a copy of d tagged with kind.
func (d Dice) WithKind(kind Kind) Dice {
	d.Kind = kind
	return d
}

// String renders the canonical "NdM" form. The kind is not rendered.
func (d Dice) String() string {
	return strconv.Itoa(d.Count) + "d" + strconv.Itoa(d.Sides)
}

// Rolls returns a lazy sequence of Count independent faces in [1, Sides].
// The sequence is single-use: ranging over it a second time yields nothing.
//
// Precondition: src must be non-nil.
func (d Dice) Rolls(src Source) iter.Seq[int] {
	used := false
	return func(yield func(int) bool) {
		if used {
			return
		}
		used = true
		for i := 0; i < d.Count; i++ {
			if !yield(src.Intn(d.Sides) + 1) {
				return
			}
		}
	}
}

// Roll rolls every die and returns the individual faces in order.
func (d Dice) Roll(src Source) []int {
	faces := make([]int, 0, d.Count)
	for face := range d.Rolls(src) {
		faces = append(faces, face)
	}
	return faces
}

// Sum rolls every die and returns the total.
//
// Postcondition: MinRoll() <= result <= MaxRoll().
func (d Dice) Sum(src Source) int {
	total := 0
	for face := range d.Rolls(src) {
		total += face
	}
	return total
}

// Contains reports whether face is a legal single-die result.
func (d Dice) Contains(face int) bool {
	return face >= 1 && face <= d.Sides
}
