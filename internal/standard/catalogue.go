// Package standard rewrites arbitrary-sided dice into arithmetic over the
// physical dice a player actually owns: d4, d6, d8, d10, d12, d20 and d100.
package standard

import (
	"slices"

	"github.com/cory-johannsen/stddice/internal/expr"
)

// Sides is the closed catalogue of physically rollable face counts.
var Sides = []int{4, 6, 8, 10, 12, 20, 100}

// IsStandard reports whether sides is on the physical catalogue.
func IsStandard(sides int) bool {
	return slices.Contains(Sides, sides)
}

// base is one digit base usable by the factorizer, with an expression that
// yields a uniform value in [1, sides] using physical dice only.
type base struct {
	sides int
	roll  expr.Node[expr.NoLabel]
}

// bases is searched in this order. 2, 3 and 5 are derived from a d6 or d10;
// 1000 combines a d10 and a d100 directly, which reads better than the
// generic 10 x 100 composition.
var bases = []base{
	{2, expr.MustParse("(1d6 - 1) / 3 + 1")},
	{3, expr.MustParse("(1d6 - 1) / 2 + 1")},
	{4, expr.MustParse("1d4")},
	{5, expr.MustParse("(1d10 - 1) / 2 + 1")},
	{6, expr.MustParse("1d6")},
	{8, expr.MustParse("1d8")},
	{10, expr.MustParse("1d10")},
	{12, expr.MustParse("1d12")},
	{20, expr.MustParse("1d20")},
	{100, expr.MustParse("1d100")},
	{1000, expr.MustParse("(100 * (1d10 % 10) + 1d100 % 100 - 1) % 1000 + 1")},
}
