// Package expr implements the dice-notation expression tree: parsing,
// canonical rendering, the shared fold engine, static range analysis and
// roll evaluation.
//
// Trees are immutable. Every node carries a label of type L; transformations
// that attach information produce a new tree whose label type wraps L (see
// Evaluated), or return the same node when nothing changed.
package expr

import (
	"reflect"
	"strconv"

	"github.com/cory-johannsen/stddice/internal/dice"
)

// NoLabel is the label of freshly parsed or constructed trees.
type NoLabel = struct{}

// Node is one of *Number, *DiceTerm, *Binary or *Unary.
type Node[L any] interface {
	// Label returns the annotation attached to this node.
	Label() L
	// Precedence returns the binding strength used for rendering.
	Precedence() int
	// String renders the canonical, precedence-minimal text.
	String() string
	// Evaluate folds operators over the aggregated value valueFor reports
	// for each dice term. Labels are not touched.
	Evaluate(valueFor func(*DiceTerm[L]) int) (int, error)
	// Walk visits operands before the node itself, left before right.
	Walk(v Visitor[L])
	// Copy returns a deep structural copy.
	Copy() Node[L]
	// WithKind tags every dice term with kind. Returns the receiver if no
	// term changed.
	WithKind(kind dice.Kind) Node[L]
	// UpdateLabel replaces the label with fn(label, node). Returns the
	// receiver if the label is unchanged.
	UpdateLabel(fn func(L, Node[L]) L) Node[L]

	sealed()
}

// Visitor holds one optional callback per node variant.
type Visitor[L any] struct {
	Number func(*Number[L])
	Dice   func(*DiceTerm[L])
	Binary func(*Binary[L])
	Unary  func(*Unary[L])
}

// Number is an integer literal.
type Number[L any] struct {
	value int
	label L
}

// DiceTerm is a roll of one Dice value.
type DiceTerm[L any] struct {
	dice  dice.Dice
	label L
}

// Binary applies one of + - * / % to two operands.
type Binary[L any] struct {
	left  Node[L]
	op    Operator
	right Node[L]
	label L
}

// Unary negates its operand.
type Unary[L any] struct {
	op      Operator
	operand Node[L]
	label   L
}

// NewNumber constructs a literal node.
func NewNumber[L any](value int, label L) *Number[L] {
	return &Number[L]{value: value, label: label}
}

// NewDiceTerm constructs a dice term node.
func NewDiceTerm[L any](d dice.Dice, label L) *DiceTerm[L] {
	return &DiceTerm[L]{dice: d, label: label}
}

// NewBinary constructs a binary node.
//
// Precondition: op.IsBinary(); left and right are non-nil.
func NewBinary[L any](left Node[L], op Operator, right Node[L], label L) *Binary[L] {
	return &Binary[L]{left: left, op: op, right: right, label: label}
}

// NewUnary constructs a negation node.
//
// Precondition: operand is non-nil.
func NewUnary[L any](operand Node[L], label L) *Unary[L] {
	return &Unary[L]{op: Neg, operand: operand, label: label}
}

func (n *Number[L]) Value() int { return n.value }
func (n *DiceTerm[L]) Dice() dice.Dice { return n.dice }
func (n *Binary[L]) Left() Node[L] { return n.left }
func (n *Binary[L]) Op() Operator { return n.op }
func (n *Binary[L]) Right() Node[L] { return n.right }
func (n *Unary[L]) Op() Operator { return n.op }
func (n *Unary[L]) Operand() Node[L] { return n.operand }
func (n *Number[L]) Label() L { return n.label }
func (n *DiceTerm[L]) Label() L { return n.label }
func (n *Binary[L]) Label() L { return n.label }
func (n *Unary[L]) Label() L { return n.label }
func (n *Number[L]) Precedence() int { return PrecAtom }
func (n *DiceTerm[L]) Precedence() int { return PrecAtom }
func (n *Binary[L]) Precedence() int { return n.op.BinaryPrecedence() }
func (n *Unary[L]) Precedence() int { return PrecUnary }
func (*Number[L]) sealed() {}
func (*DiceTerm[L]) sealed() {}
func (*Binary[L]) sealed() {}
func (*Unary[L]) sealed() {}

// String

func (n *Number[L]) String() string { return strconv.Itoa(n.value) }
func (n *DiceTerm[L]) String() string { return n.dice.String() }

func (n *Binary[L]) String() string {
	p := n.Precedence()
	left := n.left.String()
	if n.left.Precedence() < p {
		left = "(" + left + ")"
	}
	right := n.right.String()
	if needsRightParens(n.op, n.right) {
		right = "(" + right + ")"
	}
	return left + " " + n.op.String() + " " + right
}

// needsRightParens parenthesizes a right operand of strictly lower precedence,
// and a right operand at the parent's grammar level unless both are the same
// associative operator. The parser is left-associative, so this keeps
// rendering round-trip stable.
func needsRightParens[L any](parent Operator, right Node[L]) bool {
	if right.Precedence() < parent.BinaryPrecedence() {
		return true
	}
	b, ok := right.(*Binary[L])
	if !ok || b.op.grammarLevel() != parent.grammarLevel() {
		return false
	}
	return !(b.op == parent && (parent == Add || parent == Mul))
}

func (n *Unary[L]) String() string {
	operand := n.operand.String()
	if n.operand.Precedence() < PrecUnary {
		operand = "(" + operand + ")"
	}
	return n.op.String() + operand
}

// Walk

func (n *Number[L]) Walk(v Visitor[L]) {
	if v.Number != nil {
		v.Number(n)
	}
}

func (n *DiceTerm[L]) Walk(v Visitor[L]) {
	if v.Dice != nil {
		v.Dice(n)
	}
}

func (n *Binary[L]) Walk(v Visitor[L]) {
	n.left.Walk(v)
	n.right.Walk(v)
	if v.Binary != nil {
		v.Binary(n)
	}
}

func (n *Unary[L]) Walk(v Visitor[L]) {
	n.operand.Walk(v)
	if v.Unary != nil {
		v.Unary(n)
	}
}

// Evaluate

func (n *Number[L]) Evaluate(valueFor func(*DiceTerm[L]) int) (int, error) {
	return evaluate(Node[L](n), valueFor)
}

func (n *DiceTerm[L]) Evaluate(valueFor func(*DiceTerm[L]) int) (int, error) {
	return evaluate(Node[L](n), valueFor)
}

func (n *Binary[L]) Evaluate(valueFor func(*DiceTerm[L]) int) (int, error) {
	return evaluate(Node[L](n), valueFor)
}

func (n *Unary[L]) Evaluate(valueFor func(*DiceTerm[L]) int) (int, error) {
	return evaluate(Node[L](n), valueFor)
}

func evaluate[L any](n Node[L], valueFor func(*DiceTerm[L]) int) (int, error) {
	return Fold(n, Reducer[L, int]{
		Number: func(x *Number[L]) (int, error) { return x.value, nil },
		Dice:   func(x *DiceTerm[L]) (int, error) { return valueFor(x), nil },
		Binary: func(x *Binary[L], l, r int) (int, error) { return x.op.Apply(l, r) },
		Unary:  func(_ *Unary[L], v int) (int, error) { return -v, nil },
	})
}

// Copy

func (n *Number[L]) Copy() Node[L] { return NewNumber(n.value, n.label) }
func (n *DiceTerm[L]) Copy() Node[L] { return NewDiceTerm(n.dice, n.label) }

func (n *Binary[L]) Copy() Node[L] {
	return NewBinary(n.left.Copy(), n.op, n.right.Copy(), n.label)
}

func (n *Unary[L]) Copy() Node[L] {
	return NewUnary(n.operand.Copy(), n.label)
}

// WithKind

func (n *Number[L]) WithKind(dice.Kind) Node[L] { return n }

func (n *DiceTerm[L]) WithKind(kind dice.Kind) Node[L] {
	if n.dice.Kind == kind {
		return n
	}
	return NewDiceTerm(n.dice.WithKind(kind), n.label)
}

func (n *Binary[L]) WithKind(kind dice.Kind) Node[L] {
	left, right := n.left.WithKind(kind), n.right.WithKind(kind)
	if left == n.left && right == n.right {
		return n
	}
	return NewBinary(left, n.op, right, n.label)
}

func (n *Unary[L]) WithKind(kind dice.Kind) Node[L] {
	operand := n.operand.WithKind(kind)
	if operand == n.operand {
		return n
	}
	return NewUnary(operand, n.label)
}

// UpdateLabel

func (n *Number[L]) UpdateLabel(fn func(L, Node[L]) L) Node[L] {
	label := fn(n.label, n)
	if sameLabel(label, n.label) {
		return n
	}
	return NewNumber(n.value, label)
}

func (n *DiceTerm[L]) UpdateLabel(fn func(L, Node[L]) L) Node[L] {
	label := fn(n.label, n)
	if sameLabel(label, n.label) {
		return n
	}
	return NewDiceTerm(n.dice, label)
}

func (n *Binary[L]) UpdateLabel(fn func(L, Node[L]) L) Node[L] {
	label := fn(n.label, n)
	if sameLabel(label, n.label) {
		return n
	}
	return NewBinary(n.left, n.op, n.right, label)
}

func (n *Unary[L]) UpdateLabel(fn func(L, Node[L]) L) Node[L] {
	label := fn(n.label, n)
	if sameLabel(label, n.label) {
		return n
	}
	return NewUnary(n.operand, label)
}

// sameLabel is the equality check guarding reference-stable no-op updates.
// Labels may hold slices, so comparison is structural.
func sameLabel[L any](a, b L) bool {
	return reflect.DeepEqual(a, b)
}
