package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cory-johannsen/stddice/internal/dice"
)

// ErrSyntax is wrapped by every parse failure.
var ErrSyntax = errors.New("syntax error")

// Parser turns dice-notation text into an expression tree.
//
//	expression     := additive
//	additive       := multiplicative (("+"|"-") multiplicative)*
//	multiplicative := unary (("*"|"/"|"%") unary)*
//	unary          := "-" unary | primary
//	primary        := "(" expression ")" | INTEGER ["d" INTEGER]
//
// Whitespace is insignificant.
type Parser struct {
	kind dice.Kind
}

// NewParser returns a Parser that tags every dice term it produces with
// kind. The empty kind leaves terms untagged.
func NewParser(kind dice.Kind) *Parser {
	return &Parser{kind: kind}
}

// Parse parses text with an untagged Parser.
func Parse(text string) (Node[NoLabel], error) {
	return NewParser("").Parse(text)
}

// MustParse parses text and panics on error. Useful for package-level values.
func MustParse(text string) Node[NoLabel] {
	n, err := Parse(text)
	if err != nil {
		panic("expr: MustParse failed for " + text + ": " + err.Error())
	}
	return n
}

// Parse parses text into a tree.
//
// Postcondition: Returns a tree or an error wrapping ErrSyntax.
func (p *Parser) Parse(text string) (Node[NoLabel], error) {
	s := &scanner{src: text, kind: p.kind}
	n, err := s.expression()
	if err != nil {
		return nil, err
	}
	s.skipSpace()
	if !s.atEnd() {
		return nil, s.errorf("unexpected %q", s.src[s.pos:s.pos+1])
	}
	return n, nil
}

// ParseGroup parses semicolon-separated expressions, e.g. "1d36 + 2;2d9".
func (p *Parser) ParseGroup(text string) ([]Node[NoLabel], error) {
	parts := strings.Split(text, dice.GroupSeparator)
	out := make([]Node[NoLabel], 0, len(parts))
	for i, part := range parts {
		n, err := p.Parse(part)
		if err != nil {
			return nil, fmt.Errorf("expr: group slot %d: %w", i, err)
		}
		out = append(out, n)
	}
	return out, nil
}

type scanner struct {
	src  string
	pos  int
	kind dice.Kind
}

func (s *scanner) errorf(format string, args ...any) error {
	return fmt.Errorf("expr: %w at position %d in %q: %s", ErrSyntax, s.pos, s.src, fmt.Sprintf(format, args...))
}

func (s *scanner) atEnd() bool { return s.pos >= len(s.src) }

func (s *scanner) skipSpace() {
	for !s.atEnd() && strings.IndexByte(" \t\r\n", s.src[s.pos]) >= 0 {
		s.pos++
	}
}

// peek returns the next non-space byte without consuming it, or 0 at end.
func (s *scanner) peek() byte {
	s.skipSpace()
	if s.atEnd() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) expression() (Node[NoLabel], error) {
	return s.additive()
}

func (s *scanner) additive() (Node[NoLabel], error) {
	left, err := s.multiplicative()
	if err != nil {
		return nil, err
	}
	for {
		c := s.peek()
		if c != '+' && c != '-' {
			return left, nil
		}
		s.pos++
		right, err := s.multiplicative()
		if err != nil {
			return nil, err
		}
		left = NewBinary(left, Operator(c), right, NoLabel{})
	}
}

func (s *scanner) multiplicative() (Node[NoLabel], error) {
	left, err := s.unary()
	if err != nil {
		return nil, err
	}
	for {
		c := s.peek()
		if c != '*' && c != '/' && c != '%' {
			return left, nil
		}
		s.pos++
		right, err := s.unary()
		if err != nil {
			return nil, err
		}
		left = NewBinary(left, Operator(c), right, NoLabel{})
	}
}

func (s *scanner) unary() (Node[NoLabel], error) {
	if s.peek() == '-' {
		s.pos++
		operand, err := s.unary()
		if err != nil {
			return nil, err
		}
		return NewUnary(operand, NoLabel{}), nil
	}
	return s.primary()
}

func (s *scanner) primary() (Node[NoLabel], error) {
	c := s.peek()
	switch {
	case c == 0:
		return nil, s.errorf("missing operand")
	case c == '(':
		open := s.pos
		s.pos++
		n, err := s.expression()
		if err != nil {
			return nil, err
		}
		if s.peek() != ')' {
			s.pos = open
			return nil, s.errorf("unmatched (")
		}
		s.pos++
		return n, nil
	case isDigit(c):
		return s.numberOrDice()
	}
	return nil, s.errorf("unexpected %q", string(c))
}

// numberOrDice reads INTEGER ["d" INTEGER]. When the dice suffix is not a
// digit run, or names an invalid die such as 0d6, it backtracks and yields
// the integer alone.
func (s *scanner) numberOrDice() (Node[NoLabel], error) {
	countText := s.digits()
	count, err := strconv.Atoi(countText)
	if err != nil {
		return nil, s.errorf("invalid integer %q", countText)
	}
	mark := s.pos
	if s.peek() == 'd' {
		s.pos++
		s.skipSpace()
		if sidesText := s.digits(); sidesText != "" {
			if sides, err := strconv.Atoi(sidesText); err == nil {
				if d, err := dice.New(count, sides); err == nil {
					return NewDiceTerm(d.WithKind(s.kind), NoLabel{}), nil
				}
			}
		}
		s.pos = mark
	}
	return NewNumber(count, NoLabel{}), nil
}

func (s *scanner) digits() string {
	start := s.pos
	for !s.atEnd() && isDigit(s.src[s.pos]) {
		s.pos++
	}
	return s.src[start:s.pos]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
