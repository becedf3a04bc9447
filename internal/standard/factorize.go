package standard

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/stddice/internal/dice"
	"github.com/cory-johannsen/stddice/internal/expr"
)

// ErrInvalidSides is returned for a non-positive face count.
var ErrInvalidSides = errors.New("sides must be positive")

// Factorizer converts a face count into an equivalent expression over the
// standard catalogue. Results are memoized by face count.
//
// Factorizer is safe for concurrent use.
type Factorizer struct {
	mu     sync.RWMutex
	cache  map[int]expr.Node[expr.NoLabel]
	logger *zap.Logger
}

// NewFactorizer creates a Factorizer with an empty cache.
//
// Precondition: logger must be non-nil.
func NewFactorizer(logger *zap.Logger) *Factorizer {
	return &Factorizer{
		cache:  make(map[int]expr.Node[expr.NoLabel]),
		logger: logger,
	}
}

// Factorize returns an expression whose range is exactly [1, sides].
//
// The face count is treated as a product of digit bases. The least
// significant digit is the base's own roll; every further digit contributes
// placeValue * (roll - 1). Among all place-value compositions reachable by
// trying the bases in catalogue order, the one needing the fewest physical
// dice wins, then the one with the fewest digits, then the smallest tree.
// Remaining ties go to the composition found last. When no composition
// exists the single die 1d<sides> is returned.
//
// Precondition: sides >= 1.
// Postcondition: Range(result) == [1, sides].
func (f *Factorizer) Factorize(sides int) (expr.Node[expr.NoLabel], error) {
	if sides <= 0 {
		return nil, fmt.Errorf("standard: factorize %d: %w", sides, ErrInvalidSides)
	}

	f.mu.RLock()
	cached, ok := f.cache[sides]
	f.mu.RUnlock()
	if ok {
		return cached, nil
	}

	s := search{memo: make(map[searchKey]candidate)}
	best, found := s.factor(sides, 1)
	result := best.node
	if !found {
		f.logger.Warn("no standard factorization, keeping single die",
			zap.Int("sides", sides),
		)
		result = expr.NewDiceTerm(dice.MustNew(1, sides), expr.NoLabel{})
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.cache[sides]; ok {
		return existing, nil
	}
	f.cache[sides] = result
	f.logger.Debug("factorized die",
		zap.Int("sides", sides),
		zap.String("expression", result.String()),
	)
	return result, nil
}

// FactorizeKind is Factorize with kind applied to every dice term of the
// cached result. The kind is not part of the cache key.
func (f *Factorizer) FactorizeKind(sides int, kind dice.Kind) (expr.Node[expr.NoLabel], error) {
	n, err := f.Factorize(sides)
	if err != nil {
		return nil, err
	}
	return n.WithKind(kind), nil
}

// Len returns the number of cached face counts.
func (f *Factorizer) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.cache)
}

// complexity orders candidates: physical dice, then digits, then nodes.
type complexity struct {
	dice   int
	digits int
	nodes  int
}

func (c complexity) add(o complexity) complexity {
	return complexity{c.dice + o.dice, c.digits + o.digits, c.nodes + o.nodes}
}

func (c complexity) less(o complexity) bool {
	if c.dice != o.dice {
		return c.dice < o.dice
	}
	if c.digits != o.digits {
		return c.digits < o.digits
	}
	return c.nodes < o.nodes
}

type candidate struct {
	node expr.Node[expr.NoLabel]
	cost complexity
	ok   bool
}

type searchKey struct {
	n          int
	placeValue int
}

// search holds the per-call memo of best sub-results. Because cost is
// additive, the best composition for a given leading digit is that digit
// plus the best composition of the remainder, so memoizing the best
// remainder at each (n, placeValue) selects the same winner as keeping every
// candidate.
type search struct {
	memo map[searchKey]candidate
}

func (s *search) factor(n, placeValue int) (candidate, bool) {
	key := searchKey{n, placeValue}
	if c, ok := s.memo[key]; ok {
		return c, c.ok
	}

	var best candidate
	for _, b := range bases {
		if n%b.sides != 0 {
			continue
		}
		term := digitTerm(b, placeValue)
		cand := candidate{
			node: term,
			cost: complexity{dice: expr.PhysicalDice(term), digits: 1, nodes: expr.Size(term)},
			ok:   true,
		}
		if rest := n / b.sides; rest != 1 {
			sub, ok := s.factor(rest, placeValue*b.sides)
			if !ok {
				continue
			}
			cand.node = binary(term, expr.Add, sub.node)
			cand.cost = cand.cost.add(sub.cost).add(complexity{nodes: 1})
		}
		if !best.ok || !best.cost.less(cand.cost) {
			best = cand
		}
	}

	s.memo[key] = best
	return best, best.ok
}

// digitTerm encodes one digit: the base roll itself in the units place, or
// placeValue * (roll - 1) above it.
func digitTerm(b base, placeValue int) expr.Node[expr.NoLabel] {
	if placeValue == 1 {
		return b.roll
	}
	return binary(number(placeValue), expr.Mul, binary(b.roll, expr.Sub, number(1)))
}

func number(v int) expr.Node[expr.NoLabel] {
	return expr.NewNumber(v, expr.NoLabel{})
}

func binary(left expr.Node[expr.NoLabel], op expr.Operator, right expr.Node[expr.NoLabel]) expr.Node[expr.NoLabel] {
	return expr.NewBinary(left, op, right, expr.NoLabel{})
}
