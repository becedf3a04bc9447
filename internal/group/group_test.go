package group_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/stddice/internal/dice"
	"github.com/cory-johannsen/stddice/internal/expr"
	"github.com/cory-johannsen/stddice/internal/group"
	"github.com/cory-johannsen/stddice/internal/standard"
)

// recordingRoller remembers every group it is asked to roll.
type recordingRoller struct {
	mu     sync.Mutex
	inner  group.Roller
	groups []dice.Group
}

func (r *recordingRoller) Roll(g dice.Group) ([]group.Result, error) {
	r.mu.Lock()
	r.groups = append(r.groups, g)
	r.mu.Unlock()
	return r.inner.Roll(g)
}

type failingRoller struct{ err error }

func (f failingRoller) Roll(dice.Group) ([]group.Result, error) { return nil, f.err }

// slowRoller never answers before its context is done.
type slowRoller struct{}

func (slowRoller) RollAsync(ctx context.Context, _ dice.Group) <-chan group.Outcome {
	out := make(chan group.Outcome, 1)
	go func() {
		<-ctx.Done()
		out <- group.Outcome{Err: ctx.Err()}
		close(out)
	}()
	return out
}

func fixed(values ...int) *dice.FixedSource {
	return &dice.FixedSource{Values: values}
}

func newFactorizer() *standard.Factorizer {
	return standard.NewFactorizer(zap.NewNop())
}

func TestDirectRoller_RollsEverySlot(t *testing.T) {
	r := group.NewDirectRoller(fixed(0, 5, 2))
	results, err := r.Roll(dice.Group{dice.MustNew(2, 6), dice.MustNew(1, 20)})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, []int{1, 6}, results[0].Rolls)
	assert.Equal(t, 7, results[0].Value)
	assert.Equal(t, []int{3}, results[1].Rolls)
	assert.Equal(t, 3, results[1].Value)
	assert.Nil(t, results[0].Subexpressions)
}

func TestStandardizeDiceGroup_Tags(t *testing.T) {
	g := dice.Group{dice.MustNew(2, 6), dice.MustNew(2, 9)}
	nodes, err := group.StandardizeDiceGroup(g, newFactorizer())
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	assert.Equal(t, group.Tag{Slot: 0, Die: 0, Set: true}, nodes[0].Label())
	assert.Equal(t, "2d6", nodes[0].String())
	assert.Equal(t, group.Tag{Slot: 1, Die: 0, Set: true}, nodes[1].Label())
	assert.Equal(t, group.Tag{Slot: 1, Die: 1, Set: true}, nodes[2].Label())
	assert.NotSame(t, nodes[1], nodes[2])

	var inner []group.Tag
	nodes[1].Walk(expr.Visitor[group.Tag]{
		Dice: func(d *expr.DiceTerm[group.Tag]) { inner = append(inner, d.Label()) },
	})
	assert.Equal(t, []group.Tag{{}, {}}, inner, "introduced dice terms are untagged")
}

func TestStandardizeDiceGroup_KeepsKind(t *testing.T) {
	g := dice.Group{dice.MustNew(1, 36).WithKind("gold")}
	nodes, err := group.StandardizeDiceGroup(g, newFactorizer())
	require.NoError(t, err)
	assert.Equal(t, dice.Group{dice.MustNew(1, 6).WithKind("gold"), dice.MustNew(1, 6).WithKind("gold")}, group.CollectDice(nodes))
}

func TestStandardizingRoller_2d9RollsFourD6(t *testing.T) {
	rec := &recordingRoller{inner: group.NewDirectRoller(fixed(0, 5, 2, 3))}
	r := group.NewStandardizingRoller(rec, newFactorizer())

	results, err := r.Roll(dice.Group{dice.MustNew(2, 9)})
	require.NoError(t, err)

	require.Len(t, rec.groups, 1)
	d6 := dice.MustNew(1, 6)
	assert.Equal(t, dice.Group{d6, d6, d6, d6}, rec.groups[0])

	// copy 1 rolls 1 and 6: 1 + 3*2 = 7; copy 2 rolls 3 and 4: 2 + 3*1 = 5
	require.Len(t, results, 1)
	assert.Equal(t, dice.MustNew(2, 9), results[0].Dice)
	assert.Equal(t, 12, results[0].Value)
	assert.Equal(t, []int{7, 5}, results[0].Rolls)
	assert.Len(t, results[0].Subexpressions, 2)
}

func TestStandardizingRoller_StandardSlotsPassThrough(t *testing.T) {
	rec := &recordingRoller{inner: group.NewDirectRoller(fixed(1, 2, 3))}
	r := group.NewStandardizingRoller(rec, newFactorizer())

	results, err := r.Roll(dice.Group{dice.MustNew(2, 6), dice.MustNew(1, 20)})
	require.NoError(t, err)
	assert.Equal(t, dice.Group{dice.MustNew(2, 6), dice.MustNew(1, 20)}, rec.groups[0])
	assert.Equal(t, []int{2, 3}, results[0].Rolls)
	assert.Equal(t, 5, results[0].Value)
	assert.Equal(t, []int{4}, results[1].Rolls)
	assert.Nil(t, results[1].Subexpressions)
}

func TestStandardizingRoller_PropagatesInnerError(t *testing.T) {
	boom := errors.New("boom")
	r := group.NewStandardizingRoller(failingRoller{err: boom}, newFactorizer())
	_, err := r.Roll(dice.Group{dice.MustNew(1, 9)})
	assert.ErrorIs(t, err, boom)
}

func TestReassemble_WrongResultCount(t *testing.T) {
	g := dice.Group{dice.MustNew(1, 36)}
	nodes, err := group.StandardizeDiceGroup(g, newFactorizer())
	require.NoError(t, err)
	_, err = group.Reassemble(g, nodes, []group.Result{{Dice: dice.MustNew(1, 6), Value: 1, Rolls: []int{1}}})
	assert.ErrorIs(t, err, group.ErrResultCount)
}

func TestReassemble_UntaggedRoot(t *testing.T) {
	g := dice.Group{dice.MustNew(1, 6)}
	nodes := []expr.Node[group.Tag]{expr.NewDiceTerm(dice.MustNew(1, 6), group.Tag{})}
	_, err := group.Reassemble(g, nodes, []group.Result{{Dice: dice.MustNew(1, 6), Value: 4, Rolls: []int{4}}})
	assert.ErrorIs(t, err, group.ErrUntagged)
}

func TestReassemble_InvalidRollsFromInner(t *testing.T) {
	g := dice.Group{dice.MustNew(1, 6)}
	nodes, err := group.StandardizeDiceGroup(g, newFactorizer())
	require.NoError(t, err)
	_, err = group.Reassemble(g, nodes, []group.Result{{Dice: dice.MustNew(1, 6), Value: 7, Rolls: []int{7}}})
	assert.ErrorIs(t, err, expr.ErrRollOutOfRange)
}

func TestAsync_AdaptsSyncRoller(t *testing.T) {
	ctx := context.Background()
	a := group.Async(group.NewDirectRoller(fixed(3)))
	results, err := group.Await(ctx, a.RollAsync(ctx, dice.Group{dice.MustNew(1, 6)}))
	require.NoError(t, err)
	assert.Equal(t, 4, results[0].Value)
}

func TestAsync_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := group.Async(group.NewDirectRoller(fixed(3)))
	o := <-a.RollAsync(ctx, dice.Group{dice.MustNew(1, 6)})
	assert.ErrorIs(t, o.Err, context.Canceled)
}

func TestAsyncStandardizingRoller(t *testing.T) {
	ctx := context.Background()
	rec := &recordingRoller{inner: group.NewDirectRoller(fixed(0, 5, 2, 3))}
	r := group.NewAsyncStandardizingRoller(group.Async(rec), newFactorizer())
	results, err := group.Await(ctx, r.RollAsync(ctx, dice.Group{dice.MustNew(2, 9)}))
	require.NoError(t, err)
	assert.Equal(t, 12, results[0].Value)
	assert.Len(t, rec.groups[0], 4)
}

func TestAsyncStandardizingRoller_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	r := group.NewAsyncStandardizingRoller(slowRoller{}, newFactorizer())
	_, err := group.Await(context.Background(), r.RollAsync(ctx, dice.Group{dice.MustNew(1, 9)}))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoggedRoller_LogsEverySlot(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := group.NewLoggedRoller(group.NewDirectRoller(fixed(0)), zap.New(core))
	_, err := r.Roll(dice.Group{dice.MustNew(1, 6), dice.MustNew(1, 8)})
	require.NoError(t, err)

	entries := logs.FilterMessage("dice roll").All()
	require.Len(t, entries, 2)
	first := entries[0].ContextMap()
	assert.Equal(t, "1d6;1d8", first["group"])
	assert.Equal(t, "1d6", first["dice"])
	assert.Equal(t, int64(1), first["value"])
	assert.NotEmpty(t, first["roll_id"])
	assert.Equal(t, first["roll_id"], entries[1].ContextMap()["roll_id"])
}

func TestLoggedRoller_LogsFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := group.NewLoggedRoller(failingRoller{err: errors.New("jammed")}, zap.New(core))
	_, err := r.Roll(dice.Group{dice.MustNew(1, 6)})
	require.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("dice group roll failed").Len())
}

func TestRollExprGroup(t *testing.T) {
	slots, err := expr.NewParser("").ParseGroup("1d36 + 2;2d9")
	require.NoError(t, err)
	rec := &recordingRoller{inner: group.NewDirectRoller(fixed(0, 5, 0, 5, 2, 3))}

	out, err := group.RollExprGroup(slots, newFactorizer(), rec)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Len(t, rec.groups, 1)
	assert.Len(t, rec.groups[0], 6)

	assert.Equal(t, "1d6 + 6 * (1d6 - 1) + 2", out[0].String())
	// 1 + 6*5 + 2
	assert.Equal(t, 33, out[0].Label().Value)
	assert.Equal(t, group.Tag{Slot: 0, Die: -1, Set: true}, out[0].Label().Label.Label)

	assert.Equal(t, 12, out[1].Label().Value)
	assert.Equal(t, group.Tag{Slot: 1, Die: -1, Set: true}, out[1].Label().Label.Label)

	var indexes []int
	out[1].Walk(expr.Visitor[group.ExprLabel]{
		Dice: func(d *expr.DiceTerm[group.ExprLabel]) { indexes = append(indexes, d.Label().Label.Index) },
	})
	assert.Equal(t, []int{2, 3, 4, 5}, indexes)
}

func TestRollExprGroup_WrongResultCount(t *testing.T) {
	short := rollerFunc(func(dice.Group) ([]group.Result, error) { return nil, nil })
	_, err := group.RollExprGroup([]expr.Node[expr.NoLabel]{expr.MustParse("1d6")}, newFactorizer(), short)
	assert.ErrorIs(t, err, group.ErrResultCount)
}

type rollerFunc func(dice.Group) ([]group.Result, error)

func (f rollerFunc) Roll(g dice.Group) ([]group.Result, error) { return f(g) }

// TestProperty_StandardizedSlotWithinRange verifies every reassembled slot
// value lies within the slot's own dice range.
func TestProperty_StandardizedSlotWithinRange(t *testing.T) {
	f := newFactorizer()
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 4).Draw(rt, "slots")
		g := make(dice.Group, n)
		for i := range g {
			g[i] = dice.MustNew(rapid.IntRange(1, 3).Draw(rt, "count"), rapid.IntRange(1, 200).Draw(rt, "sides"))
		}
		seed := rapid.Uint64().Draw(rt, "seed")
		r := group.NewStandardizingRoller(group.NewDirectRoller(dice.NewSeededSource(seed)), f)
		results, err := r.Roll(g)
		require.NoError(rt, err)
		require.Len(rt, results, n)
		for i, res := range results {
			assert.GreaterOrEqual(rt, res.Value, g[i].MinRoll())
			assert.LessOrEqual(rt, res.Value, g[i].MaxRoll())
			assert.Len(rt, res.Rolls, g[i].Count)
		}
	})
}

func TestRollExprGroup_NilFactorizerRollsAsWritten(t *testing.T) {
	slots, err := expr.NewParser("").ParseGroup("1d36 + 2")
	require.NoError(t, err)
	rec := &recordingRoller{inner: group.NewDirectRoller(fixed(35))}

	out, err := group.RollExprGroup(slots, nil, rec)
	require.NoError(t, err)
	assert.Equal(t, dice.Group{dice.MustNew(1, 36)}, rec.groups[0])
	assert.Equal(t, "1d36 + 2", out[0].String())
	assert.Equal(t, 38, out[0].Label().Value)
}
