package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/stddice/internal/config"
	"github.com/cory-johannsen/stddice/internal/expr"
	"github.com/cory-johannsen/stddice/internal/group"
	"github.com/cory-johannsen/stddice/internal/standard"
	"github.com/cory-johannsen/stddice/internal/table"
)

// App holds everything the command needs to describe and roll dice.
type App struct {
	logger      *zap.Logger
	factorizer  *standard.Factorizer
	roller      group.Roller
	parser      *expr.Parser
	tables      map[string]*table.Table
	standardize bool
}

// NewApp assembles an App.
//
// Precondition: logger, f, r and parser must be non-nil.
func NewApp(logger *zap.Logger, f *standard.Factorizer, r group.Roller, parser *expr.Parser, tables []*table.Table, dc config.DiceConfig) *App {
	byID := make(map[string]*table.Table, len(tables))
	for _, t := range tables {
		byID[t.ID] = t
	}
	return &App{
		logger:      logger,
		factorizer:  f,
		roller:      r,
		parser:      parser,
		tables:      byID,
		standardize: dc.Standardize,
	}
}

// Describe prints each slot of text with its standardized form when
// showStandard is set and its range when showRange is set. Nothing is rolled.
//
// Postcondition: Returns nil or the first parse, expansion or range error.
func (a *App) Describe(w io.Writer, text string, showStandard, showRange bool) error {
	slots, err := a.parser.ParseGroup(text)
	if err != nil {
		return err
	}
	for i, slot := range slots {
		fmt.Fprintf(w, "slot %d: %s\n", i+1, slot)
		if showStandard {
			std, err := standard.ExpandAll(slot, a.factorizer)
			if err != nil {
				return fmt.Errorf("slot %d: %w", i+1, err)
			}
			fmt.Fprintf(w, "  standard: %s\n", std)
		}
		if showRange {
			r, err := expr.Range(slot)
			if err != nil {
				return fmt.Errorf("slot %d: %w", i+1, err)
			}
			fmt.Fprintf(w, "  range:    %s\n", r)
		}
	}
	return nil
}

// Roll rolls every slot of text in a single group roll and prints the
// rolled form, range, value and per-term rolls of each slot.
//
// Postcondition: Returns nil or the first parse, roll or evaluation error.
func (a *App) Roll(w io.Writer, text string) error {
	slots, err := a.parser.ParseGroup(text)
	if err != nil {
		return err
	}
	f := a.factorizer
	if !a.standardize {
		f = nil
	}
	rolled, err := group.RollExprGroup(slots, f, a.roller)
	if err != nil {
		return err
	}
	for i, n := range rolled {
		r, err := expr.Range(n)
		if err != nil {
			return fmt.Errorf("slot %d: %w", i+1, err)
		}
		fmt.Fprintf(w, "slot %d: %s\n", i+1, slots[i])
		if a.standardize {
			fmt.Fprintf(w, "  standard: %s\n", n)
		}
		fmt.Fprintf(w, "  range:    %s\n", r)
		fmt.Fprintf(w, "  value:    %d\n", n.Label().Value)
		fmt.Fprintf(w, "  rolls:    %s\n", formatRolls(n))
	}
	return nil
}

// RollTable rolls the table named by ref. ref is either the ID of a table
// loaded from the configured tables directory or a path to a table file.
//
// Postcondition: Returns nil or a load, roll or lookup error.
func (a *App) RollTable(w io.Writer, ref string) error {
	t, ok := a.tables[ref]
	if !ok {
		if _, err := os.Stat(ref); err != nil {
			return fmt.Errorf("table %q is neither loaded nor a readable file: %w", ref, err)
		}
		loaded, err := table.LoadFromFile(ref)
		if err != nil {
			return err
		}
		t = loaded
	}
	res, err := t.Roll(a.roller)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "table %s (%s): rolled %d -> %s\n", t.ID, t.Dice, res.Value, res.Entry.Result)
	for i, r := range res.Results {
		fmt.Fprintf(w, "  %s: %v = %d\n", t.Dice[i], r.Rolls, r.Value)
	}
	return nil
}

// formatRolls lists the faces of every dice term in n, left to right.
func formatRolls(n expr.Node[group.ExprLabel]) string {
	var parts []string
	n.Walk(expr.Visitor[group.ExprLabel]{
		Dice: func(d *expr.DiceTerm[group.ExprLabel]) {
			parts = append(parts, fmt.Sprintf("%s=%v", d.Dice(), d.Label().Rolls))
		},
	})
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}
