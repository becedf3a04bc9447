package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/stddice/internal/config"
	"github.com/cory-johannsen/stddice/internal/dice"
	"github.com/cory-johannsen/stddice/internal/expr"
	"github.com/cory-johannsen/stddice/internal/group"
	"github.com/cory-johannsen/stddice/internal/standard"
	"github.com/cory-johannsen/stddice/internal/table"
)

const encountersYAML = `
table:
  id: encounters
  dice: "1d6;1d6"
  entries:
    - roll: "1;1-3"
      result: goblins
    - roll: "1;4-6"
      result: merchant
    - roll: "2-5;*"
      result: nothing
    - roll: "6;*"
      result: dragon
`

const maxFaceTray = `
	local standard = { [4] = true, [6] = true, [8] = true, [10] = true, [12] = true, [20] = true, [100] = true }
	function roll_die(sides)
		if not standard[sides] then
			error("no physical d" .. sides)
		end
		return sides
	end
`

func newTestApp(standardize bool, tables []*table.Table, values ...int) *App {
	logger := zap.NewNop()
	return NewApp(
		logger,
		standard.NewFactorizer(logger),
		group.NewDirectRoller(&dice.FixedSource{Values: values}),
		expr.NewParser(""),
		tables,
		config.DiceConfig{Standardize: standardize},
	)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Logging.Level = "error"
	cfg.Logging.Format = "json"
	cfg.Dice.Source = config.SourceSeeded
	cfg.Dice.Seed = 1
	return cfg
}

func TestApp_RollStandardized(t *testing.T) {
	app := newTestApp(true, nil, 0, 5, 0, 5, 2, 3)
	var out bytes.Buffer
	require.NoError(t, app.Roll(&out, "1d36 + 2;2d9"))

	s := out.String()
	assert.Contains(t, s, "slot 1: 1d36 + 2\n")
	assert.Contains(t, s, "  standard: 1d6 + 6 * (1d6 - 1) + 2\n")
	assert.Contains(t, s, "  range:    [3, 38]\n")
	assert.Contains(t, s, "  value:    33\n")
	assert.Contains(t, s, "  rolls:    1d6=[1] 1d6=[6]\n")
	assert.Contains(t, s, "slot 2: 2d9\n")
	assert.Contains(t, s, "  range:    [2, 18]\n")
	assert.Contains(t, s, "  value:    12\n")
}

func TestApp_RollAsWritten(t *testing.T) {
	app := newTestApp(false, nil, 35)
	var out bytes.Buffer
	require.NoError(t, app.Roll(&out, "1d36 + 2"))

	s := out.String()
	assert.NotContains(t, s, "standard:")
	assert.Contains(t, s, "  value:    38\n")
	assert.Contains(t, s, "  rolls:    1d36=[36]\n")
}

func TestApp_RollNumbersOnly(t *testing.T) {
	app := newTestApp(true, nil)
	var out bytes.Buffer
	require.NoError(t, app.Roll(&out, "2 * 3"))
	assert.Contains(t, out.String(), "  value:    6\n")
	assert.Contains(t, out.String(), "  rolls:    none\n")
}

func TestApp_RollSyntaxError(t *testing.T) {
	app := newTestApp(true, nil)
	err := app.Roll(&bytes.Buffer{}, "1d6 +")
	assert.ErrorIs(t, err, expr.ErrSyntax)
}

func TestApp_Describe(t *testing.T) {
	app := newTestApp(true, nil)
	var out bytes.Buffer
	require.NoError(t, app.Describe(&out, "1d36 + 2", true, true))
	assert.Equal(t, "slot 1: 1d36 + 2\n  standard: 1d6 + 6 * (1d6 - 1) + 2\n  range:    [3, 38]\n", out.String())
}

func TestApp_DescribeRangeOnly(t *testing.T) {
	app := newTestApp(true, nil)
	var out bytes.Buffer
	require.NoError(t, app.Describe(&out, "1d6;2d9", false, true))
	assert.Equal(t, "slot 1: 1d6\n  range:    [1, 6]\nslot 2: 2d9\n  range:    [2, 18]\n", out.String())
}

func TestApp_DescribeAmbiguousDivision(t *testing.T) {
	app := newTestApp(true, nil)
	err := app.Describe(&bytes.Buffer{}, "6 / (1d6 - 3)", false, true)
	assert.ErrorIs(t, err, expr.ErrAmbiguousDivision)
}

func TestApp_RollTableFromFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "encounters.yaml", encountersYAML)
	app := newTestApp(true, nil, 5, 1)
	var out bytes.Buffer
	require.NoError(t, app.RollTable(&out, path))
	assert.Contains(t, out.String(), "table encounters (1d6;1d6): rolled 32 -> dragon\n")
	assert.Contains(t, out.String(), "  1d6: [6] = 6\n")
	assert.Contains(t, out.String(), "  1d6: [2] = 2\n")
}

func TestApp_RollTableByID(t *testing.T) {
	tbl, err := table.LoadFromBytes([]byte(encountersYAML))
	require.NoError(t, err)
	app := newTestApp(true, []*table.Table{tbl}, 0, 1)
	var out bytes.Buffer
	require.NoError(t, app.RollTable(&out, "encounters"))
	assert.Contains(t, out.String(), "rolled 2 -> goblins")
}

func TestApp_RollTableUnknown(t *testing.T) {
	app := newTestApp(true, nil)
	err := app.RollTable(&bytes.Buffer{}, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "neither loaded nor a readable file")
}

func TestInitializeApp_Defaults(t *testing.T) {
	app, cleanup, err := initializeApp(testConfig(t))
	require.NoError(t, err)
	defer cleanup()

	var out bytes.Buffer
	require.NoError(t, app.Roll(&out, "3d9"))
	assert.Contains(t, out.String(), "  range:    [3, 27]\n")
}

func TestInitializeApp_LuaRollerWithTables(t *testing.T) {
	scripts := t.TempDir()
	writeFile(t, scripts, "tray.lua", maxFaceTray)
	tables := t.TempDir()
	writeFile(t, tables, "encounters.yaml", encountersYAML)

	cfg := testConfig(t)
	cfg.Scripting.RollerDir = scripts
	cfg.Tables.Dir = tables

	app, cleanup, err := initializeApp(cfg)
	require.NoError(t, err)
	defer cleanup()

	var out bytes.Buffer
	require.NoError(t, app.Roll(&out, "1d36 + 2;2d9"))
	assert.Contains(t, out.String(), "  value:    38\n")
	assert.Contains(t, out.String(), "  value:    18\n")

	out.Reset()
	require.NoError(t, app.RollTable(&out, "encounters"))
	assert.Contains(t, out.String(), "rolled 36 -> dragon")
}

func TestInitializeApp_LuaRollerRefusesUnstandardized(t *testing.T) {
	scripts := t.TempDir()
	writeFile(t, scripts, "tray.lua", maxFaceTray)

	cfg := testConfig(t)
	cfg.Scripting.RollerDir = scripts
	cfg.Dice.Standardize = false

	app, cleanup, err := initializeApp(cfg)
	require.NoError(t, err)
	defer cleanup()

	err = app.Roll(&bytes.Buffer{}, "1d9")
	assert.ErrorContains(t, err, "no physical d9")
}

func TestInitializeApp_MissingRollerDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scripting.RollerDir = filepath.Join(t.TempDir(), "absent")
	_, _, err := initializeApp(cfg)
	assert.ErrorContains(t, err, "loading roller scripts")
}

func TestInitializeApp_BadTablesDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.Tables.Dir = t.TempDir()
	_, _, err := initializeApp(cfg)
	assert.ErrorContains(t, err, "loading tables")
}

func TestShippedContentLoads(t *testing.T) {
	tables, err := table.LoadDir("../../content/tables")
	require.NoError(t, err)
	assert.Len(t, tables, 2)

	cfg, err := config.Load("../../configs/dev.yaml")
	require.NoError(t, err)
	assert.Equal(t, "content/tables", cfg.Tables.Dir)
}
