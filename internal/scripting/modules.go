package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/stddice/internal/expr"
	"github.com/cory-johannsen/stddice/internal/standard"
)

// RegisterModules registers all engine.* Lua tables into L:
//
//	engine.dice.roll(e)        -> {total, min, max, expr, standard}
//	engine.dice.range(e)       -> min, max
//	engine.dice.standardize(e) -> canonical standardized text
//	engine.log.debug|info|warn|error(msg)
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "dice", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"roll":        m.luaDiceRoll,
		"range":       m.luaDiceRange,
		"standardize": m.luaDiceStandardize,
	}))
	L.SetField(engine, "log", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"debug": m.luaLog(m.logger.Debug),
		"info":  m.luaLog(m.logger.Info),
		"warn":  m.luaLog(m.logger.Warn),
		"error": m.luaLog(m.logger.Error),
	}))
	L.SetGlobal("engine", engine)
}

func checkExpr(L *lua.LState) expr.Node[expr.NoLabel] {
	text := L.CheckString(1)
	n, err := expr.Parse(text)
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	return n
}

// luaDiceRoll rolls the standardized form of the expression with the
// manager's source.
func (m *Manager) luaDiceRoll(L *lua.LState) int {
	n := checkExpr(L)
	r, err := expr.Range(n)
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	std, err := standard.ExpandAll(n, m.factorizer)
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	rolls := make(map[*expr.DiceTerm[expr.NoLabel]][]int)
	for _, term := range expr.DiceTerms(std) {
		rolls[term] = term.Dice().Roll(m.src)
	}
	evaluated, err := expr.EvaluateExpr(std, expr.RollsByNode(rolls))
	if err != nil {
		L.RaiseError("%s", err.Error())
	}

	t := L.NewTable()
	t.RawSetString("total", lua.LNumber(evaluated.Label().Value))
	t.RawSetString("min", lua.LNumber(r.Min))
	t.RawSetString("max", lua.LNumber(r.Max))
	t.RawSetString("expr", lua.LString(n.String()))
	t.RawSetString("standard", lua.LString(std.String()))
	L.Push(t)
	return 1
}

func (m *Manager) luaDiceRange(L *lua.LState) int {
	r, err := expr.Range(checkExpr(L))
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	L.Push(lua.LNumber(r.Min))
	L.Push(lua.LNumber(r.Max))
	return 2
}

func (m *Manager) luaDiceStandardize(L *lua.LState) int {
	std, err := standard.ExpandAll(checkExpr(L), m.factorizer)
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	L.Push(lua.LString(std.String()))
	return 1
}

func (m *Manager) luaLog(log func(string, ...zap.Field)) lua.LGFunction {
	return func(L *lua.LState) int {
		log(L.CheckString(1), zap.String("source", "lua"))
		return 0
	}
}
