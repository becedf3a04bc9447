package scripting_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/stddice/internal/dice"
	"github.com/cory-johannsen/stddice/internal/scripting"
	"github.com/cory-johannsen/stddice/internal/standard"
)

func newTestManager(t testing.TB) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	mgr := scripting.NewManager(dice.NewSeededSource(7), standard.NewFactorizer(logger), logger)
	t.Cleanup(mgr.Close)
	return mgr, logs
}

func writeTempLua(t testing.TB, filename, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(src), 0644))
	return dir
}

func TestManager_Load_CallsHook(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "hooks.lua", `
		function add(a, b)
			return a + b
		end
	`)
	require.NoError(t, mgr.Load("adder", dir, 0))
	assert.True(t, mgr.Loaded("adder"))
	ret, err := mgr.Call("adder", "add", lua.LNumber(3), lua.LNumber(4))
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(7), ret)
}

func TestManager_Call_Errors(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "hooks.lua", `
		not_a_function = 3
		function boom() error("intentional") end
	`)
	require.NoError(t, mgr.Load("s", dir, 0))

	_, err := mgr.Call("missing", "boom")
	assert.ErrorIs(t, err, scripting.ErrNoScript)
	_, err = mgr.Call("s", "nothing_here")
	assert.ErrorIs(t, err, scripting.ErrNoHook)
	_, err = mgr.Call("s", "not_a_function")
	assert.ErrorIs(t, err, scripting.ErrNoHook)
	_, err = mgr.Call("s", "boom")
	assert.ErrorContains(t, err, "intentional")
}

func TestManager_CallHook_MissingHook_NoOp(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load("s", writeTempLua(t, "empty.lua", `-- no functions`), 0))
	ret, err := mgr.CallHook("s", "nonexistent_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestManager_CallHook_UnknownScript_LogsInfo(t *testing.T) {
	mgr, logs := newTestManager(t)
	ret, err := mgr.CallHook("no_such_script", "some_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.Equal(t, 1, logs.FilterLevelExact(zap.InfoLevel).FilterMessage("scripting: no VM loaded").Len())
}

func TestManager_CallHook_RuntimeError_LogsWarn(t *testing.T) {
	mgr, logs := newTestManager(t)
	dir := writeTempLua(t, "bad.lua", `
		function bad_hook()
			error("intentional error")
		end
	`)
	require.NoError(t, mgr.Load("s", dir, 0))
	ret, err := mgr.CallHook("s", "bad_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())
}

func TestManager_InstructionBudgetIsPerCall(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "loop.lua", `
		function spin(n)
			local x = 0
			for i = 1, n do x = x + i end
			return x
		end
	`)
	require.NoError(t, mgr.Load("s", dir, 500))

	_, err := mgr.Call("s", "spin", lua.LNumber(1_000_000))
	require.Error(t, err, "expected budget exhaustion")

	// The next call gets a fresh budget.
	for range 5 {
		ret, err := mgr.Call("s", "spin", lua.LNumber(10))
		require.NoError(t, err)
		assert.Equal(t, lua.LNumber(55), ret)
	}
}

func TestManager_Load_MultipleFiles_OrderedByName(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.lua"), []byte(`sides_default = 20`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.lua"), []byte(`
		function get_default() return sides_default end
	`), 0644))
	require.NoError(t, mgr.Load("ordered", dir, 0))
	ret, err := mgr.Call("ordered", "get_default")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(20), ret)
}

func TestManager_Load_Errors(t *testing.T) {
	mgr, _ := newTestManager(t)
	assert.Error(t, mgr.Load("bad", writeTempLua(t, "bad.lua", `this is not valid lua @@@@`), 0))
	assert.Error(t, mgr.Load("missing", filepath.Join(t.TempDir(), "nope"), 0))
	assert.Error(t, mgr.Load("spin", writeTempLua(t, "spin.lua", `while true do end`), 100))
	assert.False(t, mgr.Loaded("bad"))
}

func TestManager_Load_ReplacesExisting(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load("s", writeTempLua(t, "v1.lua", `function version() return 1 end`), 0))
	require.NoError(t, mgr.Load("s", writeTempLua(t, "v2.lua", `function version() return 2 end`), 0))
	ret, err := mgr.Call("s", "version")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(2), ret)
}

func TestManager_ConcurrentCalls(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load("s", writeTempLua(t, "hooks.lua", `
		function add(a, b) return a + b end
	`), 0))

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 5 {
				ret, err := mgr.Call("s", "add", lua.LNumber(1), lua.LNumber(2))
				assert.NoError(t, err)
				assert.Equal(t, lua.LNumber(3), ret)
			}
		}()
	}
	wg.Wait()
}

func TestManager_Close_ReleasesScripts(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load("s", writeTempLua(t, "init.lua", `function get_x() return 1 end`), 0))
	mgr.Close()
	_, err := mgr.Call("s", "get_x")
	assert.ErrorIs(t, err, scripting.ErrNoScript)
}

func TestNewManager_PanicsOnNilDependencies(t *testing.T) {
	f := standard.NewFactorizer(zap.NewNop())
	src := dice.NewCryptoSource()
	assert.Panics(t, func() { scripting.NewManager(nil, f, zap.NewNop()) })
	assert.Panics(t, func() { scripting.NewManager(src, nil, zap.NewNop()) })
	assert.Panics(t, func() { scripting.NewManager(src, f, nil) })
}
