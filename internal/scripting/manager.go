package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/stddice/internal/dice"
	"github.com/cory-johannsen/stddice/internal/standard"
)

var (
	// ErrNoScript is returned by Call when no VM is loaded under the name.
	ErrNoScript = errors.New("no script loaded")
	// ErrNoHook is returned by Call when the hook is not a defined global.
	ErrNoHook = errors.New("hook not defined")
)

// vm is one loaded script set. Its LState is single-threaded; mu serializes
// every call into it.
type vm struct {
	mu    sync.Mutex
	L     *lua.LState
	limit int
}

// Manager owns one sandboxed LState per named script set and dispatches hook
// calls into them.
//
// Manager is safe for concurrent use.
type Manager struct {
	mu         sync.RWMutex
	vms        map[string]*vm
	src        dice.Source
	factorizer *standard.Factorizer
	logger     *zap.Logger
}

// NewManager creates a Manager. src backs engine.dice.roll; f backs
// engine.dice.standardize.
//
// Precondition: src, f and logger must be non-nil; panics otherwise.
// Postcondition: Returns a non-nil Manager with no loaded scripts.
func NewManager(src dice.Source, f *standard.Factorizer, logger *zap.Logger) *Manager {
	if src == nil || f == nil || logger == nil {
		panic("scripting: NewManager requires a source, factorizer and logger")
	}
	return &Manager{
		vms:        make(map[string]*vm),
		src:        src,
		factorizer: f,
		logger:     logger,
	}
}

// Load creates a sandboxed VM under name, registers all engine.* modules,
// then executes every *.lua file in scriptDir in lexicographic order. A VM
// already loaded under name is replaced and closed.
//
// Precondition: name must be non-empty; scriptDir must be a readable directory.
// Postcondition: VM is registered; returns error on Lua load failure.
func (m *Manager) Load(name, scriptDir string, instLimit int) error {
	L := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, name, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := withBudget(L, instLimit, func() error { return L.DoFile(path) }); err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, name, err)
		}
	}

	m.mu.Lock()
	old := m.vms[name]
	m.vms[name] = &vm{L: L, limit: instLimit}
	m.mu.Unlock()

	if old != nil {
		old.mu.Lock()
		old.L.Close()
		old.mu.Unlock()
	}
	m.logger.Debug("scripting: loaded scripts",
		zap.String("name", name),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

// Loaded reports whether a VM exists under name.
func (m *Manager) Loaded(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.vms[name]
	return ok
}

// Call calls the named Lua global function in name's VM with a fresh
// instruction budget and returns its first result.
//
// Postcondition: Returns an error wrapping ErrNoScript or ErrNoHook, the Lua
// runtime error, or the hook's first return value.
func (m *Manager) Call(name, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	v, ok := m.vms[name]
	m.mu.RUnlock()
	if !ok {
		return lua.LNil, fmt.Errorf("scripting: %q: %w", name, ErrNoScript)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	fn := v.L.GetGlobal(hook)
	if fn.Type() != lua.LTFunction {
		return lua.LNil, fmt.Errorf("scripting: %q.%s: %w", name, hook, ErrNoHook)
	}

	err := withBudget(v.L, v.limit, func() error {
		return v.L.CallByParam(lua.P{
			Fn:      fn,
			NRet:    1,
			Protect: true,
		}, args...)
	})
	if err != nil {
		return lua.LNil, fmt.Errorf("scripting: %q.%s: %w", name, hook, err)
	}

	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

// CallHook is Call for optional hooks. A missing VM or hook yields
// (LNil, nil); Lua runtime errors are logged at Warn level and never
// propagated.
//
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(name, hook string, args ...lua.LValue) (lua.LValue, error) {
	ret, err := m.Call(name, hook, args...)
	switch {
	case err == nil:
		return ret, nil
	case errors.Is(err, ErrNoScript):
		m.logger.Info("scripting: no VM loaded",
			zap.String("name", name),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	case errors.Is(err, ErrNoHook):
		return lua.LNil, nil
	default:
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("name", name),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}
}

// Close closes every VM. The Manager is empty afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	vms := m.vms
	m.vms = make(map[string]*vm)
	m.mu.Unlock()

	for _, v := range vms {
		v.mu.Lock()
		v.L.Close()
		v.mu.Unlock()
	}
}
