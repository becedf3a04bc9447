package scripting

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/stddice/internal/dice"
	"github.com/cory-johannsen/stddice/internal/group"
)

// RollDieHook is the Lua global a roller script must define. It receives
// the face count and returns one face in [1, sides].
const RollDieHook = "roll_die"

// ErrBadFace is returned when a roller script returns a non-number or a face
// outside the die.
var ErrBadFace = errors.New("script returned an invalid face")

// LuaRoller is a group.Roller backed by a script loaded into a Manager.
// Combined with group.StandardizingRoller, a script that only knows how to
// roll the standard dice can roll any group.
type LuaRoller struct {
	mgr  *Manager
	name string
}

// NewLuaRoller returns a roller that calls RollDieHook in the VM loaded
// under name.
//
// Precondition: mgr must be non-nil.
func NewLuaRoller(mgr *Manager, name string) *LuaRoller {
	return &LuaRoller{mgr: mgr, name: name}
}

// Roll calls the script once per die.
//
// Postcondition: len(result) == len(g); every face lies in [1, sides].
func (r *LuaRoller) Roll(g dice.Group) ([]group.Result, error) {
	results := make([]group.Result, len(g))
	for i, d := range g {
		rolls := make([]int, 0, d.Count)
		total := 0
		for range d.Count {
			ret, err := r.mgr.Call(r.name, RollDieHook, lua.LNumber(d.Sides))
			if err != nil {
				return nil, err
			}
			n, ok := ret.(lua.LNumber)
			if !ok {
				return nil, fmt.Errorf("scripting: %s for %s returned %s: %w", RollDieHook, d, ret.Type(), ErrBadFace)
			}
			face := int(n)
			if float64(face) != float64(n) || !d.Contains(face) {
				return nil, fmt.Errorf("scripting: %s for %s returned %v: %w", RollDieHook, d, n, ErrBadFace)
			}
			rolls = append(rolls, face)
			total += face
		}
		results[i] = group.Result{Dice: d, Value: total, Rolls: rolls}
	}
	return results, nil
}
