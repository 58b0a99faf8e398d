package heuristic

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/sumito-ai/sumito/board"
)

// LuaEvaluator runs a script that defines
//
//	function evaluate(cells, turns, player) ... end
//
// cells maps each occupied coordinate (column*10+row) to its owner, 0 or
// 1. The script may call distance(a, b) and count(cells, player).
type LuaEvaluator struct {
	mu   sync.Mutex
	name string
	L    *lua.LState
	fn   lua.LValue
}

func NewLuaEvaluator(name, script string) (*LuaEvaluator, error) {
	L := lua.NewState()
	L.SetGlobal("distance", L.NewFunction(luaDistance))
	L.SetGlobal("count", L.NewFunction(luaCount))
	L.SetGlobal("center", lua.LNumber(board.Center))
	if err := L.DoString(script); err != nil {
		L.Close()
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}
	fn := L.GetGlobal("evaluate")
	if fn.Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("%s does not define evaluate()", name)
	}
	return &LuaEvaluator{name: name, L: L, fn: fn}, nil
}

func (e *LuaEvaluator) Name() string { return LuaName + ":" + e.name }

func (e *LuaEvaluator) Evaluate(b *board.Board, turnsRemaining int, player board.Player) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cells := e.L.NewTable()
	for i := 0; i < board.NumCells; i++ {
		if o := b.AtIndex(i); o != board.Empty {
			cells.RawSetInt(int(board.CoordAt(i)), lua.LNumber(o))
		}
	}
	err := e.L.CallByParam(lua.P{Fn: e.fn, NRet: 1, Protect: true},
		cells, lua.LNumber(turnsRemaining), lua.LNumber(player))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", e.name, err)
	}
	ret := e.L.Get(-1)
	e.L.Pop(1)
	n, ok := ret.(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("%s: evaluate returned %s, not a number", e.name, ret.Type())
	}
	return float64(n), nil
}

// Close releases the Lua state. It is safe to call more than once.
func (e *LuaEvaluator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.L.IsClosed() {
		e.L.Close()
	}
	return nil
}

// Closed reports whether Close has been called.
func (e *LuaEvaluator) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.L.IsClosed()
}

func luaDistance(L *lua.LState) int {
	a := board.Coord(L.CheckInt(1))
	b := board.Coord(L.CheckInt(2))
	if !a.Valid() || !b.Valid() {
		L.ArgError(1, "not a board cell")
		return 0
	}
	L.Push(lua.LNumber(board.Distance(a, b)))
	return 1
}

func luaCount(L *lua.LState) int {
	cells := L.CheckTable(1)
	p := L.CheckInt(2)
	n := 0
	cells.ForEach(func(_, v lua.LValue) {
		if o, ok := v.(lua.LNumber); ok && int(o) == p {
			n++
		}
	})
	L.Push(lua.LNumber(n))
	return 1
}
