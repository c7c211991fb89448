package scripting

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/drevilslab/openbw/internal/core/ecs"
	"github.com/drevilslab/openbw/internal/data"
	"github.com/drevilslab/openbw/internal/geom"
	"github.com/drevilslab/openbw/internal/order"
	"github.com/drevilslab/openbw/internal/sim"
	"github.com/drevilslab/openbw/internal/world"
)

// Engine wraps a single gopher-lua VM that drives scenario scripts.
// Single-goroutine access only, like the game it drives.
type Engine struct {
	vm   *lua.LState
	log  *zap.Logger
	game *sim.Game

	// lastErr keeps the Go error behind the last raised Lua error so that
	// callers can still match it.
	lastErr error
}

// NewEngine creates a Lua engine, registers the openbw table and loads the
// helper scripts under scriptsDir/lib.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	e.register()

	if err := e.loadDir(filepath.Join(scriptsDir, "lib")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load lib scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

func (e *Engine) register() {
	t := e.vm.NewTable()
	e.vm.SetFuncs(t, map[string]lua.LGFunction{
		"create_unit": e.luaCreateUnit,
		"complete":    e.luaComplete,
		"order":       e.luaOrder,
		"advance":     e.luaAdvance,
		"frame":       e.luaFrame,
		"unit":        e.luaUnit,
		"digest":      e.luaDigest,
	})
	e.vm.SetGlobal("openbw", t)
}

// RunScenario runs a scenario file against g.
func (e *Engine) RunScenario(g *sim.Game, file string) error {
	e.game = g
	e.lastErr = nil
	if err := e.vm.DoFile(file); err != nil {
		return e.scriptError("run scenario "+file, err)
	}
	e.log.Info("scenario finished", zap.String("file", file), zap.Int("frame", g.Frame()))
	return nil
}

// DoString runs an inline scenario against g.
func (e *Engine) DoString(g *sim.Game, src string) error {
	e.game = g
	e.lastErr = nil
	if err := e.vm.DoString(src); err != nil {
		return e.scriptError("run scenario", err)
	}
	return nil
}

func (e *Engine) scriptError(what string, err error) error {
	if e.lastErr != nil {
		return fmt.Errorf("%s: %w", what, errors.Join(e.lastErr, err))
	}
	return fmt.Errorf("%s: %w", what, err)
}

// GetGlobalInt reads a numeric global set by a script.
func (e *Engine) GetGlobalInt(name string) (int, bool) {
	n, ok := e.vm.GetGlobal(name).(lua.LNumber)
	return int(n), ok
}

func (e *Engine) raise(L *lua.LState, err error) int {
	e.lastErr = err
	L.RaiseError("%v", err)
	return 0
}

func (e *Engine) checkGame(L *lua.LState) *sim.Game {
	if e.game == nil {
		L.RaiseError("no game bound")
	}
	return e.game
}

// checkHandle reads a unit handle argument. Values that are not a handle
// of the unit pool raise an argument error instead of reaching the pool.
func (e *Engine) checkHandle(L *lua.LState, n int) ecs.Handle {
	g := e.checkGame(L)
	v := L.CheckInt(n)
	if v < 0 || v > 0xffff {
		L.ArgError(n, fmt.Sprintf("invalid unit handle %d", v))
	}
	h := ecs.Handle(v)
	if capacity := g.State().Units.Cap(); int(h.Index()) > capacity {
		L.ArgError(n, fmt.Sprintf("unit handle %d is past the %d unit slots", v, capacity))
	}
	return h
}

func (e *Engine) checkUnit(L *lua.LState, n int) *world.Unit {
	g := e.checkGame(L)
	h := e.checkHandle(L, n)
	u := g.Unit(h)
	if u == nil {
		L.ArgError(n, fmt.Sprintf("no unit with handle %d", h))
	}
	return u
}

// openbw.create_unit(type, owner, x, y) -> handle | nil, err
func (e *Engine) luaCreateUnit(L *lua.LState) int {
	g := e.checkGame(L)
	id := data.UnitTypeID(L.CheckInt(1))
	owner := L.CheckInt(2)
	pos := geom.XY{X: L.CheckInt(3), Y: L.CheckInt(4)}
	if owner < 0 || owner >= len(g.State().PlayerUnits) {
		L.ArgError(2, fmt.Sprintf("owner %d out of range", owner))
	}

	var u *world.Unit
	var cerr error
	if err := g.Setup("create unit", func() {
		u, cerr = g.CreateUnitID(id, pos, owner)
	}); err != nil {
		return e.raise(L, err)
	}
	if cerr != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(cerr.Error()))
		return 2
	}
	L.Push(lua.LNumber(g.Handle(u)))
	return 1
}

// openbw.complete(handle)
func (e *Engine) luaComplete(L *lua.LState) int {
	g := e.checkGame(L)
	u := e.checkUnit(L, 1)
	if u.Completed() {
		return 0
	}
	if err := g.Setup("complete unit", func() {
		g.FinishBuildingUnit(u)
		g.CompleteUnit(u)
	}); err != nil {
		return e.raise(L, err)
	}
	return 0
}

// openbw.order(handle, name, x, y [, target])
func (e *Engine) luaOrder(L *lua.LState) int {
	g := e.checkGame(L)
	u := e.checkUnit(L, 1)
	name := L.CheckString(2)
	id, ok := data.OrderByName(name)
	if !ok {
		L.ArgError(2, "unknown order "+name)
	}
	target := order.Target{Pos: geom.XY{X: L.CheckInt(3), Y: L.CheckInt(4)}}
	if L.GetTop() >= 5 {
		target.Unit = e.checkUnit(L, 5)
	}
	if err := g.Setup("order "+name, func() {
		g.Orders().SetUnitOrder(u, g.State().Tables.Order(id), target)
	}); err != nil {
		return e.raise(L, err)
	}
	return 0
}

// openbw.advance(n)
func (e *Engine) luaAdvance(L *lua.LState) int {
	g := e.checkGame(L)
	n := L.OptInt(1, 1)
	if err := g.AdvanceN(n); err != nil {
		return e.raise(L, err)
	}
	return 0
}

func (e *Engine) luaFrame(L *lua.LState) int {
	L.Push(lua.LNumber(e.checkGame(L).Frame()))
	return 1
}

// openbw.unit(handle) -> table | nil
func (e *Engine) luaUnit(L *lua.LState) int {
	g := e.checkGame(L)
	u := g.Unit(e.checkHandle(L, 1))
	if u == nil {
		L.Push(lua.LNil)
		return 1
	}
	t := L.NewTable()
	t.RawSetString("type", lua.LNumber(u.Type.ID))
	t.RawSetString("owner", lua.LNumber(u.Owner))
	t.RawSetString("x", lua.LNumber(u.Position.X))
	t.RawSetString("y", lua.LNumber(u.Position.Y))
	t.RawSetString("heading", lua.LNumber(u.Heading.Raw()))
	t.RawSetString("order", lua.LString(u.OrderType.ID.String()))
	t.RawSetString("hp", lua.LNumber(u.HP.IntegerPart()))
	t.RawSetString("completed", lua.LBool(u.Completed()))
	t.RawSetString("hidden", lua.LBool(g.State().SpriteOf(u).Hidden()))
	t.RawSetString("movement", lua.LString(u.MovementState.String()))
	L.Push(t)
	return 1
}

func (e *Engine) luaDigest(L *lua.LState) int {
	sum := sim.Digest(e.checkGame(L).State())
	L.Push(lua.LString(hex.EncodeToString(sum[:])))
	return 1
}

func (e *Engine) Close() {
	e.vm.Close()
}
