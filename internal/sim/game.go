// Package sim drives a game one frame at a time. It owns the unit life
// cycle and wires the order engine, the movement machine and the iscript
// VM into the stages of a tick.
package sim

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/drevilslab/openbw/internal/core/ecs"
	"github.com/drevilslab/openbw/internal/core/invariant"
	"github.com/drevilslab/openbw/internal/core/system"
	"github.com/drevilslab/openbw/internal/data"
	"github.com/drevilslab/openbw/internal/iscript/vm"
	"github.com/drevilslab/openbw/internal/movement"
	"github.com/drevilslab/openbw/internal/order"
	"github.com/drevilslab/openbw/internal/world"
)

// Game advances one world.State. It is not safe for concurrent use.
type Game struct {
	st     *world.State
	vm     *vm.VM
	mover  *movement.Mover
	orders *order.Engine
	runner *system.Runner
	log    *zap.Logger

	// err poisons the game once a tick was aborted
	err error
}

// New wires a game around st. The state is used as is; callers reset it
// first when they reuse one.
func New(st *world.State) *Game {
	v := vm.New(st)
	g := &Game{
		st:     st,
		vm:     v,
		mover:  movement.New(st, v),
		orders: order.New(st, v),
		runner: system.NewRunner(),
		log:    st.Log.Named("sim"),
	}
	g.registerSystems()
	return g
}

func (g *Game) registerSystems() {
	for _, s := range []system.Func{
		{P: system.PhaseTimers, Fn: g.staggerOrderTimers},
		{P: system.PhaseTimers, Fn: g.resetAttackAbility},
		{P: system.PhaseTimers, Fn: g.updateSightRelatedUnits},
		{P: system.PhaseMovement, Fn: g.moveVisibleUnits},
		{P: system.PhaseVision, Fn: g.refreshVisibility},
		{P: system.PhaseUnits, Fn: g.updateVisibleUnits},
		{P: system.PhaseHidden, Fn: g.updateHiddenUnits},
		{P: system.PhaseScanner, Fn: g.updateScannerUnits},
	} {
		g.runner.Register(s)
	}
}

func (g *Game) State() *world.State             { return g.st }
func (g *Game) Orders() *order.Engine           { return g.orders }
func (g *Game) Mover() *movement.Mover          { return g.mover }
func (g *Game) Frame() int                      { return g.st.Frame }
func (g *Game) Err() error                      { return g.err }
func (g *Game) Seed(seed uint32)                { g.st.RNG.Reset(seed) }
func (g *Game) Unit(h ecs.Handle) *world.Unit   { return g.st.Unit(h) }
func (g *Game) Handle(u *world.Unit) ecs.Handle { return g.st.UnitHandle(u) }

// guard runs fn and turns an invariant violation into the poisoning error
// of the game. Any other panic is passed on.
func (g *Game) guard(what string, fn func()) (err error) {
	if g.err != nil {
		return g.err
	}
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		ierr := invariant.Recover(r)
		g.err = fmt.Errorf("%s at frame %d: %w", what, g.st.Frame, ierr)
		g.log.Error("invariant violation",
			zap.String("stage", what),
			zap.Int("frame", g.st.Frame),
			zap.Bool("not_implemented", errors.Is(ierr, invariant.ErrNotImplemented)),
			zap.Error(ierr),
		)
		err = g.err
	}()
	fn()
	return nil
}

// Advance runs one frame. Once a frame was aborted every further call
// returns the same error.
func (g *Game) Advance() error {
	return g.guard("advance", g.gameLoop)
}

// AdvanceN runs up to n frames and stops at the first error.
func (g *Game) AdvanceN(n int) error {
	for range n {
		if err := g.Advance(); err != nil {
			return err
		}
	}
	return nil
}

func (g *Game) gameLoop() {
	st := g.st
	st.RNG.Allow()
	defer st.RNG.Forbid()
	if st.UpdateTilesCountdown == 0 {
		st.UpdateTilesCountdown = tileUpdatePeriod
	}
	st.UpdateTilesCountdown--
	st.UpdateTiles = st.UpdateTilesCountdown == 0

	g.runner.Tick()
	st.Frame++
}

// placesUnitsFor reports whether map units of player are created.
func (g *Game) placesUnitsFor(player int) bool {
	if player >= 8 {
		return true
	}
	switch g.st.Players[player].Controller {
	case data.ControllerComputerGame, data.ControllerOccupied,
		data.ControllerRescuePassive, data.ControllerUnusedRescueActive:
		return true
	}
	return false
}

// Setup runs fn outside of a frame with the random number window open, the
// way map units are placed during loading. An invariant violation poisons
// the game as in Advance.
func (g *Game) Setup(what string, fn func()) error {
	return g.guard(what, func() {
		g.st.RNG.Allow()
		defer g.st.RNG.Forbid()
		fn()
	})
}

// PlaceMapUnits creates the units of the map as finished units. Units that
// cannot be created are skipped and reported in the returned error.
func (g *Game) PlaceMapUnits() error {
	var errs []error
	err := g.Setup("place map units", func() {
		for _, mu := range g.st.Map.Units {
			if !g.placesUnitsFor(mu.Owner) {
				continue
			}
			u, err := g.CreateInitialUnit(g.st.Tables.Unit(mu.Type), mu.Pos, mu.Owner)
			if err != nil {
				g.log.Warn("map unit skipped", zap.Int("type", int(mu.Type)), zap.Int("owner", mu.Owner), zap.Error(err))
				errs = append(errs, err)
				continue
			}
			g.log.Debug("created initial unit", zap.Int32("unit", u.Index), zap.Int("type", int(mu.Type)))
		}
	})
	if err != nil {
		return err
	}
	return errors.Join(errs...)
}
