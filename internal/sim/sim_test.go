package sim

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/drevilslab/openbw/internal/core/ecs"
	"github.com/drevilslab/openbw/internal/core/invariant"
	"github.com/drevilslab/openbw/internal/data"
	"github.com/drevilslab/openbw/internal/fixed"
	"github.com/drevilslab/openbw/internal/geom"
	"github.com/drevilslab/openbw/internal/iscript"
	"github.com/drevilslab/openbw/internal/rng"
	"github.com/drevilslab/openbw/internal/world"
)

func newTestGame(t *testing.T) *Game {
	t.Helper()
	tables, err := data.LoadTables("../data/testdata")
	if err != nil {
		t.Fatalf("load tables: %v", err)
	}
	m, err := data.LoadMap("../data/testdata/map.yaml")
	if err != nil {
		t.Fatalf("load map: %v", err)
	}
	prog, err := iscript.LoadYAML("../data/testdata/iscript.yaml")
	if err != nil {
		t.Fatalf("load iscript: %v", err)
	}
	return New(world.New(tables, m, prog, zap.NewNop()))
}

func placedGame(t *testing.T) *Game {
	t.Helper()
	g := newTestGame(t)
	if err := g.PlaceMapUnits(); err != nil {
		t.Fatalf("place map units: %v", err)
	}
	return g
}

func onlyUnit(t *testing.T, g *Game) *world.Unit {
	t.Helper()
	var units []*world.Unit
	g.st.EachUnit(&g.st.VisibleUnits, func(u *world.Unit) { units = append(units, u) })
	if len(units) != 1 {
		t.Fatalf("expected 1 visible unit, got %d", len(units))
	}
	return units[0]
}

func TestPlaceMapUnits(t *testing.T) {
	g := placedGame(t)
	st := g.State()

	// the computer player's goliath is not placed
	u := onlyUnit(t, g)
	if u.Type.ID != data.TerranMarine {
		t.Fatalf("expected a marine, got %s", u.Type.Name)
	}
	if u.Position != (geom.XY{X: 80, Y: 400}) {
		t.Errorf("expected (80,400), got %v", u.Position)
	}
	if !u.Completed() {
		t.Error("expected a completed unit")
	}
	if st.SpriteOf(u).Hidden() {
		t.Error("expected a visible sprite")
	}
	if !st.HiddenUnits.Empty() {
		t.Error("expected no hidden units")
	}
	if u.OrderType.ID != data.OrderPlayerGuard {
		t.Errorf("expected PlayerGuard, got %s", u.OrderType.Name)
	}
	if u.HP != u.Type.Hitpoints {
		t.Errorf("expected full hp, got %d", u.HP.Raw())
	}
	if st.Units.InUse() != 1 {
		t.Errorf("expected 1 unit slot in use, got %d", st.Units.InUse())
	}
	if st.RNG.Allowed() {
		t.Error("expected the random window closed again")
	}
}

func TestWalkingUnitSpeed(t *testing.T) {
	g := placedGame(t)
	u := onlyUnit(t, g)
	if u.TopSpeed != fixed.UFP8Int(4) {
		t.Errorf("expected top speed 4, got %d", u.TopSpeed.Raw())
	}
}

func TestMapUnitsDrawInsideWindow(t *testing.T) {
	g := placedGame(t)
	if n := g.State().RNG.Count(rng.SourceCreateUnit); n != 1 {
		t.Errorf("expected 1 create draw, got %d", n)
	}
	if n := g.State().RNG.Count(rng.SourceFinishBuilding); n != 1 {
		t.Errorf("expected 1 heading draw, got %d", n)
	}

	// outside a frame the generator stays put
	before := g.State().RNG.State()
	if _, err := g.CreateInitialUnit(g.State().Tables.Unit(data.TerranMarine), geom.XY{X: 200, Y: 200}, 0); err != nil {
		t.Fatalf("create: %v", err)
	}
	if g.State().RNG.State() != before {
		t.Error("expected no draws with the window closed")
	}
	if n := g.State().RNG.Count(rng.SourceCreateUnit); n != 1 {
		t.Errorf("expected the count to stay 1, got %d", n)
	}
}

func TestAdvance(t *testing.T) {
	g := placedGame(t)
	st := g.State()
	if err := g.AdvanceN(10); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if g.Frame() != 10 {
		t.Errorf("expected frame 10, got %d", g.Frame())
	}
	if st.OrderTimerCounter != orderTimerPeriod {
		t.Errorf("expected the order timers restaggered, got counter %d", st.OrderTimerCounter)
	}
	if st.SecondaryOrderTimerCounter != 140 {
		t.Errorf("expected secondary counter 140, got %d", st.SecondaryOrderTimerCounter)
	}

	u := onlyUnit(t, g)
	if u.MovementState != world.MovementDormant {
		t.Errorf("expected a standing unit to go Dormant, got %s", u.MovementState)
	}
	if u.OrderType.ID != data.OrderPlayerGuard {
		t.Errorf("expected PlayerGuard, got %s", u.OrderType.Name)
	}
	if st.RNG.Allowed() {
		t.Error("expected the random window closed between frames")
	}
}

func TestTileUpdateCadence(t *testing.T) {
	g := placedGame(t)
	st := g.State()
	for i := 1; i <= tileUpdatePeriod; i++ {
		if err := g.Advance(); err != nil {
			t.Fatalf("advance: %v", err)
		}
		if want := i == tileUpdatePeriod; st.UpdateTiles != want {
			t.Fatalf("frame %d: expected update tiles %v", i, want)
		}
	}
}

func TestDeterminism(t *testing.T) {
	a := placedGame(t)
	b := placedGame(t)
	if Digest(a.State()) != Digest(b.State()) {
		t.Fatal("expected equal digests after placement")
	}
	for i := range 320 {
		if err := a.Advance(); err != nil {
			t.Fatalf("a: %v", err)
		}
		if err := b.Advance(); err != nil {
			t.Fatalf("b: %v", err)
		}
		if Digest(a.State()) != Digest(b.State()) {
			t.Fatalf("digests diverge at frame %d", i+1)
		}
	}
}

func TestDigestTracksState(t *testing.T) {
	a := placedGame(t)
	before := Digest(a.State())
	if err := a.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if Digest(a.State()) == before {
		t.Error("expected the digest to change with the frame")
	}

	// another seed gives the marine another heading and rng state
	b := newTestGame(t)
	b.Seed(7)
	if err := b.PlaceMapUnits(); err != nil {
		t.Fatalf("place: %v", err)
	}
	c := placedGame(t)
	if Digest(b.State()) == Digest(c.State()) {
		t.Error("expected different digests for different seeds")
	}
}

func TestCreateUnitNoSlot(t *testing.T) {
	g := newTestGame(t)
	st := g.State()
	for {
		if _, err := st.Units.Allocate(); err != nil {
			break
		}
	}
	_, err := g.CreateUnitID(data.TerranMarine, geom.XY{X: 100, Y: 100}, 0)
	if !errors.Is(err, ErrCreateFailed) {
		t.Fatalf("expected ErrCreateFailed, got %v", err)
	}
	if !errors.Is(err, ecs.ErrNoCapacity) {
		t.Errorf("expected ErrNoCapacity, got %v", err)
	}
	if st.LastNetError != netErrNoUnitSlot {
		t.Errorf("expected net error %d, got %d", netErrNoUnitSlot, st.LastNetError)
	}
}

func TestCreateUnitOutOfBounds(t *testing.T) {
	g := newTestGame(t)
	st := g.State()
	st.LastNetError = 99
	_, err := g.CreateUnitID(data.TerranMarine, geom.XY{X: -40, Y: -40}, 0)
	if !errors.Is(err, ErrCreateFailed) {
		t.Fatalf("expected ErrCreateFailed, got %v", err)
	}
	if st.LastNetError != 0 {
		t.Errorf("expected net error 0, got %d", st.LastNetError)
	}
	if st.Units.InUse() != 0 {
		t.Errorf("expected no slot taken, got %d", st.Units.InUse())
	}
}

func TestCreateUnitInvalidID(t *testing.T) {
	g := newTestGame(t)
	defer func() {
		var ierr *invariant.Error
		if err := invariant.Recover(recover()); !errors.As(err, &ierr) {
			t.Errorf("expected an invariant violation, got %v", err)
		}
	}()
	g.CreateUnitID(data.UnitTypeID(5000), geom.XY{X: 100, Y: 100}, 0)
}

func TestCreateUnitWithTurret(t *testing.T) {
	g := newTestGame(t)
	st := g.State()
	u, err := g.CreateUnitID(data.TerranGoliath, geom.XY{X: 300, Y: 200}, 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	sub := st.SubunitOf(u)
	if sub == nil || !sub.IsTurret() {
		t.Fatal("expected a turret subunit")
	}
	if st.SubunitOf(sub) != u {
		t.Error("expected the turret to link back")
	}
	if !st.SpriteOf(u).Hidden() {
		t.Error("expected a fresh unit to be hidden")
	}
	if u.Completed() {
		t.Error("expected a fresh unit to be incomplete")
	}
	if u.HP != u.Type.Hitpoints.DivInt(10) {
		t.Errorf("expected a tenth of the hp, got %d", u.HP.Raw())
	}
	if sub.HP != fixed.FP8Raw(1) {
		t.Errorf("expected turret hp 1/256, got %d", sub.HP.Raw())
	}
	if st.SpriteOf(sub).Flags&world.SpriteTurret == 0 {
		t.Error("expected the turret sprite flag")
	}
	if h := g.Handle(u); g.Unit(h) != u {
		t.Error("expected the handle to resolve to the unit")
	}
}

func TestCreateUnitInstantBuild(t *testing.T) {
	g := newTestGame(t)
	g.State().Tables.Unit(data.TerranMarine).BuildTime = 0
	u, err := g.CreateUnitID(data.TerranMarine, geom.XY{X: 300, Y: 200}, 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.RemainingBuildTime != 1 {
		t.Errorf("expected remaining build time 1, got %d", u.RemainingBuildTime)
	}
	if u.HPConstructionRate != fixed.FP8Raw(1) {
		t.Errorf("expected construction rate 1/256, got %d", u.HPConstructionRate.Raw())
	}
}

// createInitial places a finished unit inside a setup window.
func createInitial(t *testing.T, g *Game, id data.UnitTypeID, pos geom.XY) (*world.Unit, error) {
	t.Helper()
	var u *world.Unit
	var cerr error
	err := g.Setup("create initial unit", func() {
		u, cerr = g.CreateInitialUnit(g.State().Tables.Unit(id), pos, 0)
	})
	if err != nil {
		return nil, err
	}
	if cerr != nil {
		t.Fatalf("create: %v", cerr)
	}
	return u, nil
}

func TestCreateInitialBuilding(t *testing.T) {
	g := newTestGame(t)
	st := g.State()
	u, err := createInitial(t, g, data.TerranSupplyDepot, geom.XY{X: 400, Y: 100})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if g.Err() != nil {
		t.Fatalf("expected a healthy game, got %v", g.Err())
	}
	if !u.Completed() {
		t.Error("expected the depot to be completed")
	}
	if u.HP != u.Type.Hitpoints {
		t.Errorf("expected full hp, got %d", u.HP.Raw())
	}

	sp := st.SpriteOf(u)
	var ids []int
	st.EachImage(sp, func(img *world.Image) { ids = append(ids, img.Type.ID) })
	if len(ids) != 1 || ids[0] != sp.Type.Image.ID {
		t.Errorf("expected one image %d, got %v", sp.Type.Image.ID, ids)
	}
	if main := st.MainImage(sp); main == nil || main.Type.ID != 3 {
		t.Error("expected the depot graphic as main image")
	}
}

// createDepot creates an unfinished supply depot.
func createDepot(t *testing.T, g *Game) *world.Unit {
	t.Helper()
	var u *world.Unit
	var cerr error
	if err := g.Setup("create depot", func() {
		u, cerr = g.CreateUnitID(data.TerranSupplyDepot, geom.XY{X: 400, Y: 100}, 0)
	}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if cerr != nil {
		t.Fatalf("create: %v", cerr)
	}
	return u
}

func TestFinishBuildingUnitEffects(t *testing.T) {
	g := newTestGame(t)
	u := createDepot(t, g)
	u.EnsnareTimer = 5
	if err := g.Setup("finish depot", func() { g.FinishBuildingUnit(u) }); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if u.EnsnareTimer != 0 {
		t.Errorf("expected ensnare to be dropped, got %d", u.EnsnareTimer)
	}

	g = newTestGame(t)
	u = createDepot(t, g)
	u.LockdownTimer = 3
	err := g.Setup("finish depot", func() { g.FinishBuildingUnit(u) })
	if !errors.Is(err, invariant.ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented, got %v", err)
	}
	if u.LockdownTimer != 0 {
		t.Errorf("expected the lockdown timer cleared, got %d", u.LockdownTimer)
	}
}

func TestSightRelatedUnitsNotImplemented(t *testing.T) {
	g := placedGame(t)
	st := g.State()
	slot, err := st.Units.Allocate()
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	st.SightRelatedUnits.PushFront(slot)
	if err := g.Advance(); !errors.Is(err, invariant.ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented, got %v", err)
	}
}

func TestPoisonedGame(t *testing.T) {
	g := placedGame(t)
	u := onlyUnit(t, g)
	u.RemoveTimer = 1

	err := g.Advance()
	if !errors.Is(err, invariant.ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
	if g.Frame() != 0 {
		t.Errorf("expected the frame not to advance, got %d", g.Frame())
	}
	if g.State().RNG.Allowed() {
		t.Error("expected the random window closed after an abort")
	}
	if again := g.Advance(); again != err {
		t.Errorf("expected the same error, got %v", again)
	}
	if g.Err() != err {
		t.Errorf("expected Err to report %v, got %v", err, g.Err())
	}
}
