package sim

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/drevilslab/openbw/internal/core/ecs"
	"github.com/drevilslab/openbw/internal/core/invariant"
	"github.com/drevilslab/openbw/internal/data"
	"github.com/drevilslab/openbw/internal/fixed"
	"github.com/drevilslab/openbw/internal/geom"
	"github.com/drevilslab/openbw/internal/iscript/vm"
	"github.com/drevilslab/openbw/internal/order"
	"github.com/drevilslab/openbw/internal/rng"
	"github.com/drevilslab/openbw/internal/world"
)

// ErrCreateFailed is returned when a unit could not be created. The legacy
// net error code is left in State.LastNetError.
var ErrCreateFailed = errors.New("unit creation failed")

// Legacy net error codes.
const (
	netErrNoUnitSlot  = 61
	netErrInitFailed  = 62
	maxElevationFloor = 12
)

// CreateUnitID creates a unit by table id. An id outside the table is an
// invariant violation.
func (g *Game) CreateUnitID(id data.UnitTypeID, pos geom.XY, owner int) (*world.Unit, error) {
	if !id.Valid() {
		invariant.Fatalf("attempt to create unit with invalid id %d", id)
	}
	return g.CreateUnit(g.st.Tables.Unit(id), pos, owner)
}

// CreateUnit creates a hidden, incomplete unit of type t at pos, together
// with its turret. Grounded buildings are placed at once.
func (g *Game) CreateUnit(t *data.UnitType, pos geom.XY, owner int) (*world.Unit, error) {
	if t == nil {
		invariant.Fatalf("attempt to create unit of null type")
	}
	st := g.st
	st.RNG.Rand(rng.SourceCreateUnit)

	u, err := g.newUnit(t, pos, owner)
	if err != nil {
		return nil, err
	}
	if u.GroundedBuilding() {
		st.VisibleUnits.Insert(u.Index)
	} else {
		st.HiddenUnits.Insert(u.Index)
	}

	if t.ID >= data.TerranCommandCenter || t.Turret == nil {
		u.Subunit = 0
		return u, nil
	}
	su, err := g.newUnit(t.Turret, pos, owner)
	if err != nil {
		invariant.NotImplemented("destroy unit")
	}
	u.Subunit = st.UnitHandle(su)
	su.Subunit = st.UnitHandle(u)
	main := st.MainImage(st.SpriteOf(u))
	world.SetImageOffset(main, st.ImageLoOffset(main, 2, 0))
	if u.IsTurret() {
		invariant.Fatalf("unit %d has a turret but is also flagged as a turret", t.ID)
	}
	if !su.IsTurret() {
		invariant.Fatalf("unit %d was created as a turret but is not flagged as one", su.Type.ID)
	}
	return u, nil
}

// producesUnits lists the types that get the factory command card.
func producesUnits(id data.UnitTypeID) bool {
	switch id {
	case data.TerranCommandCenter, data.TerranBarracks, data.TerranFactory, data.TerranStarport,
		data.ZergInfestedCommandCenter, data.ZergHatchery, data.ZergLair, data.ZergHive,
		data.ProtossNexus, data.ProtossGateway:
		return true
	}
	return false
}

// newUnit takes the next free unit slot and initializes it. The slot stays
// free when initialization fails.
func (g *Game) newUnit(t *data.UnitType, pos geom.XY, owner int) (*world.Unit, error) {
	st := g.st
	slot := st.Units.NextFree()
	if slot == 0 {
		st.NetError(netErrNoUnitSlot)
		g.log.Debug("create unit failed", zap.Int("type", int(t.ID)), zap.Int("net_error", netErrNoUnitSlot))
		return nil, fmt.Errorf("create %s: %w: %w", t.Name, ErrCreateFailed, ecs.ErrNoCapacity)
	}
	if !st.InMapBounds(t, pos) {
		st.NetError(0)
		return nil, fmt.Errorf("create %s at %v: %w: out of map bounds", t.Name, pos, ErrCreateFailed)
	}

	u := st.Units.Get(slot)
	*u = world.Unit{
		Index:      slot,
		OrderQueue: ecs.NewList(st.Orders.Link),
		PreviousHP: 1,
	}
	if !g.initializeUnitType(u, t, pos, owner) {
		st.NetError(netErrInitFailed)
		g.log.Debug("create unit failed", zap.Int("type", int(t.ID)), zap.Int("net_error", netErrInitFailed))
		return nil, fmt.Errorf("create %s: %w", t.Name, ErrCreateFailed)
	}
	if _, err := st.Units.Allocate(); err != nil {
		invariant.Fatalf("unit slot %d vanished: %v", slot, err)
	}

	if !world.IsFrozen(u) || u.Completed() {
		if producesUnits(t.ID) {
			u.CurrentButtonSet = data.ButtonSetFactories
		} else {
			u.CurrentButtonSet = data.ButtonSetBuildings
		}
	}
	u.Wireframe = st.RNG.Rand(rng.SourceWireframe)
	if u.IsTurret() {
		u.HP = fixed.FP8Raw(1)
	} else {
		u.HP = t.Hitpoints.DivInt(10)
	}
	if u.GroundedBuilding() {
		u.OrderType = st.Tables.Order(data.OrderNothing)
	} else {
		u.OrderType = t.HumanAIIdle
	}
	u.SecondaryOrderType = st.Tables.Order(data.OrderNothing)
	u.SecondaryOrderState = 0

	st.PlayerUnits[owner].PushFront(slot)
	st.IncrementUnitCounts(u, 1)

	sp := st.SpriteOf(u)
	if u.GroundedBuilding() {
		st.AddToFinder(u)
	} else {
		sp.Flags |= world.SpriteHidden
		st.SetSpriteVisibility(sp, 0)
	}
	u.VisibilityFlags = ^uint32(0)
	if u.IsTurret() {
		sp.Flags |= world.SpriteTurret
	} else if !sp.Hidden() {
		st.RefreshUnitVision(u)
	}
	return u, nil
}

// initializeFlingy places the movement part of u at pos and creates its
// sprite.
func (g *Game) initializeFlingy(u *world.Unit, fl *data.FlingyType, pos geom.XY, owner int, dir fixed.Direction) bool {
	f := &u.Flingy
	f.FlingyType = fl
	f.MovementFlags = 0
	f.CurrentSpeed = fixed.UFP8{}
	f.TopSpeed = fixed.UFP8Raw(fl.TopSpeed.Raw())
	f.Acceleration = fixed.UFP8Raw(fl.Acceleration.Raw())
	f.TurnRate = fl.TurnRate
	f.MovementType = fl.MovementType

	f.Position = pos
	f.Halt = geom.ToXYFP8(pos)
	world.SetFlingyMoveTarget(f, pos)
	f.NextTargetWaypoint = pos
	f.Heading = dir
	f.VelocityDirection = dir

	sp := g.vm.CreateSprite(vm.Context{Unit: u, OrderUnit: u}, fl.Sprite, pos, owner)
	if sp == nil {
		return false
	}
	f.Sprite = sp.Index
	g.st.EachImage(sp, func(img *world.Image) {
		g.st.SetImageHeading(img, dir)
	})
	return true
}

// initializeUnitType gives u the type t. The type is set before the sprite
// is created so that its first script run sees it.
func (g *Game) initializeUnitType(u *world.Unit, t *data.UnitType, pos geom.XY, owner int) bool {
	st := g.st
	u.Type = t
	if !g.initializeFlingy(u, t.Flingy, pos, owner, fixed.Direction{}) {
		return false
	}

	u.Owner = owner
	u.OrderType = st.Tables.Order(data.OrderFatal)
	u.OrderState = 0
	u.MainOrderTimer = 0
	u.GroundWeaponCooldown = 0
	u.AirWeaponCooldown = 0
	u.SpellCooldown = 0
	u.OrderTarget = world.Target{}
	u.SecondaryOrderTimer = 0

	sp := st.SpriteOf(u)
	if !g.vm.ExecuteSprite(vm.Context{Unit: u, OrderUnit: u}, sp) {
		invariant.Fatalf("initialize unit %d: iscript removed the sprite", u.Index)
	}
	u.LastAttackingPlayer = 8
	u.Shields = fixed.FP8Int(int64(t.ShieldPoints))
	if t.ID == data.ProtossShieldBattery {
		u.Energy = fixed.FP8Int(100)
	} else {
		u.Energy = st.UnitMaxEnergy(u).DivInt(4)
	}
	sp.ElevationLevel = t.ElevationLevel

	u.SetStatus(world.StatusGroundedBuilding, t.HasFlag(data.FlagBuilding))
	u.SetStatus(world.StatusFlying, t.HasFlag(data.FlagFlyer))
	u.SetStatus(world.StatusCanTurn, t.HasFlag(data.FlagCanTurn))
	u.SetStatus(world.StatusCanMove, t.HasFlag(data.FlagCanMove))
	u.SetStatus(world.StatusGroundUnit, !t.HasFlag(data.FlagFlyer))
	if t.ElevationLevel < maxElevationFloor {
		u.PathingFlags |= world.PathingGround
	} else {
		u.PathingFlags &^= world.PathingGround
	}
	u.MovementState = world.MovementInit
	u.RecentOrderTimer = 0
	u.SetStatus(world.StatusInvincible, t.HasFlag(data.FlagInvincible))

	if t.BuildTime == 0 {
		u.RemainingBuildTime = 1
		u.HPConstructionRate = fixed.FP8Raw(1)
	} else {
		bt := int64(t.BuildTime)
		u.RemainingBuildTime = t.BuildTime
		u.HPConstructionRate = t.Hitpoints.Sub(t.Hitpoints.DivInt(10)).Add(fixed.FP8Raw(bt)).Sub(fixed.FP8Raw(1)).DivInt(bt)
		if u.HPConstructionRate.IsZero() {
			u.HPConstructionRate = fixed.FP8Raw(1)
		}
	}
	if t.HasShield && u.GroundedBuilding() {
		maxShields := fixed.FP8Int(int64(t.ShieldPoints))
		u.Shields = maxShields.DivInt(10)
		if t.BuildTime == 0 {
			u.ShieldConstructionRate = fixed.FP8Int(1)
		} else {
			u.ShieldConstructionRate = maxShields.Sub(u.Shields).DivInt(int64(t.BuildTime))
			if u.ShieldConstructionRate.IsZero() {
				u.ShieldConstructionRate = fixed.FP8Int(1)
			}
		}
	}
	g.UpdateUnitSpeedUpgrades(u)
	g.UpdateUnitSpeed(u)
	return true
}

func isTrap(id data.UnitTypeID) bool {
	return id >= data.SpecialFloorMissileTrap && id <= data.SpecialRightWallFlameTrap
}

// FinishBuildingUnit fills up the hp and shields of u and gives it its
// starting heading.
func (g *Game) FinishBuildingUnit(u *world.Unit) {
	st := g.st
	if u.RemainingBuildTime != 0 {
		u.HP = u.Type.Hitpoints
		u.Shields = fixed.FP8Int(int64(u.Type.ShieldPoints))
		u.RemainingBuildTime = 0
	}
	world.SetCurrentButtonSet(u, u.Type.ID)
	if u.GroundedBuilding() {
		u.ParasiteFlags = 0
		u.IsBlind = false
		g.setConstructionGraphic(u)
		return
	}
	if u.CanTurn() {
		dir := u.Type.UnitDirection
		if dir == 32 {
			dir = st.RNG.Rand(rng.SourceFinishBuilding) % 32
		}
		st.SetUnitHeading(u, fixed.DirRaw(int64(dir*8)))
	}
	if isTrap(u.Type.ID) {
		g.ShowUnit(u)
	}
}

// setConstructionGraphic puts the finished graphic of the sprite type on a
// building.
func (g *Game) setConstructionGraphic(u *world.Unit) {
	sp := g.st.SpriteOf(u)
	g.vm.ReplaceSpriteImages(vm.Context{Unit: u, OrderUnit: u}, sp, sp.Type.Image, u.Heading)
	g.applyUnitEffects(u)
}

// applyUnitEffects re-applies the spell effects u carries to its new
// images. Ensnare is dropped.
func (g *Game) applyUnitEffects(u *world.Unit) {
	if u.DefenseMatrixTimer != 0 {
		invariant.NotImplemented("apply defensive matrix")
	}
	if u.LockdownTimer != 0 {
		u.LockdownTimer = 0
		invariant.NotImplemented("lockdown hit")
	}
	if u.MaelstromTimer != 0 {
		u.MaelstromTimer = 0
		invariant.NotImplemented("set maelstrom timer")
	}
	if u.IrradiateTimer != 0 {
		invariant.NotImplemented("apply irradiate")
	}
	u.EnsnareTimer = 0
}

// CheckUnitCollision flags the units u overlaps, and u itself when it
// stands on a building.
func (g *Game) CheckUnitCollision(u *world.Unit) {
	st := g.st
	for _, h := range st.Finder.Collect(st.UnitSpriteBoundingBox(u)) {
		nu := st.Unit(h)
		if nu == nil || nu == u {
			continue
		}
		if nu.GroundedBuilding() {
			u.SetStatus(world.StatusCollision, true)
		} else if !nu.Flying() && (!nu.Status(world.StatusGathering) || u.GroundedBuilding()) {
			if st.Finder.UnitsIntersecting(st.UnitHandle(u), h) {
				nu.SetStatus(world.StatusCollision, true)
			}
		}
	}
}

// resetMovement puts u back at the start of its movement machine.
func resetMovement(st *world.State, u *world.Unit) {
	u.MovementState = world.MovementInit
	if st.SpriteOf(u).ElevationLevel < maxElevationFloor {
		u.PathingFlags |= world.PathingGround
	} else {
		u.PathingFlags &^= world.PathingGround
	}
}

// ShowUnit puts a hidden unit on the map.
func (g *Game) ShowUnit(u *world.Unit) {
	st := g.st
	sp := st.SpriteOf(u)
	if !sp.Hidden() {
		return
	}
	sp.Flags &^= world.SpriteHidden
	sub := st.SubunitOf(u)
	if sub != nil && !u.IsTurret() {
		st.SpriteOf(sub).Flags &^= world.SpriteHidden
	}
	st.RefreshUnitVision(u)
	st.UpdateUnitSprite(u)
	st.AddToFinder(u)
	if u.GroundedBuilding() {
		invariant.NotImplemented("occupy building tiles")
	}
	g.CheckUnitCollision(u)
	if u.Flying() {
		invariant.NotImplemented("set repulse angle")
	}

	resetMovement(st, u)
	if sub != nil && !u.IsTurret() {
		resetMovement(st, sub)
	}
	st.HiddenUnits.Remove(u.Index)
	st.VisibleUnits.Insert(u.Index)
}

// CompleteUnit marks u as finished, shows it and gives it its idle order.
func (g *Game) CompleteUnit(u *world.Unit) {
	st := g.st
	if u.Type.HasFlag(data.FlagFlyer) {
		st.IncrementUnitCounts(u, -1)
		u.SetStatus(world.StatusCompleted, true)
		st.IncrementUnitCounts(u, 1)
	} else {
		u.SetStatus(world.StatusCompleted, true)
	}
	st.AddCompletedUnit(1, u, true)

	switch u.Type.ID {
	case data.SpellScannerSweep, data.SpecialMapRevealer:
		invariant.NotImplemented("scanner sweep")
	case data.ProtossInterceptor, data.ProtossScarab:
	default:
		if st.SpriteOf(u).Hidden() {
			g.ShowUnit(u)
		}
	}

	switch u.Type.ID {
	case data.SpecialFloorMissileTrap, data.SpecialFloorGunTrap, data.SpecialWallMissileTrap,
		data.SpecialWallFlameTrap, data.SpecialRightWallMissileTrap, data.SpecialRightWallFlameTrap:
		u.SetStatus(world.StatusCloaked|world.StatusRequiresDetector, true)
		u.VisibilityFlags = 0x80000000
		u.SecondaryOrderTimer = 0
	}

	switch st.Players[u.Owner].Controller {
	case data.ControllerRescuePassive:
		invariant.NotImplemented("rescue passive")
	case data.ControllerNeutral:
		g.orders.SetUnitOrder(u, st.Tables.Order(data.OrderNeutral), order.Target{})
	case data.ControllerComputerGame:
		g.orders.SetUnitOrder(u, u.Type.ComputerAIIdle, order.Target{})
	default:
		g.orders.SetUnitOrder(u, u.Type.HumanAIIdle, order.Target{})
	}
	if u.Type.HasFlag(data.FlagSingleEntity) {
		invariant.NotImplemented("single entity unit")
	}
	u.AirStrength = st.UnitStrength(u, false)
	u.GroundStrength = st.UnitStrength(u, true)
}

// CreateInitialUnit creates a finished unit the way map units are placed
// at game start.
func (g *Game) CreateInitialUnit(t *data.UnitType, pos geom.XY, owner int) (*world.Unit, error) {
	u, err := g.CreateUnit(t, pos, owner)
	if err != nil {
		g.log.Debug("initial unit not placed", zap.Int("owner", owner), zap.Int("net_error", g.st.LastNetError))
		return nil, err
	}
	if t.HasFlag(data.FlagSpreadsCreep) || t.HasFlag(data.FlagCreep) {
		invariant.NotImplemented("apply creep")
	}
	g.FinishBuildingUnit(u)
	g.CompleteUnit(u)
	return u, nil
}
