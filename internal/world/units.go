package world

import (
	"github.com/drevilslab/openbw/internal/data"
	"github.com/drevilslab/openbw/internal/fixed"
	"github.com/drevilslab/openbw/internal/geom"
)

// UnitDead reports a unit that has started dying.
func (s *State) UnitDead(u *Unit) bool {
	return u.OrderType != nil && u.OrderType.ID == data.OrderDie && u.OrderState == 1
}

// UnitTargetIsEnemy reports whether the owner of u is not allied with the
// owner of target.
func (s *State) UnitTargetIsEnemy(u, target *Unit) bool {
	return s.Alliances[u.Owner][target.Owner] == 0
}

// UnitMovePosState is 0 while u is away from its move target, 1 once there
// and 2 once there and immovable.
func (s *State) UnitMovePosState(u *Unit) int {
	if s.SpriteOf(u).Position != u.MoveTarget.Pos {
		return 0
	}
	if u.Status(StatusImmovable) {
		return 2
	}
	return 1
}

func IsFrozen(u *Unit) bool {
	return u.Status(StatusFrozen) || u.LockdownTimer != 0 || u.StasisTimer != 0 || u.MaelstromTimer != 0
}

// SetCurrentButtonSet changes the command card of u. Frozen units keep
// theirs unless they are buildings.
func SetCurrentButtonSet(u *Unit, set data.UnitTypeID) {
	if set != data.UnitNone && !u.Type.HasFlag(data.FlagBuilding) && IsFrozen(u) {
		return
	}
	u.CurrentButtonSet = set
}

func SetSecondaryOrder(u *Unit, o *data.OrderType) {
	if u.SecondaryOrderType == o {
		return
	}
	u.SecondaryOrderType = o
	u.SecondaryOrderState = 0
}

// UnitTurret returns the turret subunit of u, or nil.
func (s *State) UnitTurret(u *Unit) *Unit {
	sub := s.SubunitOf(u)
	if sub == nil || !sub.IsTurret() {
		return nil
	}
	return sub
}

func VisibleHPPlusShields(u *Unit) int {
	r := 0
	if u.Type.HasShield {
		r += int(u.Shields.IntegerPart())
	}
	return r + int(u.HP.Ceil().IntegerPart())
}

func MaxVisibleHP(u *Unit) int {
	hp := int(u.Type.Hitpoints.IntegerPart())
	if hp == 0 {
		hp = int(u.HP.Ceil().IntegerPart())
	}
	if hp == 0 {
		hp = 1
	}
	return hp
}

func MaxVisibleHPPlusShields(u *Unit) int {
	shields := 0
	if u.Type.HasShield {
		shields = u.Type.ShieldPoints
	}
	return MaxVisibleHP(u) + shields
}

// UnitSpaceOccupied sums the transport space of the live loaded units.
func (s *State) UnitSpaceOccupied(u *Unit) int {
	r := 0
	for _, h := range u.LoadedUnits {
		lu := s.Unit(h)
		if lu == nil || s.UnitDead(lu) {
			continue
		}
		r += lu.Type.SpaceRequired
	}
	return r
}

// UnitStrength is the threat value of u for the AI. The per-type base
// strength table is not loaded, so only the energy term contributes.
func (s *State) UnitStrength(u *Unit, ground bool) int {
	switch u.Type.ID {
	case data.ZergLarva, data.ZergEgg, data.ZergCocoon, data.ZergLurkerEgg:
		return 0
	}
	vis, maxVis := VisibleHPPlusShields(u), MaxVisibleHPPlusShields(u)
	if u.Hallucination() && vis < maxVis {
		return 0
	}
	r := 0
	if u.Type.HasFlag(data.FlagHasEnergy) && !u.Hallucination() {
		r += int(u.Energy.IntegerPart()) / 2
	}
	return r * vis / maxVis
}

// SetUnitHP clamps hp to the maximum of the type.
func (s *State) SetUnitHP(u *Unit, hp fixed.FP8) {
	if u.Type.Hitpoints.Less(hp) {
		hp = u.Type.Hitpoints
	}
	u.HP = hp
	sp := s.SpriteOf(u)
	if sp.Flags&SpriteSelected != 0 && sp.VisibilityFlags&s.LocalMask != 0 {
		s.RedrawSelectionImages(sp)
	}
	if u.Completed() {
		u.AirStrength = s.UnitStrength(u, false)
		u.GroundStrength = s.UnitStrength(u, true)
	}
}

func SetUnitShields(u *Unit, v fixed.FP8) {
	if m := fixed.FP8Int(int64(u.Type.ShieldPoints)); m.Less(v) {
		v = m
	}
	u.Shields = v
}

func (s *State) SetUnitEnergy(u *Unit, v fixed.FP8) {
	if m := s.UnitMaxEnergy(u); m.Less(v) {
		v = m
	}
	u.Energy = v
}

var energyUpgrades = map[data.UnitTypeID]data.UpgradeID{
	data.TerranGhost:         data.UpgradeMoebiusReactor,
	data.TerranWraith:        data.UpgradeApolloReactor,
	data.TerranScienceVessel: data.UpgradeTitanReactor,
	data.TerranBattlecruiser: data.UpgradeColossusReactor,
	data.TerranMedic:         data.UpgradeCaduceusReactor,
	data.ZergQueen:           data.UpgradeGameteMeiosis,
	data.ZergDefiler:         data.UpgradeMetasynapticNode,
	data.ProtossCorsair:      data.UpgradeArgusJewel,
	data.ProtossDarkArchon:   data.UpgradeArgusTalisman,
	data.ProtossHighTemplar:  data.UpgradeKhaydarinAmulet,
	data.ProtossArbiter:      data.UpgradeKhaydarinCore,
}

// UnitMaxEnergy is 250 for heroes and units with their energy upgrade, 200
// otherwise.
func (s *State) UnitMaxEnergy(u *Unit) fixed.FP8 {
	if u.Type.HasFlag(data.FlagHero) {
		return fixed.FP8Int(250)
	}
	if upg, ok := energyUpgrades[u.Type.ID]; ok && s.Upgraded(u.Owner, upg) {
		return fixed.FP8Int(250)
	}
	return fixed.FP8Int(200)
}

// UnitTargetAcquisitionRange is the range, in steps of 32 pixels, at which
// u picks targets on its own.
func (s *State) UnitTargetAcquisitionRange(u *Unit) int {
	if (u.Status(StatusCloaked) || u.Status(StatusRequiresDetector)) && u.OrderType.ID != data.OrderHoldPosition {
		switch u.Type.ID {
		case data.TerranGhost, data.HeroSarahKerrigan, data.HeroAlexeiStukov, data.HeroSamirDuran, data.HeroInfestedDuran:
			return 0
		}
	}
	bonus := 0
	switch u.Type.ID {
	case data.TerranMarine:
		if s.Upgraded(u.Owner, data.UpgradeU238Shells) {
			bonus = 1
		}
	case data.ZergHydralisk:
		if s.Upgraded(u.Owner, data.UpgradeGroovedSpines) {
			bonus = 1
		}
	case data.ProtossDragoon:
		if s.Upgraded(u.Owner, data.UpgradeSingularityCharge) {
			bonus = 2
		}
	case data.HeroFenixDragoon:
		bonus = 2
	case data.TerranGoliath, data.TerranGoliathTurret:
		if s.Upgraded(u.Owner, data.UpgradeCharonBoosters) {
			bonus = 3
		}
	case data.HeroAlanSchezar, data.HeroAlanSchezarTurret:
		bonus = 3
	}
	return u.Type.TargetAcquisitionRange + bonus
}

// speedModifier nets stim and speed upgrades against ensnare.
func speedModifier(u *Unit) int {
	mod := 0
	if u.StimTimer != 0 {
		mod++
	}
	if u.Status(StatusSpeedUpgrade) {
		mod++
	}
	if u.EnsnareTimer != 0 {
		mod--
	}
	return mod
}

func ModifiedUnitSpeed(u *Unit, base fixed.UFP8) fixed.UFP8 {
	mod := speedModifier(u)
	speed := base
	if mod < 0 {
		speed = speed.DivInt(2)
	}
	if mod > 0 {
		switch u.Type.ID {
		case data.ProtossScout, data.HeroMojo, data.HeroArtanis:
			speed = fixed.UFP8Int(6).Add(fixed.UFP8Int(1).Sub(fixed.UFP8Int(1).DivInt(3)))
		default:
			speed = speed.Add(speed.DivInt(2))
			if minSpeed := fixed.UFP8Int(3).Add(fixed.UFP8Int(1).DivInt(3)); speed.Less(minSpeed) {
				speed = minSpeed
			}
		}
	}
	return speed
}

func modifiedRate(u *Unit, base fixed.UFP8) fixed.UFP8 {
	switch mod := speedModifier(u); {
	case mod < 0:
		return base.Sub(base.DivInt(4))
	case mod > 0:
		return base.MulInt(2)
	}
	return base
}

func ModifiedUnitAcceleration(u *Unit, base fixed.UFP8) fixed.UFP8 { return modifiedRate(u, base) }
func ModifiedUnitTurnRate(u *Unit, base fixed.UFP8) fixed.UFP8     { return modifiedRate(u, base) }

// UnitHaltDistance is the distance u needs to come to a stop from its
// current speed.
func UnitHaltDistance(u *Unit) fixed.UFP8 {
	speed := u.CurrentSpeed
	if speed.IsZero() || u.MovementType != 0 {
		return fixed.UFP8{}
	}
	fl := u.Type.Flingy
	if speed.Raw() == fl.TopSpeed.Raw() && u.Acceleration.Raw() == fl.Acceleration.Raw() {
		return fixed.UFP8Raw(fl.HaltDistance.Raw())
	}
	return fixed.UFP8Raw(speed.Raw() * speed.Raw() / (u.Acceleration.Raw() * 2))
}

// SetFlingyMoveTarget points f at pos and flags it as turning towards it.
func SetFlingyMoveTarget(f *Flingy, pos geom.XY) {
	if f.MoveTarget.Pos == pos {
		return
	}
	f.MoveTarget = Target{Pos: pos}
	f.NextMovementWaypoint = pos
	f.MovementFlags |= MoveFlagTurning
}

// SetUnitMoveTarget moves the target of u onto the map and points u at
// it. A following queued order that chains movement keeps u going.
func (s *State) SetUnitMoveTarget(u *Unit, pos geom.XY) {
	if u.MoveTarget.Pos == pos {
		return
	}
	pos = s.RestrictToMapBounds(pos, u.Type)
	SetFlingyMoveTarget(&u.Flingy, pos)
	u.SetStatus(StatusImmovable, false)
	u.RecentOrderTimer = 15
	front := s.Orders.Get(u.OrderQueue.Front())
	u.SetMovementFlag(MoveFlagKeepMoving, front != nil && front.Type.Unk7)
}

// SetCurrentVelocityDirection updates the velocity of u for a new
// direction of travel.
func SetCurrentVelocityDirection(u *Unit, d fixed.Direction) {
	if u.CurrentVelocityDirection == d {
		return
	}
	u.CurrentVelocityDirection = d
	u.Velocity = geom.DirectionXY(d, u.Speed)
}

// SetUnitHeading turns u and every image of its sprite to heading at once.
func (s *State) SetUnitHeading(u *Unit, heading fixed.Direction) {
	u.VelocityDirection = heading
	u.Heading = heading
	u.CurrentVelocityDirection = heading
	u.Velocity = geom.DirectionXY(heading, u.Speed)
	sp := s.SpriteOf(u)
	u.NextTargetWaypoint = sp.Position
	s.EachImage(sp, func(img *Image) { s.SetImageHeading(img, heading) })
}

// race indexes the supply arrays by group, or -1.
func race(t *data.UnitType) int {
	switch {
	case t.InGroup(data.GroupZerg):
		return 0
	case t.InGroup(data.GroupTerran):
		return 1
	case t.InGroup(data.GroupProtoss):
		return 2
	}
	return -1
}

func isEgg(t *data.UnitType) bool {
	switch t.ID {
	case data.ZergEgg, data.ZergCocoon, data.ZergLurkerEgg:
		return true
	}
	return false
}

// IncrementUnitCounts adds count units like u to the per-player totals.
// Hallucinations and turrets are not counted.
func (s *State) IncrementUnitCounts(u *Unit, count int) {
	if u.Hallucination() || u.IsTurret() {
		return
	}
	t := u.Type
	s.UnitCounts[u.Owner][t.ID] += count
	supply := t.SupplyRequired
	if r := race(t); r == 0 {
		if isEgg(t) {
			bt := u.BuildQueue[u.BuildQueueSlot]
			supply = bt.SupplyRequired
			if t.HasFlag(data.FlagTwoUnitsInOneEgg) {
				supply *= 2
			}
		} else if t.HasFlag(data.FlagFlyer) && !u.Completed() {
			supply *= 2
		}
		s.SupplyUsed[r][u.Owner] += supply * count
	} else if r > 0 {
		s.SupplyUsed[r][u.Owner] += supply * count
	}
	if t.InGroup(data.GroupFactory) {
		s.FactoryCounts[u.Owner] += count
	}
	switch {
	case t.InGroup(data.GroupMen):
		s.NonBuildingCounts[u.Owner] += count
	case t.InGroup(data.GroupBuilding):
		s.BuildingCounts[u.Owner] += count
	case isEgg(t):
		s.NonBuildingCounts[u.Owner] += count
	}
	if s.UnitCounts[u.Owner][t.ID] < 0 {
		s.UnitCounts[u.Owner][t.ID] = 0
	}
}

func morphedUnit(id data.UnitTypeID) bool {
	switch id {
	case data.ZergGuardian, data.ZergDevourer, data.ProtossDarkArchon, data.ProtossArchon, data.ZergLurker:
		return true
	}
	return false
}

func morphedBuilding(id data.UnitTypeID) bool {
	switch id {
	case data.ZergLair, data.ZergHive, data.ZergGreaterSpire, data.ZergSporeColony, data.ZergSunkenColony:
		return true
	}
	return false
}

// AddCompletedUnit adds count finished units like u to the per-player
// totals and optionally to the score. Completed men are tallied with the
// buildings, as the legacy counters do.
func (s *State) AddCompletedUnit(count int, u *Unit, score bool) {
	if u.Hallucination() || u.IsTurret() {
		return
	}
	t := u.Type
	s.CompletedUnitCounts[u.Owner][t.ID] += count
	if r := race(t); r >= 0 {
		s.SupplyAvailable[r][u.Owner] += t.SupplyProvided * count
	}
	if t.InGroup(data.GroupFactory) {
		s.CompletedFactoryCounts[u.Owner] += count
	}
	if t.InGroup(data.GroupMen) || t.InGroup(data.GroupBuilding) {
		s.CompletedBuildingCounts[u.Owner] += count
	}
	if score && u.Owner != NeutralPlayer {
		switch {
		case t.InGroup(data.GroupMen):
			if !morphedUnit(t.ID) {
				s.TotalNonBuildingsEverComplete[u.Owner] += count
			}
			s.UnitScore[u.Owner] += t.BuildScore * count
		case t.InGroup(data.GroupBuilding):
			if !morphedBuilding(t.ID) {
				s.TotalBuildingsEverCompleted[u.Owner] += count
			}
			s.BuildingScore[u.Owner] += t.BuildScore * count
		}
	}
	if s.CompletedUnitCounts[u.Owner][t.ID] < 0 {
		s.CompletedUnitCounts[u.Owner][t.ID] = 0
	}
}

// AddToFinder indexes u under its sprite bounding box.
func (s *State) AddToFinder(u *Unit) {
	s.Finder.Insert(s.UnitHandle(u), s.UnitSpriteBoundingBox(u))
}

func (s *State) RemoveFromFinder(u *Unit) {
	s.Finder.Remove(s.UnitHandle(u))
}

// UpdateFinder re-indexes u after it moved.
func (s *State) UpdateFinder(u *Unit) {
	s.Finder.Update(s.UnitHandle(u), s.UnitSpriteBoundingBox(u))
}
