package order

import (
	"github.com/drevilslab/openbw/internal/core/invariant"
	"github.com/drevilslab/openbw/internal/data"
	"github.com/drevilslab/openbw/internal/geom"
	"github.com/drevilslab/openbw/internal/world"
)

const (
	numPriorities      = 6
	maxPriorityTargets = 16
)

// UnitsDistance is the gap between the footprints of a and b.
func (e *Engine) UnitsDistance(a, b *world.Unit) int {
	bb := e.st.UnitSpriteBoundingBox(b)
	bb.To = bb.To.Add(geom.XY{X: 1, Y: 1})
	return geom.XYLength(geom.RectDifference(e.st.UnitSpriteBoundingBox(a), bb))
}

// attackingUnit is the turret of u if it has one.
func (e *Engine) attackingUnit(u *world.Unit) *world.Unit {
	if t := e.st.UnitTurret(u); t != nil {
		return t
	}
	return u
}

// unitWeapons are the weapons u fights with, taken from its turret when u
// has none of its own. An unburrowed lurker has no ground attack.
func (e *Engine) unitWeapons(u *world.Unit) (ground, air *data.WeaponType) {
	ground, air = u.Type.GroundWeapon, u.Type.AirWeapon
	if ground == nil && air == nil {
		if sub := e.st.SubunitOf(u); sub != nil {
			ground, air = sub.Type.GroundWeapon, sub.Type.AirWeapon
		}
	}
	if u.Type.ID == data.ZergLurker && !u.Status(world.StatusBurrowed) {
		ground = nil
	}
	return ground, air
}

// unitTargetWeapon is the weapon u would use on target.
func (e *Engine) unitTargetWeapon(u, target *world.Unit) *data.WeaponType {
	ground, air := e.unitWeapons(e.attackingUnit(u))
	if target.Flying() {
		return air
	}
	return ground
}

func (e *Engine) unitCanAttack(u *world.Unit) bool {
	switch u.Type.ID {
	case data.ProtossCarrier, data.HeroGantrithor, data.ProtossReaver, data.HeroWarbringer:
		return true
	}
	ground, air := e.unitWeapons(e.attackingUnit(u))
	return ground != nil || air != nil
}

// weaponMaxRange is the range bonus of u with w: bunkers and range
// upgrades. The base range of the weapon is not included.
func (e *Engine) weaponMaxRange(u *world.Unit, w *data.WeaponType) int {
	r := 0
	if u.Status(world.StatusInBuilding) {
		r += 64
	}
	switch u.Type.ID {
	case data.TerranMarine:
		if e.st.Upgraded(u.Owner, data.UpgradeU238Shells) {
			r += 32
		}
	case data.ZergHydralisk:
		if e.st.Upgraded(u.Owner, data.UpgradeGroovedSpines) {
			r += 32
		}
	case data.ProtossDragoon:
		if e.st.Upgraded(u.Owner, data.UpgradeSingularityCharge) {
			r += 64
		}
	case data.HeroFenixDragoon:
		r += 64
	case data.TerranGoliath, data.TerranGoliathTurret:
		if w == u.Type.AirWeapon && e.st.Upgraded(u.Owner, data.UpgradeCharonBoosters) {
			r += 96
		}
	case data.HeroAlanSchezar, data.HeroAlanSchezarTurret:
		if w == u.Type.AirWeapon {
			r += 96
		}
	}
	return r
}

// detected reports whether the owner of u can see target through its
// cloak.
func detected(u, target *world.Unit) bool {
	if !target.Status(world.StatusCloaked) && !target.Status(world.StatusRequiresDetector) {
		return true
	}
	return target.VisibilityFlags&(1<<uint(u.Owner)) != 0
}

// UnitCanAttackTarget reports whether u is able to attack target at all,
// regardless of range.
func (e *Engine) UnitCanAttackTarget(u, target *world.Unit) bool {
	if target == nil || world.IsFrozen(target) {
		return false
	}
	if target.Status(world.StatusInvincible) || target.Type.HasFlag(data.FlagInvincible) {
		return false
	}
	if e.st.SpriteOf(target).Hidden() || !detected(u, target) {
		return false
	}
	switch u.Type.ID {
	case data.ProtossCarrier, data.HeroGantrithor:
		return true
	case data.ProtossReaver, data.HeroWarbringer:
		return !target.Flying() && e.st.IsReachable(e.st.SpriteOf(u).Position, e.st.SpriteOf(target).Position)
	case data.ZergQueen, data.HeroMatriarch:
		if target.Type.ID != data.TerranCommandCenter || !target.Completed() {
			return false
		}
		return int(target.HP.Ceil().IntegerPart())*100/world.MaxVisibleHP(target) < 50
	}
	return e.unitTargetWeapon(u, target) != nil
}

// targetPriority ranks target for u, 0 first. Workers and units that
// cannot fight back rank lower.
func (e *Engine) targetPriority(u, target *world.Unit) int {
	if target.Type.ID == data.TerranBunker {
		for _, h := range target.LoadedUnits {
			if lu := e.st.Unit(h); lu != nil {
				target = lu
				break
			}
		}
	}
	switch target.Type.ID {
	case data.ZergLarva, data.ZergEgg, data.ZergCocoon, data.ZergLurkerEgg:
		return 5
	}
	r := 0
	if target.Type.HasFlag(data.FlagWorker) {
		r = 2
	} else if !e.UnitCanAttackTarget(target, u) {
		switch {
		case e.unitCanAttack(target):
			r = 2
		case target.CanMove():
			r = 3
		default:
			r = 4
		}
	}
	if target.Status(world.StatusInBuilding) || !target.Completed() {
		r++
	}
	if r == 0 && target.Status(world.StatusCannotAttack) {
		r++
	}
	return r
}

// inWeaponMovementRange reports whether u can bring its weapon to bear on
// target: in range for units that cannot move, reachable otherwise.
func (e *Engine) inWeaponMovementRange(u, target *world.Unit) bool {
	w := e.unitTargetWeapon(u, target)
	if w == nil {
		return false
	}
	if !u.CanMove() {
		return e.UnitsDistance(u, target) <= e.weaponMaxRange(u, w)
	}
	return e.st.IsReachable(e.st.SpriteOf(u).Position, e.st.SpriteOf(target).Position)
}

// skipForComputer holds back computer players from chasing ground targets
// they cannot reach.
func (e *Engine) skipForComputer(u, target *world.Unit) bool {
	return e.st.Players[u.Owner].Controller == data.ControllerComputerGame &&
		!target.Flying() && !e.inWeaponMovementRange(u, target) && target.Status(world.StatusUnk80)
}

// FindAcquireTarget returns the enemy u would pick on its own, or nil.
// Only units whose attacker cannot turn collect candidates; the rest rely
// on their order to turn towards a target first.
func (e *Engine) FindAcquireTarget(u *world.Unit) *world.Unit {
	acq := e.st.UnitTargetAcquisitionRange(u)
	if u.Status(world.StatusInBuilding) {
		acq += 2
	}
	maxRange := acq * 32

	ground, air := e.unitWeapons(u)
	minRange := 0
	switch {
	case ground != nil && air != nil:
		minRange = min(ground.MinRange, air.MinRange)
	case ground != nil:
		minRange = ground.MinRange
	case air != nil:
		minRange = air.MinRange
	}

	var buckets [numPriorities][]*world.Unit
	e.collectPriorityTargets(u, ground, minRange, maxRange, &buckets)
	pos := e.st.SpriteOf(u).Position
	for _, b := range buckets {
		if len(b) == 0 {
			continue
		}
		best, bestDist := b[0], geom.XYLength(e.st.SpriteOf(b[0]).Position.Sub(pos))
		for _, t := range b[1:] {
			if d := geom.XYLength(e.st.SpriteOf(t).Position.Sub(pos)); d < bestDist {
				best, bestDist = t, d
			}
		}
		return best
	}
	return nil
}

func (e *Engine) collectPriorityTargets(u *world.Unit, ground *data.WeaponType, minRange, maxRange int, buckets *[numPriorities][]*world.Unit) {
	pos := e.st.SpriteOf(u).Position
	pad := geom.XY{X: maxRange + 64, Y: maxRange + 64}
	attacking := e.attackingUnit(u)
	canTurn := attacking.CanTurn()

	q := e.st.Finder.Query(geom.Rect{From: pos.Sub(pad), To: pos.Add(pad)})
	defer q.Close()
	for h, ok := q.Next(); ok; h, ok = q.Next() {
		t := e.st.Unit(h)
		if t == nil || t == u {
			continue
		}
		if !e.st.UnitTargetIsEnemy(u, t) || !e.UnitCanAttackTarget(u, t) {
			continue
		}
		if d := e.UnitsDistance(u, t); d < minRange || d > maxRange {
			continue
		}
		if canTurn {
			continue
		}
		if ground == nil {
			invariant.Fatalf("unit %d acquires targets without a ground weapon", u.Index)
		}
		dir := geom.XYDirection(e.st.SpriteOf(t).Position.Sub(e.st.SpriteOf(attacking).Position))
		if dir.Sub(attacking.Heading).Abs().Cmp(ground.AttackAngle) > 0 {
			continue
		}
		if e.skipForComputer(u, t) {
			continue
		}
		p := e.targetPriority(u, t)
		if len(buckets[p]) < maxPriorityTargets {
			buckets[p] = append(buckets[p], t)
		}
	}
}
