package order

import (
	"github.com/drevilslab/openbw/internal/core/invariant"
	"github.com/drevilslab/openbw/internal/data"
	"github.com/drevilslab/openbw/internal/rng"
	"github.com/drevilslab/openbw/internal/world"
)

// orderGuard staggers the first scan of a fresh guard and hands over to
// PlayerGuard.
func (e *Engine) orderGuard(u *world.Unit) {
	u.MainOrderTimer = e.st.RNG.RandRange(rng.SourceGuard, 0, 15)
	u.OrderType = e.st.Tables.Order(data.OrderPlayerGuard)
}

// orderPlayerGuard looks for something to attack every 15 frames.
func (e *Engine) orderPlayerGuard(u *world.Unit) {
	if e.unitAutoattack(u) || u.MainOrderTimer != 0 {
		return
	}
	u.MainOrderTimer = 15
	if u.IsTurret() {
		if base := e.st.SubunitOf(u); base != nil && u.NextTargetWaypoint != base.NextTargetWaypoint {
			u.NextTargetWaypoint = base.NextTargetWaypoint
		}
	}
	if e.st.UnitTargetAcquisitionRange(u) == 0 {
		return
	}
	if e.FindAcquireTarget(u) != nil {
		invariant.NotImplemented("PlayerGuard: attack acquired target")
	}
}

// orderTurretGuard keeps the turret aimed where its carrier is heading.
func (e *Engine) orderTurretGuard(u *world.Unit) {
	if base := e.st.SubunitOf(u); base != nil && u.NextTargetWaypoint != base.NextTargetWaypoint {
		u.NextTargetWaypoint = base.NextTargetWaypoint
	}
	e.orderPlayerGuard(u)
}

// unitAutoattack follows up on the auto target of u. A target that turned
// friendly is forgotten.
func (e *Engine) unitAutoattack(u *world.Unit) bool {
	if u.AutoTargetUnit == 0 {
		return false
	}
	t := e.st.Unit(u.AutoTargetUnit)
	if t == nil || !e.st.UnitTargetIsEnemy(u, t) {
		u.AutoTargetUnit = 0
		return false
	}
	if e.UnitCanAttackTarget(u, t) {
		invariant.NotImplemented("autoattack")
	}
	return false
}
