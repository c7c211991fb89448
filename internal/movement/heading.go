package movement

import (
	"github.com/drevilslab/openbw/internal/data"
	"github.com/drevilslab/openbw/internal/fixed"
	"github.com/drevilslab/openbw/internal/geom"
	"github.com/drevilslab/openbw/internal/world"
)

// UnitTurnRate clamps the turn desired to what u can turn in one frame.
// Units that do not move by iscript turn at half their rate.
func UnitTurnRate(u *world.Unit, desired fixed.Direction) fixed.Direction {
	rate := u.TurnRate
	if u.MovementType != 2 {
		rate = fixed.UFP8Raw(rate.Raw() / 2)
	}
	limit := fixed.FP8Raw(rate.Raw())
	turn := fixed.DirToFP8(desired)
	if turn.Cmp(limit) > 0 {
		turn = limit
	} else if turn.Cmp(limit.Neg()) < 0 {
		turn = limit.Neg()
	}
	return fixed.FP8ToDir(turn)
}

// SetDesiredVelocityDirection records d and turns the current velocity of
// u towards it by at most one turn step.
func (m *Mover) SetDesiredVelocityDirection(u *world.Unit, d fixed.Direction) {
	u.DesiredVelocityDirection = d
	if u.VelocityDirection != d {
		world.SetCurrentVelocityDirection(u, u.VelocityDirection.Add(UnitTurnRate(u, d.Sub(u.VelocityDirection))))
		return
	}
	world.SetCurrentVelocityDirection(u, d)
}

// UpdateCurrentVelocityDirectionTowardsWaypoint aims u at its next movement
// waypoint, then its target waypoint, and otherwise keeps its heading.
func (m *Mover) UpdateCurrentVelocityDirectionTowardsWaypoint(u *world.Unit) {
	switch {
	case u.Position != u.NextMovementWaypoint:
		m.SetDesiredVelocityDirection(u, geom.XYDirection(u.NextMovementWaypoint.Sub(u.Position)))
	case u.Position != u.NextTargetWaypoint:
		m.SetDesiredVelocityDirection(u, geom.XYDirection(u.NextTargetWaypoint.Sub(u.Position)))
	default:
		m.SetDesiredVelocityDirection(u, u.Heading)
	}
}

// slowTurners have their turn rate creep up every time they turn.
func slowTurner(id data.UnitTypeID) bool {
	return (id >= data.ZergSpire && id <= data.ProtossRoboticsSupportBay) ||
		(id >= data.SpecialOvermind && id <= data.SpecialRightUpperLevelDoor)
}

// UpdateUnitHeading stores the velocity direction of u and, unless u is
// moving in a straight line, turns its heading towards the desired
// direction. The images of u follow the new heading.
func (m *Mover) UpdateUnitHeading(u *world.Unit, velocity fixed.Direction) {
	u.VelocityDirection = velocity
	if !u.MovementFlag(world.MoveFlagMoving) || u.MovementFlag(world.MoveFlagTurning) {
		u.Heading = u.Heading.Add(UnitTurnRate(u, u.DesiredVelocityDirection.Sub(u.Heading)))
		if slowTurner(u.Type.ID) {
			u.TurnRate = u.TurnRate.Add(fixed.UFP8Raw(1))
		}
		if velocity == u.DesiredVelocityDirection {
			u.SetMovementFlag(world.MoveFlagTurning, false)
		}
	}
	sp := m.st.SpriteOf(u)
	m.st.EachImage(sp, func(img *world.Image) { m.st.SetImageHeading(img, u.Heading) })
}
