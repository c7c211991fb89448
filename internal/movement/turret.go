package movement

import (
	"github.com/drevilslab/openbw/internal/core/invariant"
	"github.com/drevilslab/openbw/internal/data"
	"github.com/drevilslab/openbw/internal/fixed"
	"github.com/drevilslab/openbw/internal/iscript"
	"github.com/drevilslab/openbw/internal/iscript/vm"
	"github.com/drevilslab/openbw/internal/world"
)

// TurnTurret turns tu by the amount its carrier turned this frame. A turret
// without a target snaps back to the carrier heading once aligned and then
// follows it.
func (m *Mover) TurnTurret(tu *world.Unit, turn fixed.Direction) {
	base := m.st.SubunitOf(tu)
	if base == nil {
		invariant.Fatalf("turret %d has no carrier", tu.Index)
	}
	if tu.OrderTarget.Unit != 0 {
		tu.SetStatus(world.StatusTurretFollows, false)
	} else if tu.Heading == base.Heading {
		tu.SetStatus(world.StatusTurretFollows, true)
	}

	if tu.Status(world.StatusTurretFollows) {
		m.st.SetUnitHeading(tu, base.Heading)
	} else {
		tu.VelocityDirection = tu.VelocityDirection.Add(turn)
		tu.Heading = tu.VelocityDirection
	}

	// goliath arms cannot swing past 45 degrees
	if id := tu.Type.ID; id == data.TerranGoliathTurret || id == data.HeroAlanSchezarTurret {
		diff := base.Heading.Sub(tu.Heading).Raw()
		switch {
		case diff == -128:
			tu.Heading = base.Heading.Sub(fixed.DirRaw(96))
		case diff > 32:
			tu.Heading = base.Heading.Sub(fixed.DirRaw(32))
		case diff < -32:
			tu.Heading = base.Heading.Add(fixed.DirRaw(32))
		}
	}
}

// UpdateUnitMovement runs the movement of u and drags its turret along.
func (m *Mover) UpdateUnitMovement(u *world.Unit) {
	prev := u.VelocityDirection
	if m.ExecuteMovement(u) {
		m.st.RefreshUnitVision(u)
	}
	sub := m.st.SubunitOf(u)
	if !u.Completed() || sub == nil || u.IsTurret() {
		return
	}

	m.TurnTurret(sub, u.VelocityDirection.Sub(prev))
	sub.Halt = u.Halt
	sub.Position = u.Halt.ToXY()
	m.st.MoveSprite(m.st.SpriteOf(sub), sub.Position)
	m.st.UpdateImageSpecialOffset(m.st.MainImage(m.st.SpriteOf(u)))

	ctx := vm.Context{Unit: sub, OrderUnit: u}
	if !u.MovementFlag(world.MoveFlagMoving) {
		if sub.Status(world.StatusTurretWalking) {
			sub.SetStatus(world.StatusTurretWalking, false)
			if u.CanMove() && !sub.MovementFlag(world.MoveFlagAttacking) {
				m.vm.SpriteRunAnim(ctx, m.st.SpriteOf(u), iscript.AnimWalkingToIdle)
			}
		}
	} else if !sub.Status(world.StatusTurretWalking) {
		sub.SetStatus(world.StatusTurretWalking, true)
		m.vm.SpriteRunAnim(ctx, m.st.SpriteOf(u), iscript.AnimWalking)
	}
	m.UpdateUnitMovement(sub)
}
