package order

import (
	"github.com/drevilslab/openbw/internal/core/invariant"
	"github.com/drevilslab/openbw/internal/data"
	"github.com/drevilslab/openbw/internal/geom"
	"github.com/drevilslab/openbw/internal/iscript"
	"github.com/drevilslab/openbw/internal/iscript/vm"
	"github.com/drevilslab/openbw/internal/world"
)

// errOrderLimit is the status line error shown when no order slot is left.
const errOrderLimit = 872

// Target is what an order is issued at.
type Target struct {
	Pos      geom.XY
	Unit     *world.Unit
	UnitType *data.UnitType
}

// QueueOrder adds an order to the queue of u, after the queued order in
// slot after, or next in line when after is 0. Running out of order slots
// is reported to the owner and the order is dropped.
func (e *Engine) QueueOrder(u *world.Unit, t *data.OrderType, after int32, target Target) {
	slot, err := e.st.Orders.Allocate()
	if err != nil {
		e.st.LocalUnitStatusError(u, errOrderLimit)
		return
	}
	e.st.AllocatedOrderCount++
	o := e.st.Orders.Get(slot)
	*o = world.Order{
		Index:    slot,
		Type:     t,
		Target:   world.Target{Pos: target.Pos, Unit: e.st.UnitHandle(target.Unit)},
		UnitType: target.UnitType,
	}
	if t.Highlight != -1 {
		u.OrderQueueCount++
	}
	if after != 0 {
		u.OrderQueue.InsertAfter(after, slot)
	} else {
		u.OrderQueue.Insert(slot)
	}
}

// RemoveQueuedOrder drops the queued order in slot from u and frees it.
func (e *Engine) RemoveQueuedOrder(u *world.Unit, slot int32) {
	o := e.st.Orders.Get(slot)
	if o.Type.Highlight != -1 && u.OrderQueueCount > 0 {
		u.OrderQueueCount--
	}
	u.OrderQueue.Remove(slot)
	*o = world.Order{Index: slot}
	e.st.Orders.Release(slot)
	e.st.AllocatedOrderCount--
}

// SetQueuedOrder queues t for u. With interrupt set, interruptible orders
// at the back of the queue are dropped first; orders of the same type are
// always replaced.
func (e *Engine) SetQueuedOrder(u *world.Unit, interrupt bool, t *data.OrderType, target Target) {
	if u.OrderType != nil && u.OrderType.ID == data.OrderDie {
		return
	}
	for back := u.OrderQueue.Back(); back != 0; back = u.OrderQueue.Back() {
		o := e.st.Orders.Get(back)
		if (!interrupt || !o.Type.CanBeInterrupted) && o.Type != t {
			break
		}
		e.RemoveQueuedOrder(u, back)
	}
	if t.ID == data.OrderCloak {
		invariant.NotImplemented("queue Cloak")
	}
	e.QueueOrder(u, t, 0, target)
}

// RunToIdle drops the uninterruptible script state of u and plays the
// matching return-to-idle animation of an attack or spell in progress.
func (e *Engine) RunToIdle(u *world.Unit) {
	u.SetStatus(world.StatusIscriptNoBrk, false)
	sp := e.st.SpriteOf(u)
	sp.Flags &^= world.SpriteIscriptNoBrk

	anim := iscript.Anim(-1)
	switch e.st.MainImage(sp).Iscript.Animation {
	case iscript.AnimAirAttkInit, iscript.AnimAirAttkRpt:
		anim = iscript.AnimAirAttkToIdle
	case iscript.AnimGndAttkInit, iscript.AnimGndAttkRpt:
		anim = iscript.AnimGndAttkToIdle
	case iscript.AnimSpecialState1:
		// medics heal in SpecialState1
		if u.Type.ID == data.TerranMedic {
			anim = iscript.AnimWalkingToIdle
		}
	case iscript.AnimCastSpell:
		anim = iscript.AnimWalkingToIdle
	}
	if anim >= 0 {
		e.vm.SpriteRunAnim(vm.Context{Unit: u, OrderUnit: u}, sp, anim)
	}
	u.SetMovementFlag(world.MoveFlagAttacking, false)
}

// ActivateNextOrder makes the front of the queue the current order of u and
// hands a matching order to its turret.
func (e *Engine) ActivateNextOrder(u *world.Unit) {
	front := u.OrderQueue.Front()
	if front == 0 {
		return
	}
	o := e.st.Orders.Get(front)
	if (u.Status(world.StatusInBuilding) || u.Status(world.StatusBurrowed)) && o.Type.ID != data.OrderDie {
		return
	}
	t := o.Type
	target := Target{Pos: o.Target.Pos, Unit: e.st.Unit(o.Target.Unit), UnitType: o.UnitType}
	e.RemoveQueuedOrder(u, front)

	u.UserActionFlags &^= 1
	u.StatusFlags &^= world.StatusDisabled | world.StatusOrderNotInterruptible | world.StatusHoldingPosition
	if !t.CanBeInterrupted {
		u.SetStatus(world.StatusOrderNotInterruptible, true)
	}
	u.OrderQueueTimer = 0
	u.RecentOrderTimer = 0
	u.OrderType = t
	u.OrderState = 0
	if target.Unit != nil {
		u.OrderTarget = world.Target{Pos: e.st.SpriteOf(target.Unit).Position, Unit: e.st.UnitHandle(target.Unit)}
		u.OrderUnitType = nil
	} else {
		u.OrderTarget = world.Target{Pos: target.Pos}
		u.OrderUnitType = target.UnitType
	}
	u.AutoTargetUnit = 0
	e.RunToIdle(u)

	if u.IsTurret() {
		return
	}
	sub := e.st.UnitTurret(u)
	if sub == nil {
		return
	}
	var st *data.OrderType
	switch {
	case t == u.Type.ReturnToIdle:
		st = sub.Type.ReturnToIdle
	case t == u.Type.AttackUnit:
		st = sub.Type.AttackUnit
	case t == u.Type.AttackMove:
		st = sub.Type.AttackMove
	case t.ValidForTurret:
		st = t
	}
	if st != nil {
		e.SetUnitOrder(sub, st, target)
	}
}

// SetUnitOrder replaces the interruptible queue of u with t and starts it
// at once.
func (e *Engine) SetUnitOrder(u *world.Unit, t *data.OrderType, target Target) {
	u.UserActionFlags |= 1
	e.SetQueuedOrder(u, true, t, target)
	e.ActivateNextOrder(u)
}
