// Package movement runs the per-unit movement state machine together with
// the heading, turret and collision helpers it relies on.
//
// Only the states a unit passes through while standing still or turning in
// place are reproduced. Path following and the collision recovery states
// abort the tick with invariant.ErrNotImplemented.
package movement

import (
	"go.uber.org/zap"

	"github.com/drevilslab/openbw/internal/core/invariant"
	"github.com/drevilslab/openbw/internal/fixed"
	"github.com/drevilslab/openbw/internal/geom"
	"github.com/drevilslab/openbw/internal/iscript/vm"
	"github.com/drevilslab/openbw/internal/world"
)

// Mover advances units through their movement states.
type Mover struct {
	st  *world.State
	vm  *vm.VM
	log *zap.Logger
}

func New(st *world.State, v *vm.VM) *Mover {
	return &Mover{st: st, vm: v, log: st.Log.Named("movement")}
}

// execState is shared by the state handlers of one ExecuteMovement call.
type execState struct {
	refreshVision bool
	// set by SomeMovementFunc
	startedMoving bool
	stoppedMoving bool
}

// stateFunc handles one movement state. Returning true runs the handler of
// the (possibly new) state again in the same call.
type stateFunc func(m *Mover, u *world.Unit, es *execState) bool

var states = [world.NumMovementStates]stateFunc{
	world.MovementInit:         (*Mover).stateInit,
	world.MovementTurret:       (*Mover).stateTurret,
	world.MovementBldgTurret:   (*Mover).stateBldgTurret,
	world.MovementAtRest:       (*Mover).stateAtRest,
	world.MovementDormant:      (*Mover).stateDormant,
	world.MovementCheckIllegal: (*Mover).stateCheckIllegal,
}

// ExecuteMovement runs the state machine of u until a handler stops it. It
// reports whether the vision of u should be refreshed.
func (m *Mover) ExecuteMovement(u *world.Unit) bool {
	es := execState{refreshVision: m.st.UpdateTiles}
	for {
		if u.MovementState >= world.NumMovementStates {
			invariant.Fatalf("unit %d: movement state %d out of range", u.Index, u.MovementState)
		}
		fn := states[u.MovementState]
		if fn == nil {
			invariant.NotImplemented("movement state " + u.MovementState.String())
		}
		if !fn(m, u, &es) {
			return es.refreshVision
		}
	}
}

func (m *Mover) stateInit(u *world.Unit, es *execState) bool {
	sp := m.st.SpriteOf(u)
	u.PathingFlags &^= world.PathingGround | world.PathingFlag2
	if sp.ElevationLevel < 12 {
		u.PathingFlags |= world.PathingGround
	}
	u.ContourBounds = geom.Rect{}

	next := world.MovementLump
	switch {
	case !u.IsTurret() && u.Status(world.StatusIscriptNoBrk):
		next = world.MovementInitSeq
	case m.st.UnitDead(u):
		invariant.Fatalf("unit %d: movement started on a dead unit", u.Index)
	case u.Status(world.StatusInBuilding):
		next = world.MovementBunker
	case sp.Hidden():
		if u.MovementFlag(world.MoveFlagMoving) || m.st.UnitMovePosState(u) == 0 {
			invariant.NotImplemented("hidden unit pathing")
		}
		next = world.MovementHidden
	case u.Status(world.StatusBurrowed):
		next = world.MovementLump
	case u.CanMove():
		if u.PathingFlags&world.PathingGround != 0 {
			next = world.MovementAtRest
		} else {
			next = world.MovementFlyer
		}
	case u.CanTurn():
		if u.IsTurret() {
			next = world.MovementTurret
		} else {
			next = world.MovementBldgTurret
		}
	case u.PathingFlags&world.PathingGround != 0 && (u.MovementFlag(world.MoveFlagMoving) || m.st.UnitMovePosState(u) == 0):
		next = world.MovementLumpWannabe
	}
	u.MovementState = next
	return true
}

func (m *Mover) stateAtRest(u *world.Unit, es *execState) bool {
	movePos := m.st.UnitMovePosState(u)
	if movePos == 0 {
		if u.PathingCollisionInterval > 2 {
			u.PathingCollisionInterval = 2
		} else if u.PathingCollisionInterval > 0 {
			u.PathingCollisionInterval--
		}
	} else {
		u.PathingCollisionInterval = 0
	}

	if m.wantsNextWaypoint(u, movePos) {
		invariant.NotImplemented("movement: go to next waypoint")
	}
	if u.Status(world.StatusCollision) && u.Status(world.StatusGroundUnit) {
		u.MovementState = world.MovementCheckIllegal
		return false
	}
	if movePos == 0 && !u.MovementFlag(world.MoveFlagBraking) {
		u.MovementState = world.MovementStartPath
		return true
	}

	u.CurrentSpeed = fixed.UFP8{}
	if !u.Speed.IsZero() {
		u.Speed = fixed.FP8{}
		u.Velocity = geom.XYFP8{}
	}
	if pos := m.st.SpriteOf(u).Position; u.NextTargetWaypoint != pos {
		u.NextTargetWaypoint = pos
	}
	u.MovementState = world.MovementDormant
	return false
}

func (m *Mover) wantsNextWaypoint(u *world.Unit, movePos int) bool {
	if u.MovementFlag(world.MoveFlagBraking) {
		return true
	}
	if movePos == 0 {
		return false
	}
	if u.MovementFlag(world.MoveFlagMoving) {
		return true
	}
	if u.Position != u.NextTargetWaypoint {
		dir := geom.XYDirection(u.NextTargetWaypoint.Sub(u.Position))
		if u.Heading != dir || u.VelocityDirection != dir {
			return true
		}
	}
	return false
}

func (m *Mover) stateCheckIllegal(u *world.Unit, es *execState) bool {
	u.SetStatus(world.StatusCollision, false)
	if !m.shouldMoveToLegal(u) {
		u.PathingFlags &^= world.PathingFlag2 | world.PathingFlag4
		if m.st.UnitMovePosState(u) != 0 || u.MovementFlag(world.MoveFlagBraking) {
			u.MovementState = world.MovementAtRest
		} else {
			u.MovementState = world.MovementAnotherPath
		}
		return true
	}
	u.PathingFlags |= world.PathingFlag2
	u.MovementState = world.MovementMoveToLegal
	return false
}

// shouldMoveToLegal checks whether a ground unit stands somewhere it cannot
// be. Units that may not be interrupted keep the collision flag instead.
func (m *Mover) shouldMoveToLegal(u *world.Unit) bool {
	pos := m.st.SpriteOf(u).Position
	if !u.Status(world.StatusGroundUnit) {
		return false
	}
	if blocked, _ := m.IsBlocked(u, pos); !blocked {
		return false
	}
	if u.Status(world.StatusOrderNotInterruptible) || u.Status(world.StatusIscriptNoBrk) || u.MovementFlag(world.MoveFlagAttacking) {
		u.SetStatus(world.StatusCollision, true)
		return false
	}
	if !m.st.UnitTypeCanFitAt(u.Type, pos) {
		invariant.NotImplemented("move to legal: unit does not fit")
	}
	if m.GetLargestBlockingUnit(u, world.UnitTypeBoundingBox(u.Type, pos)) != nil {
		invariant.NotImplemented("move to legal: blocking unit")
	}
	if m.st.RestrictToMapBounds(pos, u.Type) != pos {
		invariant.NotImplemented("move to legal: off the map")
	}
	u.SetStatus(world.StatusCollision, true)
	return false
}

func (m *Mover) stateDormant(u *world.Unit, es *execState) bool {
	rest := u.Status(world.StatusCollision) && u.Status(world.StatusGroundUnit)
	if m.st.UnitMovePosState(u) == 0 || u.Position != u.NextTargetWaypoint {
		rest = true
	}
	if rest {
		u.MovementState = world.MovementAtRest
		return true
	}
	return false
}

// stateTurret turns a turret towards its waypoint; its position is set by
// the unit carrying it.
func (m *Mover) stateTurret(u *world.Unit, es *execState) bool {
	es.refreshVision = false
	m.st.SetUnitMoveTarget(u, m.st.SpriteOf(u).Position)
	m.turnInPlace(u, es)
	return false
}

// stateBldgTurret turns a unit that can turn but not move. It does not
// retarget itself and keeps its vision refresh.
func (m *Mover) stateBldgTurret(u *world.Unit, es *execState) bool {
	m.turnInPlace(u, es)
	return false
}

func (m *Mover) turnInPlace(u *world.Unit, es *execState) {
	if e := u.DesiredVelocityDirection.Sub(u.Heading).Raw(); e != -128 && e >= -10 && e <= 10 {
		u.SetMovementFlag(world.MoveFlagTurning, false)
	}
	if u.Status(world.StatusTurretFollows) {
		m.SomeMovementFunc(u, es)
		return
	}
	m.UpdateCurrentVelocityDirectionTowardsWaypoint(u)
	m.SomeMovementFunc(u, es)
	m.UpdateUnitHeading(u, u.VelocityDirection)
}

// SomeMovementFunc latches the start and stop of motion into es and the
// moving flag of u.
func (m *Mover) SomeMovementFunc(u *world.Unit, es *execState) {
	es.startedMoving = false
	es.stoppedMoving = false
	if u.MovementFlag(world.MoveFlagMoving) {
		u.SetMovementFlag(world.MoveFlagMoving, false)
		if !u.MovementFlag(world.MoveFlagAttacking) {
			es.stoppedMoving = true
		}
	} else if u.Position != u.MoveTarget.Pos {
		if u.MovementType != 2 || u.MovementFlag(world.MoveFlagAttacking) {
			u.SetMovementFlag(world.MoveFlagMoving, true)
		}
		if !u.MovementFlag(world.MoveFlagAttacking) {
			es.startedMoving = true
		}
	}
}
