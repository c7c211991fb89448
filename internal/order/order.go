// Package order runs the main and secondary orders of units and maintains
// their order queues.
//
// Orders are dispatched through per-stage lookup tables indexed by order
// id. A nil entry means the stage does nothing for that order. Orders whose
// behaviour is not reproduced have a stub entry that aborts the tick.
package order

import (
	"go.uber.org/zap"

	"github.com/drevilslab/openbw/internal/core/invariant"
	"github.com/drevilslab/openbw/internal/data"
	"github.com/drevilslab/openbw/internal/iscript/vm"
	"github.com/drevilslab/openbw/internal/world"
)

// Handler runs one stage of an order for u.
type Handler func(u *world.Unit)

type table [data.NumOrders]Handler

// Engine holds the dispatch tables. It is bound to one game state.
type Engine struct {
	st  *world.State
	vm  *vm.VM
	log *zap.Logger

	// main orders: before the frozen check, every frame, and every 8th
	// frame of the unit
	lifecycle table
	perTick   table
	throttled table
	secondary table

	hiddenEarly     table
	hiddenThrottled table
	hiddenSecondary table
}

func New(st *world.State, v *vm.VM) *Engine {
	e := &Engine{st: st, vm: v, log: st.Log.Named("order")}
	e.buildTables()
	return e
}

func stub(id data.OrderID) Handler {
	return func(u *world.Unit) {
		invariant.NotImplemented("order " + id.String())
	}
}

func noop(*world.Unit) {}

func (t *table) stubs(ids ...data.OrderID) {
	for _, id := range ids {
		t[id] = stub(id)
	}
}

func (e *Engine) buildTables() {
	e.lifecycle.stubs(data.OrderDie, data.OrderIncompleteWarping, data.OrderNukeTrack, data.OrderWarpIn)

	e.perTick[data.OrderTurretGuard] = e.orderTurretGuard
	e.perTick.stubs(
		data.OrderTurretAttack, data.OrderDroneBuild, data.OrderPlaceBuilding,
		data.OrderPlaceProtossBuilding, data.OrderConstructingBuilding, data.OrderRepair,
		data.OrderZergBirth, data.OrderZergUnitMorph, data.OrderIncompleteBuilding,
		data.OrderIncompleteMorphing, data.OrderScarabAttack, data.OrderRechargeShieldsUnit,
		data.OrderBuildingLand, data.OrderBuildingLiftOff, data.OrderResearchTech,
		data.OrderUpgrade, data.OrderHarvest3, data.OrderHarvest4, data.OrderInterrupted,
		data.OrderSieging, data.OrderUnsieging, data.OrderArchonWarp,
		data.OrderCompletingArchonSummon, data.OrderNukeTrain, data.OrderInitializeArbiter,
		data.OrderResetCollision, data.OrderResetHarvestCollision, data.OrderCTFCOP2,
		data.OrderSelfDestructing, data.OrderCritter, data.OrderMedicHeal, data.OrderHealMove,
		data.OrderMedicHoldPosition, data.OrderMedicHealToIdle, data.OrderDarkArchonMeld,
	)

	e.throttled[data.OrderGuard] = e.orderGuard
	e.throttled[data.OrderPlayerGuard] = e.orderPlayerGuard
	e.throttled.stubs(
		data.OrderDie, data.OrderStop, data.OrderBunkerGuard, data.OrderMove, data.OrderAttack1,
		data.OrderAttack2, data.OrderAttackUnit, data.OrderHover, data.OrderAttackMove,
		data.OrderUnusedNothing, data.OrderUnusedPowerup, data.OrderTowerGuard,
		data.OrderTowerAttack, data.OrderVultureMine, data.OrderUnused24,
		data.OrderCastInfestation, data.OrderMoveToInfest, data.OrderMoveToRepair,
		data.OrderBuildNydusExit, data.OrderFollow, data.OrderCarrier,
		data.OrderReaverCarrierMove, data.OrderCarrierStop, data.OrderCarrierAttack,
		data.OrderCarrierMoveToAttack, data.OrderCarrierIgnore2, data.OrderCarrierFight,
		data.OrderCarrierHoldPosition, data.OrderReaver, data.OrderReaverAttack,
		data.OrderReaverMoveToAttack, data.OrderReaverFight, data.OrderTrainFighter,
		data.OrderShieldBattery, data.OrderInterceptorReturn, data.OrderDroneLiftOff,
		data.OrderSpawningLarva, data.OrderHarvest1, data.OrderHarvest2, data.OrderMoveToGas,
		data.OrderWaitForGas, data.OrderHarvestGas, data.OrderReturnGas,
		data.OrderMoveToMinerals, data.OrderWaitForMinerals, data.OrderEnterTransport,
		data.OrderPickupIdle, data.OrderPickupTransport, data.OrderPickupBunker,
		data.OrderPickup4, data.OrderWatchTarget, data.OrderSpreadCreep,
		data.OrderHoldPosition, data.OrderDecloak, data.OrderUnload, data.OrderMoveUnload,
		data.OrderFireYamatoGun, data.OrderMoveToFireYamatoGun, data.OrderCastLockdown,
		data.OrderBurrowing, data.OrderBurrowed, data.OrderUnburrowing,
		data.OrderCastDarkSwarm, data.OrderCastParasite, data.OrderCastSpawnBroodlings,
		data.OrderNukeLaunch, data.OrderNukePaint, data.OrderNukeUnit,
		data.OrderCloakNearbyUnits, data.OrderPlaceMine, data.OrderRightClickAction,
		data.OrderSuicideUnit, data.OrderSuicideLocation, data.OrderSuicideHoldPosition,
		data.OrderTeleport, data.OrderCastScannerSweep, data.OrderScanner,
		data.OrderCastDefensiveMatrix, data.OrderCastPsionicStorm, data.OrderCastIrradiate,
		data.OrderCastPlague, data.OrderCastConsume, data.OrderCastEnsnare,
		data.OrderCastStasisField, data.OrderPatrol, data.OrderCTFCOPInit,
		data.OrderComputerAI, data.OrderAtkMoveEP, data.OrderHarassMove, data.OrderAIPatrol,
		data.OrderGuardPost, data.OrderRescuePassive, data.OrderNeutral,
		data.OrderComputerReturn, data.OrderHiddenGun, data.OrderOpenDoor,
		data.OrderCloseDoor, data.OrderHideTrap, data.OrderRevealTrap,
		data.OrderEnableDoodad, data.OrderCastRestoration, data.OrderCastDisruptionWeb,
		data.OrderCastFeedback, data.OrderCastOpticalFlare, data.OrderCastMaelstrom,
	)

	e.secondary.stubs(
		data.OrderTrain, data.OrderBuildAddon, data.OrderTrainFighter, data.OrderShieldBattery,
		data.OrderSpawningLarva, data.OrderSpreadCreep, data.OrderCloak, data.OrderDecloak,
		data.OrderCloakNearbyUnits,
	)

	e.hiddenEarly.stubs(
		data.OrderDie, data.OrderPlayerGuard, data.OrderTurretGuard, data.OrderUnusedPowerup,
		data.OrderTurretAttack, data.OrderInfestingCommandCenter, data.OrderHarvestGas,
		data.OrderPowerupIdle, data.OrderEnterTransport, data.OrderNukeLaunch,
		data.OrderResetCollision, data.OrderResetHarvestCollision,
	)
	for _, id := range []data.OrderID{data.OrderNothing, data.OrderUnused24, data.OrderNeutral, data.OrderMedic, data.OrderMedicHeal} {
		e.hiddenEarly[id] = noop
	}
	e.hiddenThrottled.stubs(data.OrderBunkerGuard, data.OrderEnterTransport, data.OrderComputerAI, data.OrderRescuePassive)
	e.hiddenSecondary.stubs(data.OrderTrainFighter, data.OrderCloak, data.OrderDecloak)
}

// throttle counts the queue timer of u down. It reports true on the frames
// the throttled stage runs.
func throttle(u *world.Unit) bool {
	if u.OrderQueueTimer > 0 {
		u.OrderQueueTimer--
		return false
	}
	u.OrderQueueTimer = 8
	return true
}

// ExecuteMainOrder runs the main order of a visible unit. It reports
// whether the unit is still there to update; dying is a stub, so it always
// is.
func (e *Engine) ExecuteMainOrder(u *world.Unit) bool {
	id := u.OrderType.ID
	if h := e.lifecycle[id]; h != nil {
		h(u)
		return true
	}
	frozen := world.IsFrozen(u)
	if frozen || (!u.CanMove() && u.Status(world.StatusCannotAttack)) {
		if u.MainOrderTimer == 0 {
			u.MainOrderTimer = 15
		}
		if frozen {
			return true
		}
	}
	if h := e.perTick[id]; h != nil {
		h(u)
		return true
	}
	if !throttle(u) {
		return true
	}
	if h := e.throttled[id]; h != nil {
		h(u)
	}
	return true
}

func (e *Engine) ExecuteSecondaryOrder(u *world.Unit) {
	if u.SecondaryOrderType.ID == data.OrderHallucination2 {
		if !u.DefenseMatrixDamage.IsZero() || u.StimTimer != 0 || u.EnsnareTimer != 0 ||
			u.LockdownTimer != 0 || u.IrradiateTimer != 0 || u.StasisTimer != 0 ||
			u.ParasiteFlags != 0 || u.StormTimer != 0 || u.PlagueTimer != 0 ||
			u.IsBlind || u.MaelstromTimer != 0 {
			invariant.NotImplemented("destroy hallucination")
		}
		return
	}
	if world.IsFrozen(u) {
		return
	}
	if h := e.secondary[u.SecondaryOrderType.ID]; h != nil {
		h(u)
	}
}

// ExecuteHiddenMainOrder runs the main order of a unit that is not on the
// map, such as one still in production.
func (e *Engine) ExecuteHiddenMainOrder(u *world.Unit) bool {
	id := u.OrderType.ID
	if h := e.hiddenEarly[id]; h != nil {
		h(u)
		return true
	}
	if !throttle(u) {
		return true
	}
	if h := e.hiddenThrottled[id]; h != nil {
		h(u)
	}
	return true
}

func (e *Engine) ExecuteHiddenSecondaryOrder(u *world.Unit) {
	if h := e.hiddenSecondary[u.SecondaryOrderType.ID]; h != nil {
		h(u)
	}
}
