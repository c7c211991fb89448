package data

import "strconv"

// OrderID is the legacy orders.dat index.
type OrderID int

const (
	OrderDie OrderID = iota
	OrderStop
	OrderGuard
	OrderPlayerGuard
	OrderTurretGuard
	OrderBunkerGuard
	OrderMove
	OrderReaverStop
	OrderAttack1
	OrderAttack2
	OrderAttackUnit
	OrderAttackFixedRange
	OrderAttackTile
	OrderHover
	OrderAttackMove
	OrderInfestedCommandCenter
	OrderUnusedNothing
	OrderUnusedPowerup
	OrderTowerGuard
	OrderTowerAttack
	OrderVultureMine
	OrderStayInRange
	OrderTurretAttack
	OrderNothing
	OrderUnused24
	OrderDroneStartBuild
	OrderDroneBuild
	OrderCastInfestation
	OrderMoveToInfest
	OrderInfestingCommandCenter
	OrderPlaceBuilding
	OrderPlaceProtossBuilding
	OrderCreateProtossBuilding
	OrderConstructingBuilding
	OrderRepair
	OrderMoveToRepair
	OrderPlaceAddon
	OrderBuildAddon
	OrderTrain
	OrderRallyPointUnit
	OrderRallyPointTile
	OrderZergBirth
	OrderZergUnitMorph
	OrderZergBuildingMorph
	OrderIncompleteBuilding
	OrderIncompleteMorphing
	OrderBuildNydusExit
	OrderEnterNydusCanal
	OrderIncompleteWarping
	OrderFollow
	OrderCarrier
	OrderReaverCarrierMove
	OrderCarrierStop
	OrderCarrierAttack
	OrderCarrierMoveToAttack
	OrderCarrierIgnore2
	OrderCarrierFight
	OrderCarrierHoldPosition
	OrderReaver
	OrderReaverAttack
	OrderReaverMoveToAttack
	OrderReaverFight
	OrderReaverHoldPosition
	OrderTrainFighter
	OrderInterceptorAttack
	OrderScarabAttack
	OrderRechargeShieldsUnit
	OrderRechargeShieldsBattery
	OrderShieldBattery
	OrderInterceptorReturn
	OrderDroneLand
	OrderBuildingLand
	OrderBuildingLiftOff
	OrderDroneLiftOff
	OrderLiftingOff
	OrderResearchTech
	OrderUpgrade
	OrderLarva
	OrderSpawningLarva
	OrderHarvest1
	OrderHarvest2
	OrderMoveToGas
	OrderWaitForGas
	OrderHarvestGas
	OrderReturnGas
	OrderMoveToMinerals
	OrderWaitForMinerals
	OrderMiningMinerals
	OrderHarvest3
	OrderHarvest4
	OrderReturnMinerals
	OrderInterrupted
	OrderEnterTransport
	OrderPickupIdle
	OrderPickupTransport
	OrderPickupBunker
	OrderPickup4
	OrderPowerupIdle
	OrderSieging
	OrderUnsieging
	OrderWatchTarget
	OrderInitCreepGrowth
	OrderSpreadCreep
	OrderStoppingCreepGrowth
	OrderGuardianAspect
	OrderArchonWarp
	OrderCompletingArchonSummon
	OrderHoldPosition
	OrderQueenHoldPosition
	OrderCloak
	OrderDecloak
	OrderUnload
	OrderMoveUnload
	OrderFireYamatoGun
	OrderMoveToFireYamatoGun
	OrderCastLockdown
	OrderBurrowing
	OrderBurrowed
	OrderUnburrowing
	OrderCastDarkSwarm
	OrderCastParasite
	OrderCastSpawnBroodlings
	OrderCastEMPShockwave
	OrderNukeWait
	OrderNukeTrain
	OrderNukeLaunch
	OrderNukePaint
	OrderNukeUnit
	OrderCastNuclearStrike
	OrderNukeTrack
	OrderInitializeArbiter
	OrderCloakNearbyUnits
	OrderPlaceMine
	OrderRightClickAction
	OrderSuicideUnit
	OrderSuicideLocation
	OrderSuicideHoldPosition
	OrderCastRecall
	OrderTeleport
	OrderCastScannerSweep
	OrderScanner
	OrderCastDefensiveMatrix
	OrderCastPsionicStorm
	OrderCastIrradiate
	OrderCastPlague
	OrderCastConsume
	OrderCastEnsnare
	OrderCastStasisField
	OrderCastHallucination
	OrderHallucination2
	OrderResetCollision
	OrderResetHarvestCollision
	OrderPatrol
	OrderCTFCOPInit
	OrderCTFCOP1
	OrderCTFCOP2
	OrderComputerAI
	OrderAtkMoveEP
	OrderHarassMove
	OrderAIPatrol
	OrderGuardPost
	OrderRescuePassive
	OrderNeutral
	OrderComputerReturn
	OrderInitializePsiProvider
	OrderSelfDestructing
	OrderCritter
	OrderHiddenGun
	OrderOpenDoor
	OrderCloseDoor
	OrderHideTrap
	OrderRevealTrap
	OrderEnableDoodad
	OrderDisableDoodad
	OrderWarpIn
	OrderMedic
	OrderMedicHeal
	OrderHealMove
	OrderMedicHoldPosition
	OrderMedicHealToIdle
	OrderCastRestoration
	OrderCastDisruptionWeb
	OrderCastMindControl
	OrderDarkArchonMeld
	OrderCastFeedback
	OrderCastOpticalFlare
	OrderCastMaelstrom
	OrderJunkYardDog
	OrderFatal

	// NumOrders is the size of the order table. OrderNone is the "no order"
	// marker, never a table entry.
	NumOrders
	OrderNone = NumOrders
)

var orderNames = [NumOrders]string{
	"Die", "Stop", "Guard", "PlayerGuard", "TurretGuard", "BunkerGuard", "Move", "ReaverStop",
	"Attack1", "Attack2", "AttackUnit", "AttackFixedRange", "AttackTile", "Hover", "AttackMove",
	"InfestedCommandCenter", "UnusedNothing", "UnusedPowerup", "TowerGuard", "TowerAttack",
	"VultureMine", "StayInRange", "TurretAttack", "Nothing", "Unused_24", "DroneStartBuild",
	"DroneBuild", "CastInfestation", "MoveToInfest", "InfestingCommandCenter", "PlaceBuilding",
	"PlaceProtossBuilding", "CreateProtossBuilding", "ConstructingBuilding", "Repair",
	"MoveToRepair", "PlaceAddon", "BuildAddon", "Train", "RallyPointUnit", "RallyPointTile",
	"ZergBirth", "ZergUnitMorph", "ZergBuildingMorph", "IncompleteBuilding", "IncompleteMorphing",
	"BuildNydusExit", "EnterNydusCanal", "IncompleteWarping", "Follow", "Carrier",
	"ReaverCarrierMove", "CarrierStop", "CarrierAttack", "CarrierMoveToAttack", "CarrierIgnore2",
	"CarrierFight", "CarrierHoldPosition", "Reaver", "ReaverAttack", "ReaverMoveToAttack",
	"ReaverFight", "ReaverHoldPosition", "TrainFighter", "InterceptorAttack", "ScarabAttack",
	"RechargeShieldsUnit", "RechargeShieldsBattery", "ShieldBattery", "InterceptorReturn",
	"DroneLand", "BuildingLand", "BuildingLiftOff", "DroneLiftOff", "LiftingOff", "ResearchTech",
	"Upgrade", "Larva", "SpawningLarva", "Harvest1", "Harvest2", "MoveToGas", "WaitForGas",
	"HarvestGas", "ReturnGas", "MoveToMinerals", "WaitForMinerals", "MiningMinerals", "Harvest3",
	"Harvest4", "ReturnMinerals", "Interrupted", "EnterTransport", "PickupIdle", "PickupTransport",
	"PickupBunker", "Pickup4", "PowerupIdle", "Sieging", "Unsieging", "WatchTarget",
	"InitCreepGrowth", "SpreadCreep", "StoppingCreepGrowth", "GuardianAspect", "ArchonWarp",
	"CompletingArchonSummon", "HoldPosition", "QueenHoldPosition", "Cloak", "Decloak", "Unload",
	"MoveUnload", "FireYamatoGun", "MoveToFireYamatoGun", "CastLockdown", "Burrowing", "Burrowed",
	"Unburrowing", "CastDarkSwarm", "CastParasite", "CastSpawnBroodlings", "CastEMPShockwave",
	"NukeWait", "NukeTrain", "NukeLaunch", "NukePaint", "NukeUnit", "CastNuclearStrike",
	"NukeTrack", "InitializeArbiter", "CloakNearbyUnits", "PlaceMine", "RightClickAction",
	"SuicideUnit", "SuicideLocation", "SuicideHoldPosition", "CastRecall", "Teleport",
	"CastScannerSweep", "Scanner", "CastDefensiveMatrix", "CastPsionicStorm", "CastIrradiate",
	"CastPlague", "CastConsume", "CastEnsnare", "CastStasisField", "CastHallucination",
	"Hallucination2", "ResetCollision", "ResetHarvestCollision", "Patrol", "CTFCOPInit",
	"CTFCOP1", "CTFCOP2", "ComputerAI", "AtkMoveEP", "HarassMove", "AIPatrol", "GuardPost",
	"RescuePassive", "Neutral", "ComputerReturn", "InitializePsiProvider", "SelfDestructing",
	"Critter", "HiddenGun", "OpenDoor", "CloseDoor", "HideTrap", "RevealTrap", "EnableDoodad",
	"DisableDoodad", "WarpIn", "Medic", "MedicHeal", "HealMove", "MedicHoldPosition",
	"MedicHealToIdle", "CastRestoration", "CastDisruptionWeb", "CastMindControl",
	"DarkArchonMeld", "CastFeedback", "CastOpticalFlare", "CastMaelstrom", "JunkYardDog", "Fatal",
}

var orderByName = func() map[string]OrderID {
	m := make(map[string]OrderID, NumOrders)
	for i, n := range orderNames {
		m[n] = OrderID(i)
	}
	return m
}()

func (id OrderID) String() string {
	if id >= 0 && id < NumOrders {
		return orderNames[id]
	}
	if id == OrderNone {
		return "None"
	}
	return "Order(" + strconv.Itoa(int(id)) + ")"
}

// OrderByName looks up an order id by its legacy name.
func OrderByName(name string) (OrderID, bool) {
	id, ok := orderByName[name]
	return id, ok
}

// OrderType is one row of the order table.
type OrderType struct {
	ID               OrderID
	Name             string
	ValidForTurret   bool
	CanBeInterrupted bool
	// Highlight is the button highlight index, -1 for none. Queued orders
	// with a highlight are counted per unit.
	Highlight int
	// Unk7 is column 7 of the legacy table. A move target picked while the
	// next queued order has it set keeps the unit in motion.
	Unk7 bool
}
