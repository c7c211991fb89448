package data

import "fmt"

// UnitTypeID indexes the unit type table. The numbering is the legacy
// units.dat order.
type UnitTypeID int

const (
	TerranMarine                  UnitTypeID = 0
	TerranGhost                   UnitTypeID = 1
	TerranVulture                 UnitTypeID = 2
	TerranGoliath                 UnitTypeID = 3
	TerranGoliathTurret           UnitTypeID = 4
	TerranSiegeTankTankMode       UnitTypeID = 5
	TerranSiegeTankTankModeTurret UnitTypeID = 6
	TerranSCV                     UnitTypeID = 7
	TerranWraith                  UnitTypeID = 8
	TerranScienceVessel           UnitTypeID = 9
	TerranDropship                UnitTypeID = 11
	TerranBattlecruiser           UnitTypeID = 12
	TerranVultureSpiderMine       UnitTypeID = 13
	TerranNuclearMissile          UnitTypeID = 14
	TerranCivilian                UnitTypeID = 15
	HeroSarahKerrigan             UnitTypeID = 16
	HeroAlanSchezar               UnitTypeID = 17
	HeroAlanSchezarTurret         UnitTypeID = 18
	HeroJimRaynorVulture          UnitTypeID = 19
	HeroTomKazansky               UnitTypeID = 21
	TerranSiegeTankSiegeMode      UnitTypeID = 30
	TerranFirebat                 UnitTypeID = 32
	SpellScannerSweep             UnitTypeID = 33
	TerranMedic                   UnitTypeID = 34
	ZergLarva                     UnitTypeID = 35
	ZergEgg                       UnitTypeID = 36
	ZergZergling                  UnitTypeID = 37
	ZergHydralisk                 UnitTypeID = 38
	ZergUltralisk                 UnitTypeID = 39
	ZergDrone                     UnitTypeID = 41
	ZergOverlord                  UnitTypeID = 42
	ZergMutalisk                  UnitTypeID = 43
	ZergGuardian                  UnitTypeID = 44
	ZergQueen                     UnitTypeID = 45
	ZergDefiler                   UnitTypeID = 46
	HeroMatriarch                 UnitTypeID = 49
	HeroInfestedKerrigan          UnitTypeID = 51
	HeroHunterKiller              UnitTypeID = 53
	HeroDevouringOne              UnitTypeID = 54
	HeroYggdrasill                UnitTypeID = 57
	ZergCocoon                    UnitTypeID = 59
	ProtossCorsair                UnitTypeID = 60
	ZergDevourer                  UnitTypeID = 62
	ProtossDarkArchon             UnitTypeID = 63
	ProtossProbe                  UnitTypeID = 64
	ProtossZealot                 UnitTypeID = 65
	ProtossDragoon                UnitTypeID = 66
	ProtossHighTemplar            UnitTypeID = 67
	ProtossArchon                 UnitTypeID = 68
	ProtossShuttle                UnitTypeID = 69
	ProtossScout                  UnitTypeID = 70
	ProtossArbiter                UnitTypeID = 71
	ProtossCarrier                UnitTypeID = 72
	ProtossInterceptor            UnitTypeID = 73
	HeroFenixZealot               UnitTypeID = 77
	HeroFenixDragoon              UnitTypeID = 78
	HeroMojo                      UnitTypeID = 80
	HeroWarbringer                UnitTypeID = 81
	HeroGantrithor                UnitTypeID = 82
	ProtossReaver                 UnitTypeID = 83
	ProtossObserver               UnitTypeID = 84
	ProtossScarab                 UnitTypeID = 85
	HeroArtanis                   UnitTypeID = 88
	ZergLurkerEgg                 UnitTypeID = 97
	HeroSamirDuran                UnitTypeID = 99
	HeroAlexeiStukov              UnitTypeID = 100
	SpecialMapRevealer            UnitTypeID = 101
	ZergLurker                    UnitTypeID = 103
	HeroInfestedDuran             UnitTypeID = 104
	SpellDisruptionWeb            UnitTypeID = 105
	TerranCommandCenter           UnitTypeID = 106
	TerranSupplyDepot             UnitTypeID = 109
	TerranBarracks                UnitTypeID = 111
	TerranFactory                 UnitTypeID = 113
	TerranStarport                UnitTypeID = 114
	TerranMissileTurret           UnitTypeID = 124
	TerranBunker                  UnitTypeID = 125
	ZergInfestedCommandCenter     UnitTypeID = 130
	ZergHatchery                  UnitTypeID = 131
	ZergLair                      UnitTypeID = 132
	ZergHive                      UnitTypeID = 133
	ZergNydusCanal                UnitTypeID = 134
	ZergGreaterSpire              UnitTypeID = 137
	ZergSpire                     UnitTypeID = 141
	ZergCreepColony               UnitTypeID = 143
	ZergSporeColony               UnitTypeID = 144
	ZergSunkenColony              UnitTypeID = 146
	SpecialOvermindWithShell      UnitTypeID = 147
	SpecialOvermind               UnitTypeID = 148
	ProtossNexus                  UnitTypeID = 154
	ProtossGateway                UnitTypeID = 160
	ProtossRoboticsSupportBay     UnitTypeID = 171
	ProtossShieldBattery          UnitTypeID = 172
	SpecialFloorMissileTrap       UnitTypeID = 203
	SpecialRightUpperLevelDoor    UnitTypeID = 206
	SpecialFloorGunTrap           UnitTypeID = 209
	SpecialWallMissileTrap        UnitTypeID = 210
	SpecialWallFlameTrap          UnitTypeID = 211
	SpecialRightWallMissileTrap   UnitTypeID = 212
	SpecialRightWallFlameTrap     UnitTypeID = 213
	PowerupFlag                   UnitTypeID = 215
	PowerupKhaydarinCrystal       UnitTypeID = 219
	UnitNone                      UnitTypeID = 228
)

// Button sets that are not unit types.
const (
	ButtonSetBuildings UnitTypeID = 231
	ButtonSetFactories UnitTypeID = 232
)

// NumUnitTypes is the size of the unit type table; ids at or above it are
// group selectors, not types.
const NumUnitTypes = 228

// Valid reports whether id names an entry of the unit type table.
func (id UnitTypeID) Valid() bool { return id >= 0 && id < NumUnitTypes }

// UpgradeID indexes the per-player upgrade levels.
type UpgradeID int

const (
	UpgradeU238Shells          UpgradeID = 16
	UpgradeIonThrusters        UpgradeID = 17
	UpgradeTitanReactor        UpgradeID = 19
	UpgradeOcularImplants      UpgradeID = 20
	UpgradeMoebiusReactor      UpgradeID = 21
	UpgradeApolloReactor       UpgradeID = 22
	UpgradeColossusReactor     UpgradeID = 23
	UpgradeVentralSacs         UpgradeID = 24
	UpgradeAntennae            UpgradeID = 25
	UpgradePneumatizedCarapace UpgradeID = 26
	UpgradeMetabolicBoost      UpgradeID = 27
	UpgradeAdrenalGlands       UpgradeID = 28
	UpgradeMuscularAugments    UpgradeID = 29
	UpgradeGroovedSpines       UpgradeID = 30
	UpgradeGameteMeiosis       UpgradeID = 31
	UpgradeMetasynapticNode    UpgradeID = 32
	UpgradeSingularityCharge   UpgradeID = 33
	UpgradeLegEnhancements     UpgradeID = 34
	UpgradeGraviticDrive       UpgradeID = 37
	UpgradeSensorArray         UpgradeID = 38
	UpgradeGraviticBoosters    UpgradeID = 39
	UpgradeKhaydarinAmulet     UpgradeID = 40
	UpgradeApialSensors        UpgradeID = 41
	UpgradeGraviticThrusters   UpgradeID = 42
	UpgradeKhaydarinCore       UpgradeID = 44
	UpgradeArgusJewel          UpgradeID = 47
	UpgradeArgusTalisman       UpgradeID = 49
	UpgradeCaduceusReactor     UpgradeID = 51
	UpgradeAnabolicSynthesis   UpgradeID = 53
	UpgradeCharonBoosters      UpgradeID = 54
)

const NumUpgrades = 61

// GroupFlags classify a unit type by race and role.
type GroupFlags uint8

const (
	GroupZerg        GroupFlags = 0x01
	GroupTerran      GroupFlags = 0x02
	GroupProtoss     GroupFlags = 0x04
	GroupMen         GroupFlags = 0x08
	GroupBuilding    GroupFlags = 0x10
	GroupFactory     GroupFlags = 0x20
	GroupIndependent GroupFlags = 0x40
	GroupNeutral     GroupFlags = 0x80
)

var groupNames = map[string]GroupFlags{
	"zerg":        GroupZerg,
	"terran":      GroupTerran,
	"protoss":     GroupProtoss,
	"men":         GroupMen,
	"building":    GroupBuilding,
	"factory":     GroupFactory,
	"independent": GroupIndependent,
	"neutral":     GroupNeutral,
}

// UnitTypeFlags are the special ability flags of units.dat.
type UnitTypeFlags uint32

const (
	FlagBuilding         UnitTypeFlags = 0x1
	FlagAddon            UnitTypeFlags = 0x2
	FlagFlyer            UnitTypeFlags = 0x4
	FlagWorker           UnitTypeFlags = 0x8
	FlagTurret           UnitTypeFlags = 0x10
	FlagFlyingBuilding   UnitTypeFlags = 0x20
	FlagHero             UnitTypeFlags = 0x40
	FlagRegensHP         UnitTypeFlags = 0x80
	FlagAnimatedIdle     UnitTypeFlags = 0x100
	FlagCloakable        UnitTypeFlags = 0x200
	FlagTwoUnitsInOneEgg UnitTypeFlags = 0x400
	FlagSingleEntity     UnitTypeFlags = 0x800
	FlagResourceDepot    UnitTypeFlags = 0x1000
	FlagResource         UnitTypeFlags = 0x2000
	FlagRobotic          UnitTypeFlags = 0x4000
	FlagDetector         UnitTypeFlags = 0x8000
	FlagOrganic          UnitTypeFlags = 0x10000
	FlagCreep            UnitTypeFlags = 0x20000
	FlagUnusedGroundUnit UnitTypeFlags = 0x40000
	FlagRequiresPsi      UnitTypeFlags = 0x80000
	FlagBurrowable       UnitTypeFlags = 0x100000
	FlagHasEnergy        UnitTypeFlags = 0x200000
	FlagInitiallyCloaked UnitTypeFlags = 0x400000
	FlagPowerup          UnitTypeFlags = 0x800000
	FlagCanMove          UnitTypeFlags = 0x1000000
	FlagCanTurn          UnitTypeFlags = 0x2000000
	FlagInvincible       UnitTypeFlags = 0x4000000
	FlagMechanical       UnitTypeFlags = 0x8000000
	FlagProducesUnits    UnitTypeFlags = 0x10000000
	FlagSpreadsCreep     UnitTypeFlags = 0x20000000
)

var unitFlagNames = map[string]UnitTypeFlags{
	"building":             FlagBuilding,
	"addon":                FlagAddon,
	"flyer":                FlagFlyer,
	"worker":               FlagWorker,
	"turret":               FlagTurret,
	"flying_building":      FlagFlyingBuilding,
	"hero":                 FlagHero,
	"regens_hp":            FlagRegensHP,
	"animated_idle":        FlagAnimatedIdle,
	"cloakable":            FlagCloakable,
	"two_units_in_one_egg": FlagTwoUnitsInOneEgg,
	"single_entity":        FlagSingleEntity,
	"resource_depot":       FlagResourceDepot,
	"resource":             FlagResource,
	"robotic":              FlagRobotic,
	"detector":             FlagDetector,
	"organic":              FlagOrganic,
	"creep":                FlagCreep,
	"requires_psi":         FlagRequiresPsi,
	"burrowable":           FlagBurrowable,
	"has_energy":           FlagHasEnergy,
	"initially_cloaked":    FlagInitiallyCloaked,
	"powerup":              FlagPowerup,
	"can_move":             FlagCanMove,
	"can_turn":             FlagCanTurn,
	"invincible":           FlagInvincible,
	"mechanical":           FlagMechanical,
	"produces_units":       FlagProducesUnits,
	"spreads_creep":        FlagSpreadsCreep,
}

func parseFlags[T ~uint8 | ~uint32](names []string, table map[string]T, what string) (T, error) {
	var v T
	for _, n := range names {
		f, ok := table[n]
		if !ok {
			return 0, fmt.Errorf("unknown %s flag %q", what, n)
		}
		v |= f
	}
	return v, nil
}
