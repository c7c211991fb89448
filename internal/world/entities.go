package world

import (
	"github.com/drevilslab/openbw/internal/core/ecs"
	"github.com/drevilslab/openbw/internal/data"
	"github.com/drevilslab/openbw/internal/fixed"
	"github.com/drevilslab/openbw/internal/geom"
	"github.com/drevilslab/openbw/internal/iscript"
)

// MovementState is the state of the per-unit movement machine.
type MovementState uint8

const (
	MovementInit MovementState = iota
	MovementInitSeq
	MovementLump
	MovementTurret
	MovementBunker
	MovementBldgTurret
	MovementHidden
	MovementFlyer
	MovementFakeFlyer
	MovementAtRest
	MovementDormant
	MovementAtMoveTarget
	MovementCheckIllegal
	MovementMoveToLegal
	MovementLumpWannabe
	MovementFailedPath
	MovementRetryPath
	MovementStartPath
	MovementUIOrderDelay
	MovementTurnAndStart
	MovementFaceTarget
	MovementNewMoveTarget
	MovementAnotherPath
	MovementRepath
	MovementRepathMovers
	MovementFollowPath
	MovementScoutPath
	MovementScoutFree
	MovementFixCollision
	MovementWaitFree
	MovementGetFree
	MovementSlidePrep
	MovementSlideFree
	MovementForceMoveFree
	MovementFixTerrain
	MovementTerrainSlide

	NumMovementStates
)

var movementStateNames = [NumMovementStates]string{
	"Init", "InitSeq", "Lump", "Turret", "Bunker", "BldgTurret", "Hidden", "Flyer", "FakeFlyer",
	"AtRest", "Dormant", "AtMoveTarget", "CheckIllegal", "MoveToLegal", "LumpWannabe",
	"FailedPath", "RetryPath", "StartPath", "UIOrderDelay", "TurnAndStart", "FaceTarget",
	"NewMoveTarget", "AnotherPath", "Repath", "RepathMovers", "FollowPath", "ScoutPath",
	"ScoutFree", "FixCollision", "WaitFree", "GetFree", "SlidePrep", "SlideFree",
	"ForceMoveFree", "FixTerrain", "TerrainSlide",
}

func (s MovementState) String() string {
	if s < NumMovementStates {
		return movementStateNames[s]
	}
	return "MovementState(?)"
}

// Target is a position with an optional unit.
type Target struct {
	Pos  geom.XY
	Unit ecs.Handle
}

// Flingy is the moving part of a unit: position, heading and speed.
type Flingy struct {
	FlingyType    *data.FlingyType
	Sprite        int32
	MovementFlags uint8

	CurrentSpeed fixed.UFP8
	TopSpeed     fixed.UFP8
	Acceleration fixed.UFP8
	TurnRate     fixed.UFP8
	MovementType int

	Position geom.XY
	Halt     geom.XYFP8

	MoveTarget           Target
	NextMovementWaypoint geom.XY
	NextTargetWaypoint   geom.XY

	Heading                  fixed.Direction
	VelocityDirection        fixed.Direction
	CurrentVelocityDirection fixed.Direction
	DesiredVelocityDirection fixed.Direction

	Speed     fixed.FP8
	NextSpeed fixed.FP8
	Velocity  geom.XYFP8
}

// MovementFlag reports whether any of the bits in f are set.
func (f *Flingy) MovementFlag(bits uint8) bool { return f.MovementFlags&bits != 0 }

func (f *Flingy) SetMovementFlag(bits uint8, on bool) {
	if on {
		f.MovementFlags |= bits
	} else {
		f.MovementFlags &^= bits
	}
}

// Unit is a simulated unit. Index is its pool slot.
type Unit struct {
	Flingy

	Index      int32
	Type       *data.UnitType
	Owner      int
	Subunit    ecs.Handle
	PlayerLink ecs.Link

	OrderType        *data.OrderType
	OrderState       int
	OrderUnitType    *data.UnitType
	OrderTarget      Target
	MainOrderTimer   int
	OrderQueue       ecs.List
	OrderQueueCount  int
	OrderQueueTimer  int
	RecentOrderTimer int
	UserActionFlags  int
	AutoTargetUnit   ecs.Handle

	SecondaryOrderType  *data.OrderType
	SecondaryOrderState int
	SecondaryOrderTimer int

	GroundWeaponCooldown int
	AirWeaponCooldown    int
	SpellCooldown        int

	HP                     fixed.FP8
	Shields                fixed.FP8
	Energy                 fixed.FP8
	PreviousHP             int
	HPConstructionRate     fixed.FP8
	ShieldConstructionRate fixed.FP8
	RemainingBuildTime     int
	BuildQueue             [5]*data.UnitType
	BuildQueueSlot         int

	StatusFlags              StatusFlags
	PathingFlags             int
	MovementState            MovementState
	PathingCollisionInterval int
	ContourBounds            geom.Rect
	CycleCounter             int
	LastAttackingPlayer      int
	CurrentButtonSet         data.UnitTypeID
	Wireframe                int
	VisibilityFlags          uint32

	StasisTimer         int
	StimTimer           int
	EnsnareTimer        int
	LockdownTimer       int
	IrradiateTimer      int
	MaelstromTimer      int
	DefenseMatrixTimer  int
	DefenseMatrixDamage fixed.FP8
	PlagueTimer         int
	StormTimer          int
	RemoveTimer         int
	AcidSporeCount      int
	AcidSporeTime       [9]int

	ParasiteFlags int
	IsBlind       bool
	IsBeingHealed bool
	IsCloaked     bool

	AirStrength    int
	GroundStrength int

	// LoadedUnits has one entry per transport slot.
	LoadedUnits []ecs.Handle
	// Powerup is the powerup a worker carries.
	Powerup ecs.Handle
}

func (u *Unit) Status(f StatusFlags) bool { return u.StatusFlags&f != 0 }

func (u *Unit) SetStatus(f StatusFlags, on bool) {
	if on {
		u.StatusFlags |= f
	} else {
		u.StatusFlags &^= f
	}
}

func (u *Unit) Completed() bool        { return u.Status(StatusCompleted) }
func (u *Unit) GroundedBuilding() bool { return u.Status(StatusGroundedBuilding) }
func (u *Unit) Flying() bool           { return u.Status(StatusFlying) }
func (u *Unit) Hallucination() bool    { return u.Status(StatusHallucination) }
func (u *Unit) CanMove() bool          { return u.Status(StatusCanMove) }
func (u *Unit) CanTurn() bool          { return u.Status(StatusCanTurn) }

// IsTurret reports whether the unit's type is a turret.
func (u *Unit) IsTurret() bool { return u.Type.HasFlag(data.FlagTurret) }

// Sprite is the positioned anchor of a stack of images.
type Sprite struct {
	Index           int32
	Type            *data.SpriteType
	Owner           int
	Flags           SpriteFlags
	Position        geom.XY
	VisibilityFlags uint32
	ElevationLevel  int
	SelectionTimer  int
	Width           int
	Height          int
	MainImage       int32
	// Images run front (drawn on top) to back.
	Images ecs.List
}

func (s *Sprite) Hidden() bool { return s.Flags&SpriteHidden != 0 }

// Image is one layer of a sprite, animated by its own script state.
type Image struct {
	Index            int32
	Type             *data.ImageType
	Sprite           int32
	Flags            ImageFlags
	PaletteType      int
	ColoringData     int
	FrameIndexBase   int
	FrameIndexOffset int
	FrameIndex       int
	Offset           geom.XY
	Iscript          iscript.State
}

// Order is a queued order of a unit.
type Order struct {
	Index    int32
	Type     *data.OrderType
	Target   Target
	UnitType *data.UnitType
}
