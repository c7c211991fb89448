package data

import (
	"github.com/drevilslab/openbw/internal/fixed"
	"github.com/drevilslab/openbw/internal/geom"
)

// WeaponType holds the parts of a weapon the tick core reads.
type WeaponType struct {
	ID          int
	Name        string
	MinRange    int
	MaxRange    int
	AttackAngle fixed.Direction
}

// FlingyType is the movement profile shared by every unit of a type.
type FlingyType struct {
	ID           int
	Sprite       *SpriteType
	TopSpeed     fixed.FP8
	Acceleration fixed.FP8
	HaltDistance fixed.FP8
	TurnRate     fixed.UFP8
	// MovementType 0 and 1 use the table speeds; 2 derives them from the
	// Walking animation of the iscript.
	MovementType int
}

type SpriteType struct {
	ID      int
	Image   *ImageType
	Visible bool
}

// ImageType describes one graphic and the iscript that animates it.
type ImageType struct {
	ID                   int
	Name                 string
	IscriptID            int
	PaletteType          int
	HasDirectionalFrames bool
	IsClickable          bool
	HasIscriptAnims      bool
	DrawIfCloaked        bool
	// Frames is the frame count of the graphic.
	Frames int
	Width  int
	Height int
	// LoOffsets are the attachment points, indexed [lo][frame][offset].
	LoOffsets map[int][][]geom.XY
}

// UnitType is one row of the unit table with every cross reference resolved.
type UnitType struct {
	ID        UnitTypeID
	Name      string
	NameIndex int
	Flingy    *FlingyType
	Turret    *UnitType

	Hitpoints       fixed.FP8
	ShieldPoints    int
	HasShield       bool
	ElevationLevel  int
	Flags           UnitTypeFlags
	Groups          GroupFlags
	ConstructionImg *ImageType

	// Dimensions are the left, up, right and down extents from the centre.
	Dimensions             geom.Rect
	PlacementSize          geom.XY
	BuildTime              int
	SightRange             int
	TargetAcquisitionRange int
	SpaceRequired          int
	SpaceProvided          int
	SupplyRequired         int
	SupplyProvided         int
	BuildScore             int
	UnitDirection          int

	GroundWeapon *WeaponType
	AirWeapon    *WeaponType

	HumanAIIdle    *OrderType
	ComputerAIIdle *OrderType
	ReturnToIdle   *OrderType
	AttackUnit     *OrderType
	AttackMove     *OrderType
}

func (t *UnitType) HasFlag(f UnitTypeFlags) bool { return t.Flags&f != 0 }
func (t *UnitType) InGroup(g GroupFlags) bool    { return t.Groups&g != 0 }

// Is compares against a table id.
func (t *UnitType) Is(id UnitTypeID) bool { return t != nil && t.ID == id }
