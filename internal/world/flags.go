package world

// StatusFlags are the per-unit status bits.
type StatusFlags uint32

const (
	StatusCompleted             StatusFlags = 0x1
	StatusGroundedBuilding      StatusFlags = 0x2
	StatusFlying                StatusFlags = 0x4
	StatusDisabled              StatusFlags = 0x8
	StatusBurrowed              StatusFlags = 0x10
	StatusInBuilding            StatusFlags = 0x20
	StatusInTransport           StatusFlags = 0x40
	StatusUnk80                 StatusFlags = 0x80
	StatusRequiresDetector      StatusFlags = 0x100
	StatusCloaked               StatusFlags = 0x200
	StatusFrozen                StatusFlags = 0x400
	StatusPassivelyCloaked      StatusFlags = 0x800
	StatusOrderNotInterruptible StatusFlags = 0x1000
	StatusIscriptNoBrk          StatusFlags = 0x2000
	StatusCannotAttack          StatusFlags = 0x8000
	StatusCanTurn               StatusFlags = 0x10000
	StatusCanMove               StatusFlags = 0x20000
	StatusCollision             StatusFlags = 0x40000
	StatusImmovable             StatusFlags = 0x80000
	StatusGroundUnit            StatusFlags = 0x100000
	StatusNoCollide             StatusFlags = 0x200000
	StatusGathering             StatusFlags = 0x800000
	StatusTurretWalking         StatusFlags = 0x1000000
	StatusTurretFollows         StatusFlags = 0x2000000
	StatusInvincible            StatusFlags = 0x4000000
	StatusHoldingPosition       StatusFlags = 0x8000000
	StatusSpeedUpgrade          StatusFlags = 0x10000000
	StatusCooldownUpgrade       StatusFlags = 0x20000000
	StatusHallucination         StatusFlags = 0x40000000
	StatusLifetimeExpires       StatusFlags = 0x80000000
)

// SpriteFlags are the per-sprite bits.
type SpriteFlags uint8

const (
	SpriteDrawSelection SpriteFlags = 0x1
	SpriteSelected      SpriteFlags = 0x8
	SpriteTurret        SpriteFlags = 0x10
	SpriteHidden        SpriteFlags = 0x20
	SpriteBurrowed      SpriteFlags = 0x40
	SpriteIscriptNoBrk  SpriteFlags = 0x80
)

// ImageFlags are the per-image bits.
type ImageFlags uint16

const (
	ImageRedraw            ImageFlags = 0x1
	ImageFlipped           ImageFlags = 0x2
	ImageYFrozen           ImageFlags = 0x4
	ImageDirectionalFrames ImageFlags = 0x8
	ImageIscriptAnimations ImageFlags = 0x10
	ImageClickable         ImageFlags = 0x20
	ImageHidden            ImageFlags = 0x40
	ImageUsesSpecialOffset ImageFlags = 0x80
)

// Movement flags of a flingy.
const (
	MoveFlagTurning    uint8 = 0x1
	MoveFlagMoving     uint8 = 0x2
	MoveFlagBraking    uint8 = 0x4
	MoveFlagAttacking  uint8 = 0x8
	MoveFlagKeepMoving uint8 = 0x20
)

// Image placement relative to the image that created it.
const (
	ImageOrderTop = iota
	ImageOrderBottom
	ImageOrderAbove
	ImageOrderBelow
)

// Palette types with special handling.
const (
	PaletteHallucination = 17
	PalettePlayerColor   = 14
)

// Pathing flags. Bit 0 marks a unit that takes part in ground collision.
const (
	PathingGround = 0x1
	PathingFlag2  = 0x2
	PathingFlag4  = 0x4
)
