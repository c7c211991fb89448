// Package vm interprets iscript programs against the images of a game.
package vm

import (
	"go.uber.org/zap"

	"github.com/drevilslab/openbw/internal/core/invariant"
	"github.com/drevilslab/openbw/internal/fixed"
	"github.com/drevilslab/openbw/internal/geom"
	"github.com/drevilslab/openbw/internal/iscript"
	"github.com/drevilslab/openbw/internal/rng"
	"github.com/drevilslab/openbw/internal/world"
)

// Context is the unit a script runs on behalf of. Both fields may be nil
// for images that belong to no unit.
type Context struct {
	Unit      *world.Unit
	OrderUnit *world.Unit
}

// VM executes scripts. It holds no state of its own between calls.
type VM struct {
	st  *world.State
	log *zap.Logger
}

func New(st *world.State) *VM {
	return &VM{st: st, log: st.Log.Named("iscript")}
}

// unimplemented opcodes need systems the core does not simulate. They are
// skipped in probe mode and fatal otherwise.
var unimplemented = map[iscript.Opcode]bool{
	iscript.OpImgOlUseLo:        true,
	iscript.OpImgUlUseLo:        true,
	iscript.OpSprOl:             true,
	iscript.OpHighSprOl:         true,
	iscript.OpLowSprUl:          true,
	iscript.OpUflUnstable:       true,
	iscript.OpSprUlUseLo:        true,
	iscript.OpSprUl:             true,
	iscript.OpSprOlUseLo:        true,
	iscript.OpPlaySnd:           true,
	iscript.OpPlaySndRand:       true,
	iscript.OpPlaySndBtwn:       true,
	iscript.OpDoMissileDmg:      true,
	iscript.OpAttackMelee:       true,
	iscript.OpSetSpawnFrame:     true,
	iscript.OpSigOrder:          true,
	iscript.OpAttackWith:        true,
	iscript.OpAttack:            true,
	iscript.OpCastSpell:         true,
	iscript.OpUseWeapon:         true,
	iscript.OpGotoRepeatAttk:    true,
	iscript.OpEngFrame:          true,
	iscript.OpEngSet:            true,
	iscript.OpIgnoreRest:        true,
	iscript.OpAttkShiftProj:     true,
	iscript.OpSetFlSpeed:        true,
	iscript.OpCreateGasOverlays: true,
	iscript.OpPwrupCondJmp:      true,
	iscript.OpTrgtRangeCondJmp:  true,
	iscript.OpTrgtArcCondJmp:    true,
	iscript.OpCurDirectCondJmp:  true,
	iscript.OpImgUlNextID:       true,
	iscript.OpLiftoffCondJmp:    true,
	iscript.OpWarpOverlay:       true,
	iscript.OpOrderDone:         true,
	iscript.OpGrdSprOl:          true,
	iscript.OpDoGrdDamage:       true,
}

func (v *VM) unit(ctx Context, op iscript.Opcode) *world.Unit {
	if ctx.Unit == nil {
		invariant.Fatalf("iscript %s without a unit", op)
	}
	return ctx.Unit
}

// Execute runs the script of img from st until it waits or ends. In probe
// mode nothing visible changes; only the state, the RNG and distance are
// touched. It reports false once the image has ended.
func (v *VM) Execute(ctx Context, img *world.Image, st *iscript.State, probe bool, distance *fixed.UFP8) bool {
	if st.Wait > 0 {
		st.Wait--
		return true
	}
	prog := v.st.Program
	pc := st.PC
	for {
		in, err := prog.At(pc)
		if err != nil {
			invariant.Fatalf("iscript image %d: %v", img.Index, err)
		}
		pc = in.Next
		a := in.Args

		if unimplemented[in.Op] {
			if !probe {
				invariant.NotImplemented("iscript " + in.Op.String())
			}
			continue
		}

		switch in.Op {
		case iscript.OpPlayFram:
			if !probe {
				playFrame(img, a[0])
			}
		case iscript.OpPlayFramTile:
			// single tileset, index 0
			if !probe && a[0] < img.Type.Frames {
				playFrame(img, a[0])
			}
		case iscript.OpSetHorPos:
			if !probe && img.Offset.X != a[0] {
				img.Offset.X = a[0]
				img.Flags |= world.ImageRedraw
			}
		case iscript.OpSetVertPos:
			if probe {
				break
			}
			if u := ctx.Unit; u == nil || u.StatusFlags&(world.StatusCompleted|world.StatusGroundedBuilding) == 0 {
				if img.Offset.Y != a[0] {
					img.Offset.Y = a[0]
					img.Flags |= world.ImageRedraw
				}
			}
		case iscript.OpSetPos:
			if !probe {
				world.SetImageOffset(img, geom.XY{X: a[0], Y: a[1]})
			}
		case iscript.OpWait:
			st.Wait = a[0] - 1
			st.PC = pc
			return true
		case iscript.OpWaitRand:
			if probe {
				break
			}
			st.Wait = a[0] + (v.st.RNG.Rand(rng.SourceWaitRand)&0xff)%(a[1]-a[0]+1) - 1
			st.PC = pc
			return true
		case iscript.OpGoto:
			pc = a[0]
		case iscript.OpImgOl, iscript.OpImgUl:
			if probe {
				break
			}
			order := world.ImageOrderAbove
			if in.Op == iscript.OpImgUl {
				order = world.ImageOrderBelow
			}
			v.addImage(ctx, img, a[0], img.Offset.Add(geom.XY{X: a[1], Y: a[2]}), order)
		case iscript.OpImgOlOrig, iscript.OpSwitchUl:
			if probe {
				break
			}
			order := world.ImageOrderAbove
			if in.Op == iscript.OpSwitchUl {
				order = world.ImageOrderBelow
			}
			if n := v.addImage(ctx, img, a[0], geom.XY{}, order); n != nil && n.Flags&world.ImageUsesSpecialOffset == 0 {
				n.Flags |= world.ImageUsesSpecialOffset
				// the running image moves, not the overlay
				v.st.UpdateImageSpecialOffset(img)
			}
		case iscript.OpEnd:
			if !probe {
				v.DestroyImage(img)
			}
			return false
		case iscript.OpSetFlipState:
			if probe {
				break
			}
			flipped := a[0] != 0
			if (img.Flags&world.ImageFlipped != 0) != flipped {
				img.Flags ^= world.ImageFlipped
				img.Flags |= world.ImageRedraw
			}
		case iscript.OpFollowMainGraphic:
			if !probe {
				v.followMainGraphic(img)
			}
		case iscript.OpRandCondJmp:
			if v.st.RNG.Rand(rng.SourceRandCondJmp)&0xff <= a[0] {
				pc = a[1]
			}
		case iscript.OpTurnCCWise:
			if !probe {
				u := v.unit(ctx, in.Op)
				v.st.SetUnitHeading(u, u.Heading.Sub(fixed.DirRaw(int64(8*a[0]))))
			}
		case iscript.OpTurnCWise:
			if !probe {
				u := v.unit(ctx, in.Op)
				v.st.SetUnitHeading(u, u.Heading.Add(fixed.DirRaw(int64(8*a[0]))))
			}
		case iscript.OpTurn1CWise:
			if !probe {
				u := v.unit(ctx, in.Op)
				if u.OrderTarget.Unit == 0 {
					v.st.SetUnitHeading(u, u.Heading.Add(fixed.DirRaw(8)))
				}
			}
		case iscript.OpTurnRand:
			if probe {
				break
			}
			u := v.unit(ctx, in.Op)
			turn := fixed.DirRaw(int64(8 * a[0]))
			if v.st.RNG.Rand(rng.SourceTurnRand)%4 == 1 {
				v.st.SetUnitHeading(u, u.Heading.Sub(turn))
			} else {
				v.st.SetUnitHeading(u, u.Heading.Add(turn))
			}
		case iscript.OpMove:
			u := v.unit(ctx, in.Op)
			speed := world.ModifiedUnitSpeed(u, fixed.UFP8Int(int64(a[0])))
			if distance != nil {
				*distance = speed
			}
			if !probe {
				u.NextSpeed = fixed.UFP8ToFP8(speed)
			}
		case iscript.OpNoBrkCodeStart:
			if !probe && ctx.Unit != nil {
				ctx.Unit.SetStatus(world.StatusIscriptNoBrk, true)
				v.st.SpriteOf(ctx.Unit).Flags |= world.SpriteIscriptNoBrk
			}
		case iscript.OpNoBrkCodeEnd:
			if !probe && ctx.Unit != nil {
				ctx.Unit.SetStatus(world.StatusIscriptNoBrk, false)
				v.st.SpriteOf(ctx.Unit).Flags &^= world.SpriteIscriptNoBrk
			}
		case iscript.OpTmpRmGraphicStart:
			if !probe {
				world.HideImage(img)
			}
		case iscript.OpTmpRmGraphicEnd:
			if !probe {
				world.ShowImage(img)
			}
		case iscript.OpSetFlDirect:
			if !probe {
				v.st.SetUnitHeading(v.unit(ctx, in.Op), fixed.DirRaw(int64(a[0]*8)))
			}
		case iscript.OpCall:
			st.ReturnAddress = pc
			pc = a[0]
		case iscript.OpReturn:
			pc = st.ReturnAddress
		default:
			invariant.Fatalf("iscript: unhandled opcode %s at pc %d", in.Op, in.PC)
		}
	}
}

func playFrame(img *world.Image, frame int) {
	if img.FrameIndexBase == frame {
		return
	}
	img.FrameIndexBase = frame
	world.UpdateImageFrameIndex(img)
}

// followMainGraphic copies the frame of the main image when both images
// currently show the same frame.
func (v *VM) followMainGraphic(img *world.Image) {
	main := v.st.MainImage(v.st.SpriteOfImage(img))
	if main == nil {
		return
	}
	if main.FrameIndex != img.FrameIndex || main.Flags&world.ImageFlipped != img.Flags&world.ImageFlipped {
		return
	}
	img.FrameIndexBase = main.FrameIndexBase
	img.FrameIndexOffset = main.FrameIndexOffset
	img.Flags = img.Flags&^world.ImageFlipped | main.Flags&world.ImageFlipped
}

// addImage creates an overlay of the script image and lines it up with it.
func (v *VM) addImage(ctx Context, script *world.Image, id int, offset geom.XY, order int) *world.Image {
	typ := v.st.Tables.Image(id)
	sp := v.st.SpriteOfImage(script)
	img := v.CreateImage(ctx, typ, sp, offset, order, script)
	if img == nil {
		return nil
	}
	u := ctx.Unit
	if img.PaletteType == 0 && u != nil && u.Hallucination() {
		if v.st.IsReplay || u.Owner == v.st.LocalPlayer {
			world.SetImagePaletteType(img, world.PaletteHallucination)
			img.ColoringData = 0
		}
	}
	if img.Flags&world.ImageDirectionalFrames != 0 {
		dir := script.FrameIndexOffset
		if script.Flags&world.ImageFlipped != 0 {
			dir = 32 - dir
		}
		v.st.SetImageFrameIndexOffset(img, dir)
	}
	world.UpdateImageFrameIndex(img)
	if u != nil && (u.GroundedBuilding() || u.Completed()) {
		if !typ.DrawIfCloaked {
			world.HideImage(img)
		} else if img.PaletteType == 0 {
			world.CopyImagePaletteType(img, script)
		}
	}
	return img
}
