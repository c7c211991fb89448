package vm

import (
	"go.uber.org/zap"

	"github.com/drevilslab/openbw/internal/core/invariant"
	"github.com/drevilslab/openbw/internal/iscript"
	"github.com/drevilslab/openbw/internal/world"
)

// RunAnim switches img to anim and executes it up to the first wait. Images
// without animation entries only take Init and Death; Walking and IsWorking
// do not restart themselves.
func (v *VM) RunAnim(ctx Context, img *world.Image, anim iscript.Anim) bool {
	old := img.Iscript.Animation
	if anim == iscript.AnimDeath && old == iscript.AnimDeath {
		return true
	}
	if img.Flags&world.ImageIscriptAnimations == 0 && anim != iscript.AnimInit && anim != iscript.AnimDeath {
		return true
	}
	if (anim == iscript.AnimWalking || anim == iscript.AnimIsWorking) && anim == old {
		return true
	}
	// repeat attacks only follow their own init
	if anim == iscript.AnimGndAttkRpt && old != iscript.AnimGndAttkRpt && old != iscript.AnimGndAttkInit {
		anim = iscript.AnimGndAttkInit
	}
	if anim == iscript.AnimAirAttkRpt && old != iscript.AnimAirAttkRpt && old != iscript.AnimAirAttkInit {
		anim = iscript.AnimAirAttkInit
	}

	script := img.Iscript.Script
	if script == nil {
		invariant.Fatalf("image %d: animation %s started without a script", img.Index, anim)
	}
	if int(anim) >= len(script.Anims) {
		invariant.Fatalf("script %d does not have animation %s", script.ID, anim)
	}
	st := &img.Iscript
	st.Animation = anim
	st.PC = script.Anims[anim]
	st.ReturnAddress = 0
	st.Wait = 0
	v.log.Debug("run anim", zap.Int32("image", img.Index), zap.Stringer("anim", anim), zap.Int("pc", st.PC))
	return v.Execute(ctx, img, st, false, nil)
}

// ExecuteSprite advances every image of sp by one frame. A sprite left
// without images is freed and ExecuteSprite reports false.
func (v *VM) ExecuteSprite(ctx Context, sp *world.Sprite) bool {
	v.st.EachImage(sp, func(img *world.Image) {
		v.Execute(ctx, img, &img.Iscript, false, nil)
	})
	if !sp.Images.Empty() {
		return true
	}
	v.st.RemoveSpriteFromTileLine(sp)
	*sp = world.Sprite{Index: sp.Index}
	v.st.Sprites.Release(sp.Index)
	return false
}

// SpriteRunAnim starts anim on every image of sp.
func (v *VM) SpriteRunAnim(ctx Context, sp *world.Sprite, anim iscript.Anim) {
	v.st.EachImage(sp, func(img *world.Image) {
		v.RunAnim(ctx, img, anim)
	})
}
