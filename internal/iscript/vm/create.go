package vm

import (
	"go.uber.org/zap"

	"github.com/drevilslab/openbw/internal/core/ecs"
	"github.com/drevilslab/openbw/internal/core/invariant"
	"github.com/drevilslab/openbw/internal/data"
	"github.com/drevilslab/openbw/internal/fixed"
	"github.com/drevilslab/openbw/internal/geom"
	"github.com/drevilslab/openbw/internal/iscript"
	"github.com/drevilslab/openbw/internal/world"
)

// CreateImage allocates an image of typ on sp and runs its Init animation.
// The first image of a sprite becomes its main image; later ones are placed
// relative to rel by order. It returns nil when the image pool is empty.
func (v *VM) CreateImage(ctx Context, typ *data.ImageType, sp *world.Sprite, offset geom.XY, order int, rel *world.Image) *world.Image {
	slot, err := v.st.Images.Allocate()
	if err != nil {
		v.log.Debug("image pool exhausted", zap.Int("image", typ.ID))
		return nil
	}
	if sp.Images.Empty() {
		sp.MainImage = slot
		sp.Images.PushFront(slot)
	} else {
		if rel == nil {
			rel = v.st.MainImage(sp)
		}
		switch order {
		case world.ImageOrderTop:
			sp.Images.PushFront(slot)
		case world.ImageOrderBottom:
			sp.Images.PushBack(slot)
		case world.ImageOrderAbove:
			sp.Images.InsertBefore(rel.Index, slot)
		default:
			sp.Images.InsertAfter(rel.Index, slot)
		}
	}

	img := v.st.Images.Get(slot)
	*img = world.Image{
		Index:  slot,
		Type:   typ,
		Sprite: sp.Index,
		Offset: offset,
	}
	if typ.HasDirectionalFrames {
		img.Flags |= world.ImageDirectionalFrames
	}
	if typ.IsClickable {
		img.Flags |= world.ImageClickable
	}
	if typ.PaletteType == world.PalettePlayerColor {
		img.ColoringData = sp.Owner
	}
	world.SetImagePaletteType(img, typ.PaletteType)
	if typ.HasIscriptAnims {
		img.Flags |= world.ImageIscriptAnimations
	} else {
		// masks rather than clears the bit; the other flags go with it
		img.Flags &= world.ImageIscriptAnimations
	}

	script, ok := v.st.Program.Script(typ.IscriptID)
	if !ok {
		invariant.Fatalf("image %d: script %d does not exist", typ.ID, typ.IscriptID)
	}
	img.Iscript.Script = script
	if !v.RunAnim(ctx, img, iscript.AnimInit) {
		invariant.Fatalf("image %d: Init animation ended immediately", typ.ID)
	}
	return img
}

// DestroyImage unlinks img from its sprite and returns it to the pool. A
// sprite that loses its main image falls back to its front image.
func (v *VM) DestroyImage(img *world.Image) {
	sp := v.st.SpriteOfImage(img)
	sp.Images.Remove(img.Index)
	if sp.MainImage == img.Index {
		sp.MainImage = sp.Images.Front()
	}
	*img = world.Image{Index: img.Index}
	v.st.Images.Release(img.Index)
}

// ReplaceSpriteImages destroys every image of sp and gives it a single
// image of typ facing heading.
func (v *VM) ReplaceSpriteImages(ctx Context, sp *world.Sprite, typ *data.ImageType, heading fixed.Direction) {
	var old []*world.Image
	v.st.EachImage(sp, func(img *world.Image) { old = append(old, img) })
	for _, img := range old {
		v.DestroyImage(img)
	}
	v.CreateImage(ctx, typ, sp, geom.XY{}, world.ImageOrderAbove, nil)
	v.st.EachImage(sp, func(img *world.Image) { v.st.SetImageHeading(img, heading) })
}

// CreateSprite allocates a sprite of typ at pos together with its main
// image. It returns nil when pos is off the map or a pool is exhausted.
func (v *VM) CreateSprite(ctx Context, typ *data.SpriteType, pos geom.XY, owner int) *world.Sprite {
	slot, err := v.st.Sprites.Allocate()
	if err != nil {
		v.log.Debug("sprite pool exhausted", zap.Int("sprite", typ.ID))
		return nil
	}
	if pos.X < 0 || pos.Y < 0 || pos.X >= v.st.Map.Width() || pos.Y >= v.st.Map.Height() {
		v.st.Sprites.Release(slot)
		return nil
	}
	sp := v.st.Sprites.Get(slot)
	*sp = world.Sprite{
		Index:           slot,
		Type:            typ,
		Owner:           owner,
		Position:        pos,
		VisibilityFlags: ^uint32(0),
		ElevationLevel:  4,
		Images:          ecs.NewList(v.st.Images.Link),
	}
	if !typ.Visible {
		sp.Flags |= world.SpriteHidden
		v.st.SetSpriteVisibility(sp, 0)
	}
	if v.CreateImage(ctx, typ.Image, sp, geom.XY{}, world.ImageOrderAbove, nil) == nil {
		v.st.Sprites.Release(slot)
		return nil
	}
	// both take the width of the main graphic
	sp.Width = min(typ.Image.Width, 0xff)
	sp.Height = min(typ.Image.Width, 0xff)
	v.st.AddSpriteToTileLine(sp)
	return sp
}
