package world

import (
	"github.com/drevilslab/openbw/internal/core/invariant"
	"github.com/drevilslab/openbw/internal/fixed"
	"github.com/drevilslab/openbw/internal/geom"
)

func (s *State) tileLineIndex(y int) int {
	r := y / 32
	if r < 0 {
		return 0
	}
	if r >= s.Map.TileHeight {
		return s.Map.TileHeight - 1
	}
	return r
}

// AddSpriteToTileLine files sp under the tile row of its position.
func (s *State) AddSpriteToTileLine(sp *Sprite) {
	s.TileLines[s.tileLineIndex(sp.Position.Y)].Insert(sp.Index)
}

func (s *State) RemoveSpriteFromTileLine(sp *Sprite) {
	s.TileLines[s.tileLineIndex(sp.Position.Y)].Remove(sp.Index)
}

// MoveSprite updates the position of sp and refiles it when it crosses a
// tile row.
func (s *State) MoveSprite(sp *Sprite, pos geom.XY) {
	if sp.Position == pos {
		return
	}
	from, to := s.tileLineIndex(sp.Position.Y), s.tileLineIndex(pos.Y)
	sp.Position = pos
	if from != to {
		s.TileLines[from].Remove(sp.Index)
		s.TileLines[to].Insert(sp.Index)
	}
}

// EachImage calls fn for the images of sp front to back.
func (s *State) EachImage(sp *Sprite, fn func(img *Image)) {
	for slot := sp.Images.Front(); slot != 0; {
		next := sp.Images.Next(slot)
		fn(s.Images.Get(slot))
		slot = next
	}
}

// MainImage returns the main image of sp.
func (s *State) MainImage(sp *Sprite) *Image {
	return s.Images.Get(sp.MainImage)
}

// SpriteOfImage returns the sprite img belongs to.
func (s *State) SpriteOfImage(img *Image) *Sprite {
	return s.Sprites.Get(img.Sprite)
}

// SetSpriteVisibility stores the per-player visibility of sp. The images
// redraw when the local player's bit changes.
func (s *State) SetSpriteVisibility(sp *Sprite, flags uint32) {
	if sp.VisibilityFlags&s.LocalMask != flags&s.LocalMask {
		s.RedrawSpriteImages(sp)
	}
	sp.VisibilityFlags = flags
}

func (s *State) RedrawSpriteImages(sp *Sprite) {
	s.EachImage(sp, func(img *Image) { img.Flags |= ImageRedraw })
}

// RedrawSelectionImages marks the images drawn with the selection palette.
func (s *State) RedrawSelectionImages(sp *Sprite) {
	s.EachImage(sp, func(img *Image) {
		if img.PaletteType == 0xb {
			img.Flags |= ImageRedraw
		}
	})
}

func SetImageOffset(img *Image, off geom.XY) {
	if img.Offset == off {
		return
	}
	img.Offset = off
	img.Flags |= ImageRedraw
}

// SetImagePaletteType switches the draw function of img. Hallucinations
// get their fixed coloring.
func SetImagePaletteType(img *Image, palette int) {
	img.PaletteType = palette
	if palette == PaletteHallucination {
		img.ColoringData = 48 | 2<<8
	}
	img.Flags |= ImageRedraw
}

// CopyImagePaletteType takes over the palette of from if it is one of the
// shadow or effect palettes.
func CopyImagePaletteType(img, from *Image) {
	if from.PaletteType < 2 || from.PaletteType > 7 {
		return
	}
	SetImagePaletteType(img, from.PaletteType)
	img.ColoringData = from.ColoringData
}

func HideImage(img *Image) {
	img.Flags |= ImageHidden
}

func ShowImage(img *Image) {
	if img.Flags&ImageHidden == 0 {
		return
	}
	img.Flags &^= ImageHidden
	img.Flags |= ImageRedraw
}

func UpdateImageFrameIndex(img *Image) {
	idx := img.FrameIndexBase + img.FrameIndexOffset
	if img.FrameIndex != idx {
		img.FrameIndex = idx
		img.Flags |= ImageRedraw
	}
}

// UpdateImageSpecialOffset attaches img to the second overlay point of the
// main image of its sprite.
func (s *State) UpdateImageSpecialOffset(img *Image) {
	main := s.MainImage(s.SpriteOfImage(img))
	SetImageOffset(img, s.ImageLoOffset(main, 2, 0))
}

// SetImageHeading selects the directional frame of img. 256 headings map
// onto 17 frames; the western half reuses the eastern frames mirrored.
func (s *State) SetImageHeading(img *Image, heading fixed.Direction) {
	if img.Flags&ImageUsesSpecialOffset != 0 {
		s.UpdateImageSpecialOffset(img)
	}
	if img.Flags&ImageDirectionalFrames == 0 {
		return
	}
	s.applyFrameIndexOffset(img, (geom.DirectionIndex(heading)+4)/8, false)
}

// SetImageFrameIndexOffset selects a directional frame by its index in
// [0, 32].
func (s *State) SetImageFrameIndexOffset(img *Image, offset int) {
	if img.Flags&ImageDirectionalFrames == 0 {
		return
	}
	s.applyFrameIndexOffset(img, offset, true)
}

func (s *State) applyFrameIndexOffset(img *Image, offset int, specialAfter bool) {
	flipped := false
	if offset > 16 {
		offset = 32 - offset
		flipped = true
	}
	if img.FrameIndexOffset == offset && (img.Flags&ImageFlipped != 0) == flipped {
		return
	}
	img.FrameIndexOffset = offset
	if flipped {
		img.Flags |= ImageFlipped
	} else {
		img.Flags &^= ImageFlipped
	}
	SetImagePaletteType(img, img.PaletteType)
	UpdateImageFrameIndex(img)
	if specialAfter && img.Flags&ImageUsesSpecialOffset != 0 {
		s.UpdateImageSpecialOffset(img)
	}
}

// ImageLoOffset returns an attachment point of img for its current frame,
// mirrored when the image is flipped. A table with a single frame applies
// to every frame.
func (s *State) ImageLoOffset(img *Image, lo, index int) geom.XY {
	frames, ok := img.Type.LoOffsets[lo]
	if !ok {
		invariant.Fatalf("image %d has no lo offsets %d", img.Type.ID, lo)
	}
	frame := img.FrameIndex
	if len(frames) == 1 {
		frame = 0
	}
	if frame >= len(frames) {
		invariant.Fatalf("image %d lo %d has no offsets for frame %d", img.Type.ID, lo, frame)
	}
	if index >= len(frames[frame]) {
		invariant.Fatalf("image %d lo %d frame %d has no offset %d", img.Type.ID, lo, frame, index)
	}
	r := frames[frame][index]
	if img.Flags&ImageFlipped != 0 {
		r.X = -r.X
	}
	return r
}

// FindImage returns the first image of sp whose type id lies in [from, to].
func (s *State) FindImage(sp *Sprite, from, to int) *Image {
	for slot := sp.Images.Front(); slot != 0; slot = sp.Images.Next(slot) {
		img := s.Images.Get(slot)
		if img.Type.ID >= from && img.Type.ID <= to {
			return img
		}
	}
	return nil
}
