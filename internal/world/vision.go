package world

import (
	"go.uber.org/zap"

	"github.com/drevilslab/openbw/internal/data"
	"github.com/drevilslab/openbw/internal/geom"
)

// RevealSightAt clears the fog bits of revealTo around pos. Ground vision
// does not propagate past tiles higher than the viewer; air vision ignores
// height.
func (s *State) RevealSightAt(pos geom.XY, sightRange int, revealTo uint8, inAir bool) {
	var heightMask uint32
	if !inAir {
		switch s.Map.GroundHeight(pos) {
		case 2:
			heightMask = uint32(data.TileVeryHigh)
		case 1:
			heightMask = uint32(data.TileVeryHigh | data.TileHigh)
		default:
			heightMask = uint32(data.TileVeryHigh | data.TileHigh | data.TileMiddle)
		}
	}
	fog := uint32(^revealTo)
	reveal := fog | fog<<8 | 0xffff<<16
	required := uint32(revealTo) | uint32(revealTo)<<8 | heightMask<<16

	sv := &s.Sight[sightRange]
	w, h := s.Map.TileWidth, s.Map.TileHeight
	tx, ty := pos.X/32, pos.Y/32
	base := tx + ty*w
	onMap := func(n *SightNode) bool {
		x, y := tx+n.X, ty+n.Y
		return x >= 0 && x < w && y >= 0 && y < h
	}
	apply := func(n *SightNode) uint32 {
		t := &s.Tiles[base+n.MapIndexOffset]
		r := t.Raw() & reveal
		*t = tileFromRaw(r)
		return r
	}

	if inAir {
		// only the first ExtMaskedCount nodes, as the legacy engine does
		for i := 0; i < sv.ExtMaskedCount; i++ {
			n := &sv.Nodes[i]
			if onMap(n) {
				apply(n)
			}
		}
		return
	}

	prop := s.sightScratch
	blocked := func(i int) bool {
		if i < 0 {
			return true
		}
		return prop[i]&required != 0
	}
	for i := 0; i < sv.MinMaskSize; i++ {
		n := &sv.Nodes[i]
		prop[i] = 0xff
		if onMap(n) {
			prop[i] = apply(n)
		}
	}
	for i := sv.MinMaskSize; i < sv.MinMaskSize+sv.ExtMaskedCount; i++ {
		n := &sv.Nodes[i]
		prop[i] = 0xff
		if !onMap(n) {
			continue
		}
		ok := !blocked(n.Prev)
		if n.PrevCount == 2 && !blocked(n.Prev2) {
			ok = true
		}
		if ok {
			prop[i] = apply(n)
		}
	}
}

// IsTransformingZergBuilding reports an incomplete zerg building that is
// morphing from a finished one.
func IsTransformingZergBuilding(u *Unit) bool {
	if u.Completed() {
		return false
	}
	t := u.BuildQueue[u.BuildQueueSlot]
	if t == nil {
		return false
	}
	switch t.ID {
	case data.ZergHive, data.ZergLair, data.ZergGreaterSpire, data.ZergSporeColony, data.ZergSunkenColony:
		return true
	}
	return false
}

func (s *State) Upgraded(owner int, upg data.UpgradeID) bool {
	return s.UpgradeLevels[owner][upg] != 0
}

// UnitSightRange is the sight radius of u in tiles.
func (s *State) UnitSightRange(u *Unit, ignoreBlindness bool) int {
	if u.GroundedBuilding() && !u.Completed() && !IsTransformingZergBuilding(u) {
		return 4
	}
	if !ignoreBlindness && u.IsBlind {
		return 2
	}
	switch {
	case u.Type.ID == data.TerranGhost && s.Upgraded(u.Owner, data.UpgradeOcularImplants),
		u.Type.ID == data.ZergOverlord && s.Upgraded(u.Owner, data.UpgradeAntennae),
		u.Type.ID == data.ProtossObserver && s.Upgraded(u.Owner, data.UpgradeSensorArray),
		u.Type.ID == data.ProtossScout && s.Upgraded(u.Owner, data.UpgradeApialSensors):
		return 11
	}
	return u.Type.SightRange
}

func (s *State) carriesFlag(u *Unit) bool {
	p := s.Unit(u.Powerup)
	return p != nil && p.Type.ID == data.PowerupFlag
}

// VisibleToEveryone reports units that reveal their surroundings to all
// players, which are flag carriers and transports holding one.
func (s *State) VisibleToEveryone(u *Unit) bool {
	if u.Type.HasFlag(data.FlagWorker) {
		return s.carriesFlag(u)
	}
	if u.Type.SpaceProvided == 0 {
		return false
	}
	if u.Type.ID == data.ZergOverlord && !s.Upgraded(u.Owner, data.UpgradeVentralSacs) {
		return false
	}
	if u.Hallucination() {
		return false
	}
	for _, h := range u.LoadedUnits {
		lu := s.Unit(h)
		if lu == nil || lu.Sprite == 0 || s.UnitDead(lu) {
			continue
		}
		if lu.Type.HasFlag(data.FlagWorker) && s.carriesFlag(lu) {
			return true
		}
	}
	return false
}

// RefreshUnitVision reveals the sight range of u to its owner, the owner's
// vision partners and any parasite holders.
func (s *State) RefreshUnitVision(u *Unit) {
	if u.Owner >= 8 && u.ParasiteFlags == 0 {
		return
	}
	if u.Type.ID == data.TerranNuclearMissile {
		return
	}
	var to int
	if s.VisibleToEveryone(u) || (u.Type.ID == data.PowerupFlag && u.OrderType.ID == data.OrderUnusedPowerup) {
		to = 0xff
	} else {
		to = s.SharedVision[u.Owner] | u.ParasiteFlags
		for i := 0; i < NumPlayers; i++ {
			if u.ParasiteFlags&(1<<i) != 0 {
				to |= s.SharedVision[i]
			}
		}
	}
	s.RevealSightAt(s.SpriteOf(u).Position, s.UnitSightRange(u, false), uint8(to), u.Flying())
}

// UpdateThingyVisibility recomputes which players see sp from the tiles
// under a footprint of size. It reports false only for a footprint that
// covers no tile and is seen by someone.
func (s *State) UpdateThingyVisibility(sp *Sprite, size geom.XY) bool {
	if sp == nil || sp.Hidden() {
		return true
	}
	fromX := (sp.Position.X - size.X/2) / 32
	fromY := (sp.Position.Y - size.Y/2) / 32
	toX := fromX + (size.X+31)/32
	toY := fromY + (size.Y+31)/32
	fromX, fromY = max(fromX, 0), max(fromY, 0)
	toX, toY = min(toX, s.Map.TileWidth), min(toY, s.Map.TileHeight)
	if fromX == toX && fromY == toY {
		return sp.VisibilityFlags == 0
	}
	var vis uint8
	for y := fromY; y < toY; y++ {
		for x := fromX; x < toX; x++ {
			vis |= ^s.Tiles[y*s.Map.TileWidth+x].Visible
		}
	}
	if sp.VisibilityFlags != uint32(vis) {
		s.SetSpriteVisibility(sp, uint32(vis))
	}
	return true
}

// UpdateUnitSprite refreshes the visibility of u and its subunit.
func (s *State) UpdateUnitSprite(u *Unit) {
	sp := s.SpriteOf(u)
	wasVisible := sp.VisibilityFlags&s.LocalMask != 0
	failed := !s.UpdateThingyVisibility(sp, u.Type.PlacementSize)
	isVisible := sp.VisibilityFlags&s.LocalMask != 0
	if sub := s.SubunitOf(u); sub != nil && !s.SpriteOf(sub).Hidden() {
		s.SetSpriteVisibility(s.SpriteOf(sub), sp.VisibilityFlags)
	}
	if !failed && !(wasVisible && !isVisible) {
		return
	}
	trap := u.Type.ID >= data.SpecialFloorMissileTrap && u.Type.ID <= data.SpecialRightWallFlameTrap
	if (u.GroundedBuilding() || trap) && !s.UnitDead(u) {
		// the fog image a building leaves behind belongs to the renderer
		s.Log.Debug("fog image skipped", zap.Int32("unit", u.Index), zap.Int("type", int(u.Type.ID)))
	}
}
