package world

import (
	"sort"

	"github.com/drevilslab/openbw/internal/core/invariant"
	"github.com/drevilslab/openbw/internal/data"
	"github.com/drevilslab/openbw/internal/geom"
)

// TileIndex maps a pixel position to its tile. Off-map positions are an
// invariant violation.
func (s *State) TileIndex(pos geom.XY) int {
	tx, ty := pos.X/32, pos.Y/32
	if pos.X < 0 || pos.Y < 0 || tx >= s.Map.TileWidth || ty >= s.Map.TileHeight {
		invariant.Fatalf("tile index for invalid position %d %d", pos.X, pos.Y)
	}
	return ty*s.Map.TileWidth + tx
}

// UnitTypeBoundingBox is the inclusive footprint of t centred on origin.
func UnitTypeBoundingBox(t *data.UnitType, origin geom.XY) geom.Rect {
	return geom.Rect{From: origin.Sub(t.Dimensions.From), To: origin.Add(t.Dimensions.To)}
}

// UnitSpriteBoundingBox is the footprint of u at its sprite position.
func (s *State) UnitSpriteBoundingBox(u *Unit) geom.Rect {
	return UnitTypeBoundingBox(u.Type, s.SpriteOf(u).Position)
}

// InMapBounds reports whether a footprint of t at pos lies on the map.
func (s *State) InMapBounds(t *data.UnitType, pos geom.XY) bool {
	return s.RectInMapBounds(UnitTypeBoundingBox(t, pos))
}

func (s *State) RectInMapBounds(r geom.Rect) bool {
	if r.From.X < 0 || r.From.Y < 0 {
		return false
	}
	return r.To.X < s.Map.Width() && r.To.Y < s.Map.Height()
}

// RestrictToMapBounds moves pos so that a footprint of t fits on the map.
// The bottom edge keeps a 32 pixel margin.
func (s *State) RestrictToMapBounds(pos geom.XY, t *data.UnitType) geom.XY {
	bb := UnitTypeBoundingBox(t, pos)
	if bb.From.X < 0 {
		pos.X -= bb.From.X
	} else if bb.To.X >= s.Map.Width() {
		pos.X -= bb.To.X - s.Map.Width() + 1
	}
	if bb.From.Y < 0 {
		pos.Y -= bb.From.Y
	} else if bb.To.Y >= s.Map.Height()-32 {
		pos.Y -= bb.To.Y - s.Map.Height() + 32 + 1
	}
	return pos
}

// IsWalkable checks the tile under pos. Creep is always walkable; a
// partially walkable tile defers to the walkability of its region.
func (s *State) IsWalkable(pos geom.XY) bool {
	f := s.Tiles[s.TileIndex(pos)].Flags
	if f&data.TileHasCreep != 0 {
		return true
	}
	if f&data.TilePartiallyWalkable != 0 {
		return s.Map.RegionAt(pos).Walkable
	}
	return f&data.TileWalkable != 0
}

// IsReachable reports whether two positions share a region group.
func (s *State) IsReachable(from, to geom.XY) bool {
	return s.Map.RegionAt(from).Group == s.Map.RegionAt(to).Group
}

// contourSearch holds the footprint extents, ordered up, right, down, left.
type contourSearch struct {
	inner [4]int
}

// ContourSpaceAvailable reports whether no contour edge cuts into the
// footprint described by s around pos.
func (st *State) contourSpaceAvailable(s contourSearch, pos geom.XY) bool {
	c0 := st.Map.Contours[0]
	// upper bound on the fixed coordinate, walked backwards
	for i := sort.Search(len(c0), func(i int) bool { return pos.Y < c0[i].V[0] }); i > 0; {
		i--
		c := &c0[i]
		if s.inner[0]+c.V[0] < pos.Y {
			break
		}
		if s.inner[1]+c.V[1] <= pos.X && s.inner[3]+c.V[2] >= pos.X {
			return false
		}
	}
	c1 := st.Map.Contours[1]
	for i := sort.Search(len(c1), func(i int) bool { return c1[i].V[0] >= pos.X }); i < len(c1); i++ {
		c := &c1[i]
		if s.inner[1]+c.V[0] > pos.X {
			break
		}
		if s.inner[2]+c.V[1] <= pos.Y && s.inner[0]+c.V[2] >= pos.Y {
			return false
		}
	}
	c2 := st.Map.Contours[2]
	for i := sort.Search(len(c2), func(i int) bool { return c2[i].V[0] >= pos.Y }); i < len(c2); i++ {
		c := &c2[i]
		if s.inner[2]+c.V[0] > pos.Y {
			break
		}
		if s.inner[1]+c.V[1] <= pos.X && s.inner[3]+c.V[2] >= pos.X {
			return false
		}
	}
	c3 := st.Map.Contours[3]
	for i := sort.Search(len(c3), func(i int) bool { return pos.X < c3[i].V[0] }); i > 0; {
		i--
		c := &c3[i]
		if s.inner[3]+c.V[0] < pos.X {
			break
		}
		if s.inner[2]+c.V[1] <= pos.Y && s.inner[0]+c.V[2] >= pos.Y {
			return false
		}
	}
	return true
}

// UnitTypeCanFitAt reports whether a unit of type t can stand at pos: the
// footprint is on the map, the centre is walkable and no contour cuts it.
func (s *State) UnitTypeCanFitAt(t *data.UnitType, pos geom.XY) bool {
	if !s.InMapBounds(t, pos) {
		return false
	}
	if !s.IsWalkable(pos) {
		return false
	}
	cs := contourSearch{inner: [4]int{
		t.Dimensions.From.Y,
		-t.Dimensions.To.X,
		-t.Dimensions.To.Y,
		t.Dimensions.From.X,
	}}
	return s.contourSpaceAvailable(cs, pos)
}
