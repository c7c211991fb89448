package movement

import (
	"github.com/drevilslab/openbw/internal/geom"
	"github.com/drevilslab/openbw/internal/world"
)

// typeArea is the inclusive footprint area of a unit type.
func typeArea(u *world.Unit) int {
	bb := world.UnitTypeBoundingBox(u.Type, geom.XY{})
	return (bb.Width() + 1) * (bb.Height() + 1)
}

// GetLargestBlockingUnit returns the ground unit with the largest
// footprint among those overlapping bounds, other than u. Ties keep the
// first found.
func (m *Mover) GetLargestBlockingUnit(u *world.Unit, bounds geom.Rect) *world.Unit {
	var (
		best     *world.Unit
		bestArea int
	)
	self := m.st.UnitHandle(u)
	q := m.st.Finder.Query(bounds)
	defer q.Close()
	for h, ok := q.Next(); ok; h, ok = q.Next() {
		if h == self {
			continue
		}
		nu := m.st.Unit(h)
		if nu == nil || nu.PathingFlags&world.PathingGround == 0 || nu.Status(world.StatusNoCollide) {
			continue
		}
		if !m.st.Finder.InBounds(h, bounds) {
			continue
		}
		if a := typeArea(nu); best == nil || a > bestArea {
			best, bestArea = nu, a
		}
	}
	return best
}

// IsBlocked reports whether u cannot stand at pos because of terrain. When
// another unit is in the way it is returned instead and the position does
// not count as blocked.
func (m *Mover) IsBlocked(u *world.Unit, pos geom.XY) (bool, *world.Unit) {
	bounds := world.UnitTypeBoundingBox(u.Type, pos)
	if !m.st.RectInMapBounds(bounds) {
		return false, nil
	}
	if nu := m.GetLargestBlockingUnit(u, bounds); nu != nil {
		return false, nu
	}
	return !m.st.UnitTypeCanFitAt(u.Type, pos), nil
}
