// Package finder is the unit finder: an x-sorted interval index over unit
// bounding boxes whose iteration order is part of the simulation contract.
//
// The x axis is cut into 32 pixel buckets. Every unit has two entries, one
// for the left edge and one for the right edge of its box, each kept sorted
// inside the bucket its value falls in. A new entry goes in front of entries
// with an equal value, so ties come back newest first. Non-empty buckets are
// threaded together so a walk skips empty ones.
package finder

import (
	"github.com/drevilslab/openbw/internal/core/ecs"
	"github.com/drevilslab/openbw/internal/core/invariant"
	"github.com/drevilslab/openbw/internal/geom"
)

const bucketSize = 32

type entry struct {
	h     ecs.Handle
	value int
}

type slotBox struct {
	h   ecs.Handle
	box geom.Rect
}

// Finder is not safe for concurrent use.
type Finder struct {
	buckets [][]entry
	// neighbours among the non-empty buckets, -1 for none
	next, prev []int
	first      int

	boxes   []slotBox
	visited []uint32
	stamp   uint32

	maxUnitWidth  int
	maxUnitHeight int

	open bool
}

// New creates an index for a map mapWidth pixels wide holding up to
// capacity unit slots. The maximum unit footprint drives the small-query
// expansion.
func New(mapWidth, capacity, maxUnitWidth, maxUnitHeight int) *Finder {
	n := (mapWidth + bucketSize - 1) / bucketSize
	if n < 1 {
		n = 1
	}
	f := &Finder{
		buckets:       make([][]entry, n),
		next:          make([]int, n),
		prev:          make([]int, n),
		first:         -1,
		boxes:         make([]slotBox, capacity+1),
		visited:       make([]uint32, capacity+1),
		maxUnitWidth:  maxUnitWidth,
		maxUnitHeight: maxUnitHeight,
	}
	for i := range f.next {
		f.next[i], f.prev[i] = -1, -1
	}
	return f
}

func (f *Finder) checkClosed() {
	if f.open {
		invariant.Fatalf("finder: modified during a query")
	}
}

func (f *Finder) bucket(x int) int {
	if x <= 0 {
		return 0
	}
	b := x / bucketSize
	if b >= len(f.buckets) {
		return len(f.buckets) - 1
	}
	return b
}

func (f *Finder) slot(h ecs.Handle) int {
	s := int(h.Index())
	if s <= 0 || s >= len(f.boxes) {
		invariant.Fatalf("finder: handle slot %d out of range", s)
	}
	return s
}

func lowerBound(v []entry, value int) int {
	lo, hi := 0, len(v)
	for lo < hi {
		m := int(uint(lo+hi) >> 1)
		if v[m].value < value {
			lo = m + 1
		} else {
			hi = m
		}
	}
	return lo
}

// link threads bucket b, which just became non-empty, between its non-empty
// neighbours.
func (f *Finder) link(b int) {
	p := -1
	for i := b - 1; i >= 0; i-- {
		if len(f.buckets[i]) > 0 {
			p = i
			break
		}
	}
	f.prev[b] = p
	if p >= 0 {
		f.next[b] = f.next[p]
		f.next[p] = b
	} else {
		f.next[b] = f.first
		f.first = b
	}
	if f.next[b] >= 0 {
		f.prev[f.next[b]] = b
	}
}

func (f *Finder) unlink(b int) {
	if f.prev[b] >= 0 {
		f.next[f.prev[b]] = f.next[b]
	} else {
		f.first = f.next[b]
	}
	if f.next[b] >= 0 {
		f.prev[f.next[b]] = f.prev[b]
	}
	f.next[b], f.prev[b] = -1, -1
}

// insertEntry files both edges by floor(x/32). Rounding right edges up
// would let a wide query stop one bucket short of a unit it overlaps.
func (f *Finder) insertEntry(h ecs.Handle, value int) {
	b := f.bucket(value)
	v := f.buckets[b]
	i := lowerBound(v, value)
	v = append(v, entry{})
	copy(v[i+1:], v[i:])
	v[i] = entry{h: h, value: value}
	f.buckets[b] = v
	if len(v) == 1 {
		f.link(b)
	}
}

func (f *Finder) removeEntry(h ecs.Handle, value int) {
	b := f.bucket(value)
	v := f.buckets[b]
	for i := lowerBound(v, value); i < len(v) && v[i].value == value; i++ {
		if v[i].h == h {
			f.buckets[b] = append(v[:i], v[i+1:]...)
			if len(f.buckets[b]) == 0 {
				f.unlink(b)
			}
			return
		}
	}
	invariant.Fatalf("finder: entry for unit %#x at x=%d is missing", uint16(h), value)
}

// Insert adds a unit with bounding box bb. The left edge goes in first.
func (f *Finder) Insert(h ecs.Handle, bb geom.Rect) {
	f.checkClosed()
	s := f.slot(h)
	if !f.boxes[s].h.IsNil() {
		invariant.Fatalf("finder: slot %d inserted twice", s)
	}
	f.boxes[s] = slotBox{h: h, box: bb}
	f.insertEntry(h, bb.From.X)
	f.insertEntry(h, bb.To.X)
}

// Remove drops a unit. Removing a unit that is not indexed is a no-op.
func (f *Finder) Remove(h ecs.Handle) {
	f.checkClosed()
	s := f.slot(h)
	sb := f.boxes[s]
	if sb.h.IsNil() {
		return
	}
	if sb.h != h {
		invariant.Fatalf("finder: stale handle %#x for slot %d", uint16(h), s)
	}
	f.removeEntry(h, sb.box.From.X)
	f.removeEntry(h, sb.box.To.X)
	f.boxes[s] = slotBox{}
}

// Update moves a unit to a new bounding box. It is a remove followed by an
// insert, so the unit becomes the newest entry at its new values.
func (f *Finder) Update(h ecs.Handle, bb geom.Rect) {
	f.Remove(h)
	f.Insert(h, bb)
}

// Contains reports whether h is indexed.
func (f *Finder) Contains(h ecs.Handle) bool {
	s := int(h.Index())
	return s > 0 && s < len(f.boxes) && f.boxes[s].h == h && !h.IsNil()
}

// Box returns the indexed bounding box of h.
func (f *Finder) Box(h ecs.Handle) (geom.Rect, bool) {
	if !f.Contains(h) {
		return geom.Rect{}, false
	}
	return f.boxes[h.Index()].box, true
}

// Len returns the number of indexed units.
func (f *Finder) Len() int {
	n := 0
	for _, v := range f.buckets {
		n += len(v)
	}
	return n / 2
}
