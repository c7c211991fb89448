package finder

import (
	"github.com/drevilslab/openbw/internal/core/ecs"
	"github.com/drevilslab/openbw/internal/core/invariant"
	"github.com/drevilslab/openbw/internal/geom"
)

// Query walks the units intersecting a rectangle. Only one query may be open
// on a Finder at a time; Close releases it.
//
// The walk starts at the first entry whose x is not left of the rectangle
// and yields each unit at its first entry that passes the bounds check, so
// results come out ordered by that entry's x.
type Query struct {
	f      *Finder
	area   geom.Rect
	b, i   int
	end    int
	closed bool
}

// Query opens a walk over area. On an axis where area is narrower than the
// largest unit, the bucket range is widened by the largest unit width so
// that units whose left edge lies outside area are still reached through
// their right edge, and area itself stays inclusive. On an axis at least as
// wide as the largest unit the far edge is pushed out by one pixel.
func (f *Finder) Query(area geom.Rect) *Query {
	if f.open {
		invariant.Fatalf("finder: recursive query is not supported")
	}
	f.open = true
	f.stamp++
	if f.stamp == 0 {
		clear(f.visited)
		f.stamp = 1
	}

	indexToX := area.To.X
	if area.To.X-area.From.X+1 < f.maxUnitWidth {
		indexToX = area.From.X + f.maxUnitWidth - 1
	} else {
		area.To.X++
		indexToX = area.To.X
	}
	if area.To.Y-area.From.Y+1 >= f.maxUnitHeight {
		area.To.Y++
	}

	q := &Query{f: f, area: area, b: -1}
	from := f.bucket(area.From.X)
	if v := f.buckets[from]; len(v) > 0 {
		if i := lowerBound(v, area.From.X); i < len(v) {
			q.b, q.i = from, i
		} else {
			q.b = f.nextNonEmpty(from)
		}
	} else {
		q.b = f.nextNonEmpty(from)
	}
	q.end = f.nextNonEmpty(f.bucket(indexToX))
	return q
}

// nextNonEmpty returns the first non-empty bucket after b, or -1.
func (f *Finder) nextNonEmpty(b int) int {
	if len(f.buckets[b]) > 0 {
		return f.next[b]
	}
	for i := b + 1; i < len(f.buckets); i++ {
		if len(f.buckets[i]) > 0 {
			return i
		}
	}
	return -1
}

// Next returns the next matching unit.
func (q *Query) Next() (ecs.Handle, bool) {
	if q.closed {
		invariant.Fatalf("finder: query used after Close")
	}
	f := q.f
	for q.b >= 0 && q.b != q.end {
		v := f.buckets[q.b]
		if q.i >= len(v) {
			q.b, q.i = f.next[q.b], 0
			continue
		}
		e := v[q.i]
		q.i++
		s := e.h.Index()
		if f.visited[s] == f.stamp {
			continue
		}
		bb := f.boxes[s].box
		if bb.From.X > q.area.To.X || bb.To.Y < q.area.From.Y || bb.From.Y > q.area.To.Y {
			continue
		}
		f.visited[s] = f.stamp
		return e.h, true
	}
	return 0, false
}

// Close releases the query. Closing twice is harmless.
func (q *Query) Close() {
	if q.closed {
		return
	}
	q.closed = true
	q.f.open = false
}

// Find returns the first unit in area for which pred holds, or the nil
// handle.
func (f *Finder) Find(area geom.Rect, pred func(ecs.Handle) bool) ecs.Handle {
	q := f.Query(area)
	defer q.Close()
	for h, ok := q.Next(); ok; h, ok = q.Next() {
		if pred(h) {
			return h
		}
	}
	return 0
}

// Collect returns every unit in area in walk order. Callers that need to
// run queries of their own per result iterate the copy.
func (f *Finder) Collect(area geom.Rect) []ecs.Handle {
	q := f.Query(area)
	defer q.Close()
	var out []ecs.Handle
	for h, ok := q.Next(); ok; h, ok = q.Next() {
		out = append(out, h)
	}
	return out
}

// UnitsIntersecting reports whether the indexed boxes of a and b overlap,
// edges inclusive.
func (f *Finder) UnitsIntersecting(a, b ecs.Handle) bool {
	ba, ok1 := f.Box(a)
	bb, ok2 := f.Box(b)
	return ok1 && ok2 && ba.Intersects(bb)
}

// InBounds reports whether the indexed box of h overlaps bounds.
func (f *Finder) InBounds(h ecs.Handle, bounds geom.Rect) bool {
	b, ok := f.Box(h)
	return ok && b.Intersects(bounds)
}
