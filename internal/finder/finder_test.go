package finder

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/drevilslab/openbw/internal/core/ecs"
	"github.com/drevilslab/openbw/internal/core/invariant"
	"github.com/drevilslab/openbw/internal/geom"
)

func box(x0, y0, x1, y1 int) geom.Rect {
	return geom.Rect{From: geom.XY{X: x0, Y: y0}, To: geom.XY{X: x1, Y: y1}}
}

func TestTiesComeBackNewestFirst(t *testing.T) {
	f := New(256, 16, 40, 40)
	a := ecs.NewHandle(1, 0)
	b := ecs.NewHandle(2, 0)
	f.Insert(a, box(10, 10, 20, 20))
	f.Insert(b, box(10, 10, 20, 20))

	got := f.Collect(box(0, 0, 255, 255))
	if len(got) != 2 {
		t.Fatalf("expected 2 units, got %d", len(got))
	}
	if got[0] != b || got[1] != a {
		t.Errorf("expected [B A], got %v", got)
	}
}

// expanded is the rectangle a query actually tests against.
func expanded(f *Finder, area geom.Rect) geom.Rect {
	if area.To.X-area.From.X+1 >= f.maxUnitWidth {
		area.To.X++
	}
	if area.To.Y-area.From.Y+1 >= f.maxUnitHeight {
		area.To.Y++
	}
	return area
}

func TestQueryMatchesBruteForce(t *testing.T) {
	const (
		mapW = 512
		mapH = 512
		maxW = 40
		maxH = 30
		n    = 200
	)
	r := rand.New(rand.NewPCG(1, 2))
	f := New(mapW, n, maxW, maxH)
	boxes := make(map[ecs.Handle]geom.Rect)
	for i := 1; i <= n; i++ {
		w, h := 1+r.IntN(maxW), 1+r.IntN(maxH)
		x, y := r.IntN(mapW-w), r.IntN(mapH-h)
		bb := box(x, y, x+w-1, y+h-1)
		hd := ecs.NewHandle(int32(i), 0)
		f.Insert(hd, bb)
		boxes[hd] = bb
	}

	for q := 0; q < 300; q++ {
		w, h := 1+r.IntN(120), 1+r.IntN(120)
		x, y := r.IntN(mapW-w), r.IntN(mapH-h)
		area := box(x, y, x+w-1, y+h-1)
		e := expanded(f, area)

		got := f.Collect(area)
		seen := make(map[ecs.Handle]bool)
		for _, hd := range got {
			if seen[hd] {
				t.Fatalf("query %v: unit %v returned twice", area, hd)
			}
			seen[hd] = true
			if !boxes[hd].Intersects(e) {
				t.Errorf("query %v: unit %v with box %v does not intersect", area, hd, boxes[hd])
			}
		}
		for hd, bb := range boxes {
			if bb.Intersects(e) && !seen[hd] {
				t.Errorf("query %v: missing unit %v with box %v", area, hd, bb)
			}
		}

		last := -1
		for _, hd := range got {
			bb := boxes[hd]
			if bb.From.X < area.From.X {
				continue
			}
			if bb.From.X < last {
				t.Errorf("query %v: left edge %d after %d", area, bb.From.X, last)
			}
			last = bb.From.X
		}
	}
}

func TestSmallQueryReachesWideUnit(t *testing.T) {
	f := New(256, 8, 64, 64)
	wide := ecs.NewHandle(1, 0)
	f.Insert(wide, box(10, 10, 70, 40))
	got := f.Collect(box(60, 20, 61, 21))
	if len(got) != 1 || got[0] != wide {
		t.Errorf("expected the wide unit, got %v", got)
	}
	if got := f.Collect(box(60, 50, 61, 51)); len(got) != 0 {
		t.Errorf("expected nothing below the unit, got %v", got)
	}
}

func TestRightEdgeRoundsDown(t *testing.T) {
	f := New(256, 8, 40, 40)
	u := ecs.NewHandle(1, 0)
	f.Insert(u, box(26, 10, 65, 20))
	// exactly as wide as the largest unit: the walk ends in bucket 2
	got := f.Collect(box(33, 0, 72, 30))
	if len(got) != 1 || got[0] != u {
		t.Errorf("expected the unit through its right edge, got %v", got)
	}
}

func TestRemoveAndUpdate(t *testing.T) {
	f := New(256, 8, 32, 32)
	a := ecs.NewHandle(1, 3)
	b := ecs.NewHandle(2, 0)
	f.Insert(a, box(10, 10, 20, 20))
	f.Insert(b, box(100, 100, 110, 110))

	f.Remove(a)
	if f.Contains(a) {
		t.Error("expected a to be removed")
	}
	if got := f.Collect(box(0, 0, 50, 50)); len(got) != 0 {
		t.Errorf("expected no units near the origin, got %v", got)
	}

	f.Update(b, box(5, 5, 15, 15))
	got := f.Collect(box(0, 0, 50, 50))
	if len(got) != 1 || got[0] != b {
		t.Errorf("expected b after update, got %v", got)
	}
	if f.Len() != 1 {
		t.Errorf("expected 1 indexed unit, got %d", f.Len())
	}
	if bb, _ := f.Box(b); bb != box(5, 5, 15, 15) {
		t.Errorf("expected updated box, got %v", bb)
	}
}

func TestFindStopsAtFirstMatch(t *testing.T) {
	f := New(256, 8, 32, 32)
	for i := int32(1); i <= 4; i++ {
		x := int(i) * 20
		f.Insert(ecs.NewHandle(i, 0), box(x, 0, x+10, 10))
	}
	calls := 0
	h := f.Find(box(0, 0, 255, 255), func(h ecs.Handle) bool {
		calls++
		return h.Index() >= 2
	})
	if h.Index() != 2 {
		t.Errorf("expected slot 2, got %d", h.Index())
	}
	if calls != 2 {
		t.Errorf("expected 2 predicate calls, got %d", calls)
	}
	// the query is closed again
	f.Collect(box(0, 0, 10, 10))
}

func TestNestedQueryIsFatal(t *testing.T) {
	f := New(256, 8, 32, 32)
	q := f.Query(box(0, 0, 100, 100))
	defer q.Close()

	defer func() {
		err := invariant.Recover(recover())
		var ie *invariant.Error
		if !errors.As(err, &ie) {
			t.Errorf("expected an invariant error, got %v", err)
		}
	}()
	f.Query(box(0, 0, 10, 10))
	t.Error("expected a panic")
}
