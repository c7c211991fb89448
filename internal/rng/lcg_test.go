package rng

import "testing"

func TestClosedWindowReturnsZero(t *testing.T) {
	g := New(InitialState)
	for i := 0; i < 10; i++ {
		if v := g.Rand(SourceGuard); v != 0 {
			t.Fatalf("expected 0 outside the window, got %d", v)
		}
	}
	if g.State() != InitialState {
		t.Errorf("expected state %d to be untouched, got %d", InitialState, g.State())
	}
	if g.Total() != 0 {
		t.Errorf("expected no counted draws, got %d", g.Total())
	}
}

func TestFirstDraws(t *testing.T) {
	g := New(InitialState)
	g.Allow()
	// 42*22695477+1 = 953210035
	if v := g.Rand(SourceCreateUnit); v != 953210035>>16&0x7fff {
		t.Errorf("expected %d, got %d", 953210035>>16&0x7fff, v)
	}
	if g.State() != 953210035 {
		t.Errorf("expected state 953210035, got %d", g.State())
	}
	if g.Count(SourceCreateUnit) != 1 || g.Total() != 1 {
		t.Errorf("expected one counted draw, got %d/%d", g.Count(SourceCreateUnit), g.Total())
	}
}

func TestRangeBounds(t *testing.T) {
	g := New(InitialState)
	g.Allow()
	for i := 0; i < 1000; i++ {
		v := g.RandRange(SourceGuard, 0, 15)
		if v < 0 || v > 15 {
			t.Fatalf("draw %d out of range: %d", i, v)
		}
	}
}

func TestIdenticalRunsMatch(t *testing.T) {
	run := func() []int {
		g := New(InitialState)
		var out []int
		for tick := 0; tick < 50; tick++ {
			g.Allow()
			for j := 0; j < tick%7; j++ {
				out = append(out, g.Rand(Source(j)))
			}
			g.Forbid()
			out = append(out, g.Rand(SourceWaitRand))
		}
		return out
	}
	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("expected equal lengths, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("runs diverge at draw %d: %d != %d", i, a[i], b[i])
		}
	}
}
