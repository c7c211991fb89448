package ecs

import (
	"errors"
	"testing"
)

type thing struct {
	value int
}

func TestHandlePacking(t *testing.T) {
	h := NewHandle(1700, 31)
	if h.Index() != 1700 {
		t.Errorf("expected index 1700, got %d", h.Index())
	}
	if h.Generation() != 31 {
		t.Errorf("expected generation 31, got %d", h.Generation())
	}
	if !NewHandle(0, 5).IsNil() {
		t.Error("expected index 0 to be nil")
	}
}

func TestResetFreeOrder(t *testing.T) {
	p := NewPool[thing](5)
	want := []int32{1, 5, 4, 3, 2}
	got := p.FreeSlots()
	if len(got) != len(want) {
		t.Fatalf("expected %d free slots, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("free[%d]: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestReleaseInsertsAfterHead(t *testing.T) {
	p := NewPool[thing](4)
	a, _ := p.Allocate()
	b, _ := p.Allocate()
	// free list is now 3, 2
	p.Release(a)
	got := p.FreeSlots()
	want := []int32{3, a, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected free list %v, got %v", want, got)
		}
	}
	p.Release(b)
	if s, _ := p.Allocate(); s != 3 {
		t.Errorf("expected slot 3 first, got %d", s)
	}
}

func TestExhaustion(t *testing.T) {
	p := NewPool[thing](2)
	p.Allocate()
	p.Allocate()
	if _, err := p.Allocate(); !errors.Is(err, ErrNoCapacity) {
		t.Errorf("expected ErrNoCapacity, got %v", err)
	}
}

func TestStaleHandle(t *testing.T) {
	p := NewPool[thing](1)
	s, err := p.Allocate()
	if err != nil {
		t.Fatalf("Allocate() failed: %v", err)
	}
	old := p.Handle(s)
	if _, e := p.Resolve(old); e == nil {
		t.Fatal("expected live handle to resolve")
	}

	p.Release(s)
	if _, e := p.Resolve(old); e != nil {
		t.Error("expected released handle to be absent")
	}

	s2, err := p.Allocate()
	if err != nil {
		t.Fatalf("Allocate() failed: %v", err)
	}
	if s2 != s {
		t.Fatalf("expected slot %d to be reused, got %d", s, s2)
	}
	fresh := p.Handle(s2)
	if fresh.Generation() == old.Generation() {
		t.Errorf("expected a new generation, both are %d", fresh.Generation())
	}
	if _, e := p.Resolve(old); e != nil {
		t.Error("expected stale handle to stay absent after reuse")
	}
	if _, e := p.Resolve(fresh); e == nil {
		t.Error("expected fresh handle to resolve")
	}
}

func TestFirstAllocationGeneration(t *testing.T) {
	p := NewPool[thing](2)
	s, _ := p.Allocate()
	if g := p.Generation(s); g != 1 {
		t.Errorf("expected generation 1, got %d", g)
	}
}

func TestGenerationWraps(t *testing.T) {
	p := NewPool[thing](1)
	for i := 0; i < 32; i++ {
		s, err := p.Allocate()
		if err != nil {
			t.Fatalf("Allocate() failed: %v", err)
		}
		p.Release(s)
	}
	if g := p.Generation(1); g != 0 {
		t.Errorf("expected generation to wrap to 0, got %d", g)
	}
}

func TestListOrder(t *testing.T) {
	p := NewPool[thing](6)
	l := NewList(p.Link)
	for i := int32(1); i <= 3; i++ {
		s, _ := p.Allocate()
		l.PushBack(s)
	}
	front := l.Front()
	s, _ := p.Allocate()
	l.InsertBefore(front, s)
	if l.Front() != s {
		t.Errorf("expected %d at the front, got %d", s, l.Front())
	}
	l.Remove(front)
	if l.Len() != 3 {
		t.Errorf("expected 3 members, got %d", l.Len())
	}
	seen := 0
	l.Each(func(int32) { seen++ })
	if seen != 3 {
		t.Errorf("expected to visit 3 members, visited %d", seen)
	}
}
