package ecs

import (
	"errors"

	"github.com/drevilslab/openbw/internal/core/invariant"
)

// ErrNoCapacity is returned when a pool has no free slot left. Running out of
// slots is a normal gameplay condition, never a crash.
var ErrNoCapacity = errors.New("no free slot")

// Pool is a fixed-capacity arena. Every slot carries a default Link that is
// used by the free list while the slot is free, and by whichever owner list
// the slot joins once it is live.
type Pool[T any] struct {
	items []T
	links []Link
	gens  []uint8
	live  []bool
	free  List
}

// NewPool creates a pool with all slots on the free list.
func NewPool[T any](capacity int) *Pool[T] {
	p := &Pool[T]{
		items: make([]T, capacity),
		links: make([]Link, capacity),
		gens:  make([]uint8, capacity),
		live:  make([]bool, capacity),
	}
	p.free = NewList(p.Link)
	p.Reset()
	return p
}

// Reset zeroes every slot and rebuilds the free list in slot order using the
// legacy insertion rule: slot 1 comes out first, then the highest slot
// downwards.
func (p *Pool[T]) Reset() {
	var zero T
	for i := range p.items {
		p.items[i] = zero
		p.links[i] = Link{}
		p.gens[i] = 0
		p.live[i] = false
	}
	p.free = NewList(p.Link)
	for i := range p.items {
		p.free.Insert(int32(i + 1))
	}
}

func (p *Pool[T]) Cap() int   { return len(p.items) }
func (p *Pool[T]) InUse() int { return len(p.items) - p.free.Len() }

func (p *Pool[T]) check(s int32) {
	if s <= 0 || int(s) > len(p.items) {
		invariant.Fatalf("slot %d out of range (capacity %d)", s, len(p.items))
	}
}

// Link returns the default hook of slot s.
func (p *Pool[T]) Link(s int32) *Link {
	p.check(s)
	return &p.links[s-1]
}

// Get returns the entity in slot s, or nil for slot 0.
func (p *Pool[T]) Get(s int32) *T {
	if s == 0 {
		return nil
	}
	p.check(s)
	return &p.items[s-1]
}

// NextFree returns the slot the next Allocate will hand out, or 0.
func (p *Pool[T]) NextFree() int32 { return p.free.Front() }

// Allocate pops the head of the free list and advances the generation of
// the slot, so handles to its previous occupant stay stale.
func (p *Pool[T]) Allocate() (int32, error) {
	s := p.free.PopFront()
	if s == 0 {
		return 0, ErrNoCapacity
	}
	p.live[s-1] = true
	p.gens[s-1] = (p.gens[s-1] + 1) % generationCount
	return s, nil
}

// Release puts slot s back on the free list. The slot is inserted after the
// current head, not appended.
func (p *Pool[T]) Release(s int32) {
	p.check(s)
	if !p.live[s-1] {
		invariant.Fatalf("releasing free slot %d", s)
	}
	p.live[s-1] = false
	p.free.Insert(s)
}

func (p *Pool[T]) Live(s int32) bool {
	p.check(s)
	return p.live[s-1]
}

func (p *Pool[T]) Generation(s int32) uint8 {
	p.check(s)
	return p.gens[s-1]
}

// Handle returns the current handle of slot s.
func (p *Pool[T]) Handle(s int32) Handle {
	if s == 0 {
		return 0
	}
	return NewHandle(s, p.Generation(s))
}

// Resolve returns the slot and entity behind h. A nil handle, a freed slot or
// a generation mismatch all yield (0, nil). An index past the end of the pool
// is an invariant violation.
func (p *Pool[T]) Resolve(h Handle) (int32, *T) {
	s := h.Index()
	if s == 0 {
		return 0, nil
	}
	p.check(s)
	if !p.live[s-1] || p.gens[s-1] != h.Generation() {
		return 0, nil
	}
	return s, &p.items[s-1]
}

// FreeSlots lists the free list front to back.
func (p *Pool[T]) FreeSlots() []int32 { return p.free.Slots() }
