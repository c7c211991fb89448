// Package rng is the linear congruential generator shared by the whole
// simulation. Draws are only live inside an explicitly opened window; outside
// it every call returns 0 and leaves the state untouched.
package rng

// Source identifies the caller of a draw. The numbering is part of the
// replay contract and must not be changed.
type Source int

const (
	SourceWaitRand       Source = 3
	SourceTurnRand       Source = 6
	SourceRandCondJmp    Source = 7
	SourceCreateUnit     Source = 14
	SourceWireframe      Source = 15
	SourceGuard          Source = 29
	SourceFinishBuilding Source = 36
)

const (
	// InitialState is the seed used after a reset.
	InitialState uint32 = 42

	multiplier uint32 = 22695477
	increment  uint32 = 1
)

// LCG is not safe for concurrent use.
type LCG struct {
	state   uint32
	allowed bool
	counts  [256]int
	total   int
}

func New(seed uint32) *LCG {
	return &LCG{state: seed}
}

// Reset restores the generator to its post-load state. Counters are cleared.
func (g *LCG) Reset(seed uint32) {
	*g = LCG{state: seed}
}

// Allow opens the window for the duration of one tick.
func (g *LCG) Allow() { g.allowed = true }

// Forbid closes the window.
func (g *LCG) Forbid() { g.allowed = false }

func (g *LCG) Allowed() bool { return g.allowed }

// Rand returns a 15-bit draw, or 0 when the window is closed.
func (g *LCG) Rand(src Source) int {
	if !g.allowed {
		return 0
	}
	g.counts[src&0xff]++
	g.total++
	g.state = g.state*multiplier + increment
	return int(g.state >> 16 & 0x7fff)
}

// RandRange maps a draw into [from, to].
func (g *LCG) RandRange(src Source, from, to int) int {
	return from + (g.Rand(src)*(to-from+1))>>15
}

func (g *LCG) State() uint32 { return g.state }

// Count returns how many live draws src has made.
func (g *LCG) Count(src Source) int { return g.counts[src&0xff] }

// Total returns the number of live draws across all sources.
func (g *LCG) Total() int { return g.total }

// Counts returns a copy of the per-source counters.
func (g *LCG) Counts() [256]int { return g.counts }
