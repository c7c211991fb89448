// Package world holds the mutable state of a game and the helpers that
// every stage of a tick shares: entity pools and lists, tiles and vision,
// sprite and image bookkeeping, terrain queries and unit counters.
package world

import (
	"go.uber.org/zap"

	"github.com/drevilslab/openbw/internal/core/ecs"
	"github.com/drevilslab/openbw/internal/data"
	"github.com/drevilslab/openbw/internal/finder"
	"github.com/drevilslab/openbw/internal/iscript"
	"github.com/drevilslab/openbw/internal/rng"
)

// Pool capacities of the legacy engine.
const (
	MaxUnits   = 1700
	MaxSprites = 2500
	MaxImages  = 5000
	MaxOrders  = 2000
)

// NumPlayers is the number of player slots. Slot 11 is neutral.
const NumPlayers = 12

// NeutralPlayer owns map doodads and critters.
const NeutralPlayer = 11

// Tile is the per-tile vision state. Visible and Explored hold one bit per
// player that does NOT see the tile.
type Tile struct {
	Visible  uint8
	Explored uint8
	Flags    uint16
}

// Raw packs a tile the way reveal masks are applied to it.
func (t Tile) Raw() uint32 {
	return uint32(t.Visible) | uint32(t.Explored)<<8 | uint32(t.Flags)<<16
}

func tileFromRaw(r uint32) Tile {
	return Tile{Visible: uint8(r), Explored: uint8(r >> 8), Flags: uint16(r >> 16)}
}

// State is everything a tick reads and writes.
type State struct {
	Tables  *data.Tables
	Map     *data.Map
	Program *iscript.Program
	RNG     *rng.LCG
	Finder  *finder.Finder
	Log     *zap.Logger

	Units   *ecs.Pool[Unit]
	Sprites *ecs.Pool[Sprite]
	Images  *ecs.Pool[Image]
	Orders  *ecs.Pool[Order]

	VisibleUnits ecs.List
	HiddenUnits  ecs.List
	ScannerUnits ecs.List
	PlayerUnits  [NumPlayers]ecs.List
	TileLines    []ecs.List

	// sight related units; no unit joins this list yet
	SightRelatedUnits ecs.List

	Tiles []Tile
	Sight [NumSightRanges]SightValues
	// sightScratch holds the per-node propagation values of one reveal.
	sightScratch []uint32

	Frame                      int
	OrderTimerCounter          int
	SecondaryOrderTimerCounter int
	UpdateTilesCountdown       int
	UpdateTiles                bool
	AllocatedOrderCount        int
	LastNetError               int

	// LocalMask selects the player whose view drives sprite visibility.
	LocalMask   uint32
	LocalPlayer int
	IsReplay    bool

	Players       [NumPlayers]data.Player
	Alliances     [NumPlayers][NumPlayers]int
	SharedVision  [NumPlayers]int
	UpgradeLevels [NumPlayers][data.NumUpgrades]int

	UnitCounts                    [NumPlayers][data.NumUnitTypes]int
	CompletedUnitCounts           [NumPlayers][data.NumUnitTypes]int
	FactoryCounts                 [NumPlayers]int
	BuildingCounts                [NumPlayers]int
	NonBuildingCounts             [NumPlayers]int
	CompletedFactoryCounts        [NumPlayers]int
	CompletedBuildingCounts       [NumPlayers]int
	TotalBuildingsEverCompleted   [NumPlayers]int
	TotalNonBuildingsEverComplete [NumPlayers]int
	UnitScore                     [NumPlayers]int
	BuildingScore                 [NumPlayers]int
	// SupplyUsed and SupplyAvailable are indexed by race: zerg, terran,
	// protoss.
	SupplyUsed      [3][NumPlayers]int
	SupplyAvailable [3][NumPlayers]int
}

// New creates the state of a game on m and resets it.
func New(tables *data.Tables, m *data.Map, prog *iscript.Program, log *zap.Logger) *State {
	if log == nil {
		log = zap.NewNop()
	}
	s := &State{
		Tables:    tables,
		Map:       m,
		Program:   prog,
		RNG:       rng.New(rng.InitialState),
		Log:       log,
		Units:     ecs.NewPool[Unit](MaxUnits),
		Sprites:   ecs.NewPool[Sprite](MaxSprites),
		Images:    ecs.NewPool[Image](MaxImages),
		Orders:    ecs.NewPool[Order](MaxOrders),
		LocalMask: 1,
	}
	s.Sight = GenerateSightValues(m.TileWidth)
	maxNodes := 0
	for _, v := range s.Sight {
		maxNodes = max(maxNodes, len(v.Nodes))
	}
	s.sightScratch = make([]uint32, maxNodes)
	s.Reset()
	return s
}

// Reset returns the state to the moment before the first unit is placed.
func (s *State) Reset() {
	s.Units.Reset()
	s.Sprites.Reset()
	s.Images.Reset()
	s.Orders.Reset()

	s.VisibleUnits = ecs.NewList(s.Units.Link)
	s.HiddenUnits = ecs.NewList(s.Units.Link)
	s.ScannerUnits = ecs.NewList(s.Units.Link)
	s.SightRelatedUnits = ecs.NewList(s.Units.Link)
	for i := range s.PlayerUnits {
		s.PlayerUnits[i] = ecs.NewList(s.playerLink)
	}
	s.TileLines = make([]ecs.List, s.Map.TileHeight)
	for i := range s.TileLines {
		s.TileLines[i] = ecs.NewList(s.Sprites.Link)
	}

	s.Tiles = make([]Tile, len(s.Map.Tiles))
	for i, f := range s.Map.Tiles {
		s.Tiles[i] = Tile{Visible: 0xff, Explored: 0xff, Flags: f}
	}

	s.Finder = finder.New(s.Map.Width(), MaxUnits, s.Tables.MaxUnitWidth, s.Tables.MaxUnitHeight)

	s.Frame = 0
	s.OrderTimerCounter = 10
	s.SecondaryOrderTimerCounter = 150
	s.UpdateTilesCountdown = 0
	s.UpdateTiles = false
	s.AllocatedOrderCount = 0
	s.LastNetError = 0

	s.Players = s.Map.Players
	s.Alliances = s.Map.Alliances
	s.SharedVision = s.Map.SharedVision
	s.UpgradeLevels = [NumPlayers][data.NumUpgrades]int{}

	s.UnitCounts = [NumPlayers][data.NumUnitTypes]int{}
	s.CompletedUnitCounts = [NumPlayers][data.NumUnitTypes]int{}
	s.FactoryCounts = [NumPlayers]int{}
	s.BuildingCounts = [NumPlayers]int{}
	s.NonBuildingCounts = [NumPlayers]int{}
	s.CompletedFactoryCounts = [NumPlayers]int{}
	s.CompletedBuildingCounts = [NumPlayers]int{}
	s.TotalBuildingsEverCompleted = [NumPlayers]int{}
	s.TotalNonBuildingsEverComplete = [NumPlayers]int{}
	s.UnitScore = [NumPlayers]int{}
	s.BuildingScore = [NumPlayers]int{}
	s.SupplyUsed = [3][NumPlayers]int{}
	s.SupplyAvailable = [3][NumPlayers]int{}

	s.RNG.Reset(rng.InitialState)
}

func (s *State) playerLink(slot int32) *ecs.Link {
	return &s.Units.Get(slot).PlayerLink
}

// Unit resolves a handle. Stale handles yield nil.
func (s *State) Unit(h ecs.Handle) *Unit {
	_, u := s.Units.Resolve(h)
	return u
}

// UnitHandle returns the current handle of u, or 0 for nil.
func (s *State) UnitHandle(u *Unit) ecs.Handle {
	if u == nil {
		return 0
	}
	return s.Units.Handle(u.Index)
}

// SpriteOf returns the sprite of u, or nil.
func (s *State) SpriteOf(u *Unit) *Sprite {
	return s.Sprites.Get(u.Sprite)
}

// SubunitOf returns the live subunit of u, or nil.
func (s *State) SubunitOf(u *Unit) *Unit {
	return s.Unit(u.Subunit)
}

// EachUnit calls fn for every unit of l front to back. The successor is read
// before fn runs, so fn may move the unit to another list.
func (s *State) EachUnit(l *ecs.List, fn func(u *Unit)) {
	for slot := l.Front(); slot != 0; {
		next := l.Next(slot)
		fn(s.Units.Get(slot))
		slot = next
	}
}

// NetError records a legacy network error code. Zero clears it.
func (s *State) NetError(code int) {
	if code != 0 {
		s.Log.Debug("net error", zap.Int("code", code))
	}
	s.LastNetError = code
}

// LocalUnitStatusError reports an error the local player would see on the
// status line.
func (s *State) LocalUnitStatusError(u *Unit, code int) {
	s.Log.Warn("unit status error",
		zap.Int32("unit", u.Index),
		zap.Int("owner", u.Owner),
		zap.Int("code", code),
	)
}
