package data

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/drevilslab/openbw/internal/geom"
)

// Tile flags, the high half of a tile word.
const (
	TileWalkable          uint16 = 0x0001
	TileUnwalkable        uint16 = 0x0004
	TileHasCreep          uint16 = 0x0040
	TileUnbuildable       uint16 = 0x0080
	TileVeryHigh          uint16 = 0x0100
	TileMiddle            uint16 = 0x0200
	TileHigh              uint16 = 0x0400
	TileOccupied          uint16 = 0x0800
	TilePartiallyWalkable uint16 = 0x2000
)

// tile characters of the map rows
var tileChars = map[byte]uint16{
	'.': TileWalkable,
	'm': TileWalkable | TileMiddle,
	'h': TileWalkable | TileHigh,
	'v': TileWalkable | TileVeryHigh,
	'c': TileWalkable | TileHasCreep,
	'#': TileUnwalkable | TileUnbuildable,
}

// splitRegionBase marks a tile region index that refers to a split region.
const splitRegionBase = 0x2000

// Controller is the slot type of a player.
type Controller int

const (
	ControllerInactive Controller = iota
	ControllerComputerGame
	ControllerOccupied
	ControllerRescuePassive
	ControllerUnusedRescueActive
	ControllerComputer
	ControllerOpen
	ControllerNeutral
	ControllerClosed
	ControllerUnusedObserver
	ControllerUserLeft
	ControllerComputerDefeated
)

var controllerNames = map[string]Controller{
	"inactive":      ControllerInactive,
	"computer_game": ControllerComputerGame,
	"occupied":      ControllerOccupied,
	"rescue":        ControllerRescuePassive,
	"computer":      ControllerComputer,
	"open":          ControllerOpen,
	"neutral":       ControllerNeutral,
	"closed":        ControllerClosed,
}

type Player struct {
	Controller Controller
	Race       int
	Force      int
}

// Region is one navigable area of the map.
type Region struct {
	Index    int
	Group    int
	Walkable bool
	// TileArea is in tiles, exclusive on the far edges. Area is the same box
	// in pixels.
	TileArea geom.Rect
	Area     geom.Rect
}

// SplitRegion divides a tile between two regions on its 4x4 walk grid.
type SplitRegion struct {
	Mask uint16
	A, B *Region
}

// Contour is one blocking edge of the walkable area. V holds the fixed
// coordinate followed by the span along the other axis. Dir 0 edges block
// upwards, then clockwise.
type Contour struct {
	V   [3]int
	Dir int
}

// MapUnit is a unit placed on the map before the first tick.
type MapUnit struct {
	Type  UnitTypeID
	Owner int
	Pos   geom.XY
}

// Map is the read-only description of the terrain a game is played on.
type Map struct {
	Name       string
	TileWidth  int
	TileHeight int

	Tiles        []uint16
	Regions      []*Region
	Splits       []SplitRegion
	tileRegion   []int
	Contours     [4][]Contour
	Players      [12]Player
	Alliances    [12][12]int
	SharedVision [12]int
	Units        []MapUnit
}

func (m *Map) Width() int  { return m.TileWidth * 32 }
func (m *Map) Height() int { return m.TileHeight * 32 }

type mapDoc struct {
	Name   string   `yaml:"name"`
	Width  int      `yaml:"width"`
	Height int      `yaml:"height"`
	Tiles  []string `yaml:"tiles"`
	// TileFile names a text file of tile rows, relative to the map.
	TileFile string `yaml:"tile_file"`
	Regions  []struct {
		Area     [4]int `yaml:"area"`
		Group    int    `yaml:"group"`
		Walkable *bool  `yaml:"walkable"`
	} `yaml:"regions"`
	Splits []struct {
		Tile [2]int `yaml:"tile"`
		Mask uint16 `yaml:"mask"`
		A    int    `yaml:"a"`
		B    int    `yaml:"b"`
	} `yaml:"splits"`
	Contours []struct {
		Dir int    `yaml:"dir"`
		V   [3]int `yaml:"v"`
	} `yaml:"contours"`
	Players []struct {
		ID         int    `yaml:"id"`
		Controller string `yaml:"controller"`
		Race       int    `yaml:"race"`
		Force      int    `yaml:"force"`
	} `yaml:"players"`
	Alliances    [][3]int `yaml:"alliances"`
	SharedVision [][2]int `yaml:"shared_vision"`
	Units        []struct {
		Type  int `yaml:"type"`
		Owner int `yaml:"owner"`
		X     int `yaml:"x"`
		Y     int `yaml:"y"`
	} `yaml:"units"`
}

// LoadMap reads a YAML map description. Tile rows come inline or from a
// separate text file; missing regions default to one region covering the
// whole map and missing contours are derived from the unwalkable tiles.
func LoadMap(path string) (*Map, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map %s: %w", path, err)
	}
	var doc mapDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse map: %w", err)
	}
	if doc.Width <= 0 || doc.Height <= 0 || doc.Width > 256 || doc.Height > 256 {
		return nil, fmt.Errorf("map %s: bad dimensions %dx%d", path, doc.Width, doc.Height)
	}
	rows := doc.Tiles
	if doc.TileFile != "" {
		rows, err = readTileRows(resolveRelative(path, doc.TileFile))
		if err != nil {
			return nil, err
		}
	}

	m := &Map{Name: doc.Name, TileWidth: doc.Width, TileHeight: doc.Height}
	if err := m.parseTiles(rows); err != nil {
		return nil, fmt.Errorf("map %s: %w", path, err)
	}
	if err := m.buildRegions(&doc); err != nil {
		return nil, fmt.Errorf("map %s: %w", path, err)
	}
	if len(doc.Contours) > 0 {
		for _, c := range doc.Contours {
			if c.Dir < 0 || c.Dir > 3 {
				return nil, fmt.Errorf("map %s: contour direction %d", path, c.Dir)
			}
			m.Contours[c.Dir] = append(m.Contours[c.Dir], Contour{V: c.V, Dir: c.Dir})
		}
	} else {
		m.generateContours()
	}
	m.sortContours()

	for _, p := range doc.Players {
		if p.ID < 0 || p.ID >= 12 {
			return nil, fmt.Errorf("map %s: player %d out of range", path, p.ID)
		}
		c, ok := controllerNames[p.Controller]
		if !ok {
			return nil, fmt.Errorf("map %s: unknown controller %q", path, p.Controller)
		}
		m.Players[p.ID] = Player{Controller: c, Race: p.Race, Force: p.Force}
	}
	m.defaultAlliances()
	for _, a := range doc.Alliances {
		if !validPlayer(a[0]) || !validPlayer(a[1]) {
			return nil, fmt.Errorf("map %s: alliance %v out of range", path, a)
		}
		m.Alliances[a[0]][a[1]] = a[2]
	}
	for _, v := range doc.SharedVision {
		if !validPlayer(v[0]) || !validPlayer(v[1]) {
			return nil, fmt.Errorf("map %s: shared vision %v out of range", path, v)
		}
		m.SharedVision[v[0]] |= 1 << v[1]
	}
	for _, u := range doc.Units {
		if !UnitTypeID(u.Type).Valid() || !validPlayer(u.Owner) {
			return nil, fmt.Errorf("map %s: bad unit %+v", path, u)
		}
		m.Units = append(m.Units, MapUnit{Type: UnitTypeID(u.Type), Owner: u.Owner, Pos: geom.XY{X: u.X, Y: u.Y}})
	}
	return m, nil
}

func validPlayer(p int) bool { return p >= 0 && p < 12 }

func resolveRelative(base, name string) string {
	if strings.HasPrefix(name, "/") {
		return name
	}
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		return base[:i+1] + name
	}
	return name
}

// readTileRows reads a tile text file; blank lines and lines starting with
// '#' followed by a space are comments.
func readTileRows(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tile file %s: %w", path, err)
	}
	defer f.Close()

	var rows []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "# ") {
			continue
		}
		rows = append(rows, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan tile file %s: %w", path, err)
	}
	return rows, nil
}

func (m *Map) parseTiles(rows []string) error {
	if len(rows) != m.TileHeight {
		return fmt.Errorf("expected %d tile rows, got %d", m.TileHeight, len(rows))
	}
	m.Tiles = make([]uint16, m.TileWidth*m.TileHeight)
	for y, row := range rows {
		if len(row) != m.TileWidth {
			return fmt.Errorf("tile row %d: expected %d columns, got %d", y, m.TileWidth, len(row))
		}
		for x := 0; x < len(row); x++ {
			f, ok := tileChars[row[x]]
			if !ok {
				return fmt.Errorf("tile row %d: unknown tile %q", y, row[x])
			}
			m.Tiles[y*m.TileWidth+x] = f
		}
	}
	return nil
}

func (m *Map) buildRegions(doc *mapDoc) error {
	m.tileRegion = make([]int, m.TileWidth*m.TileHeight)
	for i := range m.tileRegion {
		m.tileRegion[i] = -1
	}
	if len(doc.Regions) == 0 {
		m.addRegion([4]int{0, 0, m.TileWidth, m.TileHeight}, 0, true)
	}
	for _, r := range doc.Regions {
		a := r.Area
		if a[0] < 0 || a[1] < 0 || a[2] > m.TileWidth || a[3] > m.TileHeight || a[0] >= a[2] || a[1] >= a[3] {
			return fmt.Errorf("region %v outside the map", a)
		}
		walkable := true
		if r.Walkable != nil {
			walkable = *r.Walkable
		}
		m.addRegion(a, r.Group, walkable)
	}
	for i, v := range m.tileRegion {
		if v < 0 {
			return fmt.Errorf("tile %d,%d is not covered by a region", i%m.TileWidth, i/m.TileWidth)
		}
	}
	for _, s := range doc.Splits {
		x, y := s.Tile[0], s.Tile[1]
		if x < 0 || y < 0 || x >= m.TileWidth || y >= m.TileHeight {
			return fmt.Errorf("split tile %v outside the map", s.Tile)
		}
		if s.A < 0 || s.A >= len(m.Regions) || s.B < 0 || s.B >= len(m.Regions) {
			return fmt.Errorf("split tile %v: unknown region", s.Tile)
		}
		m.tileRegion[y*m.TileWidth+x] = splitRegionBase + len(m.Splits)
		m.Splits = append(m.Splits, SplitRegion{Mask: s.Mask, A: m.Regions[s.A], B: m.Regions[s.B]})
	}
	return nil
}

func (m *Map) addRegion(a [4]int, group int, walkable bool) {
	r := &Region{
		Index:    len(m.Regions),
		Group:    group,
		Walkable: walkable,
		TileArea: geom.Rect{From: geom.XY{X: a[0], Y: a[1]}, To: geom.XY{X: a[2], Y: a[3]}},
		Area:     geom.Rect{From: geom.XY{X: a[0] * 32, Y: a[1] * 32}, To: geom.XY{X: a[2] * 32, Y: a[3] * 32}},
	}
	m.Regions = append(m.Regions, r)
	for y := a[1]; y < a[3]; y++ {
		for x := a[0]; x < a[2]; x++ {
			m.tileRegion[y*m.TileWidth+x] = r.Index
		}
	}
}

func (m *Map) tileWalkable(x, y int) bool {
	if x < 0 || y < 0 || x >= m.TileWidth || y >= m.TileHeight {
		return true
	}
	f := m.Tiles[y*m.TileWidth+x]
	return f&(TileWalkable|TileHasCreep) != 0
}

// generateContours emits an edge wherever a walkable tile borders an
// unwalkable one, merging neighbouring edges on the same line. The map
// border is left to the bounds check.
func (m *Map) generateContours() {
	blocked := func(x, y, dx, dy int) bool {
		return m.tileWalkable(x, y) && !m.tileWalkable(x+dx, y+dy)
	}
	for y := 0; y < m.TileHeight; y++ {
		m.scanRuns(m.TileWidth, func(x int) bool { return blocked(x, y, 0, -1) }, func(x0, x1 int) {
			m.Contours[0] = append(m.Contours[0], Contour{V: [3]int{y*32 - 1, x0 * 32, x1*32 + 31}, Dir: 0})
		})
		m.scanRuns(m.TileWidth, func(x int) bool { return blocked(x, y, 0, 1) }, func(x0, x1 int) {
			m.Contours[2] = append(m.Contours[2], Contour{V: [3]int{y*32 + 32, x0 * 32, x1*32 + 31}, Dir: 2})
		})
	}
	for x := 0; x < m.TileWidth; x++ {
		m.scanRuns(m.TileHeight, func(y int) bool { return blocked(x, y, 1, 0) }, func(y0, y1 int) {
			m.Contours[1] = append(m.Contours[1], Contour{V: [3]int{x*32 + 32, y0 * 32, y1*32 + 31}, Dir: 1})
		})
		m.scanRuns(m.TileHeight, func(y int) bool { return blocked(x, y, -1, 0) }, func(y0, y1 int) {
			m.Contours[3] = append(m.Contours[3], Contour{V: [3]int{x*32 - 1, y0 * 32, y1*32 + 31}, Dir: 3})
		})
	}
}

func (m *Map) scanRuns(n int, on func(int) bool, emit func(from, to int)) {
	start := -1
	for i := 0; i <= n; i++ {
		if i < n && on(i) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			emit(start, i-1)
			start = -1
		}
	}
}

func (m *Map) sortContours() {
	for i := range m.Contours {
		c := m.Contours[i]
		sort.SliceStable(c, func(a, b int) bool {
			if c[a].V[0] != c[b].V[0] {
				return c[a].V[0] < c[b].V[0]
			}
			return c[a].V[1] < c[b].V[1]
		})
	}
}

func (m *Map) defaultAlliances() {
	for i := 0; i < 12; i++ {
		for j := 0; j < 12; j++ {
			m.Alliances[i][j] = 0
		}
		m.Alliances[i][i] = 1
	}
	for i := 0; i < 12; i++ {
		m.Alliances[i][11] = 1
		m.Alliances[11][i] = 1
	}
	for i := 0; i < 12; i++ {
		m.SharedVision[i] = 1 << i
		c := m.Players[i].Controller
		if c == ControllerRescuePassive || c == ControllerNeutral {
			for j := 0; j < 12; j++ {
				m.Alliances[i][j] = 1
				m.Alliances[j][i] = 1
			}
		}
	}
}

// TileFlags returns the flags of the tile under pos.
func (m *Map) TileFlags(pos geom.XY) uint16 {
	return m.Tiles[m.TileIndex(pos)]
}

// TileIndex maps a pixel position to its tile. Positions off the map are an
// invariant violation at the caller; here they panic on the slice bound.
func (m *Map) TileIndex(pos geom.XY) int {
	return pos.Y/32*m.TileWidth + pos.X/32
}

// RegionAt returns the region under pos, resolving split tiles on their 8px
// walk grid.
func (m *Map) RegionAt(pos geom.XY) *Region {
	idx := m.tileRegion[m.TileIndex(pos)]
	if idx >= splitRegionBase {
		s := &m.Splits[idx-splitRegionBase]
		bit := uint(pos.Y/8&3*4 + pos.X/8&3)
		if s.Mask&(1<<bit) != 0 {
			return s.A
		}
		return s.B
	}
	return m.Regions[idx]
}

// GroundHeight is 2 for high and very high ground, 1 for middle and 0 for
// low ground.
func (m *Map) GroundHeight(pos geom.XY) int {
	f := m.TileFlags(pos)
	switch {
	case f&(TileHigh|TileVeryHigh) != 0:
		return 2
	case f&TileMiddle != 0:
		return 1
	}
	return 0
}
