package data

import (
	"testing"

	"github.com/drevilslab/openbw/internal/geom"
)

func loadTestTables(t *testing.T) *Tables {
	t.Helper()
	tables, err := LoadTables("testdata")
	if err != nil {
		t.Fatalf("load tables: %v", err)
	}
	return tables
}

func TestLoadTablesResolvesReferences(t *testing.T) {
	tables := loadTestTables(t)

	if tables.Count() != 4 {
		t.Errorf("expected 4 unit types, got %d", tables.Count())
	}
	g := tables.Unit(TerranGoliath)
	if g.Turret == nil || g.Turret.ID != TerranGoliathTurret {
		t.Fatalf("expected goliath turret, got %+v", g.Turret)
	}
	if !g.Turret.HasFlag(FlagTurret) {
		t.Errorf("expected turret flag on %s", g.Turret.Name)
	}
	if g.Flingy.Sprite.Image.ID != 1 {
		t.Errorf("expected goliath image 1, got %d", g.Flingy.Sprite.Image.ID)
	}
	if g.NameIndex != int(TerranGoliath)+1 {
		t.Errorf("expected default name index %d, got %d", int(TerranGoliath)+1, g.NameIndex)
	}
	if g.Dimensions.From != (geom.XY{X: 16, Y: 16}) || g.Dimensions.To != (geom.XY{X: 15, Y: 15}) {
		t.Errorf("unexpected goliath dimensions %+v", g.Dimensions)
	}
	if g.Hitpoints.IntegerPart() != 125 {
		t.Errorf("expected 125 hp, got %d", g.Hitpoints.IntegerPart())
	}
}

func TestIdleOrdersDefault(t *testing.T) {
	tables := loadTestTables(t)

	m := tables.Unit(TerranMarine)
	if m.HumanAIIdle.ID != OrderPlayerGuard || m.ComputerAIIdle.ID != OrderPlayerGuard {
		t.Errorf("expected PlayerGuard idle, got %s %s", m.HumanAIIdle.Name, m.ComputerAIIdle.Name)
	}
	if m.AttackUnit.ID != OrderAttackUnit {
		t.Errorf("expected AttackUnit, got %s", m.AttackUnit.Name)
	}
	turret := tables.Unit(TerranGoliathTurret)
	if turret.ReturnToIdle.ID != OrderTurretGuard {
		t.Errorf("expected TurretGuard, got %s", turret.ReturnToIdle.Name)
	}
	depot, ok := tables.LookupUnit(109)
	if !ok {
		t.Fatal("expected supply depot")
	}
	if depot.HumanAIIdle.ID != OrderNothing {
		t.Errorf("expected Nothing for a building, got %s", depot.HumanAIIdle.Name)
	}
}

func TestOrderTableOverrides(t *testing.T) {
	tables := loadTestTables(t)

	if tables.Order(OrderDie).CanBeInterrupted {
		t.Error("expected Die to be uninterruptible")
	}
	if !tables.Order(OrderMove).Unk7 {
		t.Error("expected Move to keep moving")
	}
	if tables.Order(OrderMove).Highlight != 228 {
		t.Errorf("expected highlight 228, got %d", tables.Order(OrderMove).Highlight)
	}
	// not listed: defaults
	if h := tables.Order(OrderHover).Highlight; h != -1 {
		t.Errorf("expected no highlight, got %d", h)
	}
	if !tables.Order(OrderHover).CanBeInterrupted {
		t.Error("expected Hover to be interruptible")
	}
}

func TestAcquisitionRangesFollowWeapons(t *testing.T) {
	tables := loadTestTables(t)

	if r := tables.Unit(TerranMarine).TargetAcquisitionRange; r != 128 {
		t.Errorf("expected marine range 128, got %d", r)
	}
	// the carrier takes the turret's weapons
	if r := tables.Unit(TerranGoliath).TargetAcquisitionRange; r != 192 {
		t.Errorf("expected goliath range 192, got %d", r)
	}
	if r := tables.Unit(TerranGoliathTurret).TargetAcquisitionRange; r != 192 {
		t.Errorf("expected turret range 192, got %d", r)
	}
}

func TestMaxUnitSize(t *testing.T) {
	tables := loadTestTables(t)
	// supply depot: 38+1+38 by 22+1+26
	if tables.MaxUnitWidth != 77 || tables.MaxUnitHeight != 49 {
		t.Errorf("expected 77x49, got %dx%d", tables.MaxUnitWidth, tables.MaxUnitHeight)
	}
}

func TestImageLoOffsets(t *testing.T) {
	tables := loadTestTables(t)
	lo := tables.Image(1).LoOffsets[2]
	if len(lo) != 1 || len(lo[0]) != 1 {
		t.Fatalf("expected one frame with one offset, got %v", lo)
	}
	if lo[0][0] != (geom.XY{X: 0, Y: -6}) {
		t.Errorf("expected (0,-6), got %+v", lo[0][0])
	}
	if tables.Image(4).HasIscriptAnims {
		t.Error("expected the shadow to have no animations")
	}
}

func TestLoadMap(t *testing.T) {
	m, err := LoadMap("testdata/map.yaml")
	if err != nil {
		t.Fatalf("load map: %v", err)
	}
	if m.Width() != 512 || m.Height() != 512 {
		t.Errorf("expected 512x512, got %dx%d", m.Width(), m.Height())
	}
	if f := m.TileFlags(geom.XY{X: 5 * 32, Y: 3 * 32}); f&TileUnwalkable == 0 {
		t.Errorf("expected an unwalkable tile, got %#x", f)
	}
	if h := m.GroundHeight(geom.XY{X: 10*32 + 5, Y: 8 * 32}); h != 2 {
		t.Errorf("expected high ground, got %d", h)
	}
	if h := m.GroundHeight(geom.XY{X: 10, Y: 10}); h != 0 {
		t.Errorf("expected low ground, got %d", h)
	}
	if m.Players[1].Controller != ControllerComputer {
		t.Errorf("expected a computer player, got %d", m.Players[1].Controller)
	}
	// neutral is allied with everyone
	if m.Alliances[0][11] != 1 || m.Alliances[11][1] != 1 {
		t.Error("expected neutral alliances")
	}
	if m.SharedVision[3] != 1<<3 {
		t.Errorf("expected own vision, got %#x", m.SharedVision[3])
	}
	if len(m.Units) != 2 || m.Units[1].Type != TerranGoliath {
		t.Errorf("expected 2 placed units, got %+v", m.Units)
	}
	if r := m.RegionAt(geom.XY{X: 300, Y: 300}); r.Index != 0 {
		t.Errorf("expected the default region, got %d", r.Index)
	}
}

func TestGeneratedContoursSurroundWall(t *testing.T) {
	m, err := LoadMap("testdata/map.yaml")
	if err != nil {
		t.Fatalf("load map: %v", err)
	}
	// the wall spans tiles x 5..8, y 3..4; the row above blocks downwards
	var found bool
	for _, c := range m.Contours[2] {
		if c.V == [3]int{3 * 32, 5 * 32, 8*32 + 31} {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a downward contour above the wall, got %v", m.Contours[2])
	}
	for d := range m.Contours {
		if len(m.Contours[d]) == 0 {
			t.Errorf("expected contours in direction %d", d)
		}
	}
}
