package data

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/drevilslab/openbw/internal/core/invariant"
	"github.com/drevilslab/openbw/internal/fixed"
	"github.com/drevilslab/openbw/internal/geom"
)

type weaponDoc struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	MinRange    int    `yaml:"min_range"`
	MaxRange    int    `yaml:"max_range"`
	AttackAngle int    `yaml:"attack_angle"`
}

type flingyDoc struct {
	ID           int   `yaml:"id"`
	Sprite       int   `yaml:"sprite"`
	TopSpeed     int64 `yaml:"top_speed"`
	Acceleration int64 `yaml:"acceleration"`
	HaltDistance int64 `yaml:"halt_distance"`
	TurnRate     int64 `yaml:"turn_rate"`
	MovementType int   `yaml:"movement_type"`
}

type spriteDoc struct {
	ID      int  `yaml:"id"`
	Image   int  `yaml:"image"`
	Visible bool `yaml:"visible"`
}

type imageDoc struct {
	ID            int                `yaml:"id"`
	Name          string             `yaml:"name"`
	Iscript       int                `yaml:"iscript"`
	PaletteType   int                `yaml:"palette_type"`
	Directional   bool               `yaml:"directional"`
	Clickable     bool               `yaml:"clickable"`
	IscriptAnims  bool               `yaml:"iscript_animations"`
	DrawIfCloaked bool               `yaml:"draw_if_cloaked"`
	Frames        int                `yaml:"frames"`
	Width         int                `yaml:"width"`
	Height        int                `yaml:"height"`
	LoOffsets     map[int][][][2]int `yaml:"lo_offsets"`
}

type orderDoc struct {
	Name             string `yaml:"name"`
	ValidForTurret   bool   `yaml:"valid_for_turret"`
	CanBeInterrupted *bool  `yaml:"can_be_interrupted"`
	Highlight        *int   `yaml:"highlight"`
	Unk7             bool   `yaml:"unk7"`
}

type unitDoc struct {
	ID               int      `yaml:"id"`
	Name             string   `yaml:"name"`
	NameIndex        *int     `yaml:"name_index"`
	Flingy           int      `yaml:"flingy"`
	Turret           *int     `yaml:"turret"`
	Hitpoints        int64    `yaml:"hitpoints"`
	ShieldPoints     int      `yaml:"shield_points"`
	HasShield        bool     `yaml:"has_shield"`
	ElevationLevel   int      `yaml:"elevation_level"`
	Flags            []string `yaml:"flags"`
	Groups           []string `yaml:"groups"`
	Construction     *int     `yaml:"construction_image"`
	Dimensions       [4]int   `yaml:"dimensions"`
	Placement        [2]int   `yaml:"placement"`
	BuildTime        int      `yaml:"build_time"`
	SightRange       int      `yaml:"sight_range"`
	AcquisitionRange int      `yaml:"acquisition_range"`
	SpaceRequired    int      `yaml:"space_required"`
	SpaceProvided    int      `yaml:"space_provided"`
	SupplyRequired   int      `yaml:"supply_required"`
	SupplyProvided   int      `yaml:"supply_provided"`
	BuildScore       int      `yaml:"build_score"`
	UnitDirection    int      `yaml:"unit_direction"`
	GroundWeapon     *int     `yaml:"ground_weapon"`
	AirWeapon        *int     `yaml:"air_weapon"`
	HumanAIIdle      string   `yaml:"human_ai_idle"`
	ComputerAIIdle   string   `yaml:"computer_ai_idle"`
	ReturnToIdle     string   `yaml:"return_to_idle"`
	AttackUnit       string   `yaml:"attack_unit"`
	AttackMove       string   `yaml:"attack_move"`
}

// Tables is the read-only type database of a game.
type Tables struct {
	units    [NumUnitTypes]*UnitType
	orders   [NumOrders]*OrderType
	weapons  map[int]*WeaponType
	flingies map[int]*FlingyType
	sprites  map[int]*SpriteType
	images   map[int]*ImageType

	// MaxUnitWidth and MaxUnitHeight are the largest footprints over every
	// loaded unit type; the unit finder widens small queries to them.
	MaxUnitWidth  int
	MaxUnitHeight int
}

func readYAML(dir, name string, out any) error {
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// LoadTables loads the six type tables from dir and resolves every cross
// reference. orders.yaml only lists the orders that differ from the
// defaults (interruptible, no highlight).
func LoadTables(dir string) (*Tables, error) {
	var (
		weapons  []weaponDoc
		flingies []flingyDoc
		sprites  []spriteDoc
		images   []imageDoc
		orders   []orderDoc
		units    []unitDoc
	)
	for _, f := range []struct {
		name string
		out  any
	}{
		{"weapons.yaml", &weapons},
		{"flingy.yaml", &flingies},
		{"sprites.yaml", &sprites},
		{"images.yaml", &images},
		{"orders.yaml", &orders},
		{"units.yaml", &units},
	} {
		if err := readYAML(dir, f.name, f.out); err != nil {
			return nil, err
		}
	}

	t := &Tables{
		weapons:  make(map[int]*WeaponType, len(weapons)),
		flingies: make(map[int]*FlingyType, len(flingies)),
		sprites:  make(map[int]*SpriteType, len(sprites)),
		images:   make(map[int]*ImageType, len(images)),
	}

	for i := range t.orders {
		t.orders[i] = &OrderType{ID: OrderID(i), Name: orderNames[i], CanBeInterrupted: true, Highlight: -1}
	}
	for _, d := range orders {
		id, ok := OrderByName(d.Name)
		if !ok {
			return nil, fmt.Errorf("orders.yaml: unknown order %q", d.Name)
		}
		o := t.orders[id]
		o.ValidForTurret = d.ValidForTurret
		o.Unk7 = d.Unk7
		if d.CanBeInterrupted != nil {
			o.CanBeInterrupted = *d.CanBeInterrupted
		}
		if d.Highlight != nil {
			o.Highlight = *d.Highlight
		}
	}

	for _, d := range weapons {
		t.weapons[d.ID] = &WeaponType{
			ID:          d.ID,
			Name:        d.Name,
			MinRange:    d.MinRange,
			MaxRange:    d.MaxRange,
			AttackAngle: fixed.DirRaw(int64(d.AttackAngle)),
		}
	}

	for _, d := range images {
		img := &ImageType{
			ID:                   d.ID,
			Name:                 d.Name,
			IscriptID:            d.Iscript,
			PaletteType:          d.PaletteType,
			HasDirectionalFrames: d.Directional,
			IsClickable:          d.Clickable,
			HasIscriptAnims:      d.IscriptAnims,
			DrawIfCloaked:        d.DrawIfCloaked,
			Frames:               d.Frames,
			Width:                d.Width,
			Height:               d.Height,
			LoOffsets:            make(map[int][][]geom.XY, len(d.LoOffsets)),
		}
		for lo, frames := range d.LoOffsets {
			conv := make([][]geom.XY, len(frames))
			for fi, offs := range frames {
				for _, o := range offs {
					conv[fi] = append(conv[fi], geom.XY{X: o[0], Y: o[1]})
				}
			}
			img.LoOffsets[lo] = conv
		}
		t.images[d.ID] = img
	}

	for _, d := range sprites {
		img, ok := t.images[d.Image]
		if !ok {
			return nil, fmt.Errorf("sprite %d: unknown image %d", d.ID, d.Image)
		}
		t.sprites[d.ID] = &SpriteType{ID: d.ID, Image: img, Visible: d.Visible}
	}

	for _, d := range flingies {
		spr, ok := t.sprites[d.Sprite]
		if !ok {
			return nil, fmt.Errorf("flingy %d: unknown sprite %d", d.ID, d.Sprite)
		}
		t.flingies[d.ID] = &FlingyType{
			ID:           d.ID,
			Sprite:       spr,
			TopSpeed:     fixed.FP8Raw(d.TopSpeed),
			Acceleration: fixed.FP8Raw(d.Acceleration),
			HaltDistance: fixed.FP8Raw(d.HaltDistance),
			TurnRate:     fixed.UFP8Raw(d.TurnRate),
			MovementType: d.MovementType,
		}
	}

	// Two passes: turrets may be listed after the unit that carries them.
	for _, d := range units {
		if !UnitTypeID(d.ID).Valid() {
			return nil, fmt.Errorf("units.yaml: unit id %d out of range", d.ID)
		}
		if t.units[d.ID] != nil {
			return nil, fmt.Errorf("units.yaml: duplicate unit id %d", d.ID)
		}
		t.units[d.ID] = &UnitType{ID: UnitTypeID(d.ID)}
	}
	for _, d := range units {
		if err := t.resolveUnit(t.units[d.ID], &d); err != nil {
			return nil, fmt.Errorf("unit %d (%s): %w", d.ID, d.Name, err)
		}
	}

	t.setAcquisitionRanges()
	t.setMaxUnitSize()
	return t, nil
}

func (t *Tables) resolveUnit(u *UnitType, d *unitDoc) error {
	f, ok := t.flingies[d.Flingy]
	if !ok {
		return fmt.Errorf("unknown flingy %d", d.Flingy)
	}
	flags, err := parseFlags(d.Flags, unitFlagNames, "unit")
	if err != nil {
		return err
	}
	groups, err := parseFlags(d.Groups, groupNames, "group")
	if err != nil {
		return err
	}

	u.Name = d.Name
	// stat_txt.tbl lists the unit names first, starting at index 1.
	u.NameIndex = d.ID + 1
	if d.NameIndex != nil {
		u.NameIndex = *d.NameIndex
	}
	u.Flingy = f
	u.Hitpoints = fixed.FP8Int(d.Hitpoints)
	u.ShieldPoints = d.ShieldPoints
	u.HasShield = d.HasShield
	u.ElevationLevel = d.ElevationLevel
	u.Flags = flags
	u.Groups = groups
	u.Dimensions = geom.Rect{
		From: geom.XY{X: d.Dimensions[0], Y: d.Dimensions[1]},
		To:   geom.XY{X: d.Dimensions[2], Y: d.Dimensions[3]},
	}
	u.PlacementSize = geom.XY{X: d.Placement[0], Y: d.Placement[1]}
	u.BuildTime = d.BuildTime
	u.SightRange = d.SightRange
	u.TargetAcquisitionRange = d.AcquisitionRange
	u.SpaceRequired = d.SpaceRequired
	u.SpaceProvided = d.SpaceProvided
	u.SupplyRequired = d.SupplyRequired
	u.SupplyProvided = d.SupplyProvided
	u.BuildScore = d.BuildScore
	u.UnitDirection = d.UnitDirection

	if d.Turret != nil {
		if !UnitTypeID(*d.Turret).Valid() || t.units[*d.Turret] == nil {
			return fmt.Errorf("unknown turret %d", *d.Turret)
		}
		u.Turret = t.units[*d.Turret]
	}
	if d.Construction != nil {
		img, ok := t.images[*d.Construction]
		if !ok {
			return fmt.Errorf("unknown construction image %d", *d.Construction)
		}
		u.ConstructionImg = img
	}
	if u.GroundWeapon, err = t.optWeapon(d.GroundWeapon); err != nil {
		return err
	}
	if u.AirWeapon, err = t.optWeapon(d.AirWeapon); err != nil {
		return err
	}

	idle := "PlayerGuard"
	if flags&FlagBuilding != 0 {
		idle = "Nothing"
	}
	for _, o := range []struct {
		dst  **OrderType
		name string
		def  string
	}{
		{&u.HumanAIIdle, d.HumanAIIdle, idle},
		{&u.ComputerAIIdle, d.ComputerAIIdle, idle},
		{&u.ReturnToIdle, d.ReturnToIdle, idle},
		{&u.AttackUnit, d.AttackUnit, "AttackUnit"},
		{&u.AttackMove, d.AttackMove, "AttackMove"},
	} {
		name := o.name
		if name == "" {
			name = o.def
		}
		id, ok := OrderByName(name)
		if !ok {
			return fmt.Errorf("unknown order %q", name)
		}
		*o.dst = t.orders[id]
	}
	return nil
}

func (t *Tables) optWeapon(id *int) (*WeaponType, error) {
	if id == nil {
		return nil, nil
	}
	w, ok := t.weapons[*id]
	if !ok {
		return nil, fmt.Errorf("unknown weapon %d", *id)
	}
	return w, nil
}

// setAcquisitionRanges raises every acquisition range to the reach of the
// unit's weapons, or of its turret's weapons. Types are updated in place in
// id order, so a carrier sees its turret's range before the turret is raised.
func (t *Tables) setAcquisitionRanges() {
	for _, u := range t.units {
		if u == nil {
			continue
		}
		attacking := u
		if u.Turret != nil {
			attacking = u.Turret
		}
		r := attacking.TargetAcquisitionRange
		if w := attacking.GroundWeapon; w != nil && w.MaxRange > r {
			r = w.MaxRange
		}
		if w := attacking.AirWeapon; w != nil && w.MaxRange > r {
			r = w.MaxRange
		}
		u.TargetAcquisitionRange = r
	}
}

func (t *Tables) setMaxUnitSize() {
	for _, u := range t.units {
		if u == nil {
			continue
		}
		w := u.Dimensions.From.X + 1 + u.Dimensions.To.X
		h := u.Dimensions.From.Y + 1 + u.Dimensions.To.Y
		if w > t.MaxUnitWidth {
			t.MaxUnitWidth = w
		}
		if h > t.MaxUnitHeight {
			t.MaxUnitHeight = h
		}
	}
}

// Unit returns the type with the given id. Asking for an id that is out of
// range or absent from the table is an invariant violation.
func (t *Tables) Unit(id UnitTypeID) *UnitType {
	if !id.Valid() || t.units[id] == nil {
		invariant.Fatalf("invalid unit type %d", id)
	}
	return t.units[id]
}

// LookupUnit is Unit without the invariant check.
func (t *Tables) LookupUnit(id UnitTypeID) (*UnitType, bool) {
	if !id.Valid() || t.units[id] == nil {
		return nil, false
	}
	return t.units[id], true
}

// Order returns the order table row for id.
func (t *Tables) Order(id OrderID) *OrderType {
	if id < 0 || id >= NumOrders {
		invariant.Fatalf("invalid order type %d", id)
	}
	return t.orders[id]
}

func (t *Tables) Image(id int) *ImageType {
	img, ok := t.images[id]
	if !ok {
		invariant.Fatalf("invalid image type %d", id)
	}
	return img
}

func (t *Tables) Sprite(id int) *SpriteType {
	s, ok := t.sprites[id]
	if !ok {
		invariant.Fatalf("invalid sprite type %d", id)
	}
	return s
}

// Count returns the number of loaded unit types.
func (t *Tables) Count() int {
	n := 0
	for _, u := range t.units {
		if u != nil {
			n++
		}
	}
	return n
}
