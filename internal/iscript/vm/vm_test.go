package vm

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/drevilslab/openbw/internal/core/invariant"
	"github.com/drevilslab/openbw/internal/data"
	"github.com/drevilslab/openbw/internal/fixed"
	"github.com/drevilslab/openbw/internal/geom"
	"github.com/drevilslab/openbw/internal/iscript"
	"github.com/drevilslab/openbw/internal/rng"
	"github.com/drevilslab/openbw/internal/world"
)

// newTestVM loads the shared fixtures. A non-nil doc replaces the iscript
// program; its script ids must cover the images a test creates.
func newTestVM(t *testing.T, doc *iscript.Doc) (*VM, *world.State) {
	t.Helper()
	tables, err := data.LoadTables("../../data/testdata")
	if err != nil {
		t.Fatalf("load tables: %v", err)
	}
	m, err := data.LoadMap("../../data/testdata/map.yaml")
	if err != nil {
		t.Fatalf("load map: %v", err)
	}
	var prog *iscript.Program
	if doc == nil {
		prog, err = iscript.LoadYAML("../../data/testdata/iscript.yaml")
	} else {
		prog, err = iscript.Assemble(doc)
	}
	if err != nil {
		t.Fatalf("iscript: %v", err)
	}
	st := world.New(tables, m, prog, zap.NewNop())
	return New(st), st
}

// expectPanic runs fn and checks that it aborts with an invariant error
// wrapping target, or any invariant error when target is nil.
func expectPanic(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		err := invariant.Recover(recover())
		if err == nil {
			t.Fatal("expected a panic")
		}
		if target != nil && !errors.Is(err, target) {
			t.Errorf("expected %v, got %v", target, err)
		}
	}()
	fn()
}

func TestCreateSpriteRunsInit(t *testing.T) {
	v, st := newTestVM(t, nil)
	sp := v.CreateSprite(Context{}, st.Tables.Sprite(0), geom.XY{X: 100, Y: 100}, 0)
	if sp == nil {
		t.Fatal("expected a sprite")
	}
	if sp.Images.Len() != 2 {
		t.Fatalf("expected marine and shadow, got %d images", sp.Images.Len())
	}
	main := st.MainImage(sp)
	if main.Type.ID != 0 || sp.Images.Front() != main.Index {
		t.Errorf("expected the marine image in front, got %d", main.Type.ID)
	}
	if main.Iscript.Animation != iscript.AnimInit || main.Iscript.Wait != 124 {
		t.Errorf("expected Init waiting 124, got %s %d", main.Iscript.Animation, main.Iscript.Wait)
	}
	if main.Flags&world.ImageDirectionalFrames == 0 {
		t.Error("expected directional frames on the marine")
	}
	shadow := st.Images.Get(sp.Images.Back())
	if shadow.Type.ID != 4 {
		t.Fatalf("expected the shadow behind, got %d", shadow.Type.ID)
	}
	// images without animations keep only the animation bit
	if shadow.Flags&world.ImageDirectionalFrames != 0 {
		t.Errorf("expected the shadow flags masked, got %#x", shadow.Flags)
	}
	if sp.Width != 64 || sp.Height != 64 {
		t.Errorf("expected 64x64, got %dx%d", sp.Width, sp.Height)
	}
	if st.TileLines[3].Front() != sp.Index {
		t.Error("expected the sprite on tile line 3")
	}
	if sp.VisibilityFlags != ^uint32(0) || sp.ElevationLevel != 4 {
		t.Errorf("unexpected sprite defaults %+v", sp)
	}
}

func TestCreateSpriteOffMap(t *testing.T) {
	v, st := newTestVM(t, nil)
	if sp := v.CreateSprite(Context{}, st.Tables.Sprite(0), geom.XY{X: 600, Y: 10}, 0); sp != nil {
		t.Fatal("expected no sprite off the map")
	}
	if st.Sprites.InUse() != 0 || st.Images.InUse() != 0 {
		t.Errorf("expected nothing allocated, got %d sprites %d images", st.Sprites.InUse(), st.Images.InUse())
	}
}

func TestExecuteSpriteFreesEmptySprite(t *testing.T) {
	v, st := newTestVM(t, nil)
	sp := v.CreateSprite(Context{}, st.Tables.Sprite(5), geom.XY{X: 40, Y: 40}, 0)
	if sp == nil {
		t.Fatal("expected a sprite")
	}
	if !sp.Hidden() || sp.VisibilityFlags != 0 {
		t.Errorf("expected an invisible sprite type to start hidden, got %+v", sp)
	}
	if st.MainImage(sp).FrameIndex != 1 {
		t.Errorf("expected frame 1, got %d", st.MainImage(sp).FrameIndex)
	}
	if !v.ExecuteSprite(Context{}, sp) {
		t.Fatal("expected the sprite to survive one frame")
	}
	if v.ExecuteSprite(Context{}, sp) {
		t.Fatal("expected the sprite to end")
	}
	if st.Sprites.InUse() != 0 || st.Images.InUse() != 0 {
		t.Errorf("expected everything freed, got %d sprites %d images", st.Sprites.InUse(), st.Images.InUse())
	}
	if !st.TileLines[1].Empty() {
		t.Error("expected the tile line cleared")
	}
}

func TestWaitCountsDown(t *testing.T) {
	v, st := newTestVM(t, nil)
	sp := v.CreateSprite(Context{}, st.Tables.Sprite(0), geom.XY{X: 100, Y: 100}, 0)
	main := st.MainImage(sp)
	pc := main.Iscript.PC
	v.ExecuteSprite(Context{}, sp)
	if main.Iscript.Wait != 123 || main.Iscript.PC != pc {
		t.Errorf("expected wait 123 at pc %d, got %d at %d", pc, main.Iscript.Wait, main.Iscript.PC)
	}
}

func TestProbeLeavesImageAlone(t *testing.T) {
	v, st := newTestVM(t, nil)
	sp := v.CreateSprite(Context{}, st.Tables.Sprite(0), geom.XY{X: 100, Y: 100}, 0)
	img := st.MainImage(sp)
	before := *img
	u := &world.Unit{Type: st.Tables.Unit(data.TerranMarine)}

	script := img.Iscript.Script
	probe := iscript.State{Script: script, Animation: iscript.AnimWalking, PC: script.AnimPC(iscript.AnimWalking)}
	for i := 0; i < 4; i++ {
		var d fixed.UFP8
		if !v.Execute(Context{Unit: u}, img, &probe, true, &d) {
			t.Fatal("expected the probe to keep running")
		}
		if d != fixed.UFP8Int(4) {
			t.Errorf("step %d: expected distance 4, got %d", i, d.Raw())
		}
	}
	if *img != before {
		t.Errorf("expected the image untouched, got %+v", *img)
	}
	if !u.NextSpeed.IsZero() {
		t.Errorf("expected no speed change in probe mode, got %d", u.NextSpeed.Raw())
	}
}

func TestMoveSetsNextSpeed(t *testing.T) {
	v, st := newTestVM(t, nil)
	sp := v.CreateSprite(Context{}, st.Tables.Sprite(0), geom.XY{X: 100, Y: 100}, 0)
	u := &world.Unit{Type: st.Tables.Unit(data.TerranMarine)}
	u.SetStatus(world.StatusSpeedUpgrade, true)
	img := st.MainImage(sp)
	v.RunAnim(Context{Unit: u}, img, iscript.AnimWalking)
	// 4 * 1.5
	if u.NextSpeed != fixed.FP8Int(6) {
		t.Errorf("expected speed 6, got %d", u.NextSpeed.Raw())
	}
	if img.Iscript.Animation != iscript.AnimWalking {
		t.Errorf("expected Walking, got %s", img.Iscript.Animation)
	}
}

func TestRunAnimGuards(t *testing.T) {
	v, st := newTestVM(t, nil)
	sp := v.CreateSprite(Context{}, st.Tables.Sprite(0), geom.XY{X: 100, Y: 100}, 0)
	main := st.MainImage(sp)
	shadow := st.Images.Get(sp.Images.Back())
	u := &world.Unit{Type: st.Tables.Unit(data.TerranMarine)}
	ctx := Context{Unit: u}

	v.RunAnim(ctx, main, iscript.AnimWalking)
	pc := main.Iscript.PC
	wait := main.Iscript.Wait
	v.RunAnim(ctx, main, iscript.AnimWalking)
	if main.Iscript.PC != pc || main.Iscript.Wait != wait {
		t.Error("expected Walking not to restart itself")
	}

	// the shadow has no animation entries besides Init and Death
	spc := shadow.Iscript.PC
	v.RunAnim(ctx, shadow, iscript.AnimWalking)
	if shadow.Iscript.Animation != iscript.AnimInit || shadow.Iscript.PC != spc {
		t.Errorf("expected the shadow to ignore Walking, got %s", shadow.Iscript.Animation)
	}

	// repeat attacks start from their init
	v.RunAnim(ctx, main, iscript.AnimGndAttkRpt)
	if main.Iscript.Animation != iscript.AnimGndAttkInit {
		t.Errorf("expected GndAttkInit, got %s", main.Iscript.Animation)
	}
}

func TestDeathEndsImages(t *testing.T) {
	v, st := newTestVM(t, nil)
	sp := v.CreateSprite(Context{}, st.Tables.Sprite(1), geom.XY{X: 200, Y: 200}, 1)
	v.SpriteRunAnim(Context{}, sp, iscript.AnimDeath)
	if !sp.Images.Empty() {
		t.Fatalf("expected every image destroyed, got %d", sp.Images.Len())
	}
	if v.ExecuteSprite(Context{}, sp) {
		t.Error("expected the sprite to be freed")
	}
	if st.Sprites.InUse() != 0 {
		t.Errorf("expected no sprites, got %d", st.Sprites.InUse())
	}
}

func testDoc(code string, anims map[string]string) *iscript.Doc {
	doc := &iscript.Doc{Code: code}
	for id := 0; id <= 5; id++ {
		doc.Scripts = append(doc.Scripts, iscript.ScriptDoc{ID: id, Anims: anims})
	}
	return doc
}

func TestRandCondJmpDrawsWhenAllowed(t *testing.T) {
	doc := testDoc(`
Init:
    randcondjmp 255 Hit
    playfram 1
    goto Idle
Hit:
    playfram 2
Idle:
    wait 100
    goto Idle
`, map[string]string{"Init": "Init"})
	v, st := newTestVM(t, doc)

	st.RNG.Allow()
	sp := v.CreateSprite(Context{}, st.Tables.Sprite(3), geom.XY{X: 100, Y: 100}, 0)
	if got := st.MainImage(sp).FrameIndexBase; got != 2 {
		t.Errorf("expected the jump taken, got frame %d", got)
	}
	if n := st.RNG.Count(rng.SourceRandCondJmp); n != 1 {
		t.Errorf("expected one draw, got %d", n)
	}

	// closed window: the draw yields 0, which is still <= 255
	st.RNG.Forbid()
	sp = v.CreateSprite(Context{}, st.Tables.Sprite(3), geom.XY{X: 200, Y: 100}, 0)
	if got := st.MainImage(sp).FrameIndexBase; got != 2 {
		t.Errorf("expected the jump taken, got frame %d", got)
	}
	if n := st.RNG.Count(rng.SourceRandCondJmp); n != 1 {
		t.Errorf("expected no further draws, got %d", n)
	}
}

func TestCallAndReturn(t *testing.T) {
	doc := testDoc(`
Init:
    call Sub
    playfram 3
Idle:
    wait 100
    goto Idle
Sub:
    setpos 3 -4
    return
`, map[string]string{"Init": "Init"})
	v, st := newTestVM(t, doc)
	sp := v.CreateSprite(Context{}, st.Tables.Sprite(3), geom.XY{X: 100, Y: 100}, 0)
	img := st.MainImage(sp)
	if img.Offset != (geom.XY{X: 3, Y: -4}) {
		t.Errorf("expected offset (3,-4), got %+v", img.Offset)
	}
	if img.FrameIndexBase != 3 {
		t.Errorf("expected execution to resume after the call, got frame %d", img.FrameIndexBase)
	}
}

func TestTurnOpcodesNeedUnit(t *testing.T) {
	doc := testDoc(`
Init:
    wait 1
    turncwise 2
    wait 100
    goto Init
`, map[string]string{"Init": "Init"})
	v, st := newTestVM(t, doc)
	sp := v.CreateSprite(Context{}, st.Tables.Sprite(3), geom.XY{X: 100, Y: 100}, 0)
	expectPanic(t, nil, func() {
		v.ExecuteSprite(Context{}, sp)
	})
}

func TestTurnOpcodesRotateUnit(t *testing.T) {
	doc := testDoc(`
Init:
    wait 1
    turncwise 2
    turnccwise 1
    wait 100
    goto Init
`, map[string]string{"Init": "Init"})
	v, st := newTestVM(t, doc)
	sp := v.CreateSprite(Context{}, st.Tables.Sprite(3), geom.XY{X: 100, Y: 100}, 0)
	u := &world.Unit{Type: st.Tables.Unit(data.TerranMarine)}
	u.Sprite = sp.Index
	v.ExecuteSprite(Context{Unit: u}, sp)
	if u.Heading != fixed.DirRaw(8) {
		t.Errorf("expected heading 8, got %d", u.Heading.Raw())
	}
}

func TestUnimplementedOpcode(t *testing.T) {
	doc := testDoc(`
Init:
    wait 1
    playsnd 7
    wait 100
    goto Init
`, map[string]string{"Init": "Init"})
	v, st := newTestVM(t, doc)
	sp := v.CreateSprite(Context{}, st.Tables.Sprite(3), geom.XY{X: 100, Y: 100}, 0)
	img := st.MainImage(sp)

	// probes skip it
	probe := img.Iscript
	probe.Wait = 0
	if !v.Execute(Context{}, img, &probe, true, nil) {
		t.Fatal("expected the probe to reach the wait")
	}
	expectPanic(t, invariant.ErrNotImplemented, func() {
		v.ExecuteSprite(Context{}, sp)
	})
}

func TestImgOlAddsOverlayAbove(t *testing.T) {
	doc := testDoc(`
Init:
    imgol 5 2 1
    wait 100
    goto Init
`, map[string]string{"Init": "Init"})
	doc.Scripts[5] = iscript.ScriptDoc{ID: 5, Anims: map[string]string{"Init": "Flash"}}
	doc.Code += `
Flash:
    wait 50
    goto Flash
`
	v, st := newTestVM(t, doc)
	sp := v.CreateSprite(Context{}, st.Tables.Sprite(3), geom.XY{X: 100, Y: 100}, 0)
	if sp.Images.Len() != 2 {
		t.Fatalf("expected 2 images, got %d", sp.Images.Len())
	}
	over := st.Images.Get(sp.Images.Front())
	if over.Type.ID != 5 {
		t.Fatalf("expected the overlay in front, got %d", over.Type.ID)
	}
	if over.Offset != (geom.XY{X: 2, Y: 1}) {
		t.Errorf("expected offset (2,1), got %+v", over.Offset)
	}
	if sp.MainImage == over.Index {
		t.Error("expected the main image unchanged")
	}
}

func TestImgOlOrigMovesRunningImage(t *testing.T) {
	doc := testDoc(`
Init:
    imgolorig 5
    wait 100
    goto Init
`, map[string]string{"Init": "Init"})
	doc.Scripts[5] = iscript.ScriptDoc{ID: 5, Anims: map[string]string{"Init": "Flash"}}
	doc.Code += `
Flash:
    wait 50
    goto Flash
`
	v, st := newTestVM(t, doc)
	sp := v.CreateSprite(Context{}, st.Tables.Sprite(1), geom.XY{X: 100, Y: 100}, 0)
	if sp.Images.Len() != 2 {
		t.Fatalf("expected 2 images, got %d", sp.Images.Len())
	}
	main := st.MainImage(sp)
	if main.Offset != (geom.XY{X: 0, Y: -6}) {
		t.Errorf("expected the running image at (0,-6), got %+v", main.Offset)
	}
	over := st.Images.Get(sp.Images.Front())
	if over.Type.ID != 5 {
		t.Fatalf("expected the overlay in front, got %d", over.Type.ID)
	}
	if over.Flags&world.ImageUsesSpecialOffset == 0 {
		t.Error("expected the overlay to use the special offset")
	}
	if over.Offset != (geom.XY{}) {
		t.Errorf("expected the overlay offset untouched, got %+v", over.Offset)
	}
}
