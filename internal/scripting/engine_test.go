package scripting

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/drevilslab/openbw/internal/core/ecs"
	"github.com/drevilslab/openbw/internal/core/invariant"
	"github.com/drevilslab/openbw/internal/data"
	"github.com/drevilslab/openbw/internal/iscript"
	"github.com/drevilslab/openbw/internal/sim"
	"github.com/drevilslab/openbw/internal/world"
)

func newTestGame(t *testing.T) *sim.Game {
	t.Helper()
	tables, err := data.LoadTables("../data/testdata")
	if err != nil {
		t.Fatalf("load tables: %v", err)
	}
	m, err := data.LoadMap("../data/testdata/map.yaml")
	if err != nil {
		t.Fatalf("load map: %v", err)
	}
	prog, err := iscript.LoadYAML("../data/testdata/iscript.yaml")
	if err != nil {
		t.Fatalf("load iscript: %v", err)
	}
	return sim.New(world.New(tables, m, prog, zap.NewNop()))
}

func newTestEngine(t *testing.T, dir string) *Engine {
	t.Helper()
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestScenarioCreatesAndAdvances(t *testing.T) {
	g := newTestGame(t)
	e := newTestEngine(t, t.TempDir())
	err := e.DoString(g, `
local h, err = openbw.create_unit(0, 0, 200, 200)
assert(h ~= nil, err)
local u = openbw.unit(h)
assert(u.hidden and not u.completed, "expected a fresh hidden unit")
openbw.complete(h)
openbw.advance(5)
u = openbw.unit(h)
assert(u.x == 200 and u.y == 200, "unexpected position")
assert(u.order == "PlayerGuard", u.order)
assert(u.hp == 40, "expected full hp")
handle = h
frame = openbw.frame()
`)
	if err != nil {
		t.Fatalf("DoString() failed: %v", err)
	}
	if f, ok := e.GetGlobalInt("frame"); !ok || f != 5 {
		t.Errorf("expected frame 5, got %d", f)
	}
	h, ok := e.GetGlobalInt("handle")
	if !ok {
		t.Fatal("expected a handle global")
	}
	if u := g.Unit(ecs.Handle(h)); u == nil || !u.Completed() {
		t.Error("expected the unit completed on the Go side")
	}
}

func TestCreateUnitReportsFailure(t *testing.T) {
	g := newTestGame(t)
	e := newTestEngine(t, t.TempDir())
	err := e.DoString(g, `
local h, err = openbw.create_unit(0, 0, -50, -50)
assert(h == nil)
assert(string.find(err, "unit creation failed"), err)
`)
	if err != nil {
		t.Fatalf("DoString() failed: %v", err)
	}
	if g.Err() != nil {
		t.Errorf("expected a healthy game, got %v", g.Err())
	}
}

func TestInvariantViolationPoisons(t *testing.T) {
	g := newTestGame(t)
	e := newTestEngine(t, t.TempDir())
	err := e.DoString(g, `openbw.create_unit(5000, 0, 100, 100)`)
	var ierr *invariant.Error
	if !errors.As(err, &ierr) {
		t.Fatalf("expected an invariant error, got %v", err)
	}
	if g.Err() == nil {
		t.Error("expected the game poisoned")
	}
	if err := g.Advance(); err == nil {
		t.Error("expected Advance to keep failing")
	}
}

func TestUnknownOrder(t *testing.T) {
	g := newTestGame(t)
	e := newTestEngine(t, t.TempDir())
	err := e.DoString(g, `
local h = openbw.create_unit(0, 0, 200, 200)
openbw.order(h, "Dance", 0, 0)
`)
	if err == nil {
		t.Fatal("expected an error for an unknown order")
	}
	if g.Err() != nil {
		t.Errorf("expected argument errors to leave the game alone, got %v", g.Err())
	}
}

func TestHandleOutOfRange(t *testing.T) {
	g := newTestGame(t)
	e := newTestEngine(t, t.TempDir())
	for _, src := range []string{
		`openbw.unit(2047)`,
		`openbw.unit(-1)`,
		`openbw.unit(70000)`,
		`openbw.complete(2047)`,
		`openbw.order(2047, "Stop", 0, 0)`,
	} {
		if err := e.DoString(g, src); err == nil {
			t.Errorf("%s: expected an error", src)
		}
	}
	if g.Err() != nil {
		t.Errorf("expected the game to stay healthy, got %v", g.Err())
	}
}

func TestLibScriptsAndScenarioFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "lib"), 0o755); err != nil {
		t.Fatal(err)
	}
	lib := `
function spawn_row(type, owner, x, y, n, gap)
  local out = {}
  for i = 0, n - 1 do
    local h, err = openbw.create_unit(type, owner, x + i * gap, y)
    assert(h ~= nil, err)
    openbw.complete(h)
    out[#out + 1] = h
  end
  return out
end
`
	if err := os.WriteFile(filepath.Join(dir, "lib", "spawn.lua"), []byte(lib), 0o644); err != nil {
		t.Fatal(err)
	}
	scenario := filepath.Join(dir, "row.lua")
	if err := os.WriteFile(scenario, []byte(`
local row = spawn_row(0, 0, 100, 300, 3, 32)
count = #row
openbw.advance(2)
digest = openbw.digest()
`), 0o644); err != nil {
		t.Fatal(err)
	}

	g := newTestGame(t)
	e := newTestEngine(t, dir)
	if err := e.RunScenario(g, scenario); err != nil {
		t.Fatalf("RunScenario() failed: %v", err)
	}
	if n, _ := e.GetGlobalInt("count"); n != 3 {
		t.Errorf("expected 3 units, got %d", n)
	}
	if in := g.State().Units.InUse(); in != 3 {
		t.Errorf("expected 3 slots in use, got %d", in)
	}
	if g.Frame() != 2 {
		t.Errorf("expected frame 2, got %d", g.Frame())
	}
}
