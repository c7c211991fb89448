package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/drevilslab/openbw/internal/config"
	"github.com/drevilslab/openbw/internal/data"
	"github.com/drevilslab/openbw/internal/iscript"
	"github.com/drevilslab/openbw/internal/scripting"
	"github.com/drevilslab/openbw/internal/sim"
	"github.com/drevilslab/openbw/internal/world"
)

// loadProgram picks the legacy binary decoder or the assembler by file
// extension.
func loadProgram(path string) (*iscript.Program, error) {
	if strings.EqualFold(filepath.Ext(path), ".bin") {
		return iscript.LoadBin(path)
	}
	return iscript.LoadYAML(path)
}

// session is a loaded game and the tables it was built from.
type session struct {
	game    *sim.Game
	tables  *data.Tables
	strings *data.StringTable
	mapName string
}

// newSession loads data, map and iscript, seeds the game, places the map
// units and runs the scenario when one is configured.
func newSession(cfg config.SimulationConfig, log *zap.Logger, verbose bool) (*session, error) {
	tables, err := data.LoadTables(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	m, err := data.LoadMap(cfg.Map)
	if err != nil {
		return nil, fmt.Errorf("load map: %w", err)
	}
	prog, err := loadProgram(cfg.Iscript)
	if err != nil {
		return nil, fmt.Errorf("load iscript: %w", err)
	}
	var strs *data.StringTable
	if cfg.StringTable != "" {
		if strs, err = data.LoadStringTable(cfg.StringTable, cfg.StringEncoding); err != nil {
			return nil, fmt.Errorf("load string table: %w", err)
		}
	}
	if verbose {
		printSection("data")
		printStat("unit types", tables.Count())
		printStat("iscript scripts", len(prog.Scripts))
		printStat("map units", len(m.Units))
		if strs != nil {
			printStat("strings", strs.Count())
		}
		printOK("tables loaded")
		fmt.Println()
	}

	g := sim.New(world.New(tables, m, prog, log))
	g.Seed(cfg.Seed)
	if err := g.PlaceMapUnits(); err != nil {
		if g.Err() != nil {
			return nil, fmt.Errorf("place map units: %w", err)
		}
		log.Warn("some map units were not placed", zap.Error(err))
	}

	if cfg.Scenario != "" {
		eng, err := scripting.NewEngine(filepath.Dir(cfg.Scenario), log)
		if err != nil {
			return nil, fmt.Errorf("scripting: %w", err)
		}
		defer eng.Close()
		if err := eng.RunScenario(g, cfg.Scenario); err != nil {
			return nil, err
		}
	}
	return &session{game: g, tables: tables, strings: strs, mapName: m.Name}, nil
}

// printUnits lists the live units by display name.
func (s *session) printUnits() {
	st := s.game.State()
	counts := map[string]int{}
	var names []string
	collect := func(u *world.Unit) {
		n := s.strings.UnitName(u.Type)
		if counts[n] == 0 {
			names = append(names, n)
		}
		counts[n]++
	}
	st.EachUnit(&st.VisibleUnits, collect)
	st.EachUnit(&st.HiddenUnits, collect)
	printSection("units")
	for _, n := range names {
		printStat(n, counts[n])
	}
}
