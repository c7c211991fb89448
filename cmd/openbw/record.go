package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/drevilslab/openbw/internal/config"
	"github.com/drevilslab/openbw/internal/persist"
	"github.com/drevilslab/openbw/internal/sim"
)

// digestBatch is how many frame digests go into one transaction.
const digestBatch = 256

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Run headless and store per-frame digests",
	Args:  cobra.NoArgs,
	RunE:  runRecord,
}

var verifyCmd = &cobra.Command{
	Use:   "verify <run-id>",
	Short: "Replay a recorded run and compare digests",
	Long: `Replay a recorded run with its seed and compare the state digest of
every frame. The first divergent frame is reported.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	recordCmd.Flags().IntVar(&flagTicks, "ticks", 0, "Frames to record (0 = max_ticks from config)")
}

// openDB connects and migrates the configured database.
func openDB(ctx context.Context, cfg *config.Config, log *zap.Logger) (*persist.DB, error) {
	db, err := persist.Open(ctx, cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if err := persist.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	printOK(fmt.Sprintf("%s database ready", db.Driver()))
	return db, nil
}

// digests advances g for ticks frames and collects the digest after each.
// flush is called with every full batch and with the remainder.
func digests(g *sim.Game, ticks int, flush func([]persist.TickDigest) error) error {
	batch := make([]persist.TickDigest, 0, digestBatch)
	for range ticks {
		if err := g.Advance(); err != nil {
			return err
		}
		sum := sim.Digest(g.State())
		batch = append(batch, persist.TickDigest{Frame: g.Frame(), Digest: sum[:]})
		if len(batch) == digestBatch {
			if err := flush(batch); err != nil {
				return err
			}
			batch = make([]persist.TickDigest, 0, digestBatch)
		}
	}
	if len(batch) == 0 {
		return nil
	}
	return flush(batch)
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ticks := flagTicks
	if ticks == 0 {
		ticks = cfg.Simulation.MaxTicks
	}
	if ticks == 0 {
		return fmt.Errorf("record needs --ticks or max_ticks")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	printBanner(cfg.Simulation.Map, cfg.Simulation.Seed)
	printSection("database")
	db, err := openDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()
	fmt.Println()

	s, err := newSession(cfg.Simulation, log, true)
	if err != nil {
		return err
	}
	repo := persist.NewRunRepo(db)
	run, err := repo.CreateRun(ctx, cfg.Simulation.Seed, cfg.Simulation.Map, cfg.Simulation.Scenario)
	if err != nil {
		return err
	}

	stopProfile := startProfile(cfg.Profile)
	start := time.Now()
	err = digests(s.game, ticks, func(b []persist.TickDigest) error {
		return repo.AppendDigests(ctx, run.ID, b)
	})
	stopProfile()
	if err != nil {
		return fmt.Errorf("record run %d: %w", run.ID, err)
	}
	printStat("frames recorded", s.game.Frame())
	printReady(fmt.Sprintf("run %d recorded", run.ID))
	log.Info("run recorded", zap.Int64("run", run.ID), zap.Duration("elapsed", time.Since(start)))
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("run id %q: %w", args[0], err)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := openDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := persist.NewRunRepo(db)
	run, err := repo.FindRun(ctx, id)
	if err != nil {
		return err
	}
	recorded, err := repo.Digests(ctx, id)
	if err != nil {
		return err
	}

	// replay with the recorded inputs, not the config's
	simCfg := cfg.Simulation
	simCfg.Seed = run.Seed
	simCfg.Map = run.MapName
	simCfg.Scenario = run.Scenario
	s, err := newSession(simCfg, log, false)
	if err != nil {
		return err
	}
	var replayed []persist.TickDigest
	if err := digests(s.game, len(recorded), func(b []persist.TickDigest) error {
		replayed = append(replayed, b...)
		return nil
	}); err != nil {
		return fmt.Errorf("replay run %d: %w", id, err)
	}

	if f := persist.FirstDivergence(recorded, replayed); f >= 0 {
		log.Error("run diverged", zap.Int64("run", id), zap.Int("frame", f))
		return fmt.Errorf("run %d diverges at frame %d", id, f)
	}
	printOK(fmt.Sprintf("run %d matches over %d frames", id, len(recorded)))
	return nil
}
