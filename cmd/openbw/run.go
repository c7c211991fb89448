package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/drevilslab/openbw/internal/sim"
)

var (
	flagTicks    int
	flagHeadless bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the configured map and scenario",
	Long: `Load the tables, map and iscript named in the config, place the map
units, run the scenario and advance frames at tick_rate until --ticks frames
have run or the process is interrupted.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&flagTicks, "ticks", 0, "Frames to run (0 = max_ticks from config)")
	runCmd.Flags().BoolVar(&flagHeadless, "headless", false, "Run as fast as possible")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Simulation.Map, cfg.Simulation.Seed)
	s, err := newSession(cfg.Simulation, log, true)
	if err != nil {
		return err
	}

	ticks := flagTicks
	if ticks == 0 {
		ticks = cfg.Simulation.MaxTicks
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stopProfile := startProfile(cfg.Profile)
	start := time.Now()
	printReady(fmt.Sprintf("running %s", s.mapName))
	err = advance(ctx, s.game, ticks, cfg.Simulation.TickRate, flagHeadless)
	stopProfile()
	elapsed := time.Since(start)

	fmt.Println()
	s.printUnits()
	printStat("frames", s.game.Frame())
	log.Info("run finished",
		zap.Int("frames", s.game.Frame()),
		zap.Duration("elapsed", elapsed),
	)
	return err
}

// advance runs frames until ticks frames ran (0 means no limit), ctx is
// done or a frame fails. Paced runs wait for the ticker between frames.
func advance(ctx context.Context, g *sim.Game, ticks int, rate time.Duration, headless bool) error {
	var tick <-chan time.Time
	if !headless {
		ticker := time.NewTicker(rate)
		defer ticker.Stop()
		tick = ticker.C
	}
	for n := 0; ticks == 0 || n < ticks; n++ {
		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return nil
		}
		if err := g.Advance(); err != nil {
			return err
		}
	}
	return nil
}
