// openbw runs the deterministic simulation core headless.
//
// Usage:
//
//	openbw run                 - Run the configured map and scenario
//	openbw record              - Run headless and store per-frame digests
//	openbw verify <run-id>     - Replay a recorded run and compare digests
//	openbw iscript dump <file> - Disassemble an iscript .bin or .yaml
//
// Global flags:
//
//	--config <path>  - Config file (default: $OPENBW_CONFIG or config/openbw.toml)
//	--seed <value>   - Override the RNG seed
//	--profile <mode> - cpu or mem profiling around the run
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/drevilslab/openbw/internal/config"
)

var (
	flagConfig  string
	flagSeed    int64
	flagProfile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "openbw",
	Short: "Deterministic RTS simulation core",
	Long: `openbw advances a game state one frame at a time, bit-exact with the
legacy engine for the same inputs.

Examples:
  openbw run --ticks 2000 --headless
  openbw record --seed 7
  openbw verify 3
  openbw iscript dump data/iscript.bin`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", -1, "RNG seed (-1 = from config)")
	rootCmd.PersistentFlags().StringVar(&flagProfile, "profile", "", "Profile the run: cpu or mem")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(iscriptCmd)
}

// loadConfig reads the config file and applies the global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.ResolvePath(flagConfig))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flagSeed >= 0 {
		cfg.Simulation.Seed = uint32(flagSeed)
	}
	if flagProfile != "" {
		cfg.Profile.Enabled = true
		cfg.Profile.Mode = flagProfile
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// startProfile starts pkg/profile when enabled and returns its stopper.
func startProfile(cfg config.ProfileConfig) func() {
	if !cfg.Enabled {
		return func() {}
	}
	mode := profile.CPUProfile
	if cfg.Mode == "mem" {
		mode = profile.MemProfileAllocs
	}
	p := profile.Start(mode, profile.ProfilePath(cfg.Dir), profile.NoShutdownHook, profile.Quiet)
	return p.Stop
}

// ── Display helpers ───────────────────────────────────────────────

func printBanner(mapName string, seed uint32) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m               openbw  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m       deterministic simulation core       \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mmap:\033[0m %s \033[90m(seed: %d)\033[0m\n\n", mapName, seed)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len([]rune(label)) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
