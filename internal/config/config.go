package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvPath names the environment variable that overrides the config path.
const EnvPath = "OPENBW_CONFIG"

// DefaultPath is used when neither a flag nor the environment names a file.
const DefaultPath = "config/openbw.toml"

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Simulation SimulationConfig `toml:"simulation"`
	Database   DatabaseConfig   `toml:"database"`
	Logging    LoggingConfig    `toml:"logging"`
	Profile    ProfileConfig    `toml:"profile"`
}

type SimulationConfig struct {
	Seed     uint32        `toml:"seed"`
	TickRate time.Duration `toml:"tick_rate"` // 42ms is the "fastest" game speed
	MaxTicks int           `toml:"max_ticks"` // 0 runs until interrupted
	DataDir  string        `toml:"data_dir"`
	Map      string        `toml:"map"`
	Iscript  string        `toml:"iscript"` // .yaml assembly or legacy .bin
	Scenario string        `toml:"scenario"`

	StringTable    string `toml:"string_table"`
	StringEncoding string `toml:"string_encoding"` // cp1252, ms950 or cp949
}

type DatabaseConfig struct {
	Driver          string        `toml:"driver"` // "sqlite" or "postgres"
	DSN             string        `toml:"dsn"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type ProfileConfig struct {
	Enabled bool   `toml:"enabled"`
	Mode    string `toml:"mode"` // "cpu" or "mem"
	Dir     string `toml:"dir"`
}

// ResolvePath picks the config file: an explicit path wins, then the
// environment, then DefaultPath.
func ResolvePath(flag string) string {
	if flag != "" {
		return flag
	}
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: database driver %q", ErrInvalid, c.Database.Driver)
	}
	if c.Simulation.TickRate <= 0 {
		return fmt.Errorf("%w: tick_rate must be positive", ErrInvalid)
	}
	if c.Simulation.MaxTicks < 0 {
		return fmt.Errorf("%w: max_ticks must not be negative", ErrInvalid)
	}
	switch c.Profile.Mode {
	case "", "cpu", "mem":
	default:
		return fmt.Errorf("%w: profile mode %q", ErrInvalid, c.Profile.Mode)
	}
	return nil
}

// Defaults returns the configuration used for keys a file leaves out.
func Defaults() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Seed:           42,
			TickRate:       42 * time.Millisecond,
			DataDir:        "data",
			Map:            "data/map.yaml",
			Iscript:        "data/iscript.yaml",
			StringEncoding: "cp1252",
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "openbw.db",
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Profile: ProfileConfig{
			Mode: "cpu",
			Dir:  ".",
		},
	}
}
