package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "openbw.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
[simulation]
seed = 7
tick_rate = "84ms"

[database]
driver = "postgres"
dsn = "postgres://openbw@localhost/openbw"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Simulation.Seed != 7 {
		t.Errorf("expected seed 7, got %d", cfg.Simulation.Seed)
	}
	if cfg.Simulation.TickRate != 84*time.Millisecond {
		t.Errorf("expected 84ms, got %v", cfg.Simulation.TickRate)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("expected postgres, got %s", cfg.Database.Driver)
	}
	if cfg.Database.MaxOpenConns != 4 {
		t.Errorf("expected the default pool size 4, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("expected console logging, got %s", cfg.Logging.Format)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"driver", "[database]\ndriver = \"mysql\"\n"},
		{"tick rate", "[simulation]\ntick_rate = \"0s\"\n"},
		{"max ticks", "[simulation]\nmax_ticks = -1\n"},
		{"profile", "[profile]\nmode = \"block\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv(EnvPath, "")
	if got := ResolvePath(""); got != DefaultPath {
		t.Errorf("expected %s, got %s", DefaultPath, got)
	}
	t.Setenv(EnvPath, "/etc/openbw.toml")
	if got := ResolvePath(""); got != "/etc/openbw.toml" {
		t.Errorf("expected the environment path, got %s", got)
	}
	if got := ResolvePath("local.toml"); got != "local.toml" {
		t.Errorf("expected the flag path, got %s", got)
	}
}
