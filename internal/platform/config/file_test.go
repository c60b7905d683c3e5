package config

import (
	"os"
	"path/filepath"
	"testing"
)

type fileTestConfig struct {
	DBPath string `toml:"db_path"`
	Budget int    `toml:"budget"`
}

func TestParseFileOverlaysOnlyPresentKeys(t *testing.T) {
	cfg := fileTestConfig{DBPath: "default.db", Budget: 1500}

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("budget = 2000\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	if err := ParseFile(path, &cfg); err != nil {
		t.Fatalf("parse file: %v", err)
	}
	if cfg.Budget != 2000 {
		t.Fatalf("expected budget 2000, got %d", cfg.Budget)
	}
	if cfg.DBPath != "default.db" {
		t.Fatalf("expected db path untouched, got %q", cfg.DBPath)
	}
}

func TestParseFileError(t *testing.T) {
	var cfg fileTestConfig
	if err := ParseFile(filepath.Join(t.TempDir(), "missing.toml"), &cfg); err == nil {
		t.Fatal("expected error for missing file")
	}
}
