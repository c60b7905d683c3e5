package importer

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	storagesqlite "github.com/louisbranch/gangledger/internal/services/roster/storage/sqlite"
)

const sampleCatalog = `version: v1
source: house-lists-2026
templates:
  - ref: leader
    category: LEADER
    base_cost: 100
  - ref: ganger
    category: GANGER
    base_cost: 50
equipment:
  - ref: lasgun
    base_cost: 10
    profiles:
      - ref: hotshot
        cost: 5
`

func writeCatalog(t *testing.T, doc string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func clearImporterEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GANGLEDGER_DB_PATH", "")
	t.Setenv("GANGLEDGER_CONFIG", "")
}

func TestParseConfigRequiresCatalog(t *testing.T) {
	clearImporterEnv(t)

	fs := flag.NewFlagSet("catalog-importer", flag.ContinueOnError)
	if _, err := ParseConfig(fs, nil); err == nil {
		t.Fatal("expected error for missing catalog")
	}
}

func TestParseConfigDefaults(t *testing.T) {
	clearImporterEnv(t)

	fs := flag.NewFlagSet("catalog-importer", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-catalog", "catalog.yaml"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Path != "catalog.yaml" {
		t.Fatalf("expected catalog path, got %q", cfg.Path)
	}
	if cfg.DBPath != "data/gangledger.db" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.DryRun {
		t.Fatal("expected dry run off by default")
	}
}

func TestParseConfigEnvAndFlagPrecedence(t *testing.T) {
	clearImporterEnv(t)
	t.Setenv("GANGLEDGER_DB_PATH", "/var/lib/gangledger.db")

	fs := flag.NewFlagSet("catalog-importer", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-catalog", "catalog.yaml"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "/var/lib/gangledger.db" {
		t.Fatalf("expected env db path, got %q", cfg.DBPath)
	}

	fs = flag.NewFlagSet("catalog-importer", flag.ContinueOnError)
	cfg, err = ParseConfig(fs, []string{"-catalog", "catalog.yaml", "-db-path", "local.db"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "local.db" {
		t.Fatalf("expected flag to override env, got %q", cfg.DBPath)
	}
}

func TestParseConfigFileOverlay(t *testing.T) {
	clearImporterEnv(t)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("catalog = \"house-lists.yaml\"\ndb_path = \"file.db\"\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	fs := flag.NewFlagSet("catalog-importer", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-config", configPath})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Path != "house-lists.yaml" {
		t.Fatalf("expected catalog from file, got %q", cfg.Path)
	}
	if cfg.DBPath != "file.db" {
		t.Fatalf("expected db path from file, got %q", cfg.DBPath)
	}

	fs = flag.NewFlagSet("catalog-importer", flag.ContinueOnError)
	cfg, err = ParseConfig(fs, []string{"-config", configPath, "-db-path", "flag.db"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "flag.db" {
		t.Fatalf("expected flag to beat file, got %q", cfg.DBPath)
	}
}

func TestRunDryRunSkipsDatabase(t *testing.T) {
	path := writeCatalog(t, sampleCatalog)
	dbPath := filepath.Join(t.TempDir(), "roster.sqlite")

	var out bytes.Buffer
	err := Run(context.Background(), Config{Path: path, DBPath: dbPath, DryRun: true}, &out)
	if err != nil {
		t.Fatalf("run dry-run: %v", err)
	}
	if !strings.Contains(out.String(), "validated 2 template(s) and 1 equipment record(s)") {
		t.Fatalf("unexpected output %q", out.String())
	}
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatalf("expected no database file, stat err %v", err)
	}
}

func TestRunImportsCatalog(t *testing.T) {
	path := writeCatalog(t, sampleCatalog)
	dbPath := filepath.Join(t.TempDir(), "roster.sqlite")

	var out bytes.Buffer
	if err := Run(context.Background(), Config{Path: path, DBPath: dbPath}, &out); err != nil {
		t.Fatalf("run import: %v", err)
	}
	if !strings.Contains(out.String(), "imported 2 template(s) and 1 equipment record(s)") {
		t.Fatalf("unexpected output %q", out.String())
	}

	store, err := storagesqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	catalog, err := store.LoadCatalog(context.Background())
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if catalog.Templates["leader"].BaseCost != 100 {
		t.Fatalf("expected leader base cost 100, got %d", catalog.Templates["leader"].BaseCost)
	}
	if catalog.Equipment["lasgun"].Profiles["hotshot"] != 5 {
		t.Fatalf("expected hotshot profile cost 5, got %+v", catalog.Equipment["lasgun"])
	}
}

func TestRunReimportReplacesRecords(t *testing.T) {
	path := writeCatalog(t, sampleCatalog)
	dbPath := filepath.Join(t.TempDir(), "roster.sqlite")

	if err := Run(context.Background(), Config{Path: path, DBPath: dbPath}, nil); err != nil {
		t.Fatalf("first import: %v", err)
	}

	updated := strings.Replace(sampleCatalog, "base_cost: 100", "base_cost: 110", 1)
	path = writeCatalog(t, updated)
	if err := Run(context.Background(), Config{Path: path, DBPath: dbPath}, nil); err != nil {
		t.Fatalf("second import: %v", err)
	}

	store, err := storagesqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	catalog, err := store.LoadCatalog(context.Background())
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if catalog.Templates["leader"].BaseCost != 110 {
		t.Fatalf("expected updated base cost 110, got %d", catalog.Templates["leader"].BaseCost)
	}
}

func TestRunRejectsInvalidDocument(t *testing.T) {
	path := writeCatalog(t, "version: v1\ntemplates:\n  - ref: leader\n")

	err := Run(context.Background(), Config{Path: path, DBPath: filepath.Join(t.TempDir(), "roster.sqlite")}, nil)
	if err == nil {
		t.Fatal("expected schema error")
	}
}

func TestRunMissingDocument(t *testing.T) {
	err := Run(context.Background(), Config{Path: filepath.Join(t.TempDir(), "absent.yaml")}, nil)
	if err == nil {
		t.Fatal("expected error for missing document")
	}
}
