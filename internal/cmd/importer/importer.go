// Package importer implements the catalog-importer command: it reads a YAML
// catalog document, validates it against the embedded schema, and upserts
// templates and equipment into the roster store.
package importer

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	entrypoint "github.com/louisbranch/gangledger/internal/platform/cmd"
	"github.com/louisbranch/gangledger/internal/platform/config"
	"github.com/louisbranch/gangledger/internal/services/roster/content"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/cost"
	"github.com/louisbranch/gangledger/internal/services/roster/storage"
	storagesqlite "github.com/louisbranch/gangledger/internal/services/roster/storage/sqlite"
)

// Config holds configuration for the catalog importer.
type Config struct {
	Path       string
	DBPath     string `env:"GANGLEDGER_DB_PATH" envDefault:"data/gangledger.db"`
	ConfigPath string `env:"GANGLEDGER_CONFIG"`
	DryRun     bool
}

// fileConfig mirrors the keys a TOML config file may set.
type fileConfig struct {
	Catalog string `toml:"catalog"`
	DBPath  string `toml:"db_path"`
}

// ParseConfig parses environment and flags into a Config. Precedence is
// flags, then the config file, then environment, then built-in defaults.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Path, "catalog", "", "catalog document path (YAML)")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "roster database path")
	fs.StringVar(&cfg.ConfigPath, "config", cfg.ConfigPath, "TOML config file")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "validate without writing to the database")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.ConfigPath) != "" {
		var overlay fileConfig
		if err := config.ParseFile(cfg.ConfigPath, &overlay); err != nil {
			return Config{}, err
		}
		set := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if !set["catalog"] && overlay.Catalog != "" {
			cfg.Path = overlay.Catalog
		}
		if !set["db-path"] && overlay.DBPath != "" {
			cfg.DBPath = overlay.DBPath
		}
	}

	if strings.TrimSpace(cfg.Path) == "" {
		return Config{}, errors.New("catalog is required")
	}

	return cfg, nil
}

// Run executes the importer using the provided Config.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if out == nil {
		out = io.Discard
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceImporter, func(ctx context.Context) error {
		return runImport(ctx, cfg, out)
	})
}

func runImport(ctx context.Context, cfg Config, out io.Writer) error {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return errors.New("catalog is required")
	}

	doc, err := content.Load(path)
	if err != nil {
		return err
	}
	catalog, err := doc.Catalog()
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}

	if cfg.DryRun {
		_, err = fmt.Fprintf(out, "validated %d template(s) and %d equipment record(s) from %s\n",
			len(catalog.Templates), len(catalog.Equipment), path)
		return err
	}

	store, err := storagesqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if err := upsertCatalog(ctx, store, catalog); err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}

	_, err = fmt.Fprintf(out, "imported %d template(s) and %d equipment record(s) into %s\n",
		len(catalog.Templates), len(catalog.Equipment), cfg.DBPath)
	return err
}

// upsertCatalog writes templates first, then equipment, each in ref order so
// reruns touch rows deterministically.
func upsertCatalog(ctx context.Context, store storage.ContentStore, catalog cost.Catalog) error {
	if store == nil {
		return fmt.Errorf("content store is required")
	}

	for _, ref := range sortedKeys(catalog.Templates) {
		if err := store.PutTemplate(ctx, catalog.Templates[ref]); err != nil {
			return fmt.Errorf("put template %s: %w", ref, err)
		}
	}
	for _, ref := range sortedKeys(catalog.Equipment) {
		if err := store.PutEquipment(ctx, catalog.Equipment[ref]); err != nil {
			return fmt.Errorf("put equipment %s: %w", ref, err)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
