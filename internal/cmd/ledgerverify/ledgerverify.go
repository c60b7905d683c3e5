// Package ledgerverify implements the ledger-verify command: it sweeps gangs
// and compares live totals against a fresh recomputation and the latest
// ledger entry. Drift is reported on stdout and recorded as WARN audit
// events; the command fails only when a check cannot run.
package ledgerverify

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	entrypoint "github.com/louisbranch/gangledger/internal/platform/cmd"
	"github.com/louisbranch/gangledger/internal/platform/config"
	"github.com/louisbranch/gangledger/internal/services/roster/app"
	"github.com/louisbranch/gangledger/internal/services/roster/domain/gang"
	storagesqlite "github.com/louisbranch/gangledger/internal/services/roster/storage/sqlite"
)

// Config holds configuration for the ledger verifier.
type Config struct {
	DBPath     string `env:"GANGLEDGER_DB_PATH" envDefault:"data/gangledger.db"`
	ConfigPath string `env:"GANGLEDGER_CONFIG"`
	// GangID restricts the sweep to one gang when set.
	GangID string
}

// fileConfig mirrors the keys a TOML config file may set.
type fileConfig struct {
	DBPath string `toml:"db_path"`
	Gang   string `toml:"gang"`
}

// ParseConfig parses environment and flags into a Config. Precedence is
// flags, then the config file, then environment, then built-in defaults.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "roster database path")
	fs.StringVar(&cfg.GangID, "gang", "", "verify a single gang (default: all)")
	fs.StringVar(&cfg.ConfigPath, "config", cfg.ConfigPath, "TOML config file")
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
		if !set["db-path"] && overlay.DBPath != "" {
			cfg.DBPath = overlay.DBPath
		}
		if !set["gang"] && overlay.Gang != "" {
			cfg.GangID = overlay.Gang
		}
	}

	return cfg, nil
}

// Run executes the verifier using the provided Config.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if out == nil {
		out = io.Discard
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceLedgerVerify, func(ctx context.Context) error {
		return runVerify(ctx, cfg, out)
	})
}

func runVerify(ctx context.Context, cfg Config, out io.Writer) error {
	store, err := storagesqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	svc := app.New(store)

	var gangs []gang.Gang
	if gangID := strings.TrimSpace(cfg.GangID); gangID != "" {
		g, err := svc.GetGang(ctx, gangID)
		if err != nil {
			return fmt.Errorf("get gang %s: %w", gangID, err)
		}
		gangs = []gang.Gang{g}
	} else {
		gangs, err = svc.ListGangs(ctx)
		if err != nil {
			return fmt.Errorf("list gangs: %w", err)
		}
	}

	drifted := 0
	for _, g := range gangs {
		result, err := svc.CheckGangConsistency(ctx, g.ID)
		if err != nil {
			return fmt.Errorf("check gang %s: %w", g.ID, err)
		}
		if result.Clean() {
			continue
		}
		drifted++
		fmt.Fprintf(out, "%s (%s): %s\n", g.Name, g.ID, strings.Join(result.Issues, "; "))
	}

	if drifted > 0 {
		_, err = fmt.Fprintf(out, "%d of %d gang(s) drifted\n", drifted, len(gangs))
		return err
	}
	_, err = fmt.Fprintf(out, "verified %d gang(s), no drift\n", len(gangs))
	return err
}
