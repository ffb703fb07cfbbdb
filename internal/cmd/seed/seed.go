// Package seed loads users, cohorts, and feature states from a YAML fixture
// into the admin database.
package seed

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/louisbranch/featureadmin/internal/features"
	platformcmd "github.com/louisbranch/featureadmin/internal/platform/cmd"
	"github.com/louisbranch/featureadmin/internal/services/admin"
)

// Config holds seed command configuration.
type Config struct {
	DBDriver     string `env:"FEATUREADMIN_DB_DRIVER" envDefault:"sqlite"`
	DBPath       string `env:"FEATUREADMIN_DB_PATH" envDefault:"data/featureadmin.db"`
	PostgresDSN  string `env:"FEATUREADMIN_POSTGRES_DSN"`
	FeaturesFile string `env:"FEATUREADMIN_FEATURES_FILE"`
	// File is the fixture to load; empty loads the embedded demo data.
	File    string
	Verbose bool
}

// ParseConfig loads env defaults and then applies flag overrides.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfigFromArgs(&cfg, fs, args, func(fs *flag.FlagSet, cfg *Config) {
		fs.StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "storage driver (sqlite, postgres)")
		fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database path")
		fs.StringVar(&cfg.FeaturesFile, "features", cfg.FeaturesFile, "feature registry YAML (default: embedded)")
		fs.StringVar(&cfg.File, "file", "", "seed fixture YAML (default: embedded demo data)")
		fs.BoolVar(&cfg.Verbose, "v", false, "verbose output")
	}); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run applies the configured fixture and prints a summary to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}

	registry, err := features.DefaultRegistry()
	if cfg.FeaturesFile != "" {
		registry, err = features.LoadRegistryFile(cfg.FeaturesFile)
	}
	if err != nil {
		return err
	}
	fixture, err := LoadFixtureFile(cfg.File)
	if err != nil {
		return err
	}

	store, err := admin.OpenStore(ctx, admin.StoreConfig{
		Driver:      cfg.DBDriver,
		SQLitePath:  cfg.DBPath,
		PostgresDSN: cfg.PostgresDSN,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	report, err := Apply(ctx, store, registry, fixture)
	if err != nil {
		return err
	}
	if cfg.Verbose {
		fmt.Fprintf(out, "users: %d\ncohorts created: %d\nmembers: %d\nfeatures: %d\n",
			report.Users, report.Cohorts, report.Members, report.Features)
	}
	fmt.Fprintln(out, "Seed complete.")
	return nil
}
