package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/getmockd/stubd/pkg/cli/internal/output"
	"github.com/getmockd/stubd/pkg/config"
	"github.com/getmockd/stubd/pkg/fixture"
	"github.com/getmockd/stubd/pkg/logging"
	"github.com/getmockd/stubd/pkg/route"
)

// loadConfig reads the configuration named by --config, or the default one.
// Command-line flags win over environment overrides, which win over the file.
// overrides run before validation, so flags can supply what a file lacks.
func loadConfig(overrides ...config.Override) (*config.Config, error) {
	var cfg *config.Config
	if configFile == "" {
		cfg = config.Default()
		if err := cfg.ApplyEnv(os.Getenv); err != nil {
			return nil, err
		}
		for _, o := range overrides {
			o(cfg)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("default configuration: %w", err)
		}
	} else {
		var err error
		if cfg, err = config.Load(configFile, overrides...); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New(logging.FromStrings(cfg.Log.Level, cfg.Log.Format))
}

// warnUnusedFixtures warns about loaded fixtures that no route serves. They
// are still visible through the admin API.
func warnUnusedFixtures(w io.Writer, store *fixture.Store, table *route.Table) {
	used := make(map[string]bool)
	for _, d := range table.Routes() {
		if d.Fixture != "" {
			used[d.Fixture] = true
		}
	}
	for _, name := range store.Names() {
		if !used[name] {
			output.Warn(w, "fixture %q is not used by any route", name)
		}
	}
}
