package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/stubd/pkg/config"
	"github.com/getmockd/stubd/pkg/fault"
	"github.com/getmockd/stubd/pkg/logging"
	"github.com/getmockd/stubd/pkg/metrics"
	"github.com/getmockd/stubd/pkg/requestlog"
	"github.com/getmockd/stubd/pkg/stub"
)

// shutdownTimeout is the maximum time to wait for graceful shutdown.
const shutdownTimeout = 30 * time.Second

type serveFlags struct {
	port     int
	host     string
	fixtures string
	noAdmin  bool
	seed     int64
}

// serveFlagVals is the package-level instance bound to cobra flags.
var serveFlagVals serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stub server (foreground)",
	Long: `Start the stub server. Fixtures are loaded and routes registered before
the listener is bound: a malformed fixture or a bad route stops stubd before it
accepts any connection. The server runs until interrupted.`,
	Example: `  # Serve the stock routes from example1.json and example2.json
  stubd serve

  # Serve a configuration on another port
  stubd serve --config stubd.yaml --port 8080

  # Add every fixture under ./fixtures, JSON logs
  stubd serve -c stubd.yaml --fixtures 'fixtures/**/*.json' --log-format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(func(c *config.Config) {
			applyServeFlags(cmd, c, &serveFlagVals)
		})
		if err != nil {
			return err
		}
		return runServe(cmd.Context(), cfg, serveFlagVals.seed, cmd.ErrOrStderr())
	},
}

func initServeCmd() {
	f := &serveFlagVals
	serveCmd.Flags().IntVarP(&f.port, "port", "p", config.DefaultPort, "HTTP server port")
	serveCmd.Flags().StringVar(&f.host, "host", "", "Bind address (default: all interfaces)")
	serveCmd.Flags().StringVar(&f.fixtures, "fixtures", "", "Glob of extra fixture files, ** allowed")
	serveCmd.Flags().BoolVar(&f.noAdmin, "no-admin", false, "Disable the admin API")
	serveCmd.Flags().Int64Var(&f.seed, "seed", 0, "Seed for failure injection (0 = random)")
}

// applyServeFlags lets explicitly set flags override the configuration. It
// runs before validation: routes may reference fixtures that only --fixtures
// provides.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config, f *serveFlags) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = f.port
	}
	if flags.Changed("host") {
		cfg.Host = f.host
	}
	if f.fixtures != "" {
		cfg.FixtureGlob = f.fixtures
	}
	if f.noAdmin {
		cfg.Admin.Enabled = false
	}
}

// newServer builds a stub server from cfg. Fixture and route errors are
// returned before anything is bound; warnings go to warn.
func newServer(cfg *config.Config, log *slog.Logger, seed int64, warn io.Writer) (*stub.Server, error) {
	store, table, err := cfg.Build(log)
	if err != nil {
		return nil, err
	}
	warnUnusedFixtures(warn, store, table)

	return stub.NewServer(store, table,
		stub.WithAddr(cfg.Addr()),
		stub.WithLogger(logging.Component(log, "stub")),
		stub.WithTimeouts(cfg.ReadTimeout.Std(), cfg.WriteTimeout.Std()),
		stub.WithAdminPrefix(cfg.AdminPrefix()),
		stub.WithCORS(cfg.CORSOrigins()),
		stub.WithRequestLog(requestlog.NewMemoryStore(cfg.MaxLogEntries)),
		stub.WithInjector(fault.NewInjector(seed)),
		stub.WithMetrics(metrics.New()),
		stub.WithVersion(Version),
	), nil
}

func runServe(ctx context.Context, cfg *config.Config, seed int64, warn io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := newLogger(cfg)

	srv, err := newServer(cfg, log, seed, warn)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}

	if prefix := cfg.AdminPrefix(); prefix != "" {
		log.Info("admin API enabled", "url", "http://"+displayAddr(srv.Addr())+prefix)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// displayAddr turns ":3000" or "[::]:3000" into "localhost:3000".
func displayAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "::" || host == "0.0.0.0" {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
