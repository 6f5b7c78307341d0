package stub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/getmockd/stubd/pkg/fault"
	"github.com/getmockd/stubd/pkg/fixture"
	"github.com/getmockd/stubd/pkg/logging"
	"github.com/getmockd/stubd/pkg/metrics"
	"github.com/getmockd/stubd/pkg/requestlog"
	"github.com/getmockd/stubd/pkg/route"
)

// Defaults for a Server built without options.
const (
	DefaultAddr         = ":3000"
	DefaultAdminPrefix  = "/__stub"
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
)

// ErrAlreadyRunning is returned by Start on a running server.
var ErrAlreadyRunning = errors.New("server is already running")

// Server is the stub server.
type Server struct {
	fixtures *fixture.Store
	routes   *route.Table
	injector *fault.Injector
	requests requestlog.SubscribableStore
	metrics  *metrics.Metrics
	log      *slog.Logger

	addr         string
	readTimeout  time.Duration
	writeTimeout time.Duration
	adminPrefix  string
	corsOrigins  []string
	version      string

	handler http.Handler

	mu         sync.Mutex
	running    bool
	listener   net.Listener
	httpServer *http.Server
	done       chan struct{}
}

// Option is a functional option for configuring a Server.
type Option func(*Server)

// WithAddr sets the listen address, e.g. ":3000" or "127.0.0.1:0".
func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithTimeouts sets the HTTP read and write timeouts. Zero keeps the default.
// Delayed routes get their delay on top of the write timeout.
func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) {
		if read > 0 {
			s.readTimeout = read
		}
		if write > 0 {
			s.writeTimeout = write
		}
	}
}

// WithAdminPrefix mounts the admin API under prefix. An empty prefix
// disables the admin API.
func WithAdminPrefix(prefix string) Option {
	return func(s *Server) {
		s.adminPrefix = strings.TrimSuffix(prefix, "/")
	}
}

// WithCORS sets the allowed origins. A nil slice disables CORS handling;
// "*" allows every origin.
func WithCORS(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithRequestLog sets the store requests are recorded in.
func WithRequestLog(store requestlog.SubscribableStore) Option {
	return func(s *Server) {
		if store != nil {
			s.requests = store
		}
	}
}

// WithInjector sets the fault injector.
func WithInjector(injector *fault.Injector) Option {
	return func(s *Server) {
		if injector != nil {
			s.injector = injector
		}
	}
}

// WithMetrics sets the metrics collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithVersion sets the version reported by the admin API.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// NewServer creates a Server answering routes from fixtures. Both are owned
// by the caller; the server never copies them.
func NewServer(fixtures *fixture.Store, routes *route.Table, opts ...Option) *Server {
	s := &Server{
		fixtures:     fixtures,
		routes:       routes,
		log:          logging.Nop(),
		addr:         DefaultAddr,
		readTimeout:  DefaultReadTimeout,
		writeTimeout: DefaultWriteTimeout,
		adminPrefix:  DefaultAdminPrefix,
		corsOrigins:  []string{"*"},
		version:      "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.injector == nil {
		s.injector = fault.NewInjector(0)
	}
	if s.requests == nil {
		s.requests = requestlog.NewMemoryStore(requestlog.DefaultMaxEntries)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	s.done = make(chan struct{})
	s.handler = s.buildHandler()
	return s
}

// Handler returns the complete HTTP handler, middleware included. It can be
// served without Start, e.g. by httptest.NewServer.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the listener and serves in the background. Bind errors are
// returned before any connection is accepted.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.readTimeout,
		ReadHeaderTimeout: s.readTimeout,
		WriteTimeout:      s.writeTimeout,
	}
	select {
	case <-s.done:
		s.done = make(chan struct{})
	default:
	}

	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error", "error", err)
		}
	}(s.httpServer)

	s.running = true
	s.log.Info("stub server listening",
		"addr", ln.Addr().String(),
		"routes", s.routes.Len(),
		"fixtures", len(s.fixtures.Names()),
	)
	return nil
}

// Stop gracefully shuts the server down, waiting for in-flight requests
// until ctx is done.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	close(s.done)
	s.running = false

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	s.log.Info("stub server stopped")
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Requests returns the request log.
func (s *Server) Requests() requestlog.SubscribableStore {
	return s.requests
}

// Metrics returns the server's metrics.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

func (s *Server) stopped() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
