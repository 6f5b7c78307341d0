package stubtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/getmockd/stubd/pkg/fixture"
	"github.com/getmockd/stubd/pkg/requestlog"
	"github.com/getmockd/stubd/pkg/route"
	"github.com/getmockd/stubd/pkg/stub"
)

// Server is a stub server for tests.
type Server struct {
	t       testing.TB
	store   *fixture.Store
	routes  *route.Table
	server  *stub.Server
	httpSrv *httptest.Server

	mu      sync.Mutex
	started bool
	baseURL string
}

// New creates a stub server for t. It is stopped automatically when the
// test completes.
func New(t testing.TB, opts ...stub.Option) *Server {
	t.Helper()

	store := fixture.NewStore()
	routes := route.NewTable(store)
	s := &Server{
		t:      t,
		store:  store,
		routes: routes,
		server: stub.NewServer(store, routes, opts...),
	}
	t.Cleanup(s.Stop)
	return s
}

// Fixture loads a fixture. body may be a JSON string, a []byte, or any value
// that encodes to a JSON array of objects.
func (s *Server) Fixture(name string, body any) *Server {
	s.t.Helper()

	var blob []byte
	switch v := body.(type) {
	case string:
		blob = []byte(v)
	case []byte:
		blob = v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			s.t.Fatalf("stubtest: encoding fixture %q: %v", name, err)
		}
		blob = data
	}

	if _, err := s.store.Load(name, blob); err != nil {
		s.t.Fatalf("stubtest: %v", err)
	}
	return s
}

// FixtureFile loads a fixture from disk.
func (s *Server) FixtureFile(name, path string) *Server {
	s.t.Helper()
	if err := s.store.LoadFile(name, path); err != nil {
		s.t.Fatalf("stubtest: %v", err)
	}
	return s
}

// Route starts a route definition. Finish it with one of the behavior
// methods on the returned builder.
func (s *Server) Route(method, pattern string) *RouteBuilder {
	return &RouteBuilder{
		server: s,
		def:    route.Definition{Method: method, Pattern: pattern},
	}
}

func (s *Server) register(def route.Definition) {
	s.t.Helper()
	if err := s.routes.Register(def); err != nil {
		s.t.Fatalf("stubtest: %v", err)
	}
}

// Start starts the server and returns its base URL. Calling it again
// returns the same URL.
func (s *Server) Start() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		s.httpSrv = httptest.NewServer(s.server.Handler())
		s.baseURL = s.httpSrv.URL
		s.started = true
	}
	return s.baseURL
}

// Stop stops the server. It is safe to call more than once.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpSrv != nil {
		s.httpSrv.Close()
		s.httpSrv = nil
	}
	s.started = false
}

// URL returns the base URL, or "" before Start.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseURL
}

// Client returns an http.Client for the server.
func (s *Server) Client() *http.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpSrv != nil {
		return s.httpSrv.Client()
	}
	return http.DefaultClient
}

// Reset restores every fixture to its loaded content and clears the
// recorded requests. Routes are kept.
func (s *Server) Reset() {
	s.t.Helper()
	for _, name := range s.store.Names() {
		if err := s.store.Reset(name); err != nil {
			s.t.Fatalf("stubtest: %v", err)
		}
	}
	s.server.Requests().Clear()
}

// Document returns a copy of a fixture's current records.
func (s *Server) Document(name string) fixture.Document {
	s.t.Helper()
	doc, err := s.store.Get(name)
	if err != nil {
		s.t.Fatalf("stubtest: %v", err)
	}
	return doc
}

// Requests returns every recorded request, newest first.
func (s *Server) Requests() []RequestLog {
	entries := s.server.Requests().List(nil)
	result := make([]RequestLog, len(entries))
	for i, e := range entries {
		result[i] = newRequestLog(e)
	}
	return result
}

// LastRequest returns the most recent request. The test fails if there is none.
func (s *Server) LastRequest() *RequestLog {
	s.t.Helper()
	entries := s.server.Requests().List(&requestlog.Filter{Limit: 1})
	if len(entries) == 0 {
		s.t.Fatalf("stubtest: no requests recorded")
		return nil
	}
	r := newRequestLog(entries[0])
	return &r
}

// AssertCalled asserts that an endpoint was called at least once.
func (s *Server) AssertCalled(t testing.TB, method, path string) {
	t.Helper()

	if s.countCalls(method, path) == 0 {
		t.Errorf("expected %s %s to be called, but it was not called", method, path)
	}
}

// AssertCalledTimes asserts that an endpoint was called exactly n times.
func (s *Server) AssertCalledTimes(t testing.TB, method, path string, times int) {
	t.Helper()

	count := s.countCalls(method, path)
	if count != times {
		t.Errorf("expected %s %s to be called %d times, but was called %d times",
			method, path, times, count)
	}
}

// AssertNotCalled asserts that an endpoint was not called.
func (s *Server) AssertNotCalled(t testing.TB, method, path string) {
	t.Helper()

	count := s.countCalls(method, path)
	if count > 0 {
		t.Errorf("expected %s %s to not be called, but it was called %d times",
			method, path, count)
	}
}

// Stub returns the underlying server for advanced use cases.
func (s *Server) Stub() *stub.Server {
	return s.server
}

func (s *Server) countCalls(method, path string) int {
	entries := s.server.Requests().List(&requestlog.Filter{Method: strings.ToUpper(method)})

	count := 0
	for _, e := range entries {
		if matchesPath(e.Path, path) {
			count++
		}
	}
	return count
}

// matchesPath checks if a request path matches the expected path pattern.
// {name} and :name segments match any value.
func matchesPath(actual, expected string) bool {
	if actual == expected {
		return true
	}

	actualParts := strings.Split(actual, "/")
	expectedParts := strings.Split(expected, "/")
	if len(actualParts) != len(expectedParts) {
		return false
	}

	for i, exp := range expectedParts {
		if strings.HasPrefix(exp, ":") || (strings.HasPrefix(exp, "{") && strings.HasSuffix(exp, "}")) {
			continue
		}
		if exp != actualParts[i] {
			return false
		}
	}
	return true
}
