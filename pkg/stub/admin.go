package stub

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/getmockd/stubd/pkg/fixture"
	"github.com/getmockd/stubd/pkg/httputil"
	"github.com/getmockd/stubd/pkg/requestlog"
	"github.com/getmockd/stubd/pkg/route"
)

const eventWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// RoutesResponse is the body of GET {prefix}/routes.
type RoutesResponse struct {
	Routes []route.View `json:"routes"`
	Count  int          `json:"count"`
}

// FixturesResponse is the body of GET {prefix}/fixtures.
type FixturesResponse struct {
	Fixtures []string `json:"fixtures"`
	Count    int      `json:"count"`
}

// RequestsResponse is the body of GET {prefix}/requests.
type RequestsResponse struct {
	Requests []*requestlog.Entry `json:"requests"`
	Count    int                 `json:"count"`
	Total    int                 `json:"total"`
}

func (s *Server) adminMux() http.Handler {
	p := s.adminPrefix
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+p+"/health", s.handleAdminHealth)
	mux.HandleFunc("GET "+p+"/routes", s.handleListRoutes)
	mux.HandleFunc("GET "+p+"/openapi.json", s.handleOpenAPI)

	mux.HandleFunc("GET "+p+"/fixtures", s.handleListFixtures)
	mux.HandleFunc("GET "+p+"/fixtures/{name}", s.handleGetFixture)
	mux.HandleFunc("POST "+p+"/fixtures/{name}/reset", s.handleResetFixture)

	mux.HandleFunc("GET "+p+"/requests", s.handleListRequests)
	mux.HandleFunc("DELETE "+p+"/requests", s.handleClearRequests)
	mux.HandleFunc("GET "+p+"/requests/{id}", s.handleGetRequest)
	mux.HandleFunc("GET "+p+"/events", s.handleEvents)

	mux.HandleFunc("GET "+p+"/faults", s.handleFaultStats)
	mux.Handle("GET "+p+"/metrics", s.metrics.Handler())

	mux.HandleFunc(p+"/", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFound(w, "not_found", "unknown admin endpoint")
	})
	return mux
}

func (s *Server) handleAdminHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *Server) handleListRoutes(w http.ResponseWriter, _ *http.Request) {
	defs := s.routes.Routes()
	views := make([]route.View, 0, len(defs))
	for _, d := range defs {
		views = append(views, d.View())
	}
	httputil.WriteJSON(w, http.StatusOK, RoutesResponse{Routes: views, Count: len(views)})
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.routes.OpenAPI("stubd", s.version))
}

func (s *Server) handleListFixtures(w http.ResponseWriter, _ *http.Request) {
	names := s.fixtures.Names()
	httputil.WriteJSON(w, http.StatusOK, FixturesResponse{Fixtures: names, Count: len(names)})
}

func (s *Server) handleGetFixture(w http.ResponseWriter, r *http.Request) {
	body, err := s.fixtures.Marshal(r.PathValue("name"))
	if err != nil {
		s.writeFixtureError(w, err)
		return
	}
	httputil.WriteRaw(w, http.StatusOK, httputil.ContentTypeJSON, body)
}

func (s *Server) handleResetFixture(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.fixtures.Reset(name); err != nil {
		s.writeFixtureError(w, err)
		return
	}
	s.log.Info("fixture reset", "fixture", name)

	body, err := s.fixtures.Marshal(name)
	if err != nil {
		s.writeFixtureError(w, err)
		return
	}
	httputil.WriteRaw(w, http.StatusOK, httputil.ContentTypeJSON, body)
}

func (s *Server) writeFixtureError(w http.ResponseWriter, err error) {
	if errors.Is(err, fixture.ErrUnknownFixture) {
		httputil.WriteNotFound(w, "fixture_not_found", err.Error())
		return
	}
	httputil.WriteInternalError(w, "fixture_error", err.Error())
}

// handleListRequests handles GET {prefix}/requests.
//
// Query Parameters:
//   - method: Filter by HTTP method
//   - path: Filter by path prefix
//   - route: Filter by matched route pattern
//   - status: Filter by response status code
//   - limit: Maximum number of entries to return
//   - offset: Pagination offset
func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := &requestlog.Filter{
		Method: q.Get("method"),
		Path:   q.Get("path"),
		Route:  q.Get("route"),
	}
	if n, ok := parsePositiveInt(q.Get("status")); ok {
		filter.StatusCode = n
	}
	if n, ok := parsePositiveInt(q.Get("limit")); ok {
		filter.Limit = n
	}
	if n, ok := parseNonNegativeInt(q.Get("offset")); ok {
		filter.Offset = n
	}

	entries := s.requests.List(filter)
	if entries == nil {
		entries = []*requestlog.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, RequestsResponse{
		Requests: entries,
		Count:    len(entries),
		Total:    s.requests.Count(),
	})
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	entry := s.requests.Get(r.PathValue("id"))
	if entry == nil {
		httputil.WriteNotFound(w, "not_found", "request not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entry)
}

func (s *Server) handleClearRequests(w http.ResponseWriter, _ *http.Request) {
	count := s.requests.Count()
	s.requests.Clear()
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"cleared": count})
}

func (s *Server) handleFaultStats(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.injector.Stats())
}

// handleEvents streams every recorded request to a websocket client as a
// JSON text message until the client goes away or the server stops.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("event stream upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	sub, unsubscribe := s.requests.Subscribe()
	defer unsubscribe()

	// The client never sends data; reading only detects the close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.log.Debug("event stream opened", "remote", r.RemoteAddr)
	stopped := s.stopped()

	for {
		select {
		case entry, ok := <-sub:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
			if err := conn.WriteJSON(entry); err != nil {
				s.log.Debug("event stream write failed", "error", err)
				return
			}
		case <-gone:
			s.log.Debug("event stream closed by client", "remote", r.RemoteAddr)
			return
		case <-stopped:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"),
				time.Now().Add(eventWriteTimeout))
			return
		}
	}
}

// parsePositiveInt returns a parsed int only when the value is a valid positive integer.
func parsePositiveInt(v string) (int, bool) {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// parseNonNegativeInt returns a parsed int only when the value is a valid non-negative integer.
func parseNonNegativeInt(v string) (int, bool) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
