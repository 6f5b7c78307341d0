package stub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/getmockd/stubd/pkg/fault"
	"github.com/getmockd/stubd/pkg/fixture"
	"github.com/getmockd/stubd/pkg/httputil"
	"github.com/getmockd/stubd/pkg/metrics"
	"github.com/getmockd/stubd/pkg/requestlog"
	"github.com/getmockd/stubd/pkg/route"
)

// Request is the server's view of one inbound request.
type Request struct {
	Method     string
	// Path is the escaped request path, as in url.URL.EscapedPath.
	Path       string
	RawQuery   string
	Header     http.Header
	Body       []byte
	RemoteAddr string

	// Params is filled in by Handle from the matched route.
	Params route.Params
}

// Response is what a behavior produced.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Handle matches req against the route table and runs the route's behavior.
// It returns route.ErrRouteNotFound when nothing matches. Every call is
// recorded in the request log.
func (s *Server) Handle(ctx context.Context, req *Request) (*Response, error) {
	return s.handle(ctx, req, nil)
}

// handle is Handle with a hook called before a route's delay starts.
func (s *Server) handle(ctx context.Context, req *Request, beforeDelay func(time.Duration)) (*Response, error) {
	start := time.Now()

	def, params, err := s.routes.Match(req.Method, req.Path)
	var res *Response
	if err == nil {
		req.Params = params
		res, err = s.dispatch(ctx, def, req, beforeDelay)
	}

	s.record(req, def, res, err, time.Since(start))
	return res, err
}

func (s *Server) dispatch(ctx context.Context, def route.Definition, req *Request, beforeDelay func(time.Duration)) (*Response, error) {
	if def.Delay > 0 {
		if beforeDelay != nil {
			beforeDelay(def.Delay)
		}
		s.metrics.FaultInjected(def.Pattern, metrics.FaultDelay)
		if err := s.injector.Delay(ctx, def.Delay); err != nil {
			return nil, err
		}
	}

	if def.Failure != nil {
		out, fired, err := s.injector.Evaluate(def.Failure, fault.Env{
			Method: req.Method,
			Path:   req.Path,
			Params: req.Params,
			Body:   string(req.Body),
		})
		if err != nil {
			s.log.Warn("failure condition error", "route", def.Pattern, "error", err)
		}
		if fired {
			s.metrics.FaultInjected(def.Pattern, metrics.FaultFailure)
			return &Response{
				Status:      out.Status,
				ContentType: httputil.ContentTypeText,
				Body:        []byte(out.Body),
			}, nil
		}
	}

	switch def.Behavior {
	case route.BehaviorServeFixture, route.BehaviorDelayThenServe:
		body, err := s.fixtures.Marshal(def.Fixture)
		if err != nil {
			return nil, err
		}
		return jsonResponse(body), nil

	case route.BehaviorMutateAndServe:
		value := req.Params[def.Param]
		body, err := s.fixtures.SetFieldAndMarshal(def.Fixture, def.Field, value)
		if err != nil {
			return nil, err
		}
		s.metrics.FixtureMutated(def.Fixture)
		s.log.Debug("fixture mutated", "fixture", def.Fixture, "field", def.Field, "value", value)
		return jsonResponse(body), nil

	case route.BehaviorHealthCheck:
		return &Response{Status: http.StatusOK}, nil

	case route.BehaviorEchoAndAck:
		s.log.Info("echo received",
			"method", req.Method,
			"path", req.Path,
			"bytes", len(req.Body),
			"body", requestlog.TruncateBody(req.Body),
		)
		return &Response{
			Status:      http.StatusOK,
			ContentType: httputil.ContentTypeText,
			Body:        []byte(def.Ack),
		}, nil
	}

	return nil, fmt.Errorf("unsupported behavior %q", def.Behavior)
}

func jsonResponse(body []byte) *Response {
	return &Response{
		Status:      http.StatusOK,
		ContentType: httputil.ContentTypeJSON,
		Body:        body,
	}
}

func (s *Server) record(req *Request, def route.Definition, res *Response, err error, elapsed time.Duration) {
	entry := &requestlog.Entry{
		Method:      req.Method,
		Path:        req.Path,
		QueryString: req.RawQuery,
		Headers:     req.Header,
		Params:      req.Params,
		Body:        requestlog.TruncateBody(req.Body),
		BodySize:    len(req.Body),
		RemoteAddr:  req.RemoteAddr,
		Route:       def.Pattern,
		Behavior:    string(def.Behavior),
		DurationMs:  int(elapsed.Milliseconds()),
	}

	status, _, _ := errorStatus(err)
	if res != nil {
		status = res.Status
	}
	entry.ResponseStatus = status
	if err != nil {
		entry.Error = err.Error()
	}

	s.requests.Log(entry)
	s.metrics.ObserveRequest(req.Method, def.Pattern, status, elapsed)
}

// errorStatus maps a Handle error to an HTTP status and error code.
func errorStatus(err error) (int, string, bool) {
	switch {
	case err == nil:
		return http.StatusOK, "", false
	case errors.Is(err, route.ErrRouteNotFound):
		return http.StatusNotFound, "route_not_found", true
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request_cancelled", true
	case errors.Is(err, fixture.ErrUnknownFixture),
		errors.Is(err, fixture.ErrEmptyDocument),
		errors.Is(err, fixture.ErrInvalidField):
		return http.StatusInternalServerError, "fixture_error", true
	default:
		return http.StatusInternalServerError, "internal_error", true
	}
}

// serveStub adapts an HTTP request to Handle.
func (s *Server) serveStub(w http.ResponseWriter, r *http.Request) {
	// Bodies are never validated; a short read still gets acknowledged.
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.log.Debug("request body read failed", "path", r.URL.Path, "error", err)
	}

	req := &Request{
		Method:     r.Method,
		Path:       r.URL.EscapedPath(),
		RawQuery:   r.URL.RawQuery,
		Header:     r.Header.Clone(),
		Body:       body,
		RemoteAddr: r.RemoteAddr,
	}

	res, err := s.handle(r.Context(), req, func(d time.Duration) {
		s.extendWriteDeadline(w, d)
	})
	if err != nil {
		status, code, _ := errorStatus(err)
		if status >= http.StatusInternalServerError {
			s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		}
		httputil.WriteError(w, status, code, err.Error())
		return
	}
	httputil.WriteRaw(w, res.Status, res.ContentType, res.Body)
}

// extendWriteDeadline moves the connection's write deadline past a route
// delay. The server-wide write timeout runs from the end of the request
// headers, so a delay longer than it would otherwise drop the response.
func (s *Server) extendWriteDeadline(w http.ResponseWriter, delay time.Duration) {
	deadline := time.Now().Add(delay + s.writeTimeout)
	if err := http.NewResponseController(w).SetWriteDeadline(deadline); err != nil {
		s.log.Debug("write deadline not extended", "error", err)
	}
}
