package stubtest

import (
	"encoding/json"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ohler55/ojg/jp"

	"github.com/getmockd/stubd/pkg/requestlog"
)

// RequestLog represents a recorded request for assertions.
type RequestLog struct {
	// Method is the HTTP method (GET, POST, etc.)
	Method string
	// Path is the request URL path
	Path string
	// Headers are the request headers (single value per key)
	Headers map[string]string
	// Body is the request body content
	Body string
	// QueryString is the raw query string
	QueryString string
	// Params are the path parameters of the matched route
	Params map[string]string
	// Route is the matched route pattern, empty when nothing matched
	Route string
	// Status is the response status code
	Status int
	// Time is when the request was received
	Time time.Time
}

func newRequestLog(e *requestlog.Entry) RequestLog {
	headers := make(map[string]string, len(e.Headers))
	for k, v := range e.Headers {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	return RequestLog{
		Method:      e.Method,
		Path:        e.Path,
		Headers:     headers,
		Body:        e.Body,
		QueryString: e.QueryString,
		Params:      e.Params,
		Route:       e.Route,
		Status:      e.ResponseStatus,
		Time:        e.Timestamp,
	}
}

// AssertJSONBody asserts that the request body matches the expected JSON.
// The expected value can be a string, []byte, or any struct/map that will be JSON encoded.
func (r *RequestLog) AssertJSONBody(t testing.TB, expected any) {
	t.Helper()

	var raw []byte
	switch v := expected.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			t.Errorf("failed to marshal expected value: %v", err)
			return
		}
		raw = data
	}

	var expectedJSON, actualJSON any
	if err := json.Unmarshal(raw, &expectedJSON); err != nil {
		t.Errorf("failed to parse expected JSON: %v", err)
		return
	}
	if err := json.Unmarshal([]byte(r.Body), &actualJSON); err != nil {
		t.Errorf("request body is not valid JSON: %v\nbody: %s", err, r.Body)
		return
	}

	if !reflect.DeepEqual(actualJSON, expectedJSON) {
		expectedBytes, _ := json.MarshalIndent(expectedJSON, "", "  ")
		actualBytes, _ := json.MarshalIndent(actualJSON, "", "  ")
		t.Errorf("request body does not match expected JSON\nexpected:\n%s\nactual:\n%s",
			string(expectedBytes), string(actualBytes))
	}
}

// AssertBody asserts that the request body exactly matches the expected string.
func (r *RequestLog) AssertBody(t testing.TB, expected string) {
	t.Helper()

	if r.Body != expected {
		t.Errorf("request body does not match\nexpected: %q\nactual: %q", expected, r.Body)
	}
}

// AssertBodyContains asserts that the request body contains the expected substring.
func (r *RequestLog) AssertBodyContains(t testing.TB, substr string) {
	t.Helper()

	if !strings.Contains(r.Body, substr) {
		t.Errorf("request body does not contain %q\nbody: %s", substr, r.Body)
	}
}

// header looks a header up case-insensitively.
func (r *RequestLog) header(key string) (string, bool) {
	if v, ok := r.Headers[key]; ok {
		return v, true
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// AssertHeader asserts that the request had the specified header with the expected value.
func (r *RequestLog) AssertHeader(t testing.TB, key, expected string) {
	t.Helper()

	actual, ok := r.header(key)
	if !ok {
		t.Errorf("request does not have header %q", key)
		return
	}
	if actual != expected {
		t.Errorf("header %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}

// AssertQueryParam asserts that the request had the specified query parameter.
func (r *RequestLog) AssertQueryParam(t testing.TB, key, expected string) {
	t.Helper()

	params, err := url.ParseQuery(r.QueryString)
	if err != nil {
		t.Errorf("malformed query string %q: %v", r.QueryString, err)
		return
	}
	if !params.Has(key) {
		t.Errorf("request does not have query parameter %q", key)
		return
	}
	if actual := params.Get(key); actual != expected {
		t.Errorf("query parameter %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}

// AssertParam asserts the value a path parameter was matched with.
func (r *RequestLog) AssertParam(t testing.TB, name, expected string) {
	t.Helper()

	actual, ok := r.Params[name]
	if !ok {
		t.Errorf("request has no path parameter %q (route %q)", name, r.Route)
		return
	}
	if actual != expected {
		t.Errorf("path parameter %q mismatch\nexpected: %q\nactual: %q", name, expected, actual)
	}
}

// JSONField extracts a field from the request body JSON. field is a dotted
// path ("car.make") or a JSONPath expression ("$.items[0].id"). Returns nil
// if the body is not valid JSON or the field doesn't exist.
func (r *RequestLog) JSONField(field string) any {
	var data any
	if err := json.Unmarshal([]byte(r.Body), &data); err != nil {
		return nil
	}

	expr := field
	if !strings.HasPrefix(expr, "$") {
		expr = "$." + expr
	}
	x, err := jp.ParseString(expr)
	if err != nil {
		return nil
	}
	return x.First(data)
}

// AssertJSONField asserts that a JSON field in the request body has the expected value.
func (r *RequestLog) AssertJSONField(t testing.TB, field string, expected any) {
	t.Helper()

	actual := r.JSONField(field)
	if actual == nil {
		t.Errorf("JSON field %q not found in request body: %s", field, r.Body)
		return
	}
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("JSON field %q mismatch\nexpected: %v (%T)\nactual: %v (%T)",
			field, expected, expected, actual, actual)
	}
}
