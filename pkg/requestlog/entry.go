package requestlog

import "time"

// MaxBodySize is the number of body bytes kept per entry.
const MaxBodySize = 10 * 1024

// Entry captures one request and the response sent for it.
type Entry struct {
	// ID is a unique identifier for the log entry.
	ID string `json:"id"`

	// Timestamp is when the request was received.
	Timestamp time.Time `json:"timestamp"`

	Method      string              `json:"method"`
	Path        string              `json:"path"`
	QueryString string              `json:"queryString,omitempty"`
	Headers     map[string][]string `json:"headers,omitempty"`

	// Params are the path parameters extracted by the matched route.
	Params map[string]string `json:"params,omitempty"`

	// Body is the request body, truncated to MaxBodySize.
	Body string `json:"body,omitempty"`

	// BodySize is the original body size in bytes.
	BodySize int `json:"bodySize"`

	RemoteAddr string `json:"remoteAddr"`

	// Route is the matched route pattern, empty when nothing matched.
	Route    string `json:"route,omitempty"`
	Behavior string `json:"behavior,omitempty"`

	ResponseStatus int    `json:"responseStatus"`
	DurationMs     int    `json:"durationMs"`
	Error          string `json:"error,omitempty"`
}

// TruncateBody returns body limited to MaxBodySize bytes.
func TruncateBody(body []byte) string {
	if len(body) > MaxBodySize {
		return string(body[:MaxBodySize])
	}
	return string(body)
}
