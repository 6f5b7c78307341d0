package fault

import (
	"net/http"
	"time"
)

// DefaultSlowDelay is the delay a slow route uses when none is configured.
const DefaultSlowDelay = 6 * time.Second

// FailureConfig configures failure injection for one route.
type FailureConfig struct {
	Probability float64 `json:"probability" yaml:"probability"`                     // 0.0-1.0
	StatusCodes []int   `json:"statusCodes,omitempty" yaml:"statusCodes,omitempty"` // Random from these
	DefaultCode int     `json:"defaultCode,omitempty" yaml:"defaultCode,omitempty"` // Default: 500
	Body        string  `json:"body,omitempty" yaml:"body,omitempty"`
	When        string  `json:"when,omitempty" yaml:"when,omitempty"`
}

// Clamp keeps Probability within [0, 1].
func (c *FailureConfig) Clamp() {
	if c.Probability < 0 {
		c.Probability = 0
	}
	if c.Probability > 1 {
		c.Probability = 1
	}
}

// Env is the request view a failure condition is evaluated against.
type Env struct {
	Method string            `expr:"method"`
	Path   string            `expr:"path"`
	Params map[string]string `expr:"params"`
	Body   string            `expr:"body"`
}

// Outcome is the result of evaluating a failure.
type Outcome struct {
	Status int
	Body   string
}

// Stats counts injected faults.
type Stats struct {
	Evaluated int64 `json:"evaluated"`
	Failures  int64 `json:"failures"`
	Delays    int64 `json:"delays"`
}

func defaultCode(code int) int {
	if code == 0 {
		return http.StatusInternalServerError
	}
	return code
}
