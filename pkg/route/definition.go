package route

import (
	"fmt"
	"strings"
	"time"

	"github.com/getmockd/stubd/pkg/fault"
	"github.com/getmockd/stubd/pkg/fixture"
)

// Behavior names what a route does with a matched request.
type Behavior string

const (
	// BehaviorServeFixture returns the full current fixture.
	BehaviorServeFixture Behavior = "serve-fixture"
	// BehaviorMutateAndServe sets a field of record 0 from a path parameter,
	// then returns the fixture.
	BehaviorMutateAndServe Behavior = "mutate-and-serve"
	// BehaviorHealthCheck returns 200 with an empty body.
	BehaviorHealthCheck Behavior = "health-check"
	// BehaviorDelayThenServe waits, then returns the fixture.
	BehaviorDelayThenServe Behavior = "delay-then-serve"
	// BehaviorEchoAndAck records the request body and returns a fixed text.
	BehaviorEchoAndAck Behavior = "echo-and-ack"
)

// DefaultAck is the acknowledgement echo routes answer with.
const DefaultAck = "yes"

// Behaviors lists every known behavior.
func Behaviors() []Behavior {
	return []Behavior{
		BehaviorServeFixture,
		BehaviorMutateAndServe,
		BehaviorHealthCheck,
		BehaviorDelayThenServe,
		BehaviorEchoAndAck,
	}
}

// ParseBehavior resolves a behavior name.
func ParseBehavior(s string) (Behavior, error) {
	b := Behavior(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Behaviors() {
		if b == known {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: unknown behavior %q", ErrInvalidRoute, s)
}

// UsesFixture reports whether the behavior reads a fixture.
func (b Behavior) UsesFixture() bool {
	switch b {
	case BehaviorServeFixture, BehaviorMutateAndServe, BehaviorDelayThenServe:
		return true
	default:
		return false
	}
}

// Definition describes one route. It is immutable once registered.
type Definition struct {
	Method   string
	Pattern  string
	Behavior Behavior

	// Fixture is the target fixture name for fixture-backed behaviors.
	Fixture string

	// Field and Param configure mutate-and-serve: the value of path
	// parameter Param is written to Field of record 0.
	Field string
	Param string

	// Delay is applied before the behavior runs. delay-then-serve routes
	// default to fault.DefaultSlowDelay.
	Delay time.Duration

	// Ack is the echo-and-ack response text.
	Ack string

	// Failure optionally replaces the response with an injected error.
	Failure *fault.Failure
}

// Params holds path parameter values by name.
type Params map[string]string

// View is the JSON shape of a Definition.
type View struct {
	Method   string               `json:"method"`
	Path     string               `json:"path"`
	Behavior Behavior             `json:"behavior"`
	Fixture  string               `json:"fixture,omitempty"`
	Field    string               `json:"field,omitempty"`
	Param    string               `json:"param,omitempty"`
	Delay    string               `json:"delay,omitempty"`
	Ack      string               `json:"ack,omitempty"`
	Failure  *fault.FailureConfig `json:"failure,omitempty"`
}

// View returns the JSON-friendly description of d.
func (d Definition) View() View {
	v := View{
		Method:   d.Method,
		Path:     d.Pattern,
		Behavior: d.Behavior,
		Fixture:  d.Fixture,
		Field:    d.Field,
		Param:    d.Param,
		Ack:      d.Ack,
	}
	if d.Delay > 0 {
		v.Delay = d.Delay.String()
	}
	if d.Failure != nil {
		cfg := d.Failure.Config()
		v.Failure = &cfg
	}
	return v
}

// String renders d as "GET /path -> behavior(fixture)".
func (d Definition) String() string {
	if d.Fixture == "" {
		return fmt.Sprintf("%s %s -> %s", d.Method, d.Pattern, d.Behavior)
	}
	return fmt.Sprintf("%s %s -> %s(%s)", d.Method, d.Pattern, d.Behavior, d.Fixture)
}

// normalize fills defaults and checks d against its compiled pattern.
func (d *Definition) normalize(p *pattern) error {
	d.Method = strings.ToUpper(strings.TrimSpace(d.Method))
	if d.Method == "" {
		return fmt.Errorf("%w: %s: method is required", ErrInvalidRoute, d.Pattern)
	}

	b, err := ParseBehavior(string(d.Behavior))
	if err != nil {
		return fmt.Errorf("%s %s: %w", d.Method, d.Pattern, err)
	}
	d.Behavior = b

	if d.Delay < 0 {
		return fmt.Errorf("%w: %s %s: negative delay", ErrInvalidRoute, d.Method, d.Pattern)
	}

	if b.UsesFixture() && d.Fixture == "" {
		return fmt.Errorf("%w: %s %s: %s needs a fixture", ErrInvalidRoute, d.Method, d.Pattern, b)
	}

	switch b {
	case BehaviorMutateAndServe:
		if err := fixture.ValidateField(d.Field); err != nil {
			return fmt.Errorf("%w: %s %s: %w", ErrInvalidRoute, d.Method, d.Pattern, err)
		}
		d.Param = paramName(d.Param)
		if d.Param == "" {
			return fmt.Errorf("%w: %s %s: mutate-and-serve needs a param", ErrInvalidRoute, d.Method, d.Pattern)
		}
		if !p.hasParam(d.Param) {
			return fmt.Errorf("%w: %s %s: param %q is not in the pattern", ErrInvalidRoute, d.Method, d.Pattern, d.Param)
		}
	case BehaviorDelayThenServe:
		if d.Delay == 0 {
			d.Delay = fault.DefaultSlowDelay
		}
	case BehaviorEchoAndAck:
		if d.Ack == "" {
			d.Ack = DefaultAck
		}
	}
	return nil
}

// paramName strips ":" or "{}" decoration from a parameter reference.
func paramName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, ":")
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		s = s[1 : len(s)-1]
	}
	return s
}
