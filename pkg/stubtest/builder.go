package stubtest

import (
	"time"

	"github.com/getmockd/stubd/pkg/fault"
	"github.com/getmockd/stubd/pkg/route"
)

// RouteBuilder configures one route. Modifiers (WithDelay, WithFailure) come
// before the behavior method, which registers the route.
type RouteBuilder struct {
	server *Server
	def    route.Definition
}

// WithDelay delays the route's response.
func (b *RouteBuilder) WithDelay(d time.Duration) *RouteBuilder {
	b.def.Delay = d
	return b
}

// WithFailure makes the route fail as cfg describes.
func (b *RouteBuilder) WithFailure(cfg fault.FailureConfig) *RouteBuilder {
	b.server.t.Helper()
	f, err := fault.NewFailure(cfg)
	if err != nil {
		b.server.t.Fatalf("stubtest: %v", err)
	}
	b.def.Failure = f
	return b
}

// ServeFixture registers a route serving the named fixture.
func (b *RouteBuilder) ServeFixture(name string) *Server {
	b.def.Behavior = route.BehaviorServeFixture
	b.def.Fixture = name
	return b.done()
}

// MutateAndServe registers a route writing path parameter param into field
// of the fixture's first record before serving it.
func (b *RouteBuilder) MutateAndServe(name, field, param string) *Server {
	b.def.Behavior = route.BehaviorMutateAndServe
	b.def.Fixture = name
	b.def.Field = field
	b.def.Param = param
	return b.done()
}

// DelayThenServe registers a route that waits d, then serves the fixture.
func (b *RouteBuilder) DelayThenServe(name string, d time.Duration) *Server {
	b.def.Behavior = route.BehaviorDelayThenServe
	b.def.Fixture = name
	b.def.Delay = d
	return b.done()
}

// HealthCheck registers a route answering 200 with no body.
func (b *RouteBuilder) HealthCheck() *Server {
	b.def.Behavior = route.BehaviorHealthCheck
	return b.done()
}

// EchoAndAck registers a route recording the body and answering ack.
func (b *RouteBuilder) EchoAndAck(ack string) *Server {
	b.def.Behavior = route.BehaviorEchoAndAck
	b.def.Ack = ack
	return b.done()
}

func (b *RouteBuilder) done() *Server {
	b.server.t.Helper()
	b.server.register(b.def)
	return b.server
}
