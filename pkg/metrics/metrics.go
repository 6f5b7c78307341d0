package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fault kinds used for the kind label.
const (
	FaultDelay   = "delay"
	FaultFailure = "failure"
)

// UnmatchedRoute is the route label for requests no route matched.
const UnmatchedRoute = "unmatched"

// OtherMethod is the method label for unmatched requests with a
// non-standard method.
const OtherMethod = "other"

var knownMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodConnect: true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
}

// DefaultBuckets are request duration buckets in seconds. They reach past
// the default slow-route delay.
var DefaultBuckets = []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Metrics holds the collectors of one server.
type Metrics struct {
	registry *prometheus.Registry

	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	mutations *prometheus.CounterVec
	faults    *prometheus.CounterVec
	misses    prometheus.Counter
}

// New creates a Metrics with its own registry. Go runtime and process
// collectors are included.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stubd_requests_total",
			Help: "Total number of stub requests",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stubd_request_duration_seconds",
			Help:    "Duration of stub requests in seconds",
			Buckets: DefaultBuckets,
		}, []string{"method", "route"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stubd_fixture_mutations_total",
			Help: "Number of fixture field writes",
		}, []string{"fixture"}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stubd_faults_injected_total",
			Help: "Number of injected delays and failures",
		}, []string{"route", "kind"}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stubd_route_misses_total",
			Help: "Requests that matched no route",
		}),
	}

	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.mutations,
		m.faults,
		m.misses,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest records a completed request. Matched routes only carry
// registered methods; unmatched requests with any other method share the
// OtherMethod label.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = UnmatchedRoute
		m.misses.Inc()
		if !knownMethods[method] {
			method = OtherMethod
		}
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// FixtureMutated counts a field write on fixture.
func (m *Metrics) FixtureMutated(fixture string) {
	m.mutations.WithLabelValues(fixture).Inc()
}

// FaultInjected counts an injected fault of kind on route.
func (m *Metrics) FaultInjected(route, kind string) {
	m.faults.WithLabelValues(route, kind).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
