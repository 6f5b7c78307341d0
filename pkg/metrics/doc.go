// Package metrics exposes stub server counters in Prometheus format.
//
// Each server owns its own registry, so parallel servers in one test binary
// never collide on metric names.
//
// # Metrics
//
//   - stubd_requests_total{method,route,status}
//   - stubd_request_duration_seconds{method,route}
//   - stubd_fixture_mutations_total{fixture}
//   - stubd_faults_injected_total{route,kind}
//   - stubd_route_misses_total
//
// The route label is the matched pattern, never the raw path, which keeps
// label cardinality bounded by the route table.
package metrics
