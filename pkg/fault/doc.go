// Package fault injects synthetic latency and failures into stub routes.
//
// Latency is a timer-based suspension of the request goroutine: it never
// spins and never holds fixture locks, so slow routes do not hold up
// unrelated requests. Failures replace a route's normal response with an
// error status, either at random (Probability) or when a condition written
// in expr-lang holds for the request:
//
//	failure:
//	  probability: 1
//	  statusCodes: [502, 503]
//	  when: 'params.id == "13"'
//
// The condition sees method, path, params (map of path parameters) and body.
package fault
