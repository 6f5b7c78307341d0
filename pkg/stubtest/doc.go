// Package stubtest runs a stub server inside Go tests.
//
// Register fixtures and routes with the fluent API, start the server, and
// point the code under test at its URL:
//
//	func TestClient(t *testing.T) {
//	    stub := stubtest.New(t)
//	    stub.Fixture("cars", `[{"id": 1, "email": "a@example.com"}]`)
//	    stub.Route("GET", "/api/v1/cars").ServeFixture("cars")
//	    stub.Route("GET", "/api/v1/cars/:id").MutateAndServe("cars", "email", "id")
//	    stub.Route("POST", "/api/v1/cars").EchoAndAck("yes")
//
//	    url := stub.Start()
//	    // ... exercise the client against url ...
//
//	    stub.AssertCalled(t, "GET", "/api/v1/cars/{id}")
//	    stub.LastRequest().AssertJSONField(t, "brand", "tesla")
//	}
//
// The server is stopped by t.Cleanup. Routes may be added after Start.
//
// # Failure and latency
//
//	stub.Route("GET", "/slow").ServeFixture("cars").WithDelay(200 * time.Millisecond)
//	stub.Route("GET", "/flaky").ServeFixture("cars").WithFailure(fault.FailureConfig{
//	    Probability: 1,
//	    DefaultCode: 503,
//	})
//
// # Assertions
//
// AssertCalled, AssertCalledTimes and AssertNotCalled count recorded requests
// by method and path; {name} and :name segments in the expected path match
// any value. Requests returns the recorded requests newest first, each with
// body, header and query assertions.
package stubtest
