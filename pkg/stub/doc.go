// Package stub implements the stub HTTP server.
//
// A Server binds a route.Table to a TCP listener and answers each matched
// request from a shared fixture.Store:
//
//	store := fixture.NewStore()
//	_ = store.LoadFile("cars", "cars.json")
//
//	routes := route.NewTable(store)
//	_ = routes.Register(route.Definition{
//	    Method: "GET", Pattern: "/api/v1/cars",
//	    Behavior: route.BehaviorServeFixture, Fixture: "cars",
//	})
//
//	srv := stub.NewServer(store, routes, stub.WithAddr(":3000"))
//	if err := srv.Start(); err != nil {
//	    return err
//	}
//	defer srv.Stop(context.Background())
//
// Requests that match no route get a 404 JSON error. Every request, matched
// or not, is recorded in the server's request log and counted in its
// metrics. Unless disabled, an admin API is mounted under /__stub for
// inspecting routes, fixtures and recorded requests.
package stub
