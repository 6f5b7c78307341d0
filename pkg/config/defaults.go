package config

import (
	"time"

	"github.com/getmockd/stubd/pkg/fault"
	"github.com/getmockd/stubd/pkg/requestlog"
	"github.com/getmockd/stubd/pkg/route"
)

// Defaults applied to every configuration.
const (
	DefaultPort         = 3000
	DefaultAdminPrefix  = "/__stub"
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
)

// Stock fixture files read from the working directory by Default.
const (
	DefaultCarsFile    = "example1.json"
	DefaultRentalsFile = "example2.json"
)

// base returns a configuration holding only server defaults.
func base() *Config {
	return &Config{
		Port:          DefaultPort,
		ReadTimeout:   Duration(DefaultReadTimeout),
		WriteTimeout:  Duration(DefaultWriteTimeout),
		MaxLogEntries: requestlog.DefaultMaxEntries,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		CORS: CORSConfig{
			Enabled:      true,
			AllowOrigins: []string{"*"},
		},
		Admin: AdminConfig{
			Enabled: true,
			Prefix:  DefaultAdminPrefix,
		},
	}
}

// Default returns the stock configuration: the car, rental and passenger
// routes over example1.json and example2.json.
func Default() *Config {
	cfg := base()
	cfg.Fixtures = []FixtureConfig{
		{Name: "cars", Path: DefaultCarsFile},
		{Name: "rentals", Path: DefaultRentalsFile},
		{Name: "passengers", Path: DefaultCarsFile},
	}

	get := func(path string, b route.Behavior, fixture string) RouteConfig {
		return RouteConfig{Method: "GET", Path: path, Behavior: string(b), Fixture: fixture}
	}
	cfg.Routes = []RouteConfig{
		get("/api/v1/cars", route.BehaviorServeFixture, "cars"),
		{Method: "POST", Path: "/api/v1/cars", Behavior: string(route.BehaviorEchoAndAck), Ack: route.DefaultAck},
		get("/api/v1/cars/rent/", route.BehaviorServeFixture, "rentals"),
		get("/api/v1/hb", route.BehaviorHealthCheck, ""),
		get("/api/v1/supercars/fixed", route.BehaviorServeFixture, "rentals"),
		get("/api/v1/supercars/blabla", route.BehaviorServeFixture, "cars"),
		{
			Method: "GET", Path: "/api/v1/supercars/blabla/:id",
			Behavior: string(route.BehaviorMutateAndServe), Fixture: "cars",
			Field: "email", Param: "id",
		},
		{
			Method: "GET", Path: "/api/v1/supercars/slow",
			Behavior: string(route.BehaviorDelayThenServe), Fixture: "cars",
			Delay: Duration(fault.DefaultSlowDelay),
		},
		{
			Method: "GET", Path: "/api/v2/planes/:plane_id/passengers",
			Behavior: string(route.BehaviorMutateAndServe), Fixture: "passengers",
			Field: "company", Param: "plane_id",
		},
	}
	return cfg
}
