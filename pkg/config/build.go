package config

import (
	"fmt"
	"log/slog"

	"github.com/getmockd/stubd/pkg/fault"
	"github.com/getmockd/stubd/pkg/fixture"
	"github.com/getmockd/stubd/pkg/logging"
	"github.com/getmockd/stubd/pkg/route"
)

func (f FixtureConfig) name() string {
	if f.Name != "" {
		return f.Name
	}
	return fixture.NameFromPath(f.Path)
}

// Definition converts r to a route definition. A failure block is compiled
// here, so a bad condition is reported at load time.
func (r RouteConfig) Definition() (route.Definition, error) {
	behavior, err := route.ParseBehavior(r.Behavior)
	if err != nil {
		return route.Definition{}, err
	}

	def := route.Definition{
		Method:   r.Method,
		Pattern:  r.Path,
		Behavior: behavior,
		Fixture:  r.Fixture,
		Field:    r.Field,
		Param:    r.Param,
		Delay:    r.Delay.Std(),
		Ack:      r.Ack,
	}
	if r.Failure != nil {
		f, err := fault.NewFailure(*r.Failure)
		if err != nil {
			return route.Definition{}, fmt.Errorf("%w: %s %s: %w", route.ErrInvalidRoute, r.Method, r.Path, err)
		}
		def.Failure = f
	}
	return def, nil
}

// LoadFixtures loads every configured fixture, then the glob matches, into
// store. The first failure is returned; the server must not start.
func (c *Config) LoadFixtures(store *fixture.Store) error {
	for _, f := range c.Fixtures {
		if err := store.LoadFile(f.name(), f.Path); err != nil {
			return err
		}
	}
	if c.FixtureGlob != "" {
		if _, err := store.LoadGlob(c.FixtureGlob); err != nil {
			return err
		}
	}
	return nil
}

// RegisterRoutes registers every configured route in table, in order.
func (c *Config) RegisterRoutes(table *route.Table) error {
	for i, rc := range c.Routes {
		def, err := rc.Definition()
		if err != nil {
			return fmt.Errorf("routes[%d]: %w", i, err)
		}
		if err := table.Register(def); err != nil {
			return fmt.Errorf("routes[%d]: %w", i, err)
		}
	}
	return nil
}

// Build loads the fixtures and registers the routes of c. Routes are checked
// against the loaded fixtures, so a reference to a missing or empty fixture
// fails here rather than at request time.
func (c *Config) Build(log *slog.Logger) (*fixture.Store, *route.Table, error) {
	if log == nil {
		log = logging.Nop()
	}
	store := fixture.NewStore(fixture.WithLogger(logging.Component(log, "fixture")))
	if err := c.LoadFixtures(store); err != nil {
		return nil, nil, err
	}

	table := route.NewTable(store)
	if err := c.RegisterRoutes(table); err != nil {
		return nil, nil, err
	}

	log.Debug("configuration built",
		"fixtures", len(store.Names()),
		"routes", table.Len(),
		"config", c.path,
	)
	return store, table, nil
}
