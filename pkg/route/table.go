package route

import (
	"fmt"
	"sync"
)

// FixtureChecker validates fixture references at registration time.
// *fixture.Store implements it.
type FixtureChecker interface {
	Check(name string, needRecord bool) error
}

type compiledRoute struct {
	def     Definition
	pattern *pattern
}

// Table is an ordered set of routes. It is safe for concurrent use.
type Table struct {
	mu       sync.RWMutex
	routes   []*compiledRoute
	keys     map[string]struct{}
	fixtures FixtureChecker
}

// NewTable creates an empty table. When fixtures is non-nil, Register
// rejects routes that reference missing fixtures, or empty fixtures for
// mutate-and-serve.
func NewTable(fixtures FixtureChecker) *Table {
	return &Table{
		keys:     make(map[string]struct{}),
		fixtures: fixtures,
	}
}

// Register adds def after the routes already registered.
func (t *Table) Register(def Definition) error {
	p, err := compilePattern(def.Pattern)
	if err != nil {
		return err
	}
	if err := def.normalize(p); err != nil {
		return err
	}

	if t.fixtures != nil && def.Behavior.UsesFixture() {
		needRecord := def.Behavior == BehaviorMutateAndServe
		if err := t.fixtures.Check(def.Fixture, needRecord); err != nil {
			return fmt.Errorf("%s %s: %w", def.Method, def.Pattern, err)
		}
	}

	key := def.Method + " " + p.key()

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.keys[key]; exists {
		return fmt.Errorf("%w: %s %s", ErrDuplicateRoute, def.Method, def.Pattern)
	}
	t.keys[key] = struct{}{}
	t.routes = append(t.routes, &compiledRoute{def: def, pattern: p})
	return nil
}

// Match returns the first route registered for method whose pattern matches path.
func (t *Table) Match(method, path string) (Definition, Params, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, r := range t.routes {
		if r.def.Method != method {
			continue
		}
		if params, ok := r.pattern.match(path); ok {
			return r.def, params, nil
		}
	}
	return Definition{}, nil, fmt.Errorf("%w: %s %s", ErrRouteNotFound, method, path)
}

// Routes returns the registered definitions in registration order.
func (t *Table) Routes() []Definition {
	t.mu.RLock()
	defer t.mu.RUnlock()
	defs := make([]Definition, len(t.routes))
	for i, r := range t.routes {
		defs[i] = r.def
	}
	return defs
}

// Len returns the number of registered routes.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.routes)
}
