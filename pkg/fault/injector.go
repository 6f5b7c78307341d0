package fault

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Failure is a compiled FailureConfig.
type Failure struct {
	cfg     FailureConfig
	program *vm.Program
}

// NewFailure validates cfg and compiles its condition.
func NewFailure(cfg FailureConfig) (*Failure, error) {
	cfg.Clamp()

	for _, code := range cfg.StatusCodes {
		if code < 100 || code > 599 {
			return nil, fmt.Errorf("invalid status code %d", code)
		}
	}
	if cfg.DefaultCode != 0 && (cfg.DefaultCode < 100 || cfg.DefaultCode > 599) {
		return nil, fmt.Errorf("invalid default code %d", cfg.DefaultCode)
	}

	f := &Failure{cfg: cfg}
	if cfg.When != "" {
		program, err := expr.Compile(cfg.When, expr.Env(Env{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile condition %q: %w", cfg.When, err)
		}
		f.program = program
	}
	return f, nil
}

// Config returns the configuration the failure was built from.
func (f *Failure) Config() FailureConfig {
	return f.cfg
}

// Injector applies delays and failures. It is safe for concurrent use.
type Injector struct {
	mu    sync.Mutex
	rng   *rand.Rand
	stats Stats
}

// NewInjector creates an Injector. A zero seed seeds from the clock.
func NewInjector(seed int64) *Injector {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Injector{rng: rand.New(rand.NewSource(seed))}
}

// Delay suspends the caller for d, returning early with the context error if
// ctx is done first.
func (i *Injector) Delay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	i.mu.Lock()
	i.stats.Delays++
	i.mu.Unlock()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Evaluate decides whether f fires for the request described by env.
// A nil failure never fires.
func (i *Injector) Evaluate(f *Failure, env Env) (Outcome, bool, error) {
	if f == nil {
		return Outcome{}, false, nil
	}

	if f.program != nil {
		out, err := expr.Run(f.program, env)
		if err != nil {
			return Outcome{}, false, fmt.Errorf("evaluate condition %q: %w", f.cfg.When, err)
		}
		matched, ok := out.(bool)
		if !ok {
			return Outcome{}, false, errors.New("condition did not return a boolean")
		}
		if !matched {
			i.mu.Lock()
			i.stats.Evaluated++
			i.mu.Unlock()
			return Outcome{}, false, nil
		}
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.stats.Evaluated++

	if f.cfg.Probability <= 0 || i.rng.Float64() >= f.cfg.Probability {
		return Outcome{}, false, nil
	}

	status := defaultCode(f.cfg.DefaultCode)
	if len(f.cfg.StatusCodes) > 0 {
		status = f.cfg.StatusCodes[i.rng.Intn(len(f.cfg.StatusCodes))]
	}
	body := f.cfg.Body
	if body == "" {
		body = http.StatusText(status)
	}

	i.stats.Failures++
	return Outcome{Status: status, Body: body}, true, nil
}

// Stats returns a snapshot of the injection counters.
func (i *Injector) Stats() Stats {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.stats
}

// ResetStats zeroes the injection counters.
func (i *Injector) ResetStats() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.stats = Stats{}
}
