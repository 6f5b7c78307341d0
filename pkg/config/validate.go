package config

import (
	"fmt"
	"strings"

	"github.com/getmockd/stubd/pkg/route"
)

// ValidationError is a single configuration problem.
type ValidationError struct {
	Path    string // Config path, e.g., "routes[2].param"
	Message string
}

func (e ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationResult collects every problem found in a configuration.
type ValidationResult struct {
	Errors []ValidationError
}

// IsValid returns true if there are no validation errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Error returns a combined error message.
func (r *ValidationResult) Error() string {
	if r.IsValid() {
		return ""
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// AddError adds a validation error.
func (r *ValidationResult) AddError(path, message string) {
	r.Errors = append(r.Errors, ValidationError{Path: path, Message: message})
}

// Validate checks c for problems that do not need the fixture files.
// Fixture contents are checked when the routes are built.
func (c *Config) Validate() error {
	result := &ValidationResult{}

	if c.Port < 0 || c.Port > 65535 {
		result.AddError("port", fmt.Sprintf("invalid port %d, must be 0-65535", c.Port))
	}
	if c.MaxLogEntries < 1 {
		result.AddError("maxLogEntries", "must be at least 1")
	}
	if c.Admin.Enabled && !strings.HasPrefix(c.Admin.Prefix, "/") {
		result.AddError("admin.prefix", "must start with /")
	}

	names := make(map[string]bool)
	for i, f := range c.Fixtures {
		path := fmt.Sprintf("fixtures[%d]", i)
		if f.Path == "" {
			result.AddError(path+".path", "required")
		}
		name := f.name()
		if names[name] {
			result.AddError(path+".name", fmt.Sprintf("duplicate fixture name %q", name))
		}
		names[name] = true
	}

	// Register against a table without fixtures to catch pattern, param and
	// duplicate problems.
	scratch := route.NewTable(nil)
	for i, rc := range c.Routes {
		path := fmt.Sprintf("routes[%d]", i)

		def, err := rc.Definition()
		if err != nil {
			result.AddError(path, err.Error())
			continue
		}
		if def.Behavior.UsesFixture() && c.FixtureGlob == "" && !names[def.Fixture] {
			result.AddError(path+".fixture", fmt.Sprintf("unknown fixture %q", def.Fixture))
		}
		if c.Admin.Enabled && underPrefix(rc.Path, c.Admin.Prefix) {
			result.AddError(path+".path", fmt.Sprintf("shadowed by the admin API at %s", c.Admin.Prefix))
		}
		if err := scratch.Register(def); err != nil {
			result.AddError(path, err.Error())
		}
	}

	if !result.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, result.Error())
	}
	return nil
}

func underPrefix(path, prefix string) bool {
	path = strings.ToLower(path)
	prefix = strings.ToLower(prefix)
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
