package config

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/getmockd/stubd/pkg/fault"
)

// Config is a complete stubd configuration.
type Config struct {
	// Port is the stub listener port.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`
	// Host is the bind address; empty binds every interface.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	ReadTimeout  Duration `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`
	WriteTimeout Duration `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`

	// MaxLogEntries bounds the in-memory request log.
	MaxLogEntries int `json:"maxLogEntries,omitempty" yaml:"maxLogEntries,omitempty"`

	Log   LogConfig   `json:"log" yaml:"log"`
	CORS  CORSConfig  `json:"cors" yaml:"cors"`
	Admin AdminConfig `json:"admin" yaml:"admin"`

	Fixtures []FixtureConfig `json:"fixtures,omitempty" yaml:"fixtures,omitempty"`
	// FixtureGlob loads every matching file, named after its base name.
	FixtureGlob string `json:"fixtureGlob,omitempty" yaml:"fixtureGlob,omitempty"`

	Routes []RouteConfig `json:"routes" yaml:"routes"`

	// path is the file the configuration was loaded from.
	path string
}

// LogConfig configures the operational logger.
type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`   // debug, info, warn, error
	Format string `json:"format,omitempty" yaml:"format,omitempty"` // text, json
}

// CORSConfig configures cross-origin handling.
type CORSConfig struct {
	Enabled      bool     `json:"enabled" yaml:"enabled"`
	AllowOrigins []string `json:"allowOrigins,omitempty" yaml:"allowOrigins,omitempty"`
}

// AdminConfig configures the admin API.
type AdminConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Prefix  string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// FixtureConfig names one fixture file.
type FixtureConfig struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
}

// RouteConfig describes one route.
type RouteConfig struct {
	Method   string `json:"method" yaml:"method"`
	Path     string `json:"path" yaml:"path"`
	Behavior string `json:"behavior" yaml:"behavior"`
	Fixture  string `json:"fixture,omitempty" yaml:"fixture,omitempty"`

	// Field and Param configure mutate-and-serve.
	Field string `json:"field,omitempty" yaml:"field,omitempty"`
	Param string `json:"param,omitempty" yaml:"param,omitempty"`

	Delay   Duration             `json:"delay,omitempty" yaml:"delay,omitempty"`
	Ack     string               `json:"ack,omitempty" yaml:"ack,omitempty"`
	Failure *fault.FailureConfig `json:"failure,omitempty" yaml:"failure,omitempty"`
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Path returns the file c was loaded from, empty for Default.
func (c *Config) Path() string {
	return c.path
}

// CORSOrigins returns the allowed origins, or nil when CORS is disabled.
func (c *Config) CORSOrigins() []string {
	if !c.CORS.Enabled {
		return nil
	}
	if len(c.CORS.AllowOrigins) == 0 {
		return []string{"*"}
	}
	return c.CORS.AllowOrigins
}

// AdminPrefix returns the admin mount point, or "" when the admin API is off.
func (c *Config) AdminPrefix() string {
	if !c.Admin.Enabled {
		return ""
	}
	return c.Admin.Prefix
}

// Duration is a time.Duration written as a string such as "6s" or "250ms".
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"6s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}
