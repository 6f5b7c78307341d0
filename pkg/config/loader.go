package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound     = errors.New("configuration file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidJSON      = errors.New("invalid JSON syntax")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrEmptyFile        = errors.New("configuration file is empty")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// Environment variables that override file values.
const (
	EnvPort     = "STUBD_PORT"
	EnvLogLevel = "STUBD_LOG_LEVEL"
)

// Format is a configuration file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format by extension: .yaml and .yml are YAML,
// everything else is JSON.
func FormatFromPath(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		return FormatYAML
	}
	return FormatJSON
}

// Override adjusts a decoded configuration before it is validated, e.g.
// with command-line flags.
type Override func(*Config)

// Load reads, validates and resolves the configuration at path. Relative
// fixture paths are resolved against the file's directory. Environment
// overrides are applied, then overrides, then the result is validated.
func Load(path string, overrides ...Override) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	cfg, err := decode(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.path = path
	cfg.resolvePaths(filepath.Dir(path))

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a configuration document, checks it against the schema and
// validates it. Unset fields take their defaults.
func Parse(data []byte, format Format, overrides ...Override) (*Config, error) {
	cfg, err := decode(data, format)
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode expands, schema-checks and unmarshals a document onto the defaults.
func decode(data []byte, format Format) (*Config, error) {
	expanded := []byte(ExpandEnvVars(string(data)))

	doc := expanded
	if format == FormatYAML {
		var err error
		if doc, err = yamlToJSON(expanded); err != nil {
			return nil, err
		}
	} else if !json.Valid(doc) {
		return nil, ErrInvalidJSON
	}

	if err := validateSchema(doc); err != nil {
		return nil, err
	}

	cfg := base()
	if err := json.Unmarshal(doc, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// yamlToJSON converts a YAML document to JSON so one schema and one decoder
// serve both formats.
func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	if v == nil {
		return nil, ErrEmptyFile
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return out, nil
}

// resolvePaths makes relative fixture paths relative to dir.
func (c *Config) resolvePaths(dir string) {
	for i := range c.Fixtures {
		if !filepath.IsAbs(c.Fixtures[i].Path) {
			c.Fixtures[i].Path = filepath.Join(dir, c.Fixtures[i].Path)
		}
	}
	if c.FixtureGlob != "" && !filepath.IsAbs(c.FixtureGlob) {
		c.FixtureGlob = filepath.Join(dir, c.FixtureGlob)
	}
}

// ApplyEnv applies STUBD_PORT and STUBD_LOG_LEVEL from getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 0 || port > 65535 {
			return fmt.Errorf("%w: %s=%q is not a valid port", ErrInvalidConfig, EnvPort, v)
		}
		c.Port = port
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	return nil
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvVars expands environment variables in the input string.
// Supports ${VAR_NAME} and ${VAR_NAME:-default} syntax.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if val := os.Getenv(submatch[1]); val != "" {
			return val
		}
		return submatch[2]
	})
}

// Marshal encodes c in the given format.
func (c *Config) Marshal(format Format) ([]byte, error) {
	if format == FormatYAML {
		data, err := yaml.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal to YAML: %w", err)
		}
		return data, nil
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	return data, nil
}
