package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/stubd/pkg/fixture"
	"github.com/getmockd/stubd/pkg/route"
)

const (
	carsJSON    = `[{"id":1,"email":"a@example.com","owner":{"name":"Ann"}}]`
	rentalsJSON = `[{"id":10,"company":"Hertz"}]`
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const yamlConfig = `
port: 4000
host: 127.0.0.1
writeTimeout: 45s
log:
  level: debug
  format: json
cors:
  enabled: false
fixtures:
  - name: cars
    path: data/cars.json
  - path: data/rentals.json
routes:
  - method: get
    path: /cars
    behavior: serve-fixture
    fixture: cars
  - method: GET
    path: /cars/:id
    behavior: mutate-and-serve
    fixture: cars
    field: $.owner.name
    param: id
  - method: GET
    path: /rentals/slow
    behavior: delay-then-serve
    fixture: rentals
    delay: 250ms
  - method: POST
    path: /cars
    behavior: echo-and-ack
    ack: ok
  - method: GET
    path: /flaky
    behavior: health-check
    failure:
      probability: 0.5
      statusCodes: [502, 503]
      when: method == "GET"
`

func TestLoad_YAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "data/cars.json", carsJSON)
	writeFile(t, dir, "data/rentals.json", rentalsJSON)
	path := writeFile(t, dir, "stubd.yaml", yamlConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path())
	assert.Equal(t, "127.0.0.1:4000", cfg.Addr())
	assert.Equal(t, 45*time.Second, cfg.WriteTimeout.Std())
	assert.Equal(t, DefaultReadTimeout, cfg.ReadTimeout.Std(), "unset fields keep defaults")
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Nil(t, cfg.CORSOrigins())
	assert.Equal(t, DefaultAdminPrefix, cfg.AdminPrefix())

	require.Len(t, cfg.Fixtures, 2)
	assert.Equal(t, filepath.Join(dir, "data", "cars.json"), cfg.Fixtures[0].Path)

	require.Len(t, cfg.Routes, 5)
	assert.Equal(t, 250*time.Millisecond, cfg.Routes[2].Delay.Std())
	require.NotNil(t, cfg.Routes[4].Failure)
	assert.Equal(t, []int{502, 503}, cfg.Routes[4].Failure.StatusCodes)

	store, table, err := cfg.Build(nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cars", "rentals"}, store.Names())
	assert.Equal(t, 5, table.Len())

	def, params, err := table.Match("GET", "/cars/99")
	require.NoError(t, err)
	assert.Equal(t, route.BehaviorMutateAndServe, def.Behavior)
	assert.Equal(t, "99", params["id"])

	echo, _, err := table.Match("POST", "/cars")
	require.NoError(t, err)
	assert.Equal(t, "ok", echo.Ack)
}

func TestLoad_JSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "cars.json", carsJSON)
	path := writeFile(t, dir, "stubd.json", `{
		"port": 3100,
		"fixtures": [{"name": "cars", "path": "cars.json"}],
		"routes": [
			{"method": "GET", "path": "/cars", "behavior": "serve-fixture", "fixture": "cars"},
			{"method": "GET", "path": "/hb", "behavior": "health-check"}
		]
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3100, cfg.Port)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins())

	_, table, err := cfg.Build(nil)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
		wantErr error
		wantMsg string
	}{
		{
			name:    "empty file",
			file:    "empty.yaml",
			content: "  \n",
			wantErr: ErrEmptyFile,
		},
		{
			name:    "invalid yaml",
			file:    "bad.yaml",
			content: "routes: [",
			wantErr: ErrInvalidYAML,
		},
		{
			name:    "invalid json",
			file:    "bad.json",
			content: `{"routes": [}`,
			wantErr: ErrInvalidJSON,
		},
		{
			name:    "unknown behavior",
			file:    "behavior.yaml",
			content: "routes:\n  - {method: GET, path: /x, behavior: teleport}\n",
			wantErr: ErrInvalidConfig,
			wantMsg: "routes[0].behavior",
		},
		{
			name:    "unknown field",
			file:    "field.yaml",
			content: "colour: blue\nroutes:\n  - {method: GET, path: /hb, behavior: health-check}\n",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "no routes",
			file:    "noroutes.yaml",
			content: "port: 3000\n",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "mutate without param",
			file:    "mutate.yaml",
			content: "fixtures: [{name: cars, path: cars.json}]\nroutes:\n  - {method: GET, path: /x/:id, behavior: mutate-and-serve, fixture: cars, field: email}\n",
			wantErr: ErrInvalidConfig,
			wantMsg: "param",
		},
		{
			name:    "param not in pattern",
			file:    "param.yaml",
			content: "fixtures: [{name: cars, path: cars.json}]\nroutes:\n  - {method: GET, path: /x/:id, behavior: mutate-and-serve, fixture: cars, field: email, param: other}\n",
			wantErr: ErrInvalidConfig,
			wantMsg: "not in the pattern",
		},
		{
			name:    "unknown fixture",
			file:    "fixture.yaml",
			content: "routes:\n  - {method: GET, path: /x, behavior: serve-fixture, fixture: ghosts}\n",
			wantErr: ErrInvalidConfig,
			wantMsg: `unknown fixture "ghosts"`,
		},
		{
			name:    "duplicate route",
			file:    "dup.yaml",
			content: "routes:\n  - {method: GET, path: /hb, behavior: health-check}\n  - {method: get, path: /hb/, behavior: health-check}\n",
			wantErr: ErrInvalidConfig,
			wantMsg: "duplicate route",
		},
		{
			name:    "bad delay",
			file:    "delay.yaml",
			content: "routes:\n  - {method: GET, path: /hb, behavior: health-check, delay: soon}\n",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "bad failure condition",
			file:    "when.yaml",
			content: "routes:\n  - {method: GET, path: /hb, behavior: health-check, failure: {probability: 1, when: 'method +'}}\n",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "mutate field that cannot be set",
			file:    "rootfield.yaml",
			content: "fixtures: [{name: cars, path: cars.json}]\nroutes:\n  - {method: GET, path: /x/:id, behavior: mutate-and-serve, fixture: cars, field: '$[0]', param: id}\n",
			wantErr: ErrInvalidConfig,
			wantMsg: "invalid field",
		},
		{
			name:    "route under admin prefix",
			file:    "admin.yaml",
			content: "routes:\n  - {method: GET, path: /__stub/hb, behavior: health-check}\n",
			wantErr: ErrInvalidConfig,
			wantMsg: "admin API",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, t.TempDir(), tt.file, tt.content)

			_, err := Load(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestLoad_OverridesRunBeforeValidation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "extra/planes.json", `[{"company":"none"}]`)
	path := writeFile(t, dir, "stubd.yaml",
		"routes:\n  - {method: GET, path: /planes, behavior: serve-fixture, fixture: planes}\n")

	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidConfig)

	glob := filepath.Join(dir, "extra", "*.json")
	cfg, err := Load(path, func(c *Config) { c.FixtureGlob = glob })
	require.NoError(t, err)
	assert.Equal(t, glob, cfg.FixtureGlob, "overrides are not resolved against the file")

	store, table, err := cfg.Build(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"planes"}, store.Names())
	assert.Equal(t, 1, table.Len())

	_, err = Load(path, func(c *Config) {
		c.FixtureGlob = glob
		c.Port = -1
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_DelayLongerThanWriteTimeout(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "slow.yaml",
		"writeTimeout: 1s\nroutes:\n  - {method: GET, path: /slow, behavior: health-check, delay: 45s}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.WriteTimeout.Std())
	assert.Equal(t, 45*time.Second, cfg.Routes[0].Delay.Std())
}

func TestLoad_NotFound(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestBuild_FixtureErrors(t *testing.T) {
	t.Parallel()

	t.Run("malformed fixture", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFile(t, dir, "cars.json", `[{"id": 1,`)
		path := writeFile(t, dir, "stubd.yaml",
			"fixtures: [{name: cars, path: cars.json}]\nroutes:\n  - {method: GET, path: /cars, behavior: serve-fixture, fixture: cars}\n")

		cfg, err := Load(path)
		require.NoError(t, err)

		_, _, err = cfg.Build(nil)
		assert.ErrorIs(t, err, fixture.ErrFixtureLoad)
	})

	t.Run("mutating an empty fixture", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFile(t, dir, "empty.json", `[]`)
		path := writeFile(t, dir, "stubd.yaml",
			"fixtures: [{name: empty, path: empty.json}]\nroutes:\n  - {method: GET, path: /e/:id, behavior: mutate-and-serve, fixture: empty, field: email, param: id}\n")

		cfg, err := Load(path)
		require.NoError(t, err)

		_, _, err = cfg.Build(nil)
		assert.ErrorIs(t, err, fixture.ErrEmptyDocument)
	})

	t.Run("glob supplies the fixture", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeFile(t, dir, "data/v1/cars.json", carsJSON)
		writeFile(t, dir, "data/v2/rentals.json", rentalsJSON)
		path := writeFile(t, dir, "stubd.yaml",
			"fixtureGlob: data/**/*.json\nroutes:\n  - {method: GET, path: /rentals, behavior: serve-fixture, fixture: rentals}\n")

		cfg, err := Load(path)
		require.NoError(t, err)

		store, _, err := cfg.Build(nil)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"cars", "rentals"}, store.Names())
	})
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":3000", cfg.Addr())
	assert.Empty(t, cfg.Path())

	table := route.NewTable(nil)
	require.NoError(t, cfg.RegisterRoutes(table))

	tests := []struct {
		method, path string
		behavior     route.Behavior
		fixture      string
	}{
		{"GET", "/api/v1/cars", route.BehaviorServeFixture, "cars"},
		{"POST", "/api/v1/cars", route.BehaviorEchoAndAck, ""},
		{"GET", "/api/v1/cars/rent/", route.BehaviorServeFixture, "rentals"},
		{"GET", "/api/v1/hb", route.BehaviorHealthCheck, ""},
		{"GET", "/api/v1/supercars/fixed", route.BehaviorServeFixture, "rentals"},
		{"GET", "/api/v1/supercars/blabla", route.BehaviorServeFixture, "cars"},
		{"GET", "/api/v1/supercars/blabla/42", route.BehaviorMutateAndServe, "cars"},
		{"GET", "/api/v1/supercars/slow", route.BehaviorDelayThenServe, "cars"},
		{"GET", "/api/v2/planes/7/passengers", route.BehaviorMutateAndServe, "passengers"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			def, _, err := table.Match(tt.method, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.behavior, def.Behavior)
			assert.Equal(t, tt.fixture, def.Fixture)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{EnvPort: "8081", EnvLogLevel: "warn"}
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(func(k string) string { return env[k] }))
	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, "warn", cfg.Log.Level)

	bad := map[string]string{EnvPort: "http"}
	err := Default().ApplyEnv(func(k string) string { return bad[k] })
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("STUBD_TEST_HOST", "10.0.0.1")

	assert.Equal(t, "host: 10.0.0.1", ExpandEnvVars("host: ${STUBD_TEST_HOST}"))
	assert.Equal(t, "port: 3000", ExpandEnvVars("port: ${STUBD_TEST_UNSET:-3000}"))
	assert.Equal(t, "x: ", ExpandEnvVars("x: ${STUBD_TEST_UNSET}"))
}

func TestMarshal_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, format := range []Format{FormatYAML, FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			t.Parallel()
			data, err := Default().Marshal(format)
			require.NoError(t, err)

			cfg, err := Parse(data, format)
			require.NoError(t, err)
			assert.Equal(t, Default().Routes, cfg.Routes)
		})
	}
}

func TestSchema(t *testing.T) {
	t.Parallel()

	var doc map[string]any
	require.NoError(t, json.Unmarshal(Schema(), &doc))
	assert.Contains(t, doc, "$defs")

	_, err := compileSchema()
	require.NoError(t, err)
}

func TestFieldFromPointer(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", fieldFromPointer(""))
	assert.Equal(t, "port", fieldFromPointer("/port"))
	assert.Equal(t, "routes[2].behavior", fieldFromPointer("/routes/2/behavior"))
	assert.True(t, strings.HasPrefix(fieldFromPointer("/fixtures/0"), "fixtures"))
}

func TestLoad_ExampleConfig(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join("..", "..", "examples", "with-config-file", "stubd.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Port)

	store, table, err := cfg.Build(nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cars", "rentals", "passengers"}, store.Names())
	assert.Equal(t, len(cfg.Routes), table.Len())

	def, params, err := table.Match("GET", "/api/v2/planes/A320/passengers")
	require.NoError(t, err)
	assert.Equal(t, "company", def.Field)
	assert.Equal(t, "A320", params[def.Param])

	flaky, _, err := table.Match("GET", "/api/v1/supercars/flaky")
	require.NoError(t, err)
	require.NotNil(t, flaky.Failure)
}
