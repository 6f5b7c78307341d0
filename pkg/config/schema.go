package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// Schema returns the JSON Schema configuration files are checked against.
func Schema() []byte {
	return bytes.Clone(schemaJSON)
}

func compileSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource("schema.json", bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("schema.json")
	})
	return compiledSchema, schemaErr
}

// validateSchema checks a JSON document against the configuration schema.
func validateSchema(doc []byte) error {
	schema, err := compileSchema()
	if err != nil {
		return fmt.Errorf("schema compilation error: %w", err)
	}

	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	if err := schema.Validate(v); err != nil {
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			result := &ValidationResult{}
			collectSchemaErrors(verr, result)
			return fmt.Errorf("%w: %s", ErrInvalidConfig, result.Error())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// collectSchemaErrors flattens the leaf causes of a schema error.
func collectSchemaErrors(err *jsonschema.ValidationError, result *ValidationResult) {
	if len(err.Causes) == 0 {
		result.AddError(fieldFromPointer(err.InstanceLocation), err.Message)
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, result)
	}
}

// fieldFromPointer turns "/routes/2/behavior" into "routes[2].behavior".
func fieldFromPointer(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}
	var b strings.Builder
	for i, part := range strings.Split(ptr, "/") {
		if isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
