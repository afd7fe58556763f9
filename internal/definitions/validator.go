// Where: internal/definitions/validator.go
// What: Schema validation for configuration documents.
// Why: Catch malformed documents before any view interprets them.
package definitions

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"sigs.k8s.io/yaml"
)

//go:embed schema/lambda.schema.json
var configSchema []byte

var (
	schemaOnce     sync.Once
	schemaErr      error
	compiledSchema *jsonschema.Schema
)

// validateConfiguration converts the YAML document to JSON, validates
// it against the configuration schema and returns the decoded document.
func validateConfiguration(content []byte) (map[string]any, error) {
	sch, err := loadSchema()
	if err != nil {
		return nil, err
	}

	jsonData, err := yaml.YAMLToJSON(content)
	if err != nil {
		return nil, fmt.Errorf("convert yaml to json: %w", err)
	}

	var document any
	if err := json.Unmarshal(jsonData, &document); err != nil {
		return nil, fmt.Errorf("unmarshal json: %w", err)
	}

	if err := sch.Validate(document); err != nil {
		return nil, err
	}

	data, ok := document.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("configuration root must be a mapping")
	}
	return data, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(
			"lambda.schema.json",
			strings.NewReader(string(configSchema)),
		); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("lambda.schema.json")
	})
	return compiledSchema, schemaErr
}
