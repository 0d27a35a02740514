// Package seed loads the initial contents of the animal and employee collections.
package seed

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/kungfuzoo/zoo/pkg/zoo"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultSeed []byte

//go:embed schema.json
var schemaJSON []byte

const schemaID = "seed.schema.json"

// Data holds the records each collection starts with.
type Data struct {
	Animals   map[int]zoo.Animal
	Employees map[int]zoo.Employee
}

// document is the on-disk seed shape; keys are decimal IDs.
type document struct {
	Animals   map[string]zoo.Animal   `json:"animals"`
	Employees map[string]zoo.Employee `json:"employees"`
}

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaID, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	schema, err := compiler.Compile(schemaID)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return schema, nil
})

// Default returns the built-in seed: five animals and five employees.
func Default() (*Data, error) {
	return Parse(defaultSeed)
}

// Empty returns a seed with no records.
func Empty() *Data {
	return &Data{
		Animals:   map[int]zoo.Animal{},
		Employees: map[int]zoo.Employee{},
	}
}

// Load reads a YAML or JSON seed file.
func Load(path string) (*Data, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return d, nil
}

// Parse decodes and validates a YAML or JSON seed document.
func Parse(data []byte) (*Data, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}

	// Round-trip through JSON so the validator sees plain JSON values.
	jsonData, err := json.Marshal(normalize(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to convert seed to JSON: %w", err)
	}

	var value interface{}
	if err := json.Unmarshal(jsonData, &value); err != nil {
		return nil, fmt.Errorf("failed to decode seed JSON: %w", err)
	}

	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("%w: %v", zoo.ErrInvalidInput, err)
	}

	var doc document
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode seed: %w", err)
	}

	animals, err := convertKeys(doc.Animals)
	if err != nil {
		return nil, fmt.Errorf("animals: %w", err)
	}
	employees, err := convertKeys(doc.Employees)
	if err != nil {
		return nil, fmt.Errorf("employees: %w", err)
	}

	return &Data{Animals: animals, Employees: employees}, nil
}

// convertKeys turns decimal string keys into positive integer IDs.
func convertKeys[T any](in map[string]T) (map[int]T, error) {
	out := make(map[int]T, len(in))
	for k, v := range in {
		id, err := strconv.Atoi(k)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("id %q is not a positive integer: %w", k, zoo.ErrInvalidInput)
		}
		out[id] = v
	}
	return out, nil
}

// normalize converts YAML mappings with non-string keys (e.g. unquoted
// integer IDs) into string-keyed maps that encoding/json accepts.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalize(val)
		}
		return m
	case []interface{}:
		for i, val := range t {
			t[i] = normalize(val)
		}
		return t
	default:
		return v
	}
}
