package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// recordFlags are the input flags shared by create and update.
type recordFlags struct {
	filename string
	set      []string
}

// mutationResponse is the body of a successful create, update or delete.
type mutationResponse struct {
	Message string `json:"message" yaml:"message"`
	ID      int    `json:"id,omitempty" yaml:"id,omitempty"`
}

// readRecord builds a record from a YAML or JSON file ("-" reads stdin) and
// key=value overrides. Unknown fields are rejected.
func readRecord(res resource, flags recordFlags, stdin io.Reader) (record, error) {
	rec := record{}

	if flags.filename != "" {
		var (
			data []byte
			err  error
		)
		if flags.filename == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(flags.filename)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", flags.filename, err)
		}

		// JSON is valid YAML, so one decoder serves both.
		if err := yaml.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", flags.filename, err)
		}
		if rec == nil {
			rec = record{}
		}
	}

	for _, kv := range flags.set {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: expected field=value", kv)
		}
		rec[key] = value
	}

	var unknown []string
	for field := range rec {
		if !res.hasField(field) {
			unknown = append(unknown, field)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown %s fields: %s (known: %s)",
			res.name(), strings.Join(unknown, ", "), strings.Join(res.fields, ", "))
	}

	if len(rec) == 0 {
		return nil, fmt.Errorf("no fields given: use -f or --set")
	}

	return rec, nil
}
