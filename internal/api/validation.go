package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// parseID parses a record ID path segment. IDs are positive integers written
// with ASCII digits only, so signs and whitespace are rejected.
func parseID(raw string) (int, error) {
	if raw == "" {
		return 0, fmt.Errorf("id is empty")
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return 0, fmt.Errorf("id %q is not an integer", raw)
		}
	}

	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("id %q is out of range", raw)
	}
	if id <= 0 {
		return 0, fmt.Errorf("id %d is not positive", id)
	}
	return id, nil
}

// bindRecord decodes the JSON request body into record. An empty body is
// rejected rather than treated as an empty record, and so is anything after
// the first JSON value.
func bindRecord(c echo.Context, record interface{}) error {
	req := c.Request()
	if req.ContentLength == 0 {
		return fmt.Errorf("request body is empty")
	}
	if ctype := req.Header.Get(echo.HeaderContentType); !strings.HasPrefix(ctype, echo.MIMEApplicationJSON) {
		return fmt.Errorf("unsupported content type %q", ctype)
	}

	dec := json.NewDecoder(req.Body)
	if err := dec.Decode(record); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("decode body: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("unexpected data after JSON body")
	}
	return nil
}

// recordFields returns the sorted JSON names of the fields present in record.
func recordFields(record interface{}) []string {
	data, err := json.Marshal(record)
	if err != nil {
		return nil
	}

	var present map[string]json.RawMessage
	if err := json.Unmarshal(data, &present); err != nil {
		return nil
	}

	fields := make([]string, 0, len(present))
	for name := range present {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}
