package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kungfuzoo/zoo/pkg/zoo"
)

// record is the client-side view of an animal or employee. Every field is a
// free-form string keyed by its JSON name.
type record map[string]string

// resource describes a collection the client can manage.
type resource struct {
	kind zoo.Kind
	// fields lists the JSON field names in display order.
	fields []string
	// columns is how many fields the default table shows; wide shows all.
	columns int
}

var resources = []resource{
	{
		kind:    zoo.AnimalKind,
		fields:  []string{"name", "species", "age", "enclosure", "feeding_schedule", "diet"},
		columns: 4,
	},
	{
		kind:    zoo.EmployeeKind,
		fields:  []string{"name", "role", "email", "phone_number", "responsibilities", "schedule"},
		columns: 3,
	},
}

// normalizeResourceType resolves singular or plural resource names.
func normalizeResourceType(name string) (resource, error) {
	name = strings.ToLower(name)
	for _, r := range resources {
		if name == r.kind.Collection || name == strings.ToLower(r.kind.Singular) {
			return r, nil
		}
	}
	return resource{}, fmt.Errorf("unknown resource type %q (supported: animals, employees)", name)
}

// name returns the lower-case singular name used in prompts and errors.
func (r resource) name() string {
	return strings.ToLower(r.kind.Singular)
}

func (r resource) listPath() string {
	return "/" + r.kind.Collection
}

func (r resource) itemPath(id int) string {
	return fmt.Sprintf("/%s/%d", r.kind.Collection, id)
}

func (r resource) hasField(field string) bool {
	for _, f := range r.fields {
		if f == field {
			return true
		}
	}
	return false
}

// parseID validates a record ID argument.
func (r resource) parseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q: must be a positive integer", r.name(), raw)
	}
	return id, nil
}
