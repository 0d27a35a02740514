// Package zoo provides the core record types and store interface for the zoo API.
package zoo

import (
	"errors"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Kind describes a record collection.
type Kind struct {
	// Collection is the plural route segment and metric label (e.g. "animals").
	Collection string
	// Singular is the human-readable record name used in responses (e.g. "Animal").
	Singular string
}

var (
	AnimalKind   = Kind{Collection: "animals", Singular: "Animal"}
	EmployeeKind = Kind{Collection: "employees", Singular: "Employee"}
)

// Animal is a zoo resident. All fields are optional free-form text; a nil
// field is absent, which is different from a field set to "".
type Animal struct {
	Name            *string `json:"name,omitempty" yaml:"name,omitempty"`
	Age             *string `json:"age,omitempty" yaml:"age,omitempty"`
	Species         *string `json:"species,omitempty" yaml:"species,omitempty"`
	Enclosure       *string `json:"enclosure,omitempty" yaml:"enclosure,omitempty"`
	FeedingSchedule *string `json:"feeding_schedule,omitempty" yaml:"feeding_schedule,omitempty"`
	Diet            *string `json:"diet,omitempty" yaml:"diet,omitempty"`
}

// Employee is a member of the zoo staff. Fields follow the same rules as
// Animal.
type Employee struct {
	Name             *string `json:"name,omitempty" yaml:"name,omitempty"`
	Email            *string `json:"email,omitempty" yaml:"email,omitempty"`
	PhoneNumber      *string `json:"phone_number,omitempty" yaml:"phone_number,omitempty"`
	Role             *string `json:"role,omitempty" yaml:"role,omitempty"`
	Responsibilities *string `json:"responsibilities,omitempty" yaml:"responsibilities,omitempty"`
	Schedule         *string `json:"schedule,omitempty" yaml:"schedule,omitempty"`
}

// String returns a pointer to s, for building records in code.
func String(s string) *string {
	return &s
}

// Cloner is implemented by records that hold references. Stores that keep
// records in memory use it so callers never share state with the store.
type Cloner[T any] interface {
	Clone() T
}

// Clone returns a copy of a that shares no pointers with it.
func (a Animal) Clone() Animal {
	return Animal{
		Name:            cloneString(a.Name),
		Age:             cloneString(a.Age),
		Species:         cloneString(a.Species),
		Enclosure:       cloneString(a.Enclosure),
		FeedingSchedule: cloneString(a.FeedingSchedule),
		Diet:            cloneString(a.Diet),
	}
}

// Clone returns a copy of e that shares no pointers with it.
func (e Employee) Clone() Employee {
	return Employee{
		Name:             cloneString(e.Name),
		Email:            cloneString(e.Email),
		PhoneNumber:      cloneString(e.PhoneNumber),
		Role:             cloneString(e.Role),
		Responsibilities: cloneString(e.Responsibilities),
		Schedule:         cloneString(e.Schedule),
	}
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	return String(*p)
}
