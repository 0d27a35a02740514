package zoo

import (
	"context"
)

// RecordStore holds one collection of records keyed by positive integer IDs.
// Implementations must be safe for concurrent use.
type RecordStore[T any] interface {
	// List returns a copy of every record keyed by ID.
	List(ctx context.Context) (map[int]T, error)

	// Get returns the record stored under id.
	// Returns ErrNotFound if id is absent.
	Get(ctx context.Context, id int) (T, error)

	// Create stores record under max(existing IDs)+1, or 1 when the
	// collection is empty, and returns the assigned ID.
	// Deleting the highest ID and creating again reissues that ID.
	Create(ctx context.Context, record T) (int, error)

	// Update replaces the whole record stored under id.
	// Returns ErrNotFound if id is absent.
	Update(ctx context.Context, id int, record T) error

	// Delete removes the record stored under id.
	// Returns ErrNotFound if id is absent.
	Delete(ctx context.Context, id int) error

	// Len returns the number of stored records.
	Len(ctx context.Context) (int, error)

	// Watch returns a channel that emits an event for every change.
	// The channel is closed when ctx is cancelled or the store is closed.
	Watch(ctx context.Context) (<-chan Event[T], error)

	// Close releases the store and closes all watch channels.
	Close() error
}

// Event represents a change to a record.
type Event[T any] struct {
	Type   EventType
	ID     int
	Record T
}

// EventType indicates the type of record change.
type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeUpdated EventType = "updated"
	EventTypeDeleted EventType = "deleted"
)

// NextID returns the ID Create assigns given the current keys.
func NextID[T any](records map[int]T) int {
	highest := 0
	for id := range records {
		if id > highest {
			highest = id
		}
	}
	return highest + 1
}
