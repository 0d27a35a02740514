// Package memory provides a map-backed implementation of zoo.RecordStore.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/kungfuzoo/zoo/internal/store/watch"
	"github.com/kungfuzoo/zoo/pkg/zoo"
)

// Store keeps one collection in a Go map. Data is lost on restart.
type Store[T any] struct {
	kind    zoo.Kind
	mu      sync.RWMutex
	records map[int]T
	hub     *watch.Hub[T]
}

// NewStore creates a store holding a copy of seed.
func NewStore[T any](kind zoo.Kind, seed map[int]T) (*Store[T], error) {
	for id := range seed {
		if id <= 0 {
			return nil, fmt.Errorf("seed %s id %d: %w", kind.Collection, id, zoo.ErrInvalidInput)
		}
	}

	records := make(map[int]T, len(seed))
	for id, record := range seed {
		records[id] = clone(record)
	}

	return &Store[T]{
		kind:    kind,
		records: records,
		hub:     watch.NewHub[T](),
	}, nil
}

// Kind returns the collection this store holds.
func (s *Store[T]) Kind() zoo.Kind {
	return s.kind
}

// List returns a copy of every record.
func (s *Store[T]) List(ctx context.Context) (map[int]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make(map[int]T, len(s.records))
	for id, record := range s.records {
		records[id] = clone(record)
	}
	return records, nil
}

// Get returns the record stored under id.
func (s *Store[T]) Get(ctx context.Context, id int) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		var zero T
		return zero, zoo.ErrNotFound
	}
	return clone(record), nil
}

// Create stores record under the next ID.
func (s *Store[T]) Create(ctx context.Context, record T) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := zoo.NextID(s.records)
	s.records[id] = clone(record)
	s.hub.Publish(zoo.Event[T]{Type: zoo.EventTypeCreated, ID: id, Record: record})
	return id, nil
}

// Update replaces the record stored under id.
func (s *Store[T]) Update(ctx context.Context, id int, record T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return zoo.ErrNotFound
	}
	s.records[id] = clone(record)
	s.hub.Publish(zoo.Event[T]{Type: zoo.EventTypeUpdated, ID: id, Record: record})
	return nil
}

// Delete removes the record stored under id.
func (s *Store[T]) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return zoo.ErrNotFound
	}
	delete(s.records, id)
	s.hub.Publish(zoo.Event[T]{Type: zoo.EventTypeDeleted, ID: id, Record: record})
	return nil
}

// Len returns the number of records.
func (s *Store[T]) Len(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Watch returns a channel of record changes.
func (s *Store[T]) Watch(ctx context.Context) (<-chan zoo.Event[T], error) {
	return s.hub.Subscribe(ctx), nil
}

// Close closes all watch channels.
func (s *Store[T]) Close() error {
	s.hub.Close()
	return nil
}

// clone copies record when it holds references, so the map never shares
// state with callers.
func clone[T any](record T) T {
	if c, ok := any(record).(zoo.Cloner[T]); ok {
		return c.Clone()
	}
	return record
}
