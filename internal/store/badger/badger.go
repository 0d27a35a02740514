// Package badger provides a BadgerDB implementation of zoo.RecordStore.
//
// The database is opened in in-memory mode, so records do not survive a
// restart. Keys have the form /<collection>/<8-byte big-endian id>, which
// keeps iteration ordered by ID.
package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/kungfuzoo/zoo/internal/store/watch"
	"github.com/kungfuzoo/zoo/pkg/zoo"
)

// Store implements zoo.RecordStore using an in-memory BadgerDB.
type Store[T any] struct {
	db     *badger.DB
	kind   zoo.Kind
	prefix []byte
	mu     sync.Mutex // serializes writers so ID assignment never conflicts
	hub    *watch.Hub[T]
}

// NewStore opens an in-memory BadgerDB and loads seed into it.
func NewStore[T any](kind zoo.Kind, seed map[int]T) (*Store[T], error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil // Disable Badger's default logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store[T]{
		db:     db,
		kind:   kind,
		prefix: []byte("/" + kind.Collection + "/"),
		hub:    watch.NewHub[T](),
	}

	if err := s.load(seed); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// load writes seed in a single write batch.
func (s *Store[T]) load(seed map[int]T) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for id, record := range seed {
		if id <= 0 {
			return fmt.Errorf("seed %s id %d: %w", s.kind.Collection, id, zoo.ErrInvalidInput)
		}
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal seed record %d: %w", id, err)
		}
		if err := wb.Set(s.key(id), data); err != nil {
			return fmt.Errorf("failed to set seed record %d: %w", id, err)
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("failed to flush seed: %w", err)
	}
	return nil
}

// Kind returns the collection this store holds.
func (s *Store[T]) Kind() zoo.Kind {
	return s.kind
}

// key constructs the storage key for id.
func (s *Store[T]) key(id int) []byte {
	k := make([]byte, len(s.prefix)+8)
	copy(k, s.prefix)
	binary.BigEndian.PutUint64(k[len(s.prefix):], uint64(id))
	return k
}

// idFromKey extracts the record ID from a storage key.
func (s *Store[T]) idFromKey(k []byte) int {
	return int(binary.BigEndian.Uint64(k[len(s.prefix):]))
}

// List returns every record keyed by ID.
func (s *Store[T]) List(ctx context.Context) (map[int]T, error) {
	records := make(map[int]T)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = s.prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			data, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("failed to copy value: %w", err)
			}

			var record T
			if err := json.Unmarshal(data, &record); err != nil {
				return fmt.Errorf("failed to unmarshal record: %w", err)
			}
			records[s.idFromKey(item.Key())] = record
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// Get returns the record stored under id.
func (s *Store[T]) Get(ctx context.Context, id int) (T, error) {
	var record T
	if id <= 0 {
		return record, zoo.ErrNotFound
	}

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return zoo.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get key: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})

	return record, err
}

// Create stores record under the next ID.
func (s *Store[T]) Create(ctx context.Context, record T) (int, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var id int
	err = s.db.Update(func(txn *badger.Txn) error {
		highest, err := s.maxID(txn)
		if err != nil {
			return err
		}
		id = highest + 1

		if err := txn.SetEntry(badger.NewEntry(s.key(id), data)); err != nil {
			return fmt.Errorf("failed to set entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.hub.Publish(zoo.Event[T]{Type: zoo.EventTypeCreated, ID: id, Record: record})
	return id, nil
}

// maxID returns the highest stored ID, or 0 when the collection is empty.
func (s *Store[T]) maxID(txn *badger.Txn) (int, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = s.prefix
	opts.Reverse = true
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	// Seek past the last possible key under the prefix.
	seek := append(append([]byte{}, s.prefix...), 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)
	it.Seek(seek)
	if !it.Valid() {
		return 0, nil
	}
	return s.idFromKey(it.Item().Key()), nil
}

// Update replaces the record stored under id.
func (s *Store[T]) Update(ctx context.Context, id int, record T) error {
	if id <= 0 {
		return zoo.ErrNotFound
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.db.Update(func(txn *badger.Txn) error {
		key := s.key(id)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return zoo.ErrNotFound
		} else if err != nil {
			return fmt.Errorf("failed to get existing record: %w", err)
		}

		if err := txn.SetEntry(badger.NewEntry(key, data)); err != nil {
			return fmt.Errorf("failed to set entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.hub.Publish(zoo.Event[T]{Type: zoo.EventTypeUpdated, ID: id, Record: record})
	return nil
}

// Delete removes the record stored under id.
func (s *Store[T]) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		return zoo.ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var record T
	err := s.db.Update(func(txn *badger.Txn) error {
		key := s.key(id)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return zoo.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get record: %w", err)
		}

		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		}); err != nil {
			return fmt.Errorf("failed to unmarshal record: %w", err)
		}

		if err := txn.Delete(key); err != nil {
			return fmt.Errorf("failed to delete key: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.hub.Publish(zoo.Event[T]{Type: zoo.EventTypeDeleted, ID: id, Record: record})
	return nil
}

// Len returns the number of records.
func (s *Store[T]) Len(ctx context.Context) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = s.prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Watch returns a channel of record changes.
func (s *Store[T]) Watch(ctx context.Context) (<-chan zoo.Event[T], error) {
	return s.hub.Subscribe(ctx), nil
}

// Close closes watchers and the database.
func (s *Store[T]) Close() error {
	s.hub.Close()
	return s.db.Close()
}
