// Package sqlite provides a SQLite implementation of zoo.RecordStore.
//
// Each store opens its own private in-memory database, so records do not
// survive a restart. Records are kept as JSON documents:
//
//	records(id INTEGER PRIMARY KEY, data TEXT NOT NULL)
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/kungfuzoo/zoo/internal/store/watch"
	"github.com/kungfuzoo/zoo/pkg/zoo"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Store implements zoo.RecordStore on an in-memory SQLite database.
type Store[T any] struct {
	db   *sql.DB
	kind zoo.Kind
	mu   sync.Mutex // serializes writers so ID assignment never conflicts
	hub  *watch.Hub[T]
}

// NewStore opens an in-memory database and loads seed into it.
func NewStore[T any](kind zoo.Kind, seed map[int]T) (*Store[T], error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(`CREATE TABLE records (
		id INTEGER PRIMARY KEY,
		data TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create records table: %w", err)
	}

	s := &Store[T]{
		db:   db,
		kind: kind,
		hub:  watch.NewHub[T](),
	}

	if err := s.load(seed); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// load inserts seed in a single transaction.
func (s *Store[T]) load(seed map[int]T) (retErr error) {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	for id, record := range seed {
		if id <= 0 {
			return fmt.Errorf("seed %s id %d: %w", s.kind.Collection, id, zoo.ErrInvalidInput)
		}
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal seed record %d: %w", id, err)
		}
		if _, err := tx.Exec(`INSERT INTO records (id, data) VALUES (?, ?)`, id, string(data)); err != nil {
			return fmt.Errorf("insert seed record %d: %w", id, err)
		}
	}

	return tx.Commit()
}

// Kind returns the collection this store holds.
func (s *Store[T]) Kind() zoo.Kind {
	return s.kind
}

// List returns every record keyed by ID.
func (s *Store[T]) List(ctx context.Context) (map[int]T, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, data FROM records`)
	if err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make(map[int]T)
	for rows.Next() {
		var (
			id  int
			raw string
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		var record T
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("decode record %d: %w", id, err)
		}
		records[id] = record
	}

	return records, rows.Err()
}

// Get returns the record stored under id.
func (s *Store[T]) Get(ctx context.Context, id int) (T, error) {
	var record T

	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM records WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return record, zoo.ErrNotFound
	}
	if err != nil {
		return record, fmt.Errorf("select record %d: %w", id, err)
	}

	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return record, fmt.Errorf("decode record %d: %w", id, err)
	}
	return record, nil
}

// Create stores record under the next ID.
func (s *Store[T]) Create(ctx context.Context, record T) (int, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return 0, fmt.Errorf("marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin create: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM records`).Scan(&id); err != nil {
		return 0, fmt.Errorf("next id: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO records (id, data) VALUES (?, ?)`, id, string(data)); err != nil {
		return 0, fmt.Errorf("insert record %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create: %w", err)
	}

	s.hub.Publish(zoo.Event[T]{Type: zoo.EventTypeCreated, ID: id, Record: record})
	return id, nil
}

// Update replaces the record stored under id.
func (s *Store[T]) Update(ctx context.Context, id int, record T) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE records SET data = ? WHERE id = ?`, string(data), id)
	if err != nil {
		return fmt.Errorf("update record %d: %w", id, err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	s.hub.Publish(zoo.Event[T]{Type: zoo.EventTypeUpdated, ID: id, Record: record})
	return nil
}

// Delete removes the record stored under id.
func (s *Store[T]) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete record %d: %w", id, err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	s.hub.Publish(zoo.Event[T]{Type: zoo.EventTypeDeleted, ID: id, Record: record})
	return nil
}

// requireRow maps "no row affected" to zoo.ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return zoo.ErrNotFound
	}
	return nil
}

// Len returns the number of stored records.
func (s *Store[T]) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Watch returns a channel of changes until ctx is done or the store closes.
func (s *Store[T]) Watch(ctx context.Context) (<-chan zoo.Event[T], error) {
	return s.hub.Subscribe(ctx), nil
}

// Close closes all watchers and the database.
func (s *Store[T]) Close() error {
	s.hub.Close()
	return s.db.Close()
}
