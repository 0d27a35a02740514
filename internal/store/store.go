// Package store provides the storage abstraction for zoo record collections.
package store

import (
	"fmt"
	"strings"

	"github.com/kungfuzoo/zoo/internal/store/badger"
	"github.com/kungfuzoo/zoo/internal/store/memory"
	"github.com/kungfuzoo/zoo/internal/store/sqlite"
	"github.com/kungfuzoo/zoo/pkg/zoo"
)

// Store is the interface every backend implements.
type Store[T any] = zoo.RecordStore[T]

const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Backends lists the supported backend names.
var Backends = []string{BackendMemory, BackendBadger, BackendSQLite}

// New creates a store for kind using the named backend and loads seed into it.
//
// Supported backends:
//
//	"memory" - Go map (default)
//	"badger" - in-memory BadgerDB
//	"sqlite" - in-memory SQLite
func New[T any](backend string, kind zoo.Kind, seed map[int]T) (Store[T], error) {
	switch backend {
	case BackendMemory, "":
		s, err := memory.NewStore(kind, seed)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendBadger:
		s, err := badger.NewStore(kind, seed)
		if err != nil {
			return nil, fmt.Errorf("failed to create badger store for %s: %w", kind.Collection, err)
		}
		return s, nil
	case BackendSQLite:
		s, err := sqlite.NewStore(kind, seed)
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite store for %s: %w", kind.Collection, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q (supported: %s)", backend, strings.Join(Backends, ", "))
	}
}
