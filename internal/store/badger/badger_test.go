package badger

import (
	"context"
	"sync"
	"testing"

	"github.com/kungfuzoo/zoo/pkg/zoo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T, seed map[int]zoo.Employee) (*Store[zoo.Employee], func()) {
	store, err := NewStore(zoo.EmployeeKind, seed)
	require.NoError(t, err)

	cleanup := func() {
		store.Close()
	}

	return store, cleanup
}

func TestStore_KeyRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t, nil)
	defer cleanup()

	for _, id := range []int{1, 255, 256, 1 << 20} {
		key := store.key(id)
		assert.Equal(t, "/employees/", string(key[:len("/employees/")]))
		assert.Equal(t, id, store.idFromKey(key))
	}
}

func TestStore_MaxIDUsesHighestKey(t *testing.T) {
	employees, cleanup := setupTestStore(t, map[int]zoo.Employee{
		3:   {Name: zoo.String("Angelina Jolie")},
		300: {Name: zoo.String("Far Away")},
	})
	defer cleanup()

	ctx := context.Background()
	id, err := employees.Create(ctx, zoo.Employee{Name: zoo.String("Seth Rogen")})
	require.NoError(t, err)
	assert.Equal(t, 301, id)
}

func TestStore_CreateAfterDeletingEverything(t *testing.T) {
	store, cleanup := setupTestStore(t, map[int]zoo.Employee{
		1: {Name: zoo.String("Jack Black")},
		2: {Name: zoo.String("Dustin Hoffman")},
	})
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.Delete(ctx, 1))
	require.NoError(t, store.Delete(ctx, 2))

	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	id, err := store.Create(ctx, zoo.Employee{Name: zoo.String("Lucy Liu")})
	require.NoError(t, err)
	assert.Equal(t, 1, id)
}

func TestStore_OmittedFieldsStayEmpty(t *testing.T) {
	store, cleanup := setupTestStore(t, nil)
	defer cleanup()

	ctx := context.Background()
	id, err := store.Create(ctx, zoo.Employee{Name: zoo.String("James Hong"), Role: zoo.String("Noodle chef")})
	require.NoError(t, err)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, zoo.Employee{Name: zoo.String("James Hong"), Role: zoo.String("Noodle chef")}, got)
}

func TestStore_EmptyStringSurvivesEncoding(t *testing.T) {
	store, cleanup := setupTestStore(t, nil)
	defer cleanup()

	ctx := context.Background()
	id, err := store.Create(ctx, zoo.Employee{Name: zoo.String("James Hong"), Schedule: zoo.String("")})
	require.NoError(t, err)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.Schedule)
	assert.Equal(t, "", *got.Schedule)
	assert.Nil(t, got.Email)
}

func TestStore_ConcurrentCreates(t *testing.T) {
	store, cleanup := setupTestStore(t, nil)
	defer cleanup()

	const n = 50
	ctx := context.Background()
	ids := make(chan int, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := store.Create(ctx, zoo.Employee{Name: zoo.String("Kung Fu extra")})
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int]bool)
	for id := range ids {
		assert.False(t, seen[id], "id %d assigned twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
	for id := 1; id <= n; id++ {
		assert.True(t, seen[id])
	}

	count, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, count)
}
