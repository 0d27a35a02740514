package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestBus(t *testing.T) *Bus {
	bus, err := NewBus(Config{
		Logger: zap.NewNop(),
		Port:   -1, // Random port
	})
	require.NoError(t, err)
	t.Cleanup(func() { bus.Close() })

	return bus
}

func TestBus_PublishSubscribe(t *testing.T) {
	bus := setupTestBus(t)
	ctx := context.Background()

	received := make(chan *Message, 1)
	sub, err := bus.Subscribe(ctx, "zoo.animals.created", func(ctx context.Context, msg *Message) error {
		received <- msg
		return nil
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	msg := &Message{
		ID:         "msg-1",
		Type:       "created",
		Collection: "animals",
		RecordID:   6,
		Record:     json.RawMessage(`{"name":"Monkey"}`),
	}
	require.NoError(t, bus.Publish(ctx, "zoo.animals.created", msg))

	select {
	case got := <-received:
		assert.Equal(t, msg.ID, got.ID)
		assert.Equal(t, msg.Type, got.Type)
		assert.Equal(t, msg.Collection, got.Collection)
		assert.Equal(t, msg.RecordID, got.RecordID)
		assert.JSONEq(t, `{"name":"Monkey"}`, string(got.Record))
		assert.False(t, got.Timestamp.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("Message not received")
	}
}

func TestBus_WildcardSubscribe(t *testing.T) {
	bus := setupTestBus(t)
	ctx := context.Background()

	received := make(chan *Message, 4)
	sub, err := bus.Subscribe(ctx, "zoo.employees.*", func(ctx context.Context, msg *Message) error {
		received <- msg
		return nil
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, bus.Publish(ctx, "zoo.animals.created", &Message{ID: "a"}))
	require.NoError(t, bus.Publish(ctx, "zoo.employees.updated", &Message{ID: "b"}))
	require.NoError(t, bus.Publish(ctx, "zoo.employees.deleted", &Message{ID: "c"}))

	var ids []string
	for len(ids) < 2 {
		select {
		case m := <-received:
			ids = append(ids, m.ID)
		case <-time.After(2 * time.Second):
			t.Fatalf("received %v, want two employee messages", ids)
		}
	}
	assert.ElementsMatch(t, []string{"b", "c"}, ids)
}

func TestBus_PublishCancelledContext(t *testing.T) {
	bus := setupTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bus.Publish(ctx, "zoo.animals.created", &Message{ID: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBus_ExternalURL(t *testing.T) {
	embedded := setupTestBus(t)

	client, err := NewBus(Config{URL: embedded.ClientURL()})
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	received := make(chan *Message, 1)
	sub, err := embedded.Subscribe(ctx, "zoo.>", func(ctx context.Context, msg *Message) error {
		received <- msg
		return nil
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, client.Publish(ctx, "zoo.animals.deleted", &Message{ID: "ext"}))

	select {
	case m := <-received:
		assert.Equal(t, "ext", m.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("Message not received from external client")
	}
}

func TestNewBus_UnreachableURL(t *testing.T) {
	_, err := NewBus(Config{URL: "nats://127.0.0.1:1"})
	assert.Error(t, err)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "zoo.animals.created", Subject("animals", "created"))

	collection, eventType, ok := ParseSubject("zoo.employees.deleted")
	assert.True(t, ok)
	assert.Equal(t, "employees", collection)
	assert.Equal(t, "deleted", eventType)

	for _, s := range []string{"zoo.animals", "farm.animals.created", "zoo..created", "zoo.animals.created.extra"} {
		_, _, ok := ParseSubject(s)
		assert.False(t, ok, s)
	}
}
