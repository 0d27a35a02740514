package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kungfuzoo/zoo/pkg/zoo"
	"go.uber.org/zap"
)

// Publisher publishes a message to a subject. *Bus implements it.
type Publisher interface {
	Publish(ctx context.Context, subject string, msg *Message) error
}

// Relay forwards store change events to a Publisher.
type Relay struct {
	publisher Publisher
	logger    *zap.Logger
	wg        sync.WaitGroup
}

// NewRelay creates a relay that publishes through p.
func NewRelay(p Publisher, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		publisher: p,
		logger:    logger.Named("relay"),
	}
}

// Attach starts forwarding changes of store until ctx is cancelled or the
// store is closed.
func Attach[T any](ctx context.Context, r *Relay, kind zoo.Kind, store zoo.RecordStore[T]) error {
	events, err := store.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", kind.Collection, err)
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for event := range events {
			if err := r.forward(ctx, kind, event.Type, event.ID, event.Record); err != nil {
				r.logger.Warn("Failed to publish change",
					zap.String("collection", kind.Collection),
					zap.Int("id", event.ID),
					zap.String("type", string(event.Type)),
					zap.Error(err),
				)
			}
		}
		r.logger.Debug("Watch closed", zap.String("collection", kind.Collection))
	}()

	return nil
}

func (r *Relay) forward(ctx context.Context, kind zoo.Kind, eventType zoo.EventType, id int, record interface{}) error {
	msg := &Message{
		ID:         uuid.NewString(),
		Type:       string(eventType),
		Collection: kind.Collection,
		RecordID:   id,
		Timestamp:  time.Now().UTC(),
	}

	if eventType != zoo.EventTypeDeleted {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		msg.Record = data
	}

	return r.publisher.Publish(ctx, Subject(kind.Collection, string(eventType)), msg)
}

// Wait blocks until every attached watch has ended.
func (r *Relay) Wait() {
	r.wg.Wait()
}
