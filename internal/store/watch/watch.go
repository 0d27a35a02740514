// Package watch fans record events out to store watchers.
package watch

import (
	"context"
	"sync"

	"github.com/kungfuzoo/zoo/pkg/zoo"
)

// bufferSize is the per-watcher channel capacity.
const bufferSize = 100

// Hub delivers events to every registered watcher without blocking the sender.
type Hub[T any] struct {
	mu       sync.Mutex
	watchers map[chan zoo.Event[T]]struct{}
	closed   bool
}

// NewHub creates an empty hub.
func NewHub[T any]() *Hub[T] {
	return &Hub[T]{
		watchers: make(map[chan zoo.Event[T]]struct{}),
	}
}

// Subscribe registers a watcher. The returned channel is closed when ctx is
// done, when the hub is closed, or when the watcher falls behind.
func (h *Hub[T]) Subscribe(ctx context.Context) <-chan zoo.Event[T] {
	ch := make(chan zoo.Event[T], bufferSize)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch
	}
	h.watchers[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.remove(ch)
	}()

	return ch
}

// Publish sends event to all watchers. A watcher whose buffer is full is
// dropped and its channel closed.
func (h *Hub[T]) Publish(event zoo.Event[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.watchers {
		select {
		case ch <- event:
		default:
			delete(h.watchers, ch)
			close(ch)
		}
	}
}

// Len returns the number of registered watchers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers)
}

// Close closes every watcher channel. Later subscriptions get a closed channel.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.watchers {
		delete(h.watchers, ch)
		close(ch)
	}
	h.closed = true
}

// remove unregisters ch if it is still registered.
func (h *Hub[T]) remove(ch chan zoo.Event[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.watchers[ch]; ok {
		delete(h.watchers, ch)
		close(ch)
	}
}
