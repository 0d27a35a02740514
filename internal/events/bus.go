// Package events publishes record changes to a NATS message bus.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// MessageHandler handles incoming change messages.
type MessageHandler func(ctx context.Context, msg *Message) error

// Subscription represents a message subscription.
type Subscription interface {
	// Unsubscribe unsubscribes from the subject.
	Unsubscribe() error
}

// Bus publishes and subscribes to change messages over NATS.
type Bus struct {
	server *server.Server
	conn   *nats.Conn
	logger *zap.Logger
	subs   map[*nats.Subscription]struct{}
	mu     sync.Mutex
}

// Config holds message bus configuration.
type Config struct {
	Logger *zap.Logger
	// Port of the embedded server. -1 picks a random port.
	Port int
	// URL of an external NATS server. If set, no embedded server is started.
	URL string
}

// NewBus creates a new message bus. If URL is set it connects to that server,
// otherwise it starts an embedded NATS server on localhost.
func NewBus(cfg Config) (*Bus, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	var (
		conn       *nats.Conn
		natsServer *server.Server
		err        error
	)

	if cfg.URL != "" {
		conn, err = nats.Connect(cfg.URL, nats.Name("zood"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
		}
	} else {
		natsServer, err = server.NewServer(&server.Options{
			Host:   "127.0.0.1",
			Port:   cfg.Port,
			NoLog:  true,
			NoSigs: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create NATS server: %w", err)
		}

		go natsServer.Start()

		if !natsServer.ReadyForConnections(10 * time.Second) {
			natsServer.Shutdown()
			return nil, fmt.Errorf("NATS server failed to start")
		}

		conn, err = nats.Connect(natsServer.ClientURL(), nats.Name("zood"))
		if err != nil {
			natsServer.Shutdown()
			return nil, fmt.Errorf("failed to connect to NATS server: %w", err)
		}

		cfg.Logger.Info("Started embedded NATS server", zap.String("url", natsServer.ClientURL()))
	}

	return &Bus{
		server: natsServer,
		conn:   conn,
		logger: cfg.Logger,
		subs:   make(map[*nats.Subscription]struct{}),
	}, nil
}

// ClientURL returns the URL clients can use to reach the bus.
func (b *Bus) ClientURL() string {
	if b.server != nil {
		return b.server.ClientURL()
	}
	return b.conn.ConnectedUrl()
}

// Publish publishes a message to a subject.
func (b *Bus) Publish(ctx context.Context, subject string, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	return b.conn.Publish(subject, data)
}

// Subscribe subscribes to a subject. Wildcards such as "zoo.animals.*" or
// "zoo.>" are allowed.
func (b *Bus) Subscribe(ctx context.Context, subject string, handler MessageHandler) (Subscription, error) {
	sub, err := b.conn.Subscribe(subject, func(natsMsg *nats.Msg) {
		msg, decodeErr := decodeMessage(natsMsg.Data)
		if decodeErr != nil {
			b.logger.Error("Failed to decode message",
				zap.String("subject", natsMsg.Subject),
				zap.Error(decodeErr),
			)
			return
		}

		if handleErr := handler(ctx, msg); handleErr != nil {
			b.logger.Error("Message handler failed",
				zap.String("subject", natsMsg.Subject),
				zap.Error(handleErr),
			)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	// Make sure the server has registered the interest before returning.
	if err := b.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("failed to flush subscription: %w", err)
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	return &subscription{bus: b, sub: sub}, nil
}

// Close unsubscribes everything, drains the connection and stops the
// embedded server if one was started.
func (b *Bus) Close() error {
	b.mu.Lock()
	for sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.subs = make(map[*nats.Subscription]struct{})
	b.mu.Unlock()

	if b.conn != nil {
		b.conn.Close()
	}

	if b.server != nil {
		b.server.Shutdown()
	}

	return nil
}

// subscription implements Subscription.
type subscription struct {
	bus *Bus
	sub *nats.Subscription
}

func (s *subscription) Unsubscribe() error {
	s.bus.mu.Lock()
	delete(s.bus.subs, s.sub)
	s.bus.mu.Unlock()

	return s.sub.Unsubscribe()
}
