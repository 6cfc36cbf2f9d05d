package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSPubSub implements the PubSub interface using NATS core subjects.
type NATSPubSub struct {
	conn          *nats.Conn
	subscriptions map[string]*nats.Subscription
	mu            sync.Mutex
}

// channelToSubject converts a Redis-style channel name to a NATS subject.
// Colons become dots, and the "*" wildcard maps onto the NATS single-token
// wildcard directly:
//
//	"live:stream:STREAM123:events" → "live.stream.STREAM123.events"
//	"live:stream:*:events"         → "live.stream.*.events"
func channelToSubject(channel string) string {
	return strings.ReplaceAll(channel, ":", ".")
}

// NewNATSPubSub creates a new NATS-based PubSub instance.
func NewNATSPubSub(cfg NATSConfig) (*NATSPubSub, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
	}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return &NATSPubSub{
		conn:          conn,
		subscriptions: make(map[string]*nats.Subscription),
	}, nil
}

// Publish publishes an event to the specified channel.
func (n *NATSPubSub) Publish(ctx context.Context, channel string, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return n.conn.Publish(channelToSubject(channel), data)
}

// Subscribe subscribes to a specific channel.
func (n *NATSPubSub) Subscribe(ctx context.Context, channel string) (<-chan *Event, error) {
	return n.subscribe(ctx, channel)
}

// SubscribePattern subscribes to channels matching a pattern.
func (n *NATSPubSub) SubscribePattern(ctx context.Context, pattern string) (<-chan *Event, error) {
	return n.subscribe(ctx, pattern)
}

func (n *NATSPubSub) subscribe(ctx context.Context, channel string) (<-chan *Event, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	// Replace any existing subscription for this channel
	if existing, ok := n.subscriptions[channel]; ok {
		existing.Unsubscribe()
		delete(n.subscriptions, channel)
	}

	eventCh := make(chan *Event, 100)

	sub, err := n.conn.Subscribe(channelToSubject(channel), func(msg *nats.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return
		}

		select {
		case eventCh <- &event:
		default:
			// Channel full, skip message
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	n.subscriptions[channel] = sub

	// Tear the subscription down when the caller's context ends.
	go func() {
		<-ctx.Done()
		n.Unsubscribe(context.Background(), channel)
		close(eventCh)
	}()

	return eventCh, nil
}

// Unsubscribe unsubscribes from a channel.
func (n *NATSPubSub) Unsubscribe(ctx context.Context, channel string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if sub, ok := n.subscriptions[channel]; ok {
		if err := sub.Unsubscribe(); err != nil {
			return err
		}
		delete(n.subscriptions, channel)
	}

	return nil
}

// Close drains the connection and releases all subscriptions.
func (n *NATSPubSub) Close() error {
	n.mu.Lock()
	for channel, sub := range n.subscriptions {
		sub.Unsubscribe()
		delete(n.subscriptions, channel)
	}
	n.mu.Unlock()

	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}
