// Package redis adapts the transport interface to Redis lists: each
// address is a queue, each event kind a broadcast list. It exists for
// multi-process deployments and as the reference out-of-process adapter.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	backend "github.com/redis/go-redis/v9"

	"github.com/krew-solutions/courier-go/courier/contracts"
	"github.com/krew-solutions/courier-go/courier/transport"
)

const defaultPrefix = "courier:"

// Handler processes one received envelope.
type Handler func(ctx context.Context, envelope transport.Envelope) error

// Bus is a Redis-backed transport.
type Bus struct {
	client *backend.Client
	prefix string
	poll   time.Duration
}

var _ transport.Transport = (*Bus)(nil)

// NewBus creates a bus on an existing client. An empty prefix defaults
// to "courier:".
func NewBus(client *backend.Client, prefix string) *Bus {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Bus{
		client: client,
		prefix: prefix,
		poll:   50 * time.Millisecond,
	}
}

func (b *Bus) queueKey(address string) string {
	return b.prefix + "queue:" + address
}

func (b *Bus) eventsKey(kind contracts.Events) string {
	return b.prefix + "events:" + kind.String()
}

// Endpoint resolves an address to its queue.
func (b *Bus) Endpoint(address string) (transport.Endpoint, error) {
	return &endpoint{bus: b, address: address}, nil
}

// Publish appends the event to the broadcast list of its kind.
func (b *Bus) Publish(ctx context.Context, kind contracts.Events, message any) error {
	envelope, err := transport.NewEnvelope("", kind.String(), nil, message)
	if err != nil {
		return errors.Wrap(err, "redis: encode event")
	}
	return b.push(ctx, b.eventsKey(kind), envelope)
}

// Receive pops the next envelope from an address queue, or returns nil
// when the queue is empty.
func (b *Bus) Receive(ctx context.Context, address string) (*transport.Envelope, error) {
	raw, err := b.client.LPop(ctx, b.queueKey(address)).Bytes()
	if err == backend.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis: pop message")
	}

	var envelope transport.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, errors.Wrap(err, "redis: decode envelope")
	}
	return &envelope, nil
}

// Consume polls an address queue and hands every envelope to the handler
// until the context is cancelled. A handler error stops the loop; the
// caller decides whether to resume.
func (b *Bus) Consume(ctx context.Context, address string, handler Handler) error {
	ticker := time.NewTicker(b.poll)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		envelope, err := b.Receive(ctx, address)
		if err != nil {
			return err
		}
		if envelope != nil {
			if err := handler(ctx, *envelope); err != nil {
				return err
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Events returns the broadcast list for an event kind, oldest first.
func (b *Bus) Events(ctx context.Context, kind contracts.Events) ([]transport.Envelope, error) {
	raws, err := b.client.LRange(ctx, b.eventsKey(kind), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redis: read events")
	}

	envelopes := make([]transport.Envelope, 0, len(raws))
	for _, raw := range raws {
		var envelope transport.Envelope
		if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
			return nil, errors.Wrap(err, "redis: decode envelope")
		}
		envelopes = append(envelopes, envelope)
	}
	return envelopes, nil
}

func (b *Bus) push(ctx context.Context, key string, envelope transport.Envelope) error {
	raw, err := json.Marshal(envelope)
	if err != nil {
		return errors.Wrap(err, "redis: encode envelope")
	}
	if err := b.client.RPush(ctx, key, raw).Err(); err != nil {
		return errors.Wrap(err, "redis: push")
	}
	return nil
}

type endpoint struct {
	bus     *Bus
	address string
}

func (e *endpoint) Send(ctx context.Context, message any) error {
	return e.send(ctx, nil, message)
}

func (e *endpoint) Forward(ctx context.Context, original transport.Headers, message any) error {
	return e.send(ctx, original.Clone(), message)
}

func (e *endpoint) send(ctx context.Context, headers transport.Headers, message any) error {
	envelope, err := transport.NewEnvelope(e.address, "", headers, message)
	if err != nil {
		return errors.Wrap(err, "redis: encode message")
	}
	return e.bus.push(ctx, e.bus.queueKey(e.address), envelope)
}
