// Package inmemory provides an in-process transport used by tests,
// examples and single-process deployments. Delivery is synchronous in the
// caller's goroutine, which trivially satisfies the one-hop-in-flight
// ordering the engine expects.
package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/krew-solutions/courier-go/courier/contracts"
	"github.com/krew-solutions/courier-go/courier/disposable"
	"github.com/krew-solutions/courier-go/courier/signals"
	"github.com/krew-solutions/courier-go/courier/transport"
)

// Consumer handles a message delivered to a registered address.
type Consumer func(ctx context.Context, headers transport.Headers, message any) error

// PublishedEvent is what broadcast observers receive.
type PublishedEvent struct {
	Kind    contracts.Events
	Message any
}

// Bus is an in-memory transport: a consumer registry keyed by address
// plus a broadcast signal for lifecycle events.
type Bus struct {
	mu        sync.RWMutex
	consumers map[string]Consumer
	events    *signals.SignalImp[PublishedEvent]
}

var _ transport.Transport = (*Bus)(nil)

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		consumers: make(map[string]Consumer),
		events:    signals.NewSignal[PublishedEvent](),
	}
}

// Register attaches a consumer to an address, replacing any previous one.
// The returned Disposable unregisters it.
func (b *Bus) Register(address string, consumer Consumer) disposable.Disposable {
	b.mu.Lock()
	b.consumers[address] = consumer
	b.mu.Unlock()

	return disposable.NewDisposable(func() {
		b.mu.Lock()
		delete(b.consumers, address)
		b.mu.Unlock()
	})
}

// SubscribeEvents attaches an observer to every broadcast event.
func (b *Bus) SubscribeEvents(observer func(PublishedEvent), observerID ...any) disposable.Disposable {
	return b.events.Attach(observer, observerID...)
}

// Endpoint resolves an address. Resolution is lazy: the consumer is
// looked up at send time, so endpoints may be resolved before their
// consumers register.
func (b *Bus) Endpoint(address string) (transport.Endpoint, error) {
	return &endpoint{bus: b, address: address}, nil
}

// Publish broadcasts an event to all subscribed observers.
func (b *Bus) Publish(ctx context.Context, kind contracts.Events, message any) error {
	b.events.Notify(PublishedEvent{Kind: kind, Message: message})
	return nil
}

func (b *Bus) dispatch(ctx context.Context, address string, headers transport.Headers, message any) error {
	b.mu.RLock()
	consumer, ok := b.consumers[address]
	b.mu.RUnlock()

	if !ok {
		return fmt.Errorf("inmemory: no consumer registered at %q", address)
	}
	return consumer(ctx, headers, message)
}

type endpoint struct {
	bus     *Bus
	address string
}

func (e *endpoint) Send(ctx context.Context, message any) error {
	return e.bus.dispatch(ctx, e.address, transport.Headers{}, message)
}

func (e *endpoint) Forward(ctx context.Context, original transport.Headers, message any) error {
	return e.bus.dispatch(ctx, e.address, original.Clone(), message)
}
