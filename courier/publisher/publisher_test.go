package publisher

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/courier-go/courier/contracts"
	"github.com/krew-solutions/courier-go/courier/logging"
	"github.com/krew-solutions/courier-go/courier/transport"
	"github.com/krew-solutions/courier-go/courier/transport/inmemory"
)

func TestPublish_NoSubscriptionsBroadcasts(t *testing.T) {
	bus := inmemory.NewBus()

	var broadcast []contracts.Events
	bus.SubscribeEvents(func(e inmemory.PublishedEvent) {
		broadcast = append(broadcast, e.Kind)
	}, "observer")

	p := New(bus, nil, logging.NewNop())
	slip := contracts.RoutingSlip{TrackingNumber: uuid.New()}

	require.NoError(t, p.Publish(context.Background(), slip, contracts.EventCompleted, "done"))
	require.NoError(t, p.Publish(context.Background(), slip, contracts.EventActivityCompleted, "step"))

	assert.Equal(t, []contracts.Events{contracts.EventCompleted, contracts.EventActivityCompleted}, broadcast)
}

func TestPublish_SubscriptionsSuppressBroadcast(t *testing.T) {
	bus := inmemory.NewBus()

	broadcasts := 0
	bus.SubscribeEvents(func(inmemory.PublishedEvent) { broadcasts++ }, "observer")

	var directed []any
	bus.Register("queue:status", func(ctx context.Context, headers transport.Headers, message any) error {
		directed = append(directed, message)
		return nil
	})

	p := New(bus, nil, logging.NewNop())
	slip := contracts.RoutingSlip{
		TrackingNumber: uuid.New(),
		Subscriptions: []contracts.Subscription{
			{Address: "queue:status", Events: contracts.EventActivityFaulted},
		},
	}

	// matching kind: directed, not broadcast
	require.NoError(t, p.Publish(context.Background(), slip, contracts.EventActivityFaulted, "boom"))
	// non-matching kind: dropped entirely, still never broadcast
	require.NoError(t, p.Publish(context.Background(), slip, contracts.EventCompleted, "done"))

	assert.Equal(t, []any{"boom"}, directed)
	assert.Zero(t, broadcasts)
}

func TestPublish_AllMaskReceivesEverything(t *testing.T) {
	bus := inmemory.NewBus()

	var directed []any
	bus.Register("queue:status", func(ctx context.Context, headers transport.Headers, message any) error {
		directed = append(directed, message)
		return nil
	})

	p := New(bus, nil, logging.NewNop())
	slip := contracts.RoutingSlip{
		TrackingNumber: uuid.New(),
		Subscriptions: []contracts.Subscription{
			{Address: "queue:status", Events: contracts.EventsAll},
		},
	}

	require.NoError(t, p.Publish(context.Background(), slip, contracts.EventCompleted, "done"))
	require.NoError(t, p.Publish(context.Background(), slip, contracts.EventActivityCompensated, "undone"))

	assert.Len(t, directed, 2)
}

func TestPublish_AccumulatesSubscriberFailures(t *testing.T) {
	bus := inmemory.NewBus()

	delivered := 0
	bus.Register("queue:good", func(ctx context.Context, headers transport.Headers, message any) error {
		delivered++
		return nil
	})
	bus.Register("queue:bad", func(ctx context.Context, headers transport.Headers, message any) error {
		return errors.New("subscriber down")
	})

	p := New(bus, nil, logging.NewNop())
	slip := contracts.RoutingSlip{
		TrackingNumber: uuid.New(),
		Subscriptions: []contracts.Subscription{
			{Address: "queue:bad", Events: contracts.EventsAll},
			{Address: "queue:good", Events: contracts.EventsAll},
		},
	}

	err := p.Publish(context.Background(), slip, contracts.EventCompleted, "done")
	assert.Error(t, err)
	assert.Equal(t, 1, delivered, "failure of one subscriber must not skip the rest")
}

type recordingSink struct {
	kinds []contracts.Events
	fail  bool
}

func (r *recordingSink) Record(ctx context.Context, kind contracts.Events, trackingNumber uuid.UUID, payload any) error {
	if r.fail {
		return errors.New("sink unavailable")
	}
	r.kinds = append(r.kinds, kind)
	return nil
}

func TestPublish_RecordsBeforeDelivery(t *testing.T) {
	bus := inmemory.NewBus()
	sink := &recordingSink{}

	p := New(bus, sink, logging.NewNop())
	slip := contracts.RoutingSlip{TrackingNumber: uuid.New()}

	require.NoError(t, p.Publish(context.Background(), slip, contracts.EventFaulted, "failed"))
	assert.Equal(t, []contracts.Events{contracts.EventFaulted}, sink.kinds)
}

func TestPublish_RecorderFailureDoesNotBlockDelivery(t *testing.T) {
	bus := inmemory.NewBus()

	broadcasts := 0
	bus.SubscribeEvents(func(inmemory.PublishedEvent) { broadcasts++ }, "observer")

	p := New(bus, &recordingSink{fail: true}, logging.NewNop())
	slip := contracts.RoutingSlip{TrackingNumber: uuid.New()}

	require.NoError(t, p.Publish(context.Background(), slip, contracts.EventCompleted, "done"))
	assert.Equal(t, 1, broadcasts)
}
