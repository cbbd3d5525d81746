// Package publisher decides, per lifecycle event, whether to broadcast
// or to route directly to the slip's explicit subscribers.
package publisher

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/krew-solutions/courier-go/courier/contracts"
	"github.com/krew-solutions/courier-go/courier/transport"
)

// Recorder is an optional durable sink for published events, independent
// of delivery. Recording failures never block delivery.
type Recorder interface {
	Record(ctx context.Context, kind contracts.Events, trackingNumber uuid.UUID, payload any) error
}

// Publisher delivers lifecycle events for a routing slip.
type Publisher struct {
	transport transport.Transport
	recorder  Recorder
	logger    *slog.Logger
}

// New creates a publisher on the given transport. recorder may be nil;
// logger nil defaults to slog.Default().
func New(tp transport.Transport, recorder Recorder, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		transport: tp,
		recorder:  recorder,
		logger:    logger,
	}
}

// Publish delivers one event of the given kind on behalf of the slip.
// A slip without subscriptions broadcasts; a slip with subscriptions
// sends only to subscribers whose mask matches the kind, and never
// broadcasts. Per-subscriber failures are accumulated, not short-circuited.
func (p *Publisher) Publish(ctx context.Context, slip contracts.RoutingSlip, kind contracts.Events, payload any) error {
	if p.recorder != nil {
		if err := p.recorder.Record(ctx, kind, slip.TrackingNumber, payload); err != nil {
			p.logger.Warn("event recording failed",
				"kind", kind.String(),
				"trackingNumber", slip.TrackingNumber,
				"error", err)
		}
	}

	if len(slip.Subscriptions) == 0 {
		return p.transport.Publish(ctx, kind, payload)
	}

	var result *multierror.Error
	for _, subscription := range slip.Subscriptions {
		if !subscription.Events.Matches(kind) {
			continue
		}

		endpoint, err := p.transport.Endpoint(subscription.Address)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if err := endpoint.Send(ctx, payload); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
