package host

import (
	"context"
	"time"

	"github.com/krew-solutions/courier-go/courier/contracts"
	"github.com/krew-solutions/courier-go/courier/publisher"
	"github.com/krew-solutions/courier-go/courier/transport"
)

// Execute kicks off a freshly built routing slip: the slip is sent to
// the first activity's execute address. A slip built with no activities
// completes immediately without touching the transport's queues.
func Execute(ctx context.Context, tp transport.Transport, pub *publisher.Publisher, slip contracts.RoutingSlip) error {
	if slip.RanToCompletion() {
		now := time.Now().UTC()
		return pub.Publish(ctx, slip, contracts.EventCompleted, contracts.RoutingSlipCompleted{
			TrackingNumber: slip.TrackingNumber,
			Timestamp:      now,
			Duration:       now.Sub(slip.CreateTimestamp),
			Variables:      slip.Variables,
		})
	}

	endpoint, err := tp.Endpoint(slip.NextExecuteAddress())
	if err != nil {
		return err
	}
	return endpoint.Send(ctx, slip)
}
