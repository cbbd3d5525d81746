package host

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/krew-solutions/courier-go/courier/builder"
	"github.com/krew-solutions/courier-go/courier/contracts"
	"github.com/krew-solutions/courier-go/courier/publisher"
	"github.com/krew-solutions/courier-go/courier/sanitizer"
	"github.com/krew-solutions/courier-go/courier/transport"
)

// CompensateHost runs one activity type's undo steps.
type CompensateHost struct {
	factory   CompensateActivityFactory
	transport transport.Transport
	publisher *publisher.Publisher
	hostInfo  contracts.HostInfo
	logger    *slog.Logger
	now       func() time.Time
}

// NewCompensateHost creates a compensation host serving the given
// address. logger nil defaults to slog.Default().
func NewCompensateHost(address string, factory CompensateActivityFactory, tp transport.Transport, pub *publisher.Publisher, logger *slog.Logger) *CompensateHost {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompensateHost{
		factory:   factory,
		transport: tp,
		publisher: pub,
		hostInfo:  LocalHostInfo(address),
		logger:    logger,
		now:       time.Now,
	}
}

// Handle processes one inbound routing slip positioned for compensation:
// undo the most recent compensate log, then continue unwinding or
// publish the terminal fault.
func (h *CompensateHost) Handle(ctx context.Context, headers transport.Headers, slip contracts.RoutingSlip) error {
	clean, err := sanitizer.Sanitize(slip)
	if err != nil {
		return err
	}
	if len(clean.CompensateLogs) == 0 {
		return ErrNothingToCompensate
	}

	compensation, err := newCompensation(clean, h.now)
	if err != nil {
		return err
	}

	h.logger.Debug("compensating activity",
		"activity", compensation.ActivityName(),
		"trackingNumber", compensation.TrackingNumber(),
		"activityTrackingNumber", compensation.ActivityTrackingNumber())

	result := h.compensate(ctx, compensation)
	if result.outcome == outcomeFailed {
		return h.failed(ctx, compensation, result)
	}
	return h.compensated(ctx, headers, compensation, result)
}

// compensate invokes the user activity, normalizing panics into
// failures so the transport's poison handling can take over.
func (h *CompensateHost) compensate(ctx context.Context, compensation *Compensation) (result CompensationResult) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("compensation panicked",
				"activity", compensation.ActivityName(),
				"trackingNumber", compensation.TrackingNumber(),
				"panic", r)
			result = compensation.Failed(fmt.Errorf("compensation panicked: %v", r))
		}
	}()
	return h.factory().Compensate(ctx, compensation)
}

func (h *CompensateHost) compensated(ctx context.Context, headers transport.Headers, compensation *Compensation, result CompensationResult) error {
	duration := compensation.Elapsed()

	b := builder.Backward(compensation.slip)
	if result.variables != nil {
		b.SetVariables(result.variables)
	}
	next := b.Build()

	h.publishEvent(ctx, next, contracts.EventActivityCompensated, contracts.RoutingSlipActivityCompensated{
		Host:                   h.hostInfo,
		TrackingNumber:         next.TrackingNumber,
		ActivityName:           compensation.ActivityName(),
		ActivityTrackingNumber: compensation.ActivityTrackingNumber(),
		Timestamp:              compensation.timestamp,
		Duration:               duration,
		Data:                   compensation.compensateLog.Data,
		Variables:              next.Variables,
	})

	if address := next.LastCompensateAddress(); address != "" {
		endpoint, err := h.transport.Endpoint(address)
		if err != nil {
			return err
		}
		return endpoint.Forward(ctx, headers, next)
	}

	// fully unwound: the original fault becomes terminal
	completedAt := compensation.timestamp.Add(duration)
	return h.publisher.Publish(ctx, next, contracts.EventFaulted, contracts.RoutingSlipFaulted{
		TrackingNumber:     next.TrackingNumber,
		Timestamp:          completedAt,
		Duration:           completedAt.Sub(next.CreateTimestamp),
		ActivityExceptions: next.ActivityExceptions,
		Variables:          next.Variables,
	})
}

// failed publishes both failure events and then returns the error so the
// transport retries or dead-letters the message. The slip is not
// modified; a redelivery sees the same compensate log.
func (h *CompensateHost) failed(ctx context.Context, compensation *Compensation, result CompensationResult) error {
	duration := compensation.Elapsed()
	info := exceptionInfo(result.err)
	slip := compensation.slip

	h.publishEvent(ctx, slip, contracts.EventActivityCompensationFailed, contracts.RoutingSlipActivityCompensationFailed{
		Host:                   h.hostInfo,
		TrackingNumber:         slip.TrackingNumber,
		ActivityName:           compensation.ActivityName(),
		ActivityTrackingNumber: compensation.ActivityTrackingNumber(),
		Timestamp:              compensation.timestamp,
		Duration:               duration,
		Data:                   compensation.compensateLog.Data,
		Variables:              slip.Variables,
		ExceptionInfo:          info,
	})

	failedAt := compensation.timestamp.Add(duration)
	h.publishEvent(ctx, slip, contracts.EventCompensationFailed, contracts.RoutingSlipCompensationFailed{
		TrackingNumber: slip.TrackingNumber,
		Timestamp:      failedAt,
		Duration:       failedAt.Sub(slip.CreateTimestamp),
		ExceptionInfo:  info,
		Variables:      slip.Variables,
	})

	if result.err != nil {
		return result.err
	}
	return fmt.Errorf("compensation of %s failed", compensation.ActivityName())
}

func (h *CompensateHost) publishEvent(ctx context.Context, slip contracts.RoutingSlip, kind contracts.Events, payload any) {
	if err := h.publisher.Publish(ctx, slip, kind, payload); err != nil {
		h.logger.Warn("event delivery failed",
			"kind", kind.String(),
			"trackingNumber", slip.TrackingNumber,
			"error", err)
	}
}
