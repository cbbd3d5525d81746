// Package host contains the forward-execution and backward-compensation
// engines. A host consumes one inbound slip, runs the user activity, and
// produces exactly one outbound action: forward the next snapshot, route
// into compensation, or publish a terminal event.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/krew-solutions/courier-go/courier/builder"
	"github.com/krew-solutions/courier-go/courier/contracts"
	"github.com/krew-solutions/courier-go/courier/publisher"
	"github.com/krew-solutions/courier-go/courier/sanitizer"
	"github.com/krew-solutions/courier-go/courier/transport"
)

// ExecuteHost runs one activity type's forward steps.
type ExecuteHost struct {
	factory           ExecuteActivityFactory
	compensateAddress string
	transport         transport.Transport
	publisher         *publisher.Publisher
	hostInfo          contracts.HostInfo
	logger            *slog.Logger
	now               func() time.Time
}

// NewExecuteHost creates a forward host serving the given address.
// compensateAddress may be empty if the activity never registers a
// compensating action; logger nil defaults to slog.Default().
func NewExecuteHost(address, compensateAddress string, factory ExecuteActivityFactory, tp transport.Transport, pub *publisher.Publisher, logger *slog.Logger) *ExecuteHost {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecuteHost{
		factory:           factory,
		compensateAddress: compensateAddress,
		transport:         tp,
		publisher:         pub,
		hostInfo:          LocalHostInfo(address),
		logger:            logger,
		now:               time.Now,
	}
}

// Handle processes one inbound routing slip: sanitize, execute the head
// activity, and advance, branch, or escalate. Structural errors are
// returned to the transport; activity failures are not.
func (h *ExecuteHost) Handle(ctx context.Context, headers transport.Headers, slip contracts.RoutingSlip) error {
	clean, err := sanitizer.Sanitize(slip)
	if err != nil {
		return err
	}
	if clean.RanToCompletion() {
		return ErrEmptyItinerary
	}

	execution := newExecution(clean, h.compensateAddress, h.now)

	h.logger.Debug("executing activity",
		"activity", execution.ActivityName(),
		"trackingNumber", execution.TrackingNumber(),
		"activityTrackingNumber", execution.ActivityTrackingNumber())

	result := h.execute(ctx, execution)
	if result.outcome == outcomeFaulted {
		return h.faulted(ctx, headers, execution, result)
	}
	return h.completed(ctx, headers, execution, result)
}

// execute invokes the user activity, normalizing panics into faults so
// one misbehaving activity cannot crash the host.
func (h *ExecuteHost) execute(ctx context.Context, execution *Execution) (result ExecutionResult) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("activity panicked",
				"activity", execution.ActivityName(),
				"trackingNumber", execution.TrackingNumber(),
				"panic", r)
			result = execution.Faulted(fmt.Errorf("activity panicked: %v", r))
		}
	}()
	return h.factory().Execute(ctx, execution)
}

func (h *ExecuteHost) completed(ctx context.Context, headers transport.Headers, execution *Execution, result ExecutionResult) error {
	duration := execution.Elapsed()

	b := builder.Forward(execution.slip)
	if result.revise != nil {
		b.BeginItineraryRevision()
		result.revise(b)
		b.AddSourceItinerary()
	}
	b.AddActivityLog(h.hostInfo, execution.activity.Name, execution.activityTrackingNumber, execution.timestamp, duration)
	if result.hasLog {
		b.AddCompensateLog(execution.activityTrackingNumber, h.compensateAddress, result.log)
	}
	if result.variables != nil {
		b.SetVariables(result.variables)
	}
	next := b.Build()

	data := result.log
	if data == nil {
		data = make(map[string]any)
	}
	h.publishActivityEvent(ctx, next, contracts.EventActivityCompleted, contracts.RoutingSlipActivityCompleted{
		Host:                   h.hostInfo,
		TrackingNumber:         next.TrackingNumber,
		ActivityName:           execution.activity.Name,
		ActivityTrackingNumber: execution.activityTrackingNumber,
		Timestamp:              execution.timestamp,
		Duration:               duration,
		Data:                   data,
		Variables:              next.Variables,
		Arguments:              execution.activity.Arguments,
	})

	if !next.RanToCompletion() {
		endpoint, err := h.transport.Endpoint(next.NextExecuteAddress())
		if err != nil {
			return err
		}
		return endpoint.Forward(ctx, headers, next)
	}

	completedAt := execution.timestamp.Add(duration)
	return h.publisher.Publish(ctx, next, contracts.EventCompleted, contracts.RoutingSlipCompleted{
		TrackingNumber: next.TrackingNumber,
		Timestamp:      completedAt,
		Duration:       completedAt.Sub(next.CreateTimestamp),
		Variables:      next.Variables,
	})
}

func (h *ExecuteHost) faulted(ctx context.Context, headers transport.Headers, execution *Execution, result ExecutionResult) error {
	duration := execution.Elapsed()
	info := exceptionInfo(result.err)

	b := builder.From(execution.slip)
	b.AddActivityException(h.hostInfo, execution.activity.Name, execution.activityTrackingNumber, execution.timestamp, duration, info)
	next := b.Build()

	h.publishActivityEvent(ctx, next, contracts.EventActivityFaulted, contracts.RoutingSlipActivityFaulted{
		Host:                   h.hostInfo,
		TrackingNumber:         next.TrackingNumber,
		ActivityName:           execution.activity.Name,
		ActivityTrackingNumber: execution.activityTrackingNumber,
		Timestamp:              execution.timestamp,
		Duration:               duration,
		ExceptionInfo:          info,
		Variables:              next.Variables,
		Arguments:              execution.activity.Arguments,
	})

	if address := next.LastCompensateAddress(); address != "" {
		endpoint, err := h.transport.Endpoint(address)
		if err != nil {
			return err
		}
		return endpoint.Forward(ctx, headers, next)
	}

	// nothing was ever compensable: the fault is terminal right here
	now := h.now().UTC()
	return h.publisher.Publish(ctx, next, contracts.EventFaulted, contracts.RoutingSlipFaulted{
		TrackingNumber:     next.TrackingNumber,
		Timestamp:          now,
		Duration:           now.Sub(next.CreateTimestamp),
		ActivityExceptions: next.ActivityExceptions,
		Variables:          next.Variables,
	})
}

// publishActivityEvent delivers a best-effort activity-level event;
// failures are logged, never escalated.
func (h *ExecuteHost) publishActivityEvent(ctx context.Context, slip contracts.RoutingSlip, kind contracts.Events, payload any) {
	if err := h.publisher.Publish(ctx, slip, kind, payload); err != nil {
		h.logger.Warn("activity event delivery failed",
			"kind", kind.String(),
			"trackingNumber", slip.TrackingNumber,
			"error", err)
	}
}

func exceptionInfo(err error) contracts.ExceptionInfo {
	if err == nil {
		err = errors.New("the activity faulted")
	}
	return contracts.ExceptionInfo{
		Kind:    fmt.Sprintf("%T", err),
		Message: err.Error(),
	}
}
