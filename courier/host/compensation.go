package host

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/krew-solutions/courier-go/courier/contracts"
)

// CompensateActivity undoes the durable effect recorded by a previously
// completed activity.
type CompensateActivity interface {
	Compensate(ctx context.Context, compensation *Compensation) CompensationResult
}

// CompensateActivityFactory creates a compensating activity per message.
type CompensateActivityFactory func() CompensateActivity

// Compensation wraps one inbound slip positioned at an undo step.
type Compensation struct {
	slip          contracts.RoutingSlip
	compensateLog contracts.CompensateLog
	activityLog   contracts.ActivityLog
	data          map[string]any
	timestamp     time.Time
	started       time.Time
	now           func() time.Time
}

func newCompensation(slip contracts.RoutingSlip, now func() time.Time) (*Compensation, error) {
	started := now()
	compensateLog := slip.CompensateLogs[len(slip.CompensateLogs)-1]

	var activityLog contracts.ActivityLog
	found := false
	for _, log := range slip.ActivityLogs {
		if log.ActivityTrackingNumber == compensateLog.ActivityTrackingNumber {
			activityLog = log
			found = true
			break
		}
	}
	if !found {
		return nil, &MissingActivityLogError{ActivityTrackingNumber: compensateLog.ActivityTrackingNumber}
	}

	return &Compensation{
		slip:          slip,
		compensateLog: compensateLog,
		activityLog:   activityLog,
		data:          contracts.MergeMaps(slip.Variables, compensateLog.Data),
		timestamp:     started.UTC(),
		started:       started,
		now:           now,
	}, nil
}

// TrackingNumber identifies the routing slip being unwound.
func (cp *Compensation) TrackingNumber() uuid.UUID {
	return cp.slip.TrackingNumber
}

// ActivityTrackingNumber identifies the original forward execution being
// undone.
func (cp *Compensation) ActivityTrackingNumber() uuid.UUID {
	return cp.compensateLog.ActivityTrackingNumber
}

// ActivityName returns the name recorded when the activity executed.
func (cp *Compensation) ActivityName() string {
	return cp.activityLog.Name
}

// Timestamp is when this compensation started.
func (cp *Compensation) Timestamp() time.Time {
	return cp.timestamp
}

// Elapsed returns the time spent in this compensation so far.
func (cp *Compensation) Elapsed() time.Duration {
	return cp.now().Sub(cp.started)
}

// Variables returns the slip's shared variables.
func (cp *Compensation) Variables() map[string]any {
	return cp.slip.Variables
}

// Data returns the compensate-log payload merged over the slip
// variables; log values take precedence over same-named variables.
func (cp *Compensation) Data() map[string]any {
	return cp.data
}

// DecodeData deserializes the merged compensation data into a typed
// struct.
func (cp *Compensation) DecodeData(dst any) error {
	return contracts.DecodeMap(cp.data, dst)
}

type compensationOutcome int

const (
	outcomeCompensated compensationOutcome = iota
	outcomeFailed
)

// CompensationResult is the value a compensating activity returns to the
// host.
type CompensationResult struct {
	outcome   compensationOutcome
	variables map[string]any
	err       error
}

// Compensated reports the undo succeeded; unwinding continues.
func (cp *Compensation) Compensated() CompensationResult {
	return CompensationResult{outcome: outcomeCompensated}
}

// CompensatedWithVariables reports success and merges variables into the
// slip using tombstone-or-overwrite semantics.
func (cp *Compensation) CompensatedWithVariables(variables map[string]any) CompensationResult {
	return CompensationResult{outcome: outcomeCompensated, variables: variables}
}

// Failed reports the undo itself failed. The saga is stuck: the host
// publishes the failure events and hands the message back to the
// transport.
func (cp *Compensation) Failed(err error) CompensationResult {
	return CompensationResult{outcome: outcomeFailed, err: err}
}
