package host

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/krew-solutions/courier-go/courier/builder"
	"github.com/krew-solutions/courier-go/courier/contracts"
)

// ExecuteActivity is the user-supplied implementation of one forward
// saga step. It must report its outcome through the execution handle;
// a panic is caught by the host and treated as a fault.
type ExecuteActivity interface {
	Execute(ctx context.Context, execution *Execution) ExecutionResult
}

// ExecuteActivityFactory creates an activity instance per message.
type ExecuteActivityFactory func() ExecuteActivity

// Execution wraps one inbound slip and the currently running activity.
// It is owned by the handling of a single message and discarded after
// producing a result.
type Execution struct {
	slip                   contracts.RoutingSlip
	activity               contracts.Activity
	arguments              map[string]any
	activityTrackingNumber uuid.UUID
	compensateAddress      string
	timestamp              time.Time
	started                time.Time
	now                    func() time.Time
}

func newExecution(slip contracts.RoutingSlip, compensateAddress string, now func() time.Time) *Execution {
	started := now()
	activity := slip.Itinerary[0]

	return &Execution{
		slip:                   slip,
		activity:               activity,
		arguments:              contracts.MergeMaps(slip.Variables, activity.Arguments),
		activityTrackingNumber: uuid.New(),
		compensateAddress:      compensateAddress,
		timestamp:              started.UTC(),
		started:                started,
		now:                    now,
	}
}

// TrackingNumber is the saga-wide correlation identifier.
func (ex *Execution) TrackingNumber() uuid.UUID {
	return ex.slip.TrackingNumber
}

// ActivityTrackingNumber identifies this single activity execution.
func (ex *Execution) ActivityTrackingNumber() uuid.UUID {
	return ex.activityTrackingNumber
}

// ActivityName returns the name of the activity being executed.
func (ex *Execution) ActivityName() string {
	return ex.activity.Name
}

// Timestamp is when this execution started.
func (ex *Execution) Timestamp() time.Time {
	return ex.timestamp
}

// Elapsed is the time spent in this execution so far.
func (ex *Execution) Elapsed() time.Duration {
	return ex.now().Sub(ex.started)
}

// Variables returns the slip's shared variables.
func (ex *Execution) Variables() map[string]any {
	return ex.slip.Variables
}

// Arguments returns the activity arguments merged over the slip
// variables; argument values take precedence over same-named variables.
func (ex *Execution) Arguments() map[string]any {
	return ex.arguments
}

// DecodeArguments deserializes the merged arguments into a typed struct.
func (ex *Execution) DecodeArguments(dst any) error {
	return contracts.DecodeMap(ex.arguments, dst)
}

type executionOutcome int

const (
	outcomeCompleted executionOutcome = iota
	outcomeFaulted
)

// ExecutionResult is the activity's verdict on one forward step. Values
// are produced only by the Execution handle and evaluated by the host.
type ExecutionResult struct {
	outcome   executionOutcome
	log       map[string]any
	hasLog    bool
	variables map[string]any
	revise    func(builder.Itinerary)
	err       error
}

// Completed reports success with nothing to compensate.
func (ex *Execution) Completed() ExecutionResult {
	return ExecutionResult{outcome: outcomeCompleted}
}

// CompletedWithLog reports success and registers a compensating action
// carrying the given log data. The host must have a compensate address
// configured.
func (ex *Execution) CompletedWithLog(log map[string]any) ExecutionResult {
	if ex.compensateAddress == "" {
		return ExecutionResult{outcome: outcomeFaulted, err: ErrNoCompensateAddress}
	}
	if log == nil {
		log = make(map[string]any)
	}
	return ExecutionResult{outcome: outcomeCompleted, log: log, hasLog: true}
}

// CompletedWithVariables reports success and merges variables into the
// slip using tombstone-or-overwrite semantics.
func (ex *Execution) CompletedWithVariables(variables map[string]any) ExecutionResult {
	return ExecutionResult{outcome: outcomeCompleted, variables: variables}
}

// CompletedWithLogAndVariables combines CompletedWithLog and
// CompletedWithVariables.
func (ex *Execution) CompletedWithLogAndVariables(log, variables map[string]any) ExecutionResult {
	result := ex.CompletedWithLog(log)
	if result.outcome == outcomeFaulted {
		return result
	}
	result.variables = variables
	return result
}

// ReviseItinerary reports success and replaces the remaining itinerary:
// the callback adds activities to an empty plan, with the previous
// remainder available as the source itinerary. Any source not consumed
// by the callback is appended afterwards.
func (ex *Execution) ReviseItinerary(build func(itinerary builder.Itinerary)) ExecutionResult {
	return ExecutionResult{outcome: outcomeCompleted, revise: build}
}

// ReviseItineraryWithLog is ReviseItinerary plus a compensating action.
func (ex *Execution) ReviseItineraryWithLog(log map[string]any, build func(itinerary builder.Itinerary)) ExecutionResult {
	result := ex.CompletedWithLog(log)
	if result.outcome == outcomeFaulted {
		return result
	}
	result.revise = build
	return result
}

// Faulted reports that the business operation failed; the saga routes
// into compensation. A nil error is replaced with a generic one.
func (ex *Execution) Faulted(err error) ExecutionResult {
	return ExecutionResult{outcome: outcomeFaulted, err: err}
}
