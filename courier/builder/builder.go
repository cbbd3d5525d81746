// Package builder produces new, validated routing-slip snapshots from an
// existing slip plus a delta. A builder never mutates the slip it was
// seeded from; Build is pure and can be called any number of times.
package builder

import (
	"time"

	"github.com/google/uuid"

	"github.com/krew-solutions/courier-go/courier/contracts"
)

// Itinerary is the narrow builder surface handed to activities revising
// the remaining plan mid-flight.
type Itinerary interface {
	// AddActivity appends a pending activity to the itinerary.
	AddActivity(name, address string, arguments map[string]any)

	// SetSourceItinerary replaces the stashed remainder of the previous
	// itinerary.
	SetSourceItinerary(activities []contracts.Activity)

	// AddSourceItinerary appends the stashed remainder to the itinerary
	// and clears the stash, returning the number of activities appended.
	AddSourceItinerary() int
}

// Builder accumulates deltas and produces a RoutingSlip snapshot.
type Builder struct {
	trackingNumber     uuid.UUID
	createTimestamp    time.Time
	itinerary          []contracts.Activity
	sourceItinerary    []contracts.Activity
	activityLogs       []contracts.ActivityLog
	compensateLogs     []contracts.CompensateLog
	activityExceptions []contracts.ActivityException
	variables          map[string]any
	subscriptions      []contracts.Subscription
}

var _ Itinerary = (*Builder)(nil)

// New creates a builder for a fresh saga, minting a tracking number and
// the creation timestamp.
func New() *Builder {
	return NewWithTrackingNumber(uuid.New())
}

// NewWithTrackingNumber creates a builder for a fresh saga with a
// caller-supplied tracking number.
func NewWithTrackingNumber(trackingNumber uuid.UUID) *Builder {
	return &Builder{
		trackingNumber:  trackingNumber,
		createTimestamp: time.Now().UTC(),
		variables:       make(map[string]any),
	}
}

// From seeds a builder with every field of an existing slip unchanged.
func From(slip contracts.RoutingSlip) *Builder {
	return seed(slip, slip.Itinerary, slip.CompensateLogs)
}

// Forward seeds a builder for the next forward hop: the head of the
// itinerary, consumed by the activity log the caller is about to append,
// is dropped. All other fields carry over unchanged.
func Forward(slip contracts.RoutingSlip) *Builder {
	itinerary := slip.Itinerary
	if len(itinerary) > 0 {
		itinerary = itinerary[1:]
	}
	return seed(slip, itinerary, slip.CompensateLogs)
}

// Backward seeds a builder for the next compensation hop: the tail
// compensate log, whose undo operation just ran, is dropped. All other
// fields carry over unchanged.
func Backward(slip contracts.RoutingSlip) *Builder {
	compensateLogs := slip.CompensateLogs
	if len(compensateLogs) > 0 {
		compensateLogs = compensateLogs[:len(compensateLogs)-1]
	}
	return seed(slip, slip.Itinerary, compensateLogs)
}

func seed(slip contracts.RoutingSlip, itinerary []contracts.Activity, compensateLogs []contracts.CompensateLog) *Builder {
	b := &Builder{
		trackingNumber:     slip.TrackingNumber,
		createTimestamp:    slip.CreateTimestamp,
		itinerary:          append([]contracts.Activity(nil), itinerary...),
		activityLogs:       append([]contracts.ActivityLog(nil), slip.ActivityLogs...),
		compensateLogs:     append([]contracts.CompensateLog(nil), compensateLogs...),
		activityExceptions: append([]contracts.ActivityException(nil), slip.ActivityExceptions...),
		variables:          make(map[string]any, len(slip.Variables)),
		subscriptions:      append([]contracts.Subscription(nil), slip.Subscriptions...),
	}
	for k, v := range slip.Variables {
		b.variables[k] = v
	}
	return b
}

// TrackingNumber returns the tracking number the built slip will carry.
func (b *Builder) TrackingNumber() uuid.UUID {
	return b.trackingNumber
}

// AddActivity appends a pending activity to the itinerary.
func (b *Builder) AddActivity(name, address string, arguments map[string]any) {
	if arguments == nil {
		arguments = make(map[string]any)
	}
	b.itinerary = append(b.itinerary, contracts.Activity{
		Name:      name,
		Address:   address,
		Arguments: arguments,
	})
}

// BeginItineraryRevision stashes the current itinerary as the source
// itinerary and starts over empty. Activities added afterwards run before
// whatever AddSourceItinerary restores.
func (b *Builder) BeginItineraryRevision() {
	b.sourceItinerary = b.itinerary
	b.itinerary = nil
}

// SetSourceItinerary replaces the stashed source itinerary.
func (b *Builder) SetSourceItinerary(activities []contracts.Activity) {
	b.sourceItinerary = append([]contracts.Activity(nil), activities...)
}

// AddSourceItinerary appends the stashed source itinerary and clears the
// stash. Calling it again is a no-op until a new source is set.
func (b *Builder) AddSourceItinerary() int {
	count := len(b.sourceItinerary)
	b.itinerary = append(b.itinerary, b.sourceItinerary...)
	b.sourceItinerary = nil
	return count
}

// AddActivityLog appends a forward-execution record.
func (b *Builder) AddActivityLog(host contracts.HostInfo, name string, activityTrackingNumber uuid.UUID, timestamp time.Time, duration time.Duration) {
	b.activityLogs = append(b.activityLogs, contracts.ActivityLog{
		Host:                   host,
		Name:                   name,
		ActivityTrackingNumber: activityTrackingNumber,
		Timestamp:              timestamp,
		Duration:               duration,
	})
}

// AddCompensateLog registers a compensating action for a completed step.
func (b *Builder) AddCompensateLog(activityTrackingNumber uuid.UUID, address string, data map[string]any) {
	if data == nil {
		data = make(map[string]any)
	}
	b.compensateLogs = append(b.compensateLogs, contracts.CompensateLog{
		ActivityTrackingNumber: activityTrackingNumber,
		Address:                address,
		Data:                   data,
	})
}

// AddActivityException appends a failure record for the final fault report.
func (b *Builder) AddActivityException(host contracts.HostInfo, name string, activityTrackingNumber uuid.UUID, timestamp time.Time, duration time.Duration, info contracts.ExceptionInfo) {
	b.activityExceptions = append(b.activityExceptions, contracts.ActivityException{
		Name:                   name,
		Host:                   host,
		ActivityTrackingNumber: activityTrackingNumber,
		Timestamp:              timestamp,
		Duration:               duration,
		ExceptionInfo:          info,
	})
}

// AddVariable sets a single variable, following the same tombstone rule
// as SetVariables.
func (b *Builder) AddVariable(key string, value any) {
	b.applyVariable(key, value)
}

// SetVariables applies tombstone-or-overwrite semantics key by key:
// a nil or empty-string value deletes the key, anything else overwrites
// or inserts it.
func (b *Builder) SetVariables(values map[string]any) {
	for k, v := range values {
		b.applyVariable(k, v)
	}
}

func (b *Builder) applyVariable(key string, value any) {
	if value == nil {
		delete(b.variables, key)
		return
	}
	if s, ok := value.(string); ok && s == "" {
		delete(b.variables, key)
		return
	}
	b.variables[key] = value
}

// AddSubscription adds an explicit subscription for lifecycle events.
func (b *Builder) AddSubscription(address string, events contracts.Events) {
	b.subscriptions = append(b.subscriptions, contracts.Subscription{
		Address: address,
		Events:  events,
	})
}

// Build produces a RoutingSlip snapshot of the current builder state.
// The snapshot shares no mutable state with the builder, so building
// twice yields two equal, independent slips.
func (b *Builder) Build() contracts.RoutingSlip {
	variables := make(map[string]any, len(b.variables))
	for k, v := range b.variables {
		variables[k] = v
	}
	return contracts.RoutingSlip{
		TrackingNumber:     b.trackingNumber,
		CreateTimestamp:    b.createTimestamp,
		Itinerary:          copyActivities(b.itinerary),
		ActivityLogs:       append([]contracts.ActivityLog{}, b.activityLogs...),
		CompensateLogs:     copyCompensateLogs(b.compensateLogs),
		ActivityExceptions: append([]contracts.ActivityException{}, b.activityExceptions...),
		Variables:          variables,
		Subscriptions:      append([]contracts.Subscription{}, b.subscriptions...),
	}
}

func copyActivities(activities []contracts.Activity) []contracts.Activity {
	out := make([]contracts.Activity, len(activities))
	for i, a := range activities {
		arguments := make(map[string]any, len(a.Arguments))
		for k, v := range a.Arguments {
			arguments[k] = v
		}
		out[i] = contracts.Activity{Name: a.Name, Address: a.Address, Arguments: arguments}
	}
	return out
}

func copyCompensateLogs(logs []contracts.CompensateLog) []contracts.CompensateLog {
	out := make([]contracts.CompensateLog, len(logs))
	for i, l := range logs {
		data := make(map[string]any, len(l.Data))
		for k, v := range l.Data {
			data[k] = v
		}
		out[i] = contracts.CompensateLog{
			ActivityTrackingNumber: l.ActivityTrackingNumber,
			Address:                l.Address,
			Data:                   data,
		}
	}
	return out
}
