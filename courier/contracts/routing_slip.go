package contracts

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RoutingSlip is the self-describing document that flows through a saga.
// It carries both the remaining plan (itinerary) and the accumulated
// execution history needed to undo it (activity and compensate logs).
// Every hop across the network produces a new snapshot; a slip is never
// mutated in place.
type RoutingSlip struct {
	TrackingNumber     uuid.UUID           `json:"trackingNumber"`
	CreateTimestamp    time.Time           `json:"createTimestamp"`
	Itinerary          []Activity          `json:"itinerary"`
	ActivityLogs       []ActivityLog       `json:"activityLogs"`
	CompensateLogs     []CompensateLog     `json:"compensateLogs"`
	ActivityExceptions []ActivityException `json:"activityExceptions"`
	Variables          map[string]any      `json:"variables"`
	Subscriptions      []Subscription      `json:"subscriptions"`
}

// Activity is one pending step of the saga: a name, the address of the
// endpoint that executes it, and the activity-specific arguments.
type Activity struct {
	Name      string         `json:"name"`
	Address   string         `json:"address"`
	Arguments map[string]any `json:"arguments"`
}

// ActivityLog records one forward step that already executed.
type ActivityLog struct {
	Host                   HostInfo      `json:"host"`
	Name                   string        `json:"name"`
	ActivityTrackingNumber uuid.UUID     `json:"activityTrackingNumber"`
	Timestamp              time.Time     `json:"timestamp"`
	Duration               time.Duration `json:"duration"`
}

// CompensateLog is appended when a forward step registers a compensating
// action. The tail entry is always the next one to compensate.
type CompensateLog struct {
	ActivityTrackingNumber uuid.UUID      `json:"activityTrackingNumber"`
	Address                string         `json:"address"`
	Data                   map[string]any `json:"data"`
}

// ActivityException records a forward-step failure, accumulated for the
// final fault report.
type ActivityException struct {
	Name                   string        `json:"name"`
	Host                   HostInfo      `json:"host"`
	ActivityTrackingNumber uuid.UUID     `json:"activityTrackingNumber"`
	Timestamp              time.Time     `json:"timestamp"`
	Duration               time.Duration `json:"duration"`
	ExceptionInfo          ExceptionInfo `json:"exceptionInfo"`
}

// ExceptionInfo is the transportable form of an activity failure.
type ExceptionInfo struct {
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	StackTrace string `json:"stackTrace,omitempty"`
}

// Subscription is an explicit, filtered destination for lifecycle events.
// If a slip carries any subscriptions, events are sent only to matching
// subscribers and never broadcast.
type Subscription struct {
	Address string `json:"address"`
	Events  Events `json:"events"`
}

// RanToCompletion returns true if there are no remaining activities to
// be executed.
func (rs RoutingSlip) RanToCompletion() bool {
	return len(rs.Itinerary) == 0
}

// IsRunning returns true if at least one forward step has executed.
func (rs RoutingSlip) IsRunning() bool {
	return len(rs.ActivityLogs) > 0
}

// NextExecuteAddress returns the address of the next activity to execute,
// or an empty string if the itinerary is exhausted.
func (rs RoutingSlip) NextExecuteAddress() string {
	if len(rs.Itinerary) == 0 {
		return ""
	}
	return rs.Itinerary[0].Address
}

// LastCompensateAddress returns the address of the most recently registered
// compensating action, or an empty string if there is nothing to undo.
func (rs RoutingSlip) LastCompensateAddress() string {
	if len(rs.CompensateLogs) == 0 {
		return ""
	}
	return rs.CompensateLogs[len(rs.CompensateLogs)-1].Address
}

// ToJSON serializes the slip for transmission over a message bus.
func (rs RoutingSlip) ToJSON() ([]byte, error) {
	return json.Marshal(rs)
}

// FromJSON restores a slip from its wire form. The result is untrusted
// until it has passed through the sanitizer.
func FromJSON(data []byte) (RoutingSlip, error) {
	var rs RoutingSlip
	if err := json.Unmarshal(data, &rs); err != nil {
		return RoutingSlip{}, err
	}
	return rs, nil
}
