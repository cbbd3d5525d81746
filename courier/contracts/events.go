package contracts

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Events is a bitmask selecting which lifecycle events a subscription
// receives. The zero value subscribes to everything.
type Events int

const (
	EventsAll Events = 0

	EventCompleted          Events = 0x0001
	EventFaulted            Events = 0x0002
	EventCompensationFailed Events = 0x0004

	EventActivityCompleted          Events = 0x0010
	EventActivityFaulted            Events = 0x0020
	EventActivityCompensated        Events = 0x0040
	EventActivityCompensationFailed Events = 0x0080
)

// Matches returns true if the mask includes the given event kind.
// EventsAll matches every kind.
func (e Events) Matches(kind Events) bool {
	return e == EventsAll || e&kind != 0
}

// String returns the event name for a single kind, used as the broadcast
// topic name by transports.
func (e Events) String() string {
	switch e {
	case EventsAll:
		return "All"
	case EventCompleted:
		return "RoutingSlipCompleted"
	case EventFaulted:
		return "RoutingSlipFaulted"
	case EventCompensationFailed:
		return "RoutingSlipCompensationFailed"
	case EventActivityCompleted:
		return "RoutingSlipActivityCompleted"
	case EventActivityFaulted:
		return "RoutingSlipActivityFaulted"
	case EventActivityCompensated:
		return "RoutingSlipActivityCompensated"
	case EventActivityCompensationFailed:
		return "RoutingSlipActivityCompensationFailed"
	}
	return fmt.Sprintf("Events(%#x)", int(e))
}

// RoutingSlipCompleted is the terminal success event, published exactly
// once when the itinerary has been fully executed.
type RoutingSlipCompleted struct {
	TrackingNumber uuid.UUID      `json:"trackingNumber"`
	Timestamp      time.Time      `json:"timestamp"`
	Duration       time.Duration  `json:"duration"`
	Variables      map[string]any `json:"variables"`
}

// RoutingSlipFaulted is the terminal failure event, published once the
// saga has been fully unwound (or there was nothing to unwind).
type RoutingSlipFaulted struct {
	TrackingNumber     uuid.UUID           `json:"trackingNumber"`
	Timestamp          time.Time           `json:"timestamp"`
	Duration           time.Duration       `json:"duration"`
	ActivityExceptions []ActivityException `json:"activityExceptions"`
	Variables          map[string]any      `json:"variables"`
}

// RoutingSlipCompensationFailed reports that an undo operation itself
// failed; the saga is stuck and the transport's failure handling takes
// over.
type RoutingSlipCompensationFailed struct {
	TrackingNumber uuid.UUID      `json:"trackingNumber"`
	Timestamp      time.Time      `json:"timestamp"`
	Duration       time.Duration  `json:"duration"`
	ExceptionInfo  ExceptionInfo  `json:"exceptionInfo"`
	Variables      map[string]any `json:"variables"`
}

// RoutingSlipActivityCompleted reports one forward step finishing.
type RoutingSlipActivityCompleted struct {
	Host                   HostInfo       `json:"host"`
	TrackingNumber         uuid.UUID      `json:"trackingNumber"`
	ActivityName           string         `json:"activityName"`
	ActivityTrackingNumber uuid.UUID      `json:"activityTrackingNumber"`
	Timestamp              time.Time      `json:"timestamp"`
	Duration               time.Duration  `json:"duration"`
	Data                   map[string]any `json:"data"`
	Variables              map[string]any `json:"variables"`
	Arguments              map[string]any `json:"arguments"`
}

// RoutingSlipActivityFaulted reports one forward step failing.
type RoutingSlipActivityFaulted struct {
	Host                   HostInfo       `json:"host"`
	TrackingNumber         uuid.UUID      `json:"trackingNumber"`
	ActivityName           string         `json:"activityName"`
	ActivityTrackingNumber uuid.UUID      `json:"activityTrackingNumber"`
	Timestamp              time.Time      `json:"timestamp"`
	Duration               time.Duration  `json:"duration"`
	ExceptionInfo          ExceptionInfo  `json:"exceptionInfo"`
	Variables              map[string]any `json:"variables"`
	Arguments              map[string]any `json:"arguments"`
}

// RoutingSlipActivityCompensated reports one undo step finishing.
type RoutingSlipActivityCompensated struct {
	Host                   HostInfo       `json:"host"`
	TrackingNumber         uuid.UUID      `json:"trackingNumber"`
	ActivityName           string         `json:"activityName"`
	ActivityTrackingNumber uuid.UUID      `json:"activityTrackingNumber"`
	Timestamp              time.Time      `json:"timestamp"`
	Duration               time.Duration  `json:"duration"`
	Data                   map[string]any `json:"data"`
	Variables              map[string]any `json:"variables"`
}

// RoutingSlipActivityCompensationFailed reports one undo step failing.
type RoutingSlipActivityCompensationFailed struct {
	Host                   HostInfo       `json:"host"`
	TrackingNumber         uuid.UUID      `json:"trackingNumber"`
	ActivityName           string         `json:"activityName"`
	ActivityTrackingNumber uuid.UUID      `json:"activityTrackingNumber"`
	Timestamp              time.Time      `json:"timestamp"`
	Duration               time.Duration  `json:"duration"`
	Data                   map[string]any `json:"data"`
	Variables              map[string]any `json:"variables"`
	ExceptionInfo          ExceptionInfo  `json:"exceptionInfo"`
}
