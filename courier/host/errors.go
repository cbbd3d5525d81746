package host

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrEmptyItinerary is returned when an execution message arrives
	// without a single pending activity.
	ErrEmptyItinerary = errors.New("the routing slip must contain at least one activity")

	// ErrNothingToCompensate is returned when a compensation message
	// arrives without any compensate logs.
	ErrNothingToCompensate = errors.New("the routing slip must contain at least one compensate log")

	// ErrNoCompensateAddress is returned when an activity registers a
	// compensate log but its host has no compensate address configured.
	ErrNoCompensateAddress = errors.New("no compensate address configured for this activity")
)

// MissingActivityLogError reports a compensate log whose activity log is
/// gone: structural corruption, never silently ignored.
type MissingActivityLogError struct {
	ActivityTrackingNumber uuid.UUID
}

func (e *MissingActivityLogError) Error() string {
	return fmt.Sprintf("no activity log matches compensate log %s", e.ActivityTrackingNumber)
}
