// Package sanitizer defensively reconstructs a trustworthy in-memory slip
// from a freshly decoded, externally supplied message. Decode gaps must
// never propagate past this boundary as nil-map or missing-field failures.
package sanitizer

import (
	"fmt"

	"github.com/krew-solutions/courier-go/courier/contracts"
)

// MalformedSlipError reports a required field missing from an inbound
// routing slip. It is fatal for the current message.
type MalformedSlipError struct {
	Field  string
	Reason string
}

func (e *MalformedSlipError) Error() string {
	return fmt.Sprintf("malformed routing slip: %s: %s", e.Field, e.Reason)
}

// Sanitize validates an externally sourced slip and returns a copy the
// engine can trust: required fields are checked and missing optional maps
// are replaced with empty ones.
func Sanitize(slip contracts.RoutingSlip) (contracts.RoutingSlip, error) {
	clean := slip

	clean.Itinerary = make([]contracts.Activity, len(slip.Itinerary))
	for i, activity := range slip.Itinerary {
		if activity.Name == "" {
			return contracts.RoutingSlip{}, &MalformedSlipError{
				Field:  fmt.Sprintf("itinerary[%d].name", i),
				Reason: "an activity name is required",
			}
		}
		if activity.Address == "" {
			return contracts.RoutingSlip{}, &MalformedSlipError{
				Field:  fmt.Sprintf("itinerary[%d].address", i),
				Reason: "an activity execute address is required",
			}
		}
		if activity.Arguments == nil {
			activity.Arguments = make(map[string]any)
		}
		clean.Itinerary[i] = activity
	}

	clean.CompensateLogs = make([]contracts.CompensateLog, len(slip.CompensateLogs))
	for i, log := range slip.CompensateLogs {
		if log.Address == "" {
			return contracts.RoutingSlip{}, &MalformedSlipError{
				Field:  fmt.Sprintf("compensateLogs[%d].address", i),
				Reason: "a compensate address is required",
			}
		}
		if log.Data == nil {
			log.Data = make(map[string]any)
		}
		clean.CompensateLogs[i] = log
	}

	clean.ActivityExceptions = make([]contracts.ActivityException, len(slip.ActivityExceptions))
	for i, exception := range slip.ActivityExceptions {
		if exception.Name == "" {
			return contracts.RoutingSlip{}, &MalformedSlipError{
				Field:  fmt.Sprintf("activityExceptions[%d].name", i),
				Reason: "an activity name is required",
			}
		}
		clean.ActivityExceptions[i] = exception
	}

	clean.ActivityLogs = append([]contracts.ActivityLog{}, slip.ActivityLogs...)
	clean.Subscriptions = append([]contracts.Subscription{}, slip.Subscriptions...)

	if slip.Variables == nil {
		clean.Variables = make(map[string]any)
	}

	return clean, nil
}
