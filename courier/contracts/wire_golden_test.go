package contracts

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// Pins the wire shape of the document so accidental field renames or tag
// changes are caught.
func TestRoutingSlip_WireFormat(t *testing.T) {
	slip := RoutingSlip{
		TrackingNumber:  uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		CreateTimestamp: time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC),
		Itinerary: []Activity{
			{
				Name:      "release-payment",
				Address:   "queue:payments",
				Arguments: map[string]any{"amount": 1250},
			},
		},
		ActivityLogs: []ActivityLog{
			{
				Host: HostInfo{
					MachineName: "worker-1",
					ProcessName: "courier-test",
					ProcessID:   4242,
				},
				Name:                   "reserve-stock",
				ActivityTrackingNumber: uuid.MustParse("6ba7b811-9dad-11d1-80b4-00c04fd430c8"),
				Timestamp:              time.Date(2024, 3, 5, 9, 30, 1, 0, time.UTC),
				Duration:               2 * time.Second,
			},
		},
		CompensateLogs: []CompensateLog{
			{
				ActivityTrackingNumber: uuid.MustParse("6ba7b811-9dad-11d1-80b4-00c04fd430c8"),
				Address:                "queue:stock-compensate",
				Data:                   map[string]any{"reservationId": "r-100"},
			},
		},
		ActivityExceptions: []ActivityException{},
		Variables:          map[string]any{"customerId": "C-9"},
		Subscriptions: []Subscription{
			{Address: "queue:status", Events: EventCompleted | EventFaulted},
		},
	}

	data, err := json.MarshalIndent(slip, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "routing_slip", data)
}
