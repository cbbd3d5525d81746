package examples

import (
	"context"

	"github.com/krew-solutions/courier-go/courier/host"
)

const (
	HotelReservationsAddress  = "queue:hotel-reservations"
	HotelCancellationsAddress = "queue:hotel-cancellations"
)

// HotelArguments are the typed arguments of the hotel reservation step.
type HotelArguments struct {
	Passenger string `json:"passenger"`
	RoomType  string `json:"roomType"`
}

type hotelReservationLog struct {
	ReservationID string `json:"reservationId"`
}

// ReserveHotelActivity reserves a hotel room.
type ReserveHotelActivity struct {
	service *TravelService
}

func NewReserveHotelActivity(service *TravelService) *ReserveHotelActivity {
	return &ReserveHotelActivity{service: service}
}

func (a *ReserveHotelActivity) Execute(ctx context.Context, ex *host.Execution) host.ExecutionResult {
	var args HotelArguments
	if err := ex.DecodeArguments(&args); err != nil {
		return ex.Faulted(err)
	}

	reservationID := a.service.Reserve("hotel", args.Passenger)
	return ex.CompletedWithLogAndVariables(
		map[string]any{"reservationId": reservationID},
		map[string]any{"hotelReservationId": reservationID},
	)
}

func (a *ReserveHotelActivity) Compensate(ctx context.Context, cp *host.Compensation) host.CompensationResult {
	var log hotelReservationLog
	if err := cp.DecodeData(&log); err != nil {
		return cp.Failed(err)
	}

	if err := a.service.Cancel(log.ReservationID); err != nil {
		return cp.Failed(err)
	}
	// the shared id is stale once the room is gone
	return cp.CompensatedWithVariables(map[string]any{"hotelReservationId": nil})
}
