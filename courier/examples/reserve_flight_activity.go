package examples

import (
	"context"

	"github.com/pkg/errors"

	"github.com/krew-solutions/courier-go/courier/host"
)

const (
	FlightReservationsAddress  = "queue:flight-reservations"
	FlightCancellationsAddress = "queue:flight-cancellations"
)

// FlightArguments are the typed arguments of the flight reservation
// step.
type FlightArguments struct {
	Passenger   string `json:"passenger"`
	Destination string `json:"destination"`
}

type flightReservationLog struct {
	ReservationID string `json:"reservationId"`
}

// ReserveFlightActivity reserves a flight. This is the highest risk
// step in a travel booking saga, so it runs last.
type ReserveFlightActivity struct {
	service *TravelService
}

func NewReserveFlightActivity(service *TravelService) *ReserveFlightActivity {
	return &ReserveFlightActivity{service: service}
}

func (a *ReserveFlightActivity) Execute(ctx context.Context, ex *host.Execution) host.ExecutionResult {
	var args FlightArguments
	if err := ex.DecodeArguments(&args); err != nil {
		return ex.Faulted(err)
	}
	if args.Destination == "" {
		return ex.Faulted(errors.New("a destination is required"))
	}

	reservationID := a.service.Reserve("flight", args.Passenger)
	return ex.CompletedWithLog(map[string]any{"reservationId": reservationID})
}

func (a *ReserveFlightActivity) Compensate(ctx context.Context, cp *host.Compensation) host.CompensationResult {
	var log flightReservationLog
	if err := cp.DecodeData(&log); err != nil {
		return cp.Failed(err)
	}

	if err := a.service.Cancel(log.ReservationID); err != nil {
		return cp.Failed(err)
	}
	return cp.Compensated()
}

// SoldOutFlightActivity always fails, standing in for an airline with
// no seats left.
type SoldOutFlightActivity struct{}

func (a *SoldOutFlightActivity) Execute(ctx context.Context, ex *host.Execution) host.ExecutionResult {
	return ex.Faulted(errors.New("the flight is sold out"))
}
