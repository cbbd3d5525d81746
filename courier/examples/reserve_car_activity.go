package examples

import (
	"context"

	"github.com/krew-solutions/courier-go/courier/host"
)

const (
	CarReservationsAddress  = "queue:car-reservations"
	CarCancellationsAddress = "queue:car-cancellations"
)

// CarArguments are the typed arguments of the car reservation step.
type CarArguments struct {
	Passenger   string `json:"passenger"`
	VehicleType string `json:"vehicleType"`
}

type carReservationLog struct {
	ReservationID string `json:"reservationId"`
}

// ReserveCarActivity reserves a rental car. This is typically the least
// risky step in a travel booking saga, so it runs first.
type ReserveCarActivity struct {
	service *TravelService
}

func NewReserveCarActivity(service *TravelService) *ReserveCarActivity {
	return &ReserveCarActivity{service: service}
}

func (a *ReserveCarActivity) Execute(ctx context.Context, ex *host.Execution) host.ExecutionResult {
	var args CarArguments
	if err := ex.DecodeArguments(&args); err != nil {
		return ex.Faulted(err)
	}

	reservationID := a.service.Reserve("car", args.Passenger)
	return ex.CompletedWithLog(map[string]any{"reservationId": reservationID})
}

func (a *ReserveCarActivity) Compensate(ctx context.Context, cp *host.Compensation) host.CompensationResult {
	var log carReservationLog
	if err := cp.DecodeData(&log); err != nil {
		return cp.Failed(err)
	}

	if err := a.service.Cancel(log.ReservationID); err != nil {
		return cp.Failed(err)
	}
	return cp.Compensated()
}
