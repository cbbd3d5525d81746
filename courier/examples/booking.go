package examples

import (
	"context"
	"log/slog"

	"github.com/krew-solutions/courier-go/courier/builder"
	"github.com/krew-solutions/courier-go/courier/contracts"
	"github.com/krew-solutions/courier-go/courier/host"
	"github.com/krew-solutions/courier-go/courier/publisher"
	"github.com/krew-solutions/courier-go/courier/transport"
	"github.com/krew-solutions/courier-go/courier/transport/inmemory"
)

// Trip is what the customer asked for.
type Trip struct {
	Passenger   string
	Destination string
	VehicleType string
	RoomType    string
}

// BuildTripSlip composes the booking itinerary: car first, then hotel,
// then flight, ordered from least to most likely to fail.
func BuildTripSlip(trip Trip) contracts.RoutingSlip {
	b := builder.New()
	b.AddActivity("ReserveCar", CarReservationsAddress, map[string]any{
		"passenger":   trip.Passenger,
		"vehicleType": trip.VehicleType,
	})
	b.AddActivity("ReserveHotel", HotelReservationsAddress, map[string]any{
		"passenger": trip.Passenger,
		"roomType":  trip.RoomType,
	})
	b.AddActivity("ReserveFlight", FlightReservationsAddress, map[string]any{
		"passenger":   trip.Passenger,
		"destination": trip.Destination,
	})
	b.AddVariable("passenger", trip.Passenger)
	return b.Build()
}

// RegisterTravelHosts attaches execute and compensate hosts for every
// booking activity to the bus.
func RegisterTravelHosts(bus *inmemory.Bus, pub *publisher.Publisher, service *TravelService, logger *slog.Logger) {
	registerExecute(bus, pub, logger, CarReservationsAddress, CarCancellationsAddress, func() host.ExecuteActivity {
		return NewReserveCarActivity(service)
	})
	registerCompensate(bus, pub, logger, CarCancellationsAddress, func() host.CompensateActivity {
		return NewReserveCarActivity(service)
	})

	registerExecute(bus, pub, logger, HotelReservationsAddress, HotelCancellationsAddress, func() host.ExecuteActivity {
		return NewReserveHotelActivity(service)
	})
	registerCompensate(bus, pub, logger, HotelCancellationsAddress, func() host.CompensateActivity {
		return NewReserveHotelActivity(service)
	})

	registerExecute(bus, pub, logger, FlightReservationsAddress, FlightCancellationsAddress, func() host.ExecuteActivity {
		return NewReserveFlightActivity(service)
	})
	registerCompensate(bus, pub, logger, FlightCancellationsAddress, func() host.CompensateActivity {
		return NewReserveFlightActivity(service)
	})
}

func registerExecute(bus *inmemory.Bus, pub *publisher.Publisher, logger *slog.Logger, address, compensateAddress string, factory host.ExecuteActivityFactory) {
	h := host.NewExecuteHost(address, compensateAddress, factory, bus, pub, logger)
	bus.Register(address, func(ctx context.Context, headers transport.Headers, message any) error {
		return h.Handle(ctx, headers, message.(contracts.RoutingSlip))
	})
}

func registerCompensate(bus *inmemory.Bus, pub *publisher.Publisher, logger *slog.Logger, address string, factory host.CompensateActivityFactory) {
	h := host.NewCompensateHost(address, factory, bus, pub, logger)
	bus.Register(address, func(ctx context.Context, headers transport.Headers, message any) error {
		return h.Handle(ctx, headers, message.(contracts.RoutingSlip))
	})
}
