package examples

import (
	"context"
	"testing"

	"github.com/icrowley/fake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/courier-go/courier/builder"
	"github.com/krew-solutions/courier-go/courier/contracts"
	"github.com/krew-solutions/courier-go/courier/host"
	"github.com/krew-solutions/courier-go/courier/logging"
	"github.com/krew-solutions/courier-go/courier/publisher"
	"github.com/krew-solutions/courier-go/courier/transport"
	"github.com/krew-solutions/courier-go/courier/transport/inmemory"
)

type bookingWorld struct {
	bus     *inmemory.Bus
	pub     *publisher.Publisher
	service *TravelService
	events  *[]inmemory.PublishedEvent
}

func newBookingWorld(t *testing.T) *bookingWorld {
	t.Helper()
	bus := inmemory.NewBus()
	pub := publisher.New(bus, nil, logging.NewNop())
	service := NewTravelService()
	RegisterTravelHosts(bus, pub, service, logging.NewNop())

	events := make([]inmemory.PublishedEvent, 0)
	bus.SubscribeEvents(func(e inmemory.PublishedEvent) {
		events = append(events, e)
	})
	return &bookingWorld{bus: bus, pub: pub, service: service, events: &events}
}

func (w *bookingWorld) terminal(kind contracts.Events) []inmemory.PublishedEvent {
	var out []inmemory.PublishedEvent
	for _, e := range *w.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func sampleTrip() Trip {
	return Trip{
		Passenger:   fake.FullName(),
		Destination: fake.City(),
		VehicleType: "Compact",
		RoomType:    "Standard",
	}
}

func TestTripBooksAllThreeReservations(t *testing.T) {
	w := newBookingWorld(t)
	trip := sampleTrip()

	slip := BuildTripSlip(trip)
	require.NoError(t, host.Execute(context.Background(), w.bus, w.pub, slip))

	reservations := w.service.Reservations()
	require.Len(t, reservations, 3)
	kinds := map[string]bool{}
	for _, r := range reservations {
		kinds[r.Kind] = true
		assert.Equal(t, trip.Passenger, r.Passenger)
	}
	assert.True(t, kinds["car"] && kinds["hotel"] && kinds["flight"])

	completed := w.terminal(contracts.EventCompleted)
	require.Len(t, completed, 1)
	terminal := completed[0].Message.(contracts.RoutingSlipCompleted)
	assert.Equal(t, trip.Passenger, terminal.Variables["passenger"])
	assert.NotEmpty(t, terminal.Variables["hotelReservationId"])
}

func TestSoldOutFlightCancelsCarAndHotel(t *testing.T) {
	w := newBookingWorld(t)
	trip := sampleTrip()

	soldOut := host.NewExecuteHost("queue:soldout-flight", "", func() host.ExecuteActivity {
		return &SoldOutFlightActivity{}
	}, w.bus, w.pub, logging.NewNop())
	w.bus.Register("queue:soldout-flight", func(ctx context.Context, headers transport.Headers, message any) error {
		return soldOut.Handle(ctx, headers, message.(contracts.RoutingSlip))
	})

	b := builder.New()
	b.AddActivity("ReserveCar", CarReservationsAddress, map[string]any{"passenger": trip.Passenger})
	b.AddActivity("ReserveHotel", HotelReservationsAddress, map[string]any{"passenger": trip.Passenger})
	b.AddActivity("ReserveFlight", "queue:soldout-flight", nil)

	require.NoError(t, host.Execute(context.Background(), w.bus, w.pub, b.Build()))

	assert.Empty(t, w.service.Reservations())

	faulted := w.terminal(contracts.EventFaulted)
	require.Len(t, faulted, 1)
	terminal := faulted[0].Message.(contracts.RoutingSlipFaulted)
	require.Len(t, terminal.ActivityExceptions, 1)
	assert.Equal(t, "ReserveFlight", terminal.ActivityExceptions[0].Name)
	assert.Equal(t, "the flight is sold out", terminal.ActivityExceptions[0].ExceptionInfo.Message)
	assert.NotContains(t, terminal.Variables, "hotelReservationId")
	assert.Empty(t, w.terminal(contracts.EventCompleted))
}

func TestCancellingAnUnknownReservationSticksTheSaga(t *testing.T) {
	w := newBookingWorld(t)
	trip := sampleTrip()

	// book a car, then fault the next step after the reservation has
	// been cancelled out of band
	faulty := host.NewExecuteHost("queue:faulty", "", func() host.ExecuteActivity {
		return &SoldOutFlightActivity{}
	}, w.bus, w.pub, logging.NewNop())
	w.bus.Register("queue:faulty", func(ctx context.Context, headers transport.Headers, message any) error {
		for _, r := range w.service.Reservations() {
			require.NoError(t, w.service.Cancel(r.ID))
		}
		return faulty.Handle(ctx, headers, message.(contracts.RoutingSlip))
	})

	b := builder.New()
	b.AddActivity("ReserveCar", CarReservationsAddress, map[string]any{"passenger": trip.Passenger})
	b.AddActivity("Fault", "queue:faulty", nil)

	err := host.Execute(context.Background(), w.bus, w.pub, b.Build())
	require.Error(t, err)

	require.Len(t, w.terminal(contracts.EventActivityCompensationFailed), 1)
	require.Len(t, w.terminal(contracts.EventCompensationFailed), 1)
	assert.Empty(t, w.terminal(contracts.EventFaulted))
}

func TestTypedArgumentsDecodeFromWireForm(t *testing.T) {
	w := newBookingWorld(t)
	trip := sampleTrip()

	slip := BuildTripSlip(trip)
	payload, err := slip.ToJSON()
	require.NoError(t, err)
	restored, err := contracts.FromJSON(payload)
	require.NoError(t, err)

	require.NoError(t, host.Execute(context.Background(), w.bus, w.pub, restored))
	require.Len(t, w.terminal(contracts.EventCompleted), 1)
	assert.Len(t, w.service.Reservations(), 3)
}
