// courier-demo runs the travel booking saga on the in-memory transport
// and prints every lifecycle event it produces. Pass -destination "" to
// watch the flight reservation fault and the earlier bookings unwind.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/krew-solutions/courier-go/courier/examples"
	"github.com/krew-solutions/courier-go/courier/host"
	"github.com/krew-solutions/courier-go/courier/logging"
	"github.com/krew-solutions/courier-go/courier/publisher"
	"github.com/krew-solutions/courier-go/courier/transport/inmemory"
)

func main() {
	passenger := flag.String("passenger", "Ada Lovelace", "passenger name")
	destination := flag.String("destination", "Lisbon", "flight destination (empty faults the flight step)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := logging.New(level)

	bus := inmemory.NewBus()
	pub := publisher.New(bus, nil, logger)
	service := examples.NewTravelService()
	examples.RegisterTravelHosts(bus, pub, service, logger)

	bus.SubscribeEvents(func(e inmemory.PublishedEvent) {
		body, _ := json.Marshal(e.Message)
		fmt.Printf("%-40s %s\n", e.Kind, body)
	})

	slip := examples.BuildTripSlip(examples.Trip{
		Passenger:   *passenger,
		Destination: *destination,
		VehicleType: "Compact",
		RoomType:    "Standard",
	})

	if err := host.Execute(context.Background(), bus, pub, slip); err != nil {
		logger.Error("trip booking failed", "err", err)
		os.Exit(1)
	}

	for _, r := range service.Reservations() {
		fmt.Printf("booked: %s for %s (%s)\n", r.Kind, r.Passenger, r.ID)
	}
}
