// Package examples demonstrates a travel booking saga: reserve a car, a
// hotel and a flight, and cancel everything already booked when a later
// reservation fails.
package examples

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/pkg/errors"
)

// Reservation is one booking held by the travel service.
type Reservation struct {
	ID        string
	Kind      string
	Passenger string
}

// TravelService is a toy reservation backend shared by the example
// activities. It stands in for the external systems a real saga would
// call.
type TravelService struct {
	mu           sync.Mutex
	rnd          *rand.Rand
	reservations map[string]Reservation
}

// NewTravelService creates an empty reservation backend.
func NewTravelService() *TravelService {
	return &TravelService{
		rnd:          rand.New(rand.NewSource(2)),
		reservations: make(map[string]Reservation),
	}
}

// Reserve books one item and returns the reservation id.
func (s *TravelService) Reserve(kind, passenger string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := fmt.Sprintf("%s-%05d", kind, s.rnd.Intn(100000))
	s.reservations[id] = Reservation{ID: id, Kind: kind, Passenger: passenger}
	return id
}

// Cancel releases a reservation. Cancelling an unknown id is an error;
// the saga relies on compensation being reported honestly.
func (s *TravelService) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reservations[id]; !ok {
		return errors.Errorf("no reservation %s", id)
	}
	delete(s.reservations, id)
	return nil
}

// Reservations returns every booking currently held.
func (s *TravelService) Reservations() []Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Reservation, 0, len(s.reservations))
	for _, r := range s.reservations {
		out = append(out, r)
	}
	return out
}
