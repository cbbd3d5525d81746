// Package signals implements a simple typed observer signal used for
// in-process event fan-out.
package signals

import (
	"reflect"
	"sync"

	"github.com/krew-solutions/courier-go/courier/disposable"
)

// Observer receives a notified event.
type Observer[E any] func(E)

// Signal is an attach/notify observer list.
type Signal[E any] interface {
	Attach(observer Observer[E], observerID ...any) disposable.Disposable
	Detach(observer Observer[E], observerID ...any)
	Notify(event E)
}

type entry[E any] struct {
	id       any
	observer Observer[E]
}

// SignalImp is the default Signal implementation. It is safe for
// concurrent use.
type SignalImp[E any] struct {
	mu        sync.RWMutex
	observers []entry[E]
}

// NewSignal creates an empty signal.
func NewSignal[E any]() *SignalImp[E] {
	return &SignalImp[E]{}
}

// Attach registers an observer. Attaching with an already registered ID
// is a no-op; the returned Disposable detaches the observer.
func (s *SignalImp[E]) Attach(observer Observer[E], observerID ...any) disposable.Disposable {
	id := resolveID(observer, observerID)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.observers {
		if e.id == id {
			return disposable.NewDisposable(func() {
				s.Detach(observer, id)
			})
		}
	}
	s.observers = append(s.observers, entry[E]{id: id, observer: observer})
	return disposable.NewDisposable(func() {
		s.Detach(observer, id)
	})
}

// Detach removes a previously attached observer.
func (s *SignalImp[E]) Detach(observer Observer[E], observerID ...any) {
	id := resolveID(observer, observerID)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.observers {
		if e.id == id {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

// Notify delivers the event to every attached observer in attach order.
func (s *SignalImp[E]) Notify(event E) {
	s.mu.RLock()
	observers := append([]entry[E](nil), s.observers...)
	s.mu.RUnlock()

	for _, e := range observers {
		e.observer(event)
	}
}

func resolveID[E any](observer Observer[E], observerID []any) any {
	if len(observerID) > 0 {
		return observerID[0]
	}
	return reflect.ValueOf(observer).Pointer()
}
