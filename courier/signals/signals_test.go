package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleEvent struct {
	payload int
}

func TestSignal_AttachAndNotify(t *testing.T) {
	s := NewSignal[sampleEvent]()
	var called sampleEvent
	s.Attach(func(e sampleEvent) { called = e }, "obs")
	s.Notify(sampleEvent{1})
	assert.Equal(t, sampleEvent{1}, called)
}

func TestSignal_AttachTwiceSameIDIsNoOp(t *testing.T) {
	s := NewSignal[sampleEvent]()
	count := 0
	s.Attach(func(sampleEvent) { count++ }, "obs")
	s.Attach(func(sampleEvent) { count++ }, "obs")
	s.Notify(sampleEvent{})
	assert.Equal(t, 1, count)
}

func TestSignal_DisposeDetaches(t *testing.T) {
	s := NewSignal[sampleEvent]()
	count := 0
	d := s.Attach(func(sampleEvent) { count++ }, "obs")
	s.Notify(sampleEvent{})
	d.Dispose()
	s.Notify(sampleEvent{})
	assert.Equal(t, 1, count)
}

func TestSignal_NotifyOrderIsAttachOrder(t *testing.T) {
	s := NewSignal[sampleEvent]()
	var order []string
	s.Attach(func(sampleEvent) { order = append(order, "first") }, "a")
	s.Attach(func(sampleEvent) { order = append(order, "second") }, "b")
	s.Notify(sampleEvent{})
	assert.Equal(t, []string{"first", "second"}, order)
}
