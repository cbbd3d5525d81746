package builder

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/courier-go/courier/contracts"
)

func TestNew_MintsIdentity(t *testing.T) {
	b := New()
	slip := b.Build()

	assert.NotEqual(t, uuid.Nil, slip.TrackingNumber)
	assert.False(t, slip.CreateTimestamp.IsZero())
	assert.Empty(t, slip.Itinerary)
	assert.NotNil(t, slip.Variables)
}

func TestBuild_Idempotent(t *testing.T) {
	b := NewWithTrackingNumber(uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"))
	b.AddActivity("a", "queue:a", map[string]any{"n": 1})
	b.AddActivity("b", "queue:b", nil)
	b.SetVariables(map[string]any{"k": "v"})
	b.AddSubscription("queue:status", contracts.EventCompleted)

	first := b.Build()
	second := b.Build()

	assert.Equal(t, first, second)
}

func TestBuild_SnapshotIsIndependent(t *testing.T) {
	b := New()
	b.AddActivity("a", "queue:a", map[string]any{"n": 1})

	first := b.Build()
	first.Itinerary[0].Arguments["n"] = 99
	first.Variables["injected"] = true

	second := b.Build()
	assert.Equal(t, 1, second.Itinerary[0].Arguments["n"])
	assert.NotContains(t, second.Variables, "injected")
}

func TestForward_DropsItineraryHead(t *testing.T) {
	b := New()
	b.AddActivity("a", "queue:a", nil)
	b.AddActivity("b", "queue:b", nil)
	slip := b.Build()

	next := Forward(slip).Build()

	require.Len(t, next.Itinerary, 1)
	assert.Equal(t, "b", next.Itinerary[0].Name)
	assert.Equal(t, slip.TrackingNumber, next.TrackingNumber)
	assert.True(t, slip.CreateTimestamp.Equal(next.CreateTimestamp))

	// base slip untouched
	assert.Len(t, slip.Itinerary, 2)
}

func TestForward_EmptyItineraryStaysEmpty(t *testing.T) {
	next := Forward(New().Build()).Build()
	assert.Empty(t, next.Itinerary)
}

func TestBackward_DropsCompensateLogTail(t *testing.T) {
	first := uuid.New()
	second := uuid.New()

	b := New()
	b.AddCompensateLog(first, "queue:a-compensate", map[string]any{"id": 1})
	b.AddCompensateLog(second, "queue:b-compensate", map[string]any{"id": 2})
	slip := b.Build()

	next := Backward(slip).Build()

	require.Len(t, next.CompensateLogs, 1)
	assert.Equal(t, first, next.CompensateLogs[0].ActivityTrackingNumber)
	assert.Len(t, slip.CompensateLogs, 2)
}

func TestBackward_EmptyLogsStayEmpty(t *testing.T) {
	next := Backward(New().Build()).Build()
	assert.Empty(t, next.CompensateLogs)
}

func TestSetVariables_TombstoneLaws(t *testing.T) {
	b := New()

	b.SetVariables(map[string]any{"k": "v"})
	assert.Equal(t, "v", b.Build().Variables["k"])

	b.SetVariables(map[string]any{"k": "v2"})
	assert.Equal(t, "v2", b.Build().Variables["k"])

	b.SetVariables(map[string]any{"k": nil})
	assert.NotContains(t, b.Build().Variables, "k")

	b.SetVariables(map[string]any{"k": "v"})
	b.SetVariables(map[string]any{"k": ""})
	assert.NotContains(t, b.Build().Variables, "k")
}

func TestAddVariable_FollowsTombstoneRule(t *testing.T) {
	b := New()
	b.AddVariable("k", "v")
	b.AddVariable("k", nil)
	assert.NotContains(t, b.Build().Variables, "k")
}

func TestItineraryRevision_InsertBeforeRemainder(t *testing.T) {
	b := New()
	b.AddActivity("a", "queue:a", nil)
	b.AddActivity("b", "queue:b", nil)
	slip := b.Build()

	// the hop that executed "a" revises the plan: run "c" before "b"
	rb := Forward(slip)
	rb.BeginItineraryRevision()
	rb.AddActivity("c", "queue:c", nil)
	rb.AddSourceItinerary()
	next := rb.Build()

	require.Len(t, next.Itinerary, 2)
	assert.Equal(t, "c", next.Itinerary[0].Name)
	assert.Equal(t, "b", next.Itinerary[1].Name)
}

func TestAddSourceItinerary_SecondCallIsNoOp(t *testing.T) {
	b := New()
	b.SetSourceItinerary([]contracts.Activity{{Name: "x", Address: "queue:x"}})

	assert.Equal(t, 1, b.AddSourceItinerary())
	assert.Equal(t, 0, b.AddSourceItinerary())
	assert.Len(t, b.Build().Itinerary, 1)
}

func TestAddActivityLog_AppendsInOrder(t *testing.T) {
	b := New()
	host := contracts.HostInfo{MachineName: "worker-1"}
	ts := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)

	b.AddActivityLog(host, "a", uuid.New(), ts, time.Second)
	b.AddActivityLog(host, "b", uuid.New(), ts.Add(time.Second), 2*time.Second)

	slip := b.Build()
	require.Len(t, slip.ActivityLogs, 2)
	assert.Equal(t, "a", slip.ActivityLogs[0].Name)
	assert.Equal(t, "b", slip.ActivityLogs[1].Name)
}

func TestAddActivityException_Appends(t *testing.T) {
	b := New()
	b.AddActivityException(contracts.HostInfo{}, "a", uuid.New(), time.Now(), time.Second, contracts.ExceptionInfo{
		Kind:    "timeout",
		Message: "deadline exceeded",
	})

	slip := b.Build()
	require.Len(t, slip.ActivityExceptions, 1)
	assert.Equal(t, "deadline exceeded", slip.ActivityExceptions[0].ExceptionInfo.Message)
}
