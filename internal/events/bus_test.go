package events

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_SubscribeAndEmit(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe(SignalCreated)
	defer unsubscribe()

	bus.Emit(Event{Type: SignalCreated, Timestamp: time.Now(), Module: "council"})
	bus.Emit(Event{Type: MeetingUpdate, Timestamp: time.Now(), Module: "council"})

	select {
	case ev := <-ch:
		assert.Equal(t, SignalCreated, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("expected event on subscribed topic")
	}

	select {
	case <-ch:
		t.Fatal("did not expect an event on an unsubscribed topic")
	default:
	}
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	bus.Emit(Event{Type: ScanCompleted, Timestamp: time.Now()})

	select {
	case ev := <-ch:
		assert.Equal(t, ScanCompleted, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("expected event on wildcard subscription")
	}
}

func TestBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus()
	_, unsubscribe := bus.Subscribe(SignalCreated)
	defer unsubscribe()

	for i := 0; i < subscriberBuffer+10; i++ {
		bus.Emit(Event{Type: SignalCreated, Timestamp: time.Now()})
	}
	// No deadlock, no panic: Emit is non-blocking once the buffer fills.
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe(SignalExecuted)
	unsubscribe()

	_, open := <-ch
	assert.False(t, open)
}

func TestManager_EmitTyped_RoundTripsThroughGetTypedData(t *testing.T) {
	bus := NewBus()
	mgr := NewManager(bus, zerolog.Nop())

	ch, unsubscribe := bus.Subscribe(SignalCreated)
	defer unsubscribe()

	mgr.EmitTyped(SignalCreated, "council", &SignalCreatedData{
		SignalID:          "sig-1",
		Symbol:            "005930",
		Action:            "BUY",
		AllocationPercent: 28,
		Status:            "PENDING",
	})

	ev := <-ch
	typed := ev.GetTypedData()
	require.NotNil(t, typed)

	created, ok := typed.(*SignalCreatedData)
	require.True(t, ok)
	assert.Equal(t, "005930", created.Symbol)
	assert.Equal(t, "BUY", created.Action)
}

func TestManager_EmitError(t *testing.T) {
	bus := NewBus()
	mgr := NewManager(bus, zerolog.Nop())

	ch, unsubscribe := bus.Subscribe(ErrorOccurred)
	defer unsubscribe()

	mgr.EmitError("broker", assertError("boom"), map[string]interface{}{"symbol": "005930"})

	ev := <-ch
	typed := ev.GetTypedData()
	errData, ok := typed.(*ErrorEventData)
	require.True(t, ok)
	assert.Equal(t, "boom", errData.Error)
}

type assertError string

func (e assertError) Error() string { return string(e) }
