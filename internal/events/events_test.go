package events

import (
	"encoding/json"
	"testing"
	"time"

	"peregovorka/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusPublishSubscribe(t *testing.T) {
	bus := NewEventBus()

	var got []*Event
	bus.Subscribe(EventBookingCreated, func(e *Event) error {
		got = append(got, e)
		return nil
	})
	bus.Subscribe(EventBookingDeleted, func(e *Event) error {
		t.Fatal("wrong event type delivered")
		return nil
	})

	payload := BookingEventPayload{
		BookingID: "502202502051630",
		Date:      models.NewDate(2025, time.February, 5),
		RoomID:    "502",
		OwnerID:   "101",
		Start:     models.NewTimeOfDay(16, 30),
		End:       models.NewTimeOfDay(17, 30),
		Status:    models.StatusConfirmed,
	}
	require.NoError(t, bus.PublishJSON(EventBookingCreated, payload))

	require.Len(t, got, 1)
	assert.Equal(t, EventBookingCreated, got[0].Type)
	assert.False(t, got[0].CreatedAt.IsZero())

	var decoded BookingEventPayload
	require.NoError(t, json.Unmarshal(got[0].Payload, &decoded))
	assert.Equal(t, payload, decoded)
}

func TestEventBusMultipleHandlers(t *testing.T) {
	bus := NewEventBus()

	calls := 0
	for i := 0; i < 3; i++ {
		bus.Subscribe(EventBookingUpdated, func(e *Event) error {
			calls++
			return nil
		})
	}

	require.NoError(t, bus.PublishJSON(EventBookingUpdated, map[string]string{"x": "y"}))
	assert.Equal(t, 3, calls)
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	assert.NoError(t, bus.PublishJSON(EventBookingDeleted, map[string]string{}))
}
