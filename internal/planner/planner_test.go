package planner

import (
	"context"
	"testing"
	"time"

	"peregovorka/internal/models"
	"peregovorka/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionWindow(t *testing.T) {
	t.Run("ExactFit", func(t *testing.T) {
		slots, err := PartitionWindow(models.NewTimeOfDay(9, 0), models.NewTimeOfDay(12, 0), 60)
		require.NoError(t, err)
		require.Len(t, slots, 3)
		assert.Equal(t, "09:00-10:00", slots[0].String())
		assert.Equal(t, "10:00-11:00", slots[1].String())
		assert.Equal(t, "11:00-12:00", slots[2].String())
	})

	t.Run("PartialTailDropped", func(t *testing.T) {
		slots, err := PartitionWindow(models.NewTimeOfDay(9, 0), models.NewTimeOfDay(10, 30), 60)
		require.NoError(t, err)
		require.Len(t, slots, 1)
		assert.Equal(t, "09:00-10:00", slots[0].String())
	})

	t.Run("WindowShorterThanInterval", func(t *testing.T) {
		slots, err := PartitionWindow(models.NewTimeOfDay(9, 0), models.NewTimeOfDay(9, 45), 60)
		require.NoError(t, err)
		assert.Empty(t, slots)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := PartitionWindow(models.NewTimeOfDay(12, 0), models.NewTimeOfDay(9, 0), 60)
		assert.ErrorIs(t, err, ErrInvalidWindow)

		_, err = PartitionWindow(models.NewTimeOfDay(9, 0), models.NewTimeOfDay(12, 0), 0)
		assert.ErrorIs(t, err, ErrInvalidWindow)
	})
}

// slotChecker answers free/busy from a fixed set of busy slots.
type slotChecker struct {
	busy []models.TimeSlot
}

func (c slotChecker) IsRoomFree(ctx context.Context, date models.Date, roomID string, start, end models.TimeOfDay) (bool, error) {
	requested := models.TimeSlot{Start: start, End: end}
	for _, b := range c.busy {
		if requested.Overlaps(b) {
			return false, nil
		}
	}
	return true, nil
}

func slot(sh, sm, eh, em int) models.TimeSlot {
	return models.TimeSlot{Start: models.NewTimeOfDay(sh, sm), End: models.NewTimeOfDay(eh, em)}
}

func newTestPlanner(t *testing.T, checker RoomChecker) *Planner {
	t.Helper()
	logger := zerolog.Nop()
	store, err := storage.NewFileStore(t.TempDir(), &logger)
	require.NoError(t, err)
	return New(checker, store, &logger)
}

func TestPlanForRoomFreeSlots(t *testing.T) {
	p := newTestPlanner(t, slotChecker{busy: []models.TimeSlot{slot(10, 0, 11, 0)}})
	date := models.NewDate(2025, time.July, 1)
	room := models.Room{ID: "502", Name: "Big", Capacity: 10}

	result, err := p.PlanForRoom(context.Background(), date, room, models.NewTimeOfDay(9, 0), models.NewTimeOfDay(12, 0), 60)
	require.NoError(t, err)
	require.Len(t, result.AvailableSlots, 2)
	assert.Equal(t, "09:00-10:00", result.AvailableSlots[0].String())
	assert.Equal(t, "11:00-12:00", result.AvailableSlots[1].String())
	assert.Empty(t, result.Alternatives, "alternatives only when no slot is free")
}

func TestPlanForRoomAlternatives(t *testing.T) {
	t.Run("BackwardBeforeForward", func(t *testing.T) {
		// Window fully busy, both neighbors free.
		p := newTestPlanner(t, slotChecker{busy: []models.TimeSlot{slot(10, 0, 11, 0)}})
		date := models.NewDate(2025, time.July, 2)
		room := models.Room{ID: "502", Name: "Big"}

		result, err := p.PlanForRoom(context.Background(), date, room, models.NewTimeOfDay(10, 0), models.NewTimeOfDay(11, 0), 60)
		require.NoError(t, err)
		assert.Empty(t, result.AvailableSlots)
		require.Len(t, result.Alternatives, 2)
		assert.Equal(t, DirectionBackward, result.Alternatives[0].Direction)
		assert.Equal(t, "09:00-10:00", result.Alternatives[0].Slot.String())
		assert.Equal(t, DirectionForward, result.Alternatives[1].Direction)
		assert.Equal(t, "11:00-12:00", result.Alternatives[1].Slot.String())
	})

	t.Run("SecondShiftWhenFirstBusy", func(t *testing.T) {
		// 09:00-12:00 busy: the requested 10:00-11:00 and both immediate
		// neighbors are blocked, so each direction lands on shift k=2.
		p := newTestPlanner(t, slotChecker{busy: []models.TimeSlot{slot(9, 0, 12, 0)}})
		date := models.NewDate(2025, time.July, 3)
		room := models.Room{ID: "502", Name: "Big"}

		result, err := p.PlanForRoom(context.Background(), date, room, models.NewTimeOfDay(10, 0), models.NewTimeOfDay(11, 0), 60)
		require.NoError(t, err)
		require.Len(t, result.Alternatives, 2)
		assert.Equal(t, "08:00-09:00", result.Alternatives[0].Slot.String())
		assert.Equal(t, "12:00-13:00", result.Alternatives[1].Slot.String())
	})

	t.Run("ShiftOffDayIsSkipped", func(t *testing.T) {
		// Requested window at the very start of the day: backward shifts
		// leave the day and are discarded.
		p := newTestPlanner(t, slotChecker{busy: []models.TimeSlot{slot(0, 0, 1, 0)}})
		date := models.NewDate(2025, time.July, 4)
		room := models.Room{ID: "502", Name: "Big"}

		result, err := p.PlanForRoom(context.Background(), date, room, models.NewTimeOfDay(0, 0), models.NewTimeOfDay(1, 0), 60)
		require.NoError(t, err)
		require.Len(t, result.Alternatives, 1)
		assert.Equal(t, DirectionForward, result.Alternatives[0].Direction)
		assert.Equal(t, "01:00-02:00", result.Alternatives[0].Slot.String())
	})

	t.Run("NothingWithinThreeShifts", func(t *testing.T) {
		p := newTestPlanner(t, slotChecker{busy: []models.TimeSlot{slot(6, 0, 15, 0)}})
		date := models.NewDate(2025, time.July, 5)
		room := models.Room{ID: "502", Name: "Big"}

		result, err := p.PlanForRoom(context.Background(), date, room, models.NewTimeOfDay(10, 0), models.NewTimeOfDay(11, 0), 60)
		require.NoError(t, err)
		assert.False(t, result.HasOffers())
	})
}

func TestPlanAll(t *testing.T) {
	logger := zerolog.Nop()
	store, err := storage.NewFileStore(t.TempDir(), &logger)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.SaveRooms(ctx, []models.Room{
		{ID: "502", Name: "Big", Capacity: 12},
		{ID: "101", Name: "Small", Capacity: 4},
	}))

	p := New(slotChecker{}, store, &logger)
	date := models.NewDate(2025, time.July, 6)

	t.Run("AllRooms", func(t *testing.T) {
		plan, err := p.PlanAll(ctx, date, models.NewTimeOfDay(9, 0), models.NewTimeOfDay(11, 0), 60, 0)
		require.NoError(t, err)
		require.Len(t, plan, 2)
		assert.Len(t, plan[0].AvailableSlots, 2)
	})

	t.Run("CapacityFilter", func(t *testing.T) {
		plan, err := p.PlanAll(ctx, date, models.NewTimeOfDay(9, 0), models.NewTimeOfDay(11, 0), 60, 10)
		require.NoError(t, err)
		require.Len(t, plan, 1)
		assert.Equal(t, "502", plan[0].RoomID)
	})

	t.Run("InvalidWindow", func(t *testing.T) {
		_, err := p.PlanAll(ctx, date, models.NewTimeOfDay(11, 0), models.NewTimeOfDay(9, 0), 60, 0)
		assert.ErrorIs(t, err, ErrInvalidWindow)
	})
}
