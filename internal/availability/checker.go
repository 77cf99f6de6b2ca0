package availability

import (
	"context"
	"errors"

	"peregovorka/internal/domain"
	"peregovorka/internal/models"

	"github.com/rs/zerolog"
)

// ErrInvalidInterval rejects a request whose start is not before its end.
// Raised before any storage I/O.
var ErrInvalidInterval = errors.New("invalid interval: start must be before end")

// Checker answers free/busy questions against the day's booking records.
// All methods are pure reads.
type Checker struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewChecker(store domain.Store, logger *zerolog.Logger) *Checker {
	return &Checker{store: store, logger: logger}
}

// IsRoomFree reports whether the room has no active booking overlapping
// [start, end) on the date. Intervals are half-open: a booking ending exactly
// at start does not block.
func (c *Checker) IsRoomFree(ctx context.Context, date models.Date, roomID string, start, end models.TimeOfDay) (bool, error) {
	if start >= end {
		return false, ErrInvalidInterval
	}

	bookings, err := c.store.LoadBookings(ctx, date)
	if err != nil {
		return false, err
	}

	requested := models.TimeSlot{Start: start, End: end}
	for _, b := range bookings {
		if b.RoomID != roomID || !b.Active() {
			continue
		}
		if requested.Overlaps(b.Slot()) {
			c.logger.Debug().
				Str("room_id", roomID).
				Str("date", date.Key()).
				Str("requested", requested.String()).
				Str("existing", b.Slot().String()).
				Str("booking_id", b.ID).
				Msg("room busy")
			return false, nil
		}
	}
	return true, nil
}

// IsParticipantBusy reports whether the user owns or attends any active
// booking overlapping [start, end) on the date, in any room.
func (c *Checker) IsParticipantBusy(ctx context.Context, date models.Date, participantID string, start, end models.TimeOfDay) (bool, error) {
	if start >= end {
		return false, ErrInvalidInterval
	}

	bookings, err := c.store.LoadBookings(ctx, date)
	if err != nil {
		return false, err
	}

	requested := models.TimeSlot{Start: start, End: end}
	for _, b := range bookings {
		if !b.Active() || !b.Involves(participantID) {
			continue
		}
		if requested.Overlaps(b.Slot()) {
			return true, nil
		}
	}
	return false, nil
}

// FreeSlotsIn filters candidate slots down to those free for the room, given
// an already-loaded day snapshot. Used by writers that must test availability
// inside a storage critical section.
func FreeSlotsIn(day []models.Booking, roomID string, slots []models.TimeSlot) []models.TimeSlot {
	free := make([]models.TimeSlot, 0, len(slots))
	for _, slot := range slots {
		if RoomFreeIn(day, roomID, slot) {
			free = append(free, slot)
		}
	}
	return free
}

// RoomFreeIn is the overlap test against an in-memory day snapshot.
func RoomFreeIn(day []models.Booking, roomID string, slot models.TimeSlot) bool {
	for _, b := range day {
		if b.RoomID == roomID && b.Active() && slot.Overlaps(b.Slot()) {
			return false
		}
	}
	return true
}

// ParticipantBusyIn is the participant scan against an in-memory day snapshot.
func ParticipantBusyIn(day []models.Booking, participantID string, slot models.TimeSlot) bool {
	for _, b := range day {
		if b.Active() && b.Involves(participantID) && slot.Overlaps(b.Slot()) {
			return true
		}
	}
	return false
}
