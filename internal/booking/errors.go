package booking

import (
	"errors"
	"fmt"

	"peregovorka/internal/models"
)

var (
	// ErrNoParticipants means the request resolved to neither known
	// participants nor guests.
	ErrNoParticipants = errors.New("no participants provided")

	// ErrUnknownOwner means the owner id has no user directory entry.
	ErrUnknownOwner = errors.New("owner not found in user directory")

	// ErrDuplicateBooking means the derived id already exists on that
	// date. The availability check makes this unreachable; hitting it is
	// an integrity fault, not a user error.
	ErrDuplicateBooking = errors.New("booking id already exists")

	ErrNotFound = errors.New("booking not found")
)

// RoomUnavailableError is the recoverable business conflict: the room is
// taken for the requested interval. FreeSlots carries the room's currently
// free slots within the working window so the caller can offer a retry.
type RoomUnavailableError struct {
	RoomID    string
	Date      models.Date
	FreeSlots []models.TimeSlot
}

func (e *RoomUnavailableError) Error() string {
	return fmt.Sprintf("room %s is not available on %s for the requested time", e.RoomID, e.Date.Key())
}

// ParticipantConflictError names the participant whose existing commitments
// overlap the requested interval.
type ParticipantConflictError struct {
	ParticipantID string
	Date          models.Date
}

func (e *ParticipantConflictError) Error() string {
	return fmt.Sprintf("participant %s has an overlapping booking on %s", e.ParticipantID, e.Date.Key())
}
