package models

// Participant is a booking member resolved against the user directory.
// References that cannot be resolved are carried as guest strings on the
// booking instead, so downstream code never sees a bare id.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Booking struct {
	ID           string        `json:"id"`
	Date         Date          `json:"date"`
	Start        TimeOfDay     `json:"start_time"`
	End          TimeOfDay     `json:"end_time"`
	RoomID       string        `json:"room_id"`
	BookedBy     Participant   `json:"booked_by"`
	Participants []Participant `json:"participants"`
	Guests       []string      `json:"guests,omitempty"`
	Status       string        `json:"status"` // confirmed, canceled
	Comment      string        `json:"comment,omitempty"`
}

func (b Booking) Slot() TimeSlot {
	return TimeSlot{Start: b.Start, End: b.End}
}

// Involves reports whether the user owns or attends the booking.
func (b Booking) Involves(userID string) bool {
	if b.BookedBy.ID == userID {
		return true
	}
	for _, p := range b.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// Active reports whether the booking still blocks its slot.
func (b Booking) Active() bool {
	return b.Status != StatusCanceled
}

// BookingID derives the identifier for a booking. The concatenated form
// {roomID}{YYYYMMDD}{HHMM} with zero-padded components is a wire contract:
// external consumers parse ids by position.
func BookingID(roomID string, date Date, start TimeOfDay) string {
	return roomID + date.Compact() + start.Compact()
}
