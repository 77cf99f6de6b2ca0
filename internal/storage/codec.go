package storage

import (
	"encoding/json"
	"fmt"

	"peregovorka/internal/models"
)

// Older record files carry "booked_by" and "participants" entries as bare id
// strings instead of resolved objects. The store resolves them against the
// user directory on read, so everything past this boundary sees
// models.Participant or a guest string, never a raw id.

type rawBooking struct {
	ID           string            `json:"id"`
	Date         models.Date       `json:"date"`
	Start        models.TimeOfDay  `json:"start_time"`
	End          models.TimeOfDay  `json:"end_time"`
	RoomID       string            `json:"room_id"`
	BookedBy     json.RawMessage   `json:"booked_by"`
	Participants []json.RawMessage `json:"participants"`
	Guests       []string          `json:"guests"`
	Status       string            `json:"status"`
	Comment      string            `json:"comment"`
}

func decodeBookings(data []byte, users map[string]models.User) ([]models.Booking, error) {
	var raws []rawBooking
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode booking records: %w", err)
	}

	bookings := make([]models.Booking, 0, len(raws))
	for _, r := range raws {
		b := models.Booking{
			ID:      r.ID,
			Date:    r.Date,
			Start:   r.Start,
			End:     r.End,
			RoomID:  r.RoomID,
			Guests:  r.Guests,
			Status:  r.Status,
			Comment: r.Comment,
		}

		owner, ok, err := decodeParticipant(r.BookedBy, users)
		if err != nil {
			return nil, fmt.Errorf("decode booking %s owner: %w", r.ID, err)
		}
		// An unknown owner id keeps its id with an empty name; the
		// reference stays typed either way.
		b.BookedBy = owner
		_ = ok

		for _, rawPart := range r.Participants {
			p, ok, err := decodeParticipant(rawPart, users)
			if err != nil {
				return nil, fmt.Errorf("decode booking %s participant: %w", r.ID, err)
			}
			if !ok && p.Name == "" {
				// Legacy raw id with no directory entry: demote to guest.
				b.Guests = append(b.Guests, "Unknown ID: "+p.ID)
				continue
			}
			b.Participants = append(b.Participants, p)
		}

		bookings = append(bookings, b)
	}
	return bookings, nil
}

// decodeParticipant accepts either a resolved object or a legacy raw id
// string. The boolean reports whether the reference resolved to a directory
// entry or already carried a name.
func decodeParticipant(raw json.RawMessage, users map[string]models.User) (models.Participant, bool, error) {
	if len(raw) == 0 {
		return models.Participant{}, false, nil
	}

	if raw[0] == '"' {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return models.Participant{}, false, err
		}
		if u, ok := users[id]; ok {
			return models.Participant{ID: id, Name: u.Name}, true, nil
		}
		return models.Participant{ID: id}, false, nil
	}

	var p models.Participant
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.Participant{}, false, err
	}
	return p, p.Name != "", nil
}

func encodeBookings(bookings []models.Booking) ([]byte, error) {
	if bookings == nil {
		bookings = []models.Booking{}
	}
	data, err := json.MarshalIndent(bookings, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode booking records: %w", err)
	}
	return data, nil
}
