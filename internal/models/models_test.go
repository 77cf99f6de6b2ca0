package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeOfDay(t *testing.T) {
	t.Run("Parse", func(t *testing.T) {
		tod, err := ParseTimeOfDay("09:30")
		require.NoError(t, err)
		assert.Equal(t, NewTimeOfDay(9, 30), tod)
		assert.Equal(t, "09:30", tod.String())
		assert.Equal(t, "0930", tod.Compact())
	})

	t.Run("ParseInvalid", func(t *testing.T) {
		_, err := ParseTimeOfDay("25:00")
		assert.Error(t, err)
		_, err = ParseTimeOfDay("nonsense")
		assert.Error(t, err)
	})

	t.Run("AddAndValid", func(t *testing.T) {
		tod := NewTimeOfDay(23, 30)
		shifted := tod.Add(60)
		assert.False(t, shifted.Valid())

		back := NewTimeOfDay(0, 30).Add(-60)
		assert.False(t, back.Valid())
	})

	t.Run("JSONRoundTrip", func(t *testing.T) {
		raw, err := json.Marshal(NewTimeOfDay(16, 5))
		require.NoError(t, err)
		assert.Equal(t, `"16:05"`, string(raw))

		var tod TimeOfDay
		require.NoError(t, json.Unmarshal([]byte(`"08:00"`), &tod))
		assert.Equal(t, NewTimeOfDay(8, 0), tod)
	})
}

func TestTimeSlotOverlaps(t *testing.T) {
	base := TimeSlot{Start: NewTimeOfDay(9, 0), End: NewTimeOfDay(10, 0)}

	tests := []struct {
		name  string
		other TimeSlot
		want  bool
	}{
		{"identical", TimeSlot{NewTimeOfDay(9, 0), NewTimeOfDay(10, 0)}, true},
		{"contained", TimeSlot{NewTimeOfDay(9, 15), NewTimeOfDay(9, 45)}, true},
		{"straddles start", TimeSlot{NewTimeOfDay(8, 30), NewTimeOfDay(9, 30)}, true},
		{"straddles end", TimeSlot{NewTimeOfDay(9, 30), NewTimeOfDay(10, 30)}, true},
		{"touching before", TimeSlot{NewTimeOfDay(8, 0), NewTimeOfDay(9, 0)}, false},
		{"touching after", TimeSlot{NewTimeOfDay(10, 0), NewTimeOfDay(11, 0)}, false},
		{"disjoint", TimeSlot{NewTimeOfDay(12, 0), NewTimeOfDay(13, 0)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base))
		})
	}
}

func TestDate(t *testing.T) {
	d, err := ParseDate("2025-02-05")
	require.NoError(t, err)
	assert.Equal(t, "2025-02-05", d.Key())
	assert.Equal(t, "20250205", d.Compact())
	assert.Equal(t, "2025-02-06", d.AddDays(1).Key())
	assert.True(t, d.Before(d.AddDays(1)))

	_, err = ParseDate("05.02.2025")
	assert.Error(t, err)

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-02-05"`, string(raw))

	var back Date
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, d.Equal(back))
}

func TestBookingID(t *testing.T) {
	id := BookingID("502", NewDate(2025, time.February, 5), NewTimeOfDay(16, 30))
	assert.Equal(t, "502202502051630", id)

	// Zero padding keeps the id parseable by position.
	id = BookingID("7", NewDate(2025, time.January, 9), NewTimeOfDay(9, 5))
	assert.Equal(t, "7202501090905", id)
}

func TestBookingInvolves(t *testing.T) {
	b := Booking{
		BookedBy:     Participant{ID: "101", Name: "Anna"},
		Participants: []Participant{{ID: "102", Name: "Boris"}},
	}
	assert.True(t, b.Involves("101"))
	assert.True(t, b.Involves("102"))
	assert.False(t, b.Involves("103"))
}

func TestBookingActive(t *testing.T) {
	assert.True(t, Booking{Status: StatusConfirmed}.Active())
	assert.False(t, Booking{Status: StatusCanceled}.Active())
}
