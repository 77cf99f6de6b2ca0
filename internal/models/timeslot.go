package models

import (
	"fmt"
	"time"
)

// MinutesPerDay bounds valid times of day.
const MinutesPerDay = 24 * 60

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
// Arithmetic may leave the [0, MinutesPerDay] range; Valid reports whether
// the value still names a moment of the same day.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: expected %s", s, ClockLayout)
	}
	return NewTimeOfDay(t.Hour(), t.Minute()), nil
}

// Add shifts by the given number of minutes; negative shifts go backward.
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

// Valid reports whether the value lies within a single day. Midnight at the
// end of the day is allowed as an interval end.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t <= MinutesPerDay
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Compact is the HHMM form embedded in booking ids.
func (t TimeOfDay) Compact() string {
	return fmt.Sprintf("%02d%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid time literal %s", data)
	}
	parsed, err := ParseTimeOfDay(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TimeSlot is a half-open interval [Start, End) within one day.
type TimeSlot struct {
	Start TimeOfDay `json:"start_time"`
	End   TimeOfDay `json:"end_time"`
}

// Overlaps uses the strict half-open test: slots that merely touch at a
// boundary do not overlap.
func (s TimeSlot) Overlaps(o TimeSlot) bool {
	return s.Start < o.End && s.End > o.Start
}

// Valid reports whether the slot lies within a single day with positive
// length.
func (s TimeSlot) Valid() bool {
	return s.Start.Valid() && s.End.Valid() && s.Start < s.End
}

func (s TimeSlot) String() string {
	return s.Start.String() + "-" + s.End.String()
}
