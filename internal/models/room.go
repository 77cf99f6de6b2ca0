package models

// Room is a directory entry. Rooms change only through explicit management
// operations, never as a side effect of booking.
type Room struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Capacity int      `json:"capacity"`
	Features []string `json:"features,omitempty"`
}
