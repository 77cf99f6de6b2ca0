package models

// User is a directory entry keyed by id in the stored user map. Users are
// referenced by bookings and never deleted through booking operations.
type User struct {
	Name     string `json:"name"`
	Nickname string `json:"nickname,omitempty"`
}
