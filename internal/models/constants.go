package models

const (
	StatusConfirmed = "confirmed"
	StatusCanceled  = "canceled"
)

const (
	// DefaultIntervalMinutes is the slot length used when a plan request
	// does not specify one.
	DefaultIntervalMinutes = 60

	// MaxAlternativeShifts bounds the nearby-window search: up to three
	// interval-sized shifts in each direction.
	MaxAlternativeShifts = 3
)
