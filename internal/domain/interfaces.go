package domain

import (
	"context"

	"peregovorka/internal/models"
)

// Store is the date-keyed record store behind the booking engine. Booking
// records live in one collection per calendar day; rooms and users are
// single-collection directories.
type Store interface {
	LoadBookings(ctx context.Context, date models.Date) ([]models.Booking, error)
	SaveBookings(ctx context.Context, date models.Date, bookings []models.Booking) error
	// UpdateBookings runs fn on the day's records and persists its result,
	// all inside the per-date critical section. Returning an error from fn
	// aborts the write.
	UpdateBookings(ctx context.Context, date models.Date, fn func([]models.Booking) ([]models.Booking, error)) error
	// ListDates returns every day that has a booking collection, skipping
	// malformed record keys.
	ListDates(ctx context.Context) ([]models.Date, error)

	LoadRooms(ctx context.Context) ([]models.Room, error)
	SaveRooms(ctx context.Context, rooms []models.Room) error
	UpdateRooms(ctx context.Context, fn func([]models.Room) ([]models.Room, error)) error

	LoadUsers(ctx context.Context) (map[string]models.User, error)
	SaveUsers(ctx context.Context, users map[string]models.User) error
	UpdateUsers(ctx context.Context, fn func(map[string]models.User) (map[string]models.User, error)) error

	Close() error
}

// ScheduleCache holds serialized day collections in front of the store.
type ScheduleCache interface {
	GetDay(ctx context.Context, key string) ([]byte, bool, error)
	SetDay(ctx context.Context, key string, payload []byte) error
	InvalidateDay(ctx context.Context, key string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Exporter writes a schedule artifact for a date range and returns its path.
type Exporter interface {
	ExportRange(ctx context.Context, from, to models.Date) (string, error)
}
