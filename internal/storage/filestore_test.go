package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"peregovorka/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	logger := zerolog.Nop()
	store, err := NewFileStore(t.TempDir(), &logger)
	require.NoError(t, err)
	return store
}

func testBooking(date models.Date, roomID string, startHour int) models.Booking {
	start := models.NewTimeOfDay(startHour, 0)
	return models.Booking{
		ID:       models.BookingID(roomID, date, start),
		Date:     date,
		Start:    start,
		End:      start.Add(60),
		RoomID:   roomID,
		BookedBy: models.Participant{ID: "101", Name: "Anna"},
		Participants: []models.Participant{
			{ID: "102", Name: "Boris"},
		},
		Status: models.StatusConfirmed,
	}
}

func TestFileStoreBookingsRoundTrip(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()
	date := models.NewDate(2025, time.March, 10)

	loaded, err := store.LoadBookings(ctx, date)
	require.NoError(t, err)
	assert.Empty(t, loaded, "missing day file reads as empty")

	b := testBooking(date, "502", 10)
	require.NoError(t, store.SaveBookings(ctx, date, []models.Booking{b}))

	loaded, err = store.LoadBookings(ctx, date)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, b.ID, loaded[0].ID)
	assert.Equal(t, b.BookedBy, loaded[0].BookedBy)
	assert.Equal(t, b.Participants, loaded[0].Participants)
}

func TestFileStoreLegacyRawIDResolution(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()
	date := models.NewDate(2025, time.March, 11)

	require.NoError(t, store.SaveUsers(ctx, map[string]models.User{
		"101": {Name: "Anna"},
		"102": {Name: "Boris"},
	}))

	legacy := `[
        {
            "id": "502202503111000",
            "date": "2025-03-11",
            "start_time": "10:00",
            "end_time": "11:00",
            "room_id": "502",
            "booked_by": "101",
            "participants": ["102", "999"],
            "status": "confirmed"
        }
    ]`
	path := filepath.Join(store.dir, date.Key()+".json")
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	loaded, err := store.LoadBookings(ctx, date)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	b := loaded[0]
	assert.Equal(t, models.Participant{ID: "101", Name: "Anna"}, b.BookedBy)
	require.Len(t, b.Participants, 1)
	assert.Equal(t, models.Participant{ID: "102", Name: "Boris"}, b.Participants[0])
	assert.Equal(t, []string{"Unknown ID: 999"}, b.Guests)
}

func TestFileStoreListDatesSkipsJunk(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	d1 := models.NewDate(2025, time.March, 12)
	d2 := models.NewDate(2025, time.March, 5)
	require.NoError(t, store.SaveBookings(ctx, d1, nil))
	require.NoError(t, store.SaveBookings(ctx, d2, nil))
	require.NoError(t, store.SaveRooms(ctx, []models.Room{{ID: "502", Name: "Big", Capacity: 10}}))
	require.NoError(t, os.WriteFile(filepath.Join(store.dir, "notes.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(store.dir, "readme.txt"), []byte("x"), 0o644))

	dates, err := store.ListDates(ctx)
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.Equal(t, d2.Key(), dates[0].Key(), "sorted ascending")
	assert.Equal(t, d1.Key(), dates[1].Key())
}

func TestFileStoreUpdateBookingsAbortKeepsFile(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()
	date := models.NewDate(2025, time.March, 13)

	b := testBooking(date, "502", 9)
	require.NoError(t, store.SaveBookings(ctx, date, []models.Booking{b}))

	wantErr := assert.AnError
	err := store.UpdateBookings(ctx, date, func(day []models.Booking) ([]models.Booking, error) {
		return nil, wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	loaded, err := store.LoadBookings(ctx, date)
	require.NoError(t, err)
	assert.Len(t, loaded, 1, "aborted update must not touch the file")
}

func TestFileStoreConcurrentUpdates(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()
	date := models.NewDate(2025, time.March, 14)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(hour int) {
			defer wg.Done()
			_ = store.UpdateBookings(ctx, date, func(day []models.Booking) ([]models.Booking, error) {
				start := models.NewTimeOfDay(0, hour)
				return append(day, models.Booking{
					ID:       models.BookingID("502", date, start),
					Date:     date,
					Start:    start,
					End:      start.Add(1),
					RoomID:   "502",
					BookedBy: models.Participant{ID: "101", Name: "Anna"},
					Status:   models.StatusConfirmed,
				}), nil
			})
		}(i)
	}
	wg.Wait()

	loaded, err := store.LoadBookings(ctx, date)
	require.NoError(t, err)
	assert.Len(t, loaded, writers, "every locked read-modify-write must land")
}

func TestFileStoreUsersDefaultEmpty(t *testing.T) {
	store := newTestFileStore(t)
	users, err := store.LoadUsers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}
