package directory

import (
	"context"
	"testing"

	"peregovorka/internal/events"
	"peregovorka/internal/models"
	"peregovorka/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger := zerolog.Nop()
	store, err := storage.NewFileStore(t.TempDir(), &logger)
	require.NoError(t, err)
	return NewService(store, events.NewEventBus(), &logger)
}

func TestRegisterUser(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.RegisterUser(ctx, "101", "Anna", "anna"))

	got, err := s.GetUser(ctx, "101")
	require.NoError(t, err)
	assert.Equal(t, models.Participant{ID: "101", Name: "Anna"}, got)

	err = s.RegisterUser(ctx, "101", "Another Anna", "")
	assert.ErrorIs(t, err, ErrUserExists)

	err = s.RegisterUser(ctx, "", "Nameless", "")
	assert.Error(t, err)

	_, err = s.GetUser(ctx, "999")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListUsers(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	require.NoError(t, s.RegisterUser(ctx, "101", "Anna", ""))
	require.NoError(t, s.RegisterUser(ctx, "102", "Boris", "bob"))

	users, err = s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users["102"].Nickname)
}

func TestAddRoom(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	room := models.Room{ID: "502", Name: "Big", Capacity: 12, Features: []string{"projector"}}
	require.NoError(t, s.AddRoom(ctx, room))

	got, err := s.GetRoom(ctx, "502")
	require.NoError(t, err)
	assert.Equal(t, room, got)

	err = s.AddRoom(ctx, models.Room{ID: "502", Name: "Dup", Capacity: 5})
	assert.ErrorIs(t, err, ErrDuplicateRoom)

	err = s.AddRoom(ctx, models.Room{ID: "503", Name: "Bad", Capacity: 0})
	assert.Error(t, err, "capacity must be positive")

	err = s.AddRoom(ctx, models.Room{ID: "", Name: "Bad", Capacity: 5})
	assert.Error(t, err)

	_, err = s.GetRoom(ctx, "999")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestListRooms(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.AddRoom(ctx, models.Room{ID: "502", Name: "Big", Capacity: 12}))
	require.NoError(t, s.AddRoom(ctx, models.Room{ID: "101", Name: "Small", Capacity: 4}))

	rooms, err := s.ListRooms(ctx)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
}
