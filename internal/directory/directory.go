package directory

import (
	"context"
	"errors"
	"fmt"

	"peregovorka/internal/domain"
	"peregovorka/internal/events"
	"peregovorka/internal/models"

	"github.com/rs/zerolog"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")

	ErrDuplicateRoom = errors.New("duplicate room id")
	ErrRoomNotFound  = errors.New("room not found")
)

// Service manages the room and user directories. Rooms change only through
// these operations; users are registered here and only referenced elsewhere.
type Service struct {
	store  domain.Store
	bus    domain.EventPublisher
	logger *zerolog.Logger
}

func NewService(store domain.Store, bus domain.EventPublisher, logger *zerolog.Logger) *Service {
	return &Service{store: store, bus: bus, logger: logger}
}

func (s *Service) RegisterUser(ctx context.Context, id, name, nickname string) error {
	if id == "" || name == "" {
		return fmt.Errorf("user id and name are required")
	}

	err := s.store.UpdateUsers(ctx, func(users map[string]models.User) (map[string]models.User, error) {
		if _, ok := users[id]; ok {
			return nil, ErrUserExists
		}
		users[id] = models.User{Name: name, Nickname: nickname}
		return users, nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("user_id", id).Msg("user registered")
	if s.bus != nil {
		_ = s.bus.PublishJSON(events.EventUserRegistered, map[string]string{"user_id": id, "name": name})
	}
	return nil
}

func (s *Service) GetUser(ctx context.Context, id string) (models.Participant, error) {
	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return models.Participant{}, err
	}
	u, ok := users[id]
	if !ok {
		return models.Participant{}, ErrUserNotFound
	}
	return models.Participant{ID: id, Name: u.Name}, nil
}

func (s *Service) ListUsers(ctx context.Context) (map[string]models.User, error) {
	return s.store.LoadUsers(ctx)
}

func (s *Service) AddRoom(ctx context.Context, room models.Room) error {
	if room.ID == "" || room.Name == "" {
		return fmt.Errorf("room id and name are required")
	}
	if room.Capacity <= 0 {
		return fmt.Errorf("room capacity must be positive")
	}

	err := s.store.UpdateRooms(ctx, func(rooms []models.Room) ([]models.Room, error) {
		for _, r := range rooms {
			if r.ID == room.ID {
				return nil, ErrDuplicateRoom
			}
		}
		return append(rooms, room), nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("room_id", room.ID).Int("capacity", room.Capacity).Msg("room added")
	return nil
}

func (s *Service) GetRoom(ctx context.Context, id string) (models.Room, error) {
	rooms, err := s.store.LoadRooms(ctx)
	if err != nil {
		return models.Room{}, err
	}
	for _, r := range rooms {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Room{}, ErrRoomNotFound
}

func (s *Service) ListRooms(ctx context.Context) ([]models.Room, error) {
	return s.store.LoadRooms(ctx)
}
