package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"peregovorka/internal/models"

	"github.com/rs/zerolog"
)

const (
	roomsFile = "rooms.json"
	usersFile = "users.json"
)

// FileStore keeps one JSON file per calendar day plus the room and user
// directories in a single data directory. Every record key owns a
// lazily-created mutex; write operations hold it across the whole
// read-modify-write span, not just the raw I/O.
type FileStore struct {
	dir    string
	locks  sync.Map // map[string]*sync.Mutex
	logger *zerolog.Logger
}

func NewFileStore(dir string, logger *zerolog.Logger) (*FileStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	logger.Info().Str("data_dir", abs).Msg("file store initialized")
	return &FileStore{dir: abs, logger: logger}, nil
}

func (s *FileStore) lockFor(key string) *sync.Mutex {
	if v, ok := s.locks.Load(key); ok {
		return v.(*sync.Mutex)
	}
	mu := &sync.Mutex{}
	if actual, loaded := s.locks.LoadOrStore(key, mu); loaded {
		return actual.(*sync.Mutex)
	}
	return mu
}

func (s *FileStore) bookingsPath(date models.Date) string {
	return filepath.Join(s.dir, date.Key()+".json")
}

func (s *FileStore) readFile(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return data, true, nil
}

func (s *FileStore) writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *FileStore) LoadBookings(ctx context.Context, date models.Date) ([]models.Booking, error) {
	users, err := s.LoadUsers(ctx)
	if err != nil {
		return nil, err
	}

	mu := s.lockFor(date.Key())
	mu.Lock()
	defer mu.Unlock()

	return s.loadBookingsLocked(date, users)
}

func (s *FileStore) loadBookingsLocked(date models.Date, users map[string]models.User) ([]models.Booking, error) {
	data, ok, err := s.readFile(s.bookingsPath(date))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return decodeBookings(data, users)
}

func (s *FileStore) SaveBookings(ctx context.Context, date models.Date, bookings []models.Booking) error {
	data, err := encodeBookings(bookings)
	if err != nil {
		return err
	}

	mu := s.lockFor(date.Key())
	mu.Lock()
	defer mu.Unlock()

	return s.writeFile(s.bookingsPath(date), data)
}

func (s *FileStore) UpdateBookings(ctx context.Context, date models.Date, fn func([]models.Booking) ([]models.Booking, error)) error {
	users, err := s.LoadUsers(ctx)
	if err != nil {
		return err
	}

	mu := s.lockFor(date.Key())
	mu.Lock()
	defer mu.Unlock()

	bookings, err := s.loadBookingsLocked(date, users)
	if err != nil {
		return err
	}

	updated, err := fn(bookings)
	if err != nil {
		return err
	}

	data, err := encodeBookings(updated)
	if err != nil {
		return err
	}
	return s.writeFile(s.bookingsPath(date), data)
}

func (s *FileStore) ListDates(ctx context.Context) ([]models.Date, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var dates []models.Date
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == roomsFile || name == usersFile {
			continue
		}
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		date, err := models.ParseDate(strings.TrimSuffix(name, ".json"))
		if err != nil {
			// Unrelated files are tolerated in the data dir.
			s.logger.Warn().Str("file", name).Msg("skipping non-date record file")
			continue
		}
		dates = append(dates, date)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

func (s *FileStore) LoadRooms(ctx context.Context) ([]models.Room, error) {
	mu := s.lockFor(roomsFile)
	mu.Lock()
	defer mu.Unlock()
	return s.loadRoomsLocked()
}

func (s *FileStore) loadRoomsLocked() ([]models.Room, error) {
	data, ok, err := s.readFile(filepath.Join(s.dir, roomsFile))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var rooms []models.Room
	if err := json.Unmarshal(data, &rooms); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	return rooms, nil
}

func (s *FileStore) SaveRooms(ctx context.Context, rooms []models.Room) error {
	mu := s.lockFor(roomsFile)
	mu.Lock()
	defer mu.Unlock()
	return s.saveRoomsLocked(rooms)
}

func (s *FileStore) saveRoomsLocked(rooms []models.Room) error {
	if rooms == nil {
		rooms = []models.Room{}
	}
	data, err := json.MarshalIndent(rooms, "", "    ")
	if err != nil {
		return fmt.Errorf("encode rooms: %w", err)
	}
	return s.writeFile(filepath.Join(s.dir, roomsFile), data)
}

func (s *FileStore) UpdateRooms(ctx context.Context, fn func([]models.Room) ([]models.Room, error)) error {
	mu := s.lockFor(roomsFile)
	mu.Lock()
	defer mu.Unlock()

	rooms, err := s.loadRoomsLocked()
	if err != nil {
		return err
	}
	updated, err := fn(rooms)
	if err != nil {
		return err
	}
	return s.saveRoomsLocked(updated)
}

func (s *FileStore) LoadUsers(ctx context.Context) (map[string]models.User, error) {
	mu := s.lockFor(usersFile)
	mu.Lock()
	defer mu.Unlock()
	return s.loadUsersLocked()
}

func (s *FileStore) loadUsersLocked() (map[string]models.User, error) {
	data, ok, err := s.readFile(filepath.Join(s.dir, usersFile))
	if err != nil {
		return nil, err
	}
	if !ok {
		return map[string]models.User{}, nil
	}
	var users map[string]models.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	if users == nil {
		users = map[string]models.User{}
	}
	return users, nil
}

func (s *FileStore) SaveUsers(ctx context.Context, users map[string]models.User) error {
	mu := s.lockFor(usersFile)
	mu.Lock()
	defer mu.Unlock()
	return s.saveUsersLocked(users)
}

func (s *FileStore) saveUsersLocked(users map[string]models.User) error {
	if users == nil {
		users = map[string]models.User{}
	}
	data, err := json.MarshalIndent(users, "", "    ")
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	return s.writeFile(filepath.Join(s.dir, usersFile), data)
}

func (s *FileStore) UpdateUsers(ctx context.Context, fn func(map[string]models.User) (map[string]models.User, error)) error {
	mu := s.lockFor(usersFile)
	mu.Lock()
	defer mu.Unlock()

	users, err := s.loadUsersLocked()
	if err != nil {
		return err
	}
	updated, err := fn(users)
	if err != nil {
		return err
	}
	return s.saveUsersLocked(updated)
}

func (s *FileStore) Close() error {
	return nil
}
