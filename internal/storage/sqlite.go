package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"peregovorka/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const (
	kindBookings  = "bookings"
	kindDirectory = "directory"

	keyRooms = "rooms"
	keyUsers = "users"
)

// SQLiteStore keeps the same key-value-by-date records as FileStore in a
// single sqlite table, for deployments that prefer one database file over a
// directory of JSON files. The locking discipline is identical: the per-key
// mutex spans the whole read-modify-write of a write operation.
type SQLiteStore struct {
	db     *sql.DB
	locks  sync.Map
	logger *zerolog.Logger
}

func NewSQLiteStore(path string, logger *zerolog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	query := `CREATE TABLE IF NOT EXISTS records (
        kind       TEXT NOT NULL,
        key        TEXT NOT NULL,
        payload    TEXT NOT NULL,
        updated_at DATETIME NOT NULL,
        PRIMARY KEY (kind, key)
    )`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("create records table: %w", err)
	}

	logger.Info().Str("db_path", path).Msg("sqlite store initialized")
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) lockFor(key string) *sync.Mutex {
	if v, ok := s.locks.Load(key); ok {
		return v.(*sync.Mutex)
	}
	mu := &sync.Mutex{}
	if actual, loaded := s.locks.LoadOrStore(key, mu); loaded {
		return actual.(*sync.Mutex)
	}
	return mu
}

func (s *SQLiteStore) loadPayload(ctx context.Context, kind, key string) ([]byte, bool, error) {
	var payload string
	query := `SELECT payload FROM records WHERE kind = ? AND key = ?`
	err := s.db.QueryRowContext(ctx, query, kind, key).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load record %s/%s: %w", kind, key, err)
	}
	return []byte(payload), true, nil
}

func (s *SQLiteStore) savePayload(ctx context.Context, kind, key string, payload []byte) error {
	query := `INSERT INTO records (kind, key, payload, updated_at) VALUES (?, ?, ?, ?)
              ON CONFLICT(kind, key) DO UPDATE SET
                payload = excluded.payload,
                updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, query, kind, key, string(payload), time.Now()); err != nil {
		return fmt.Errorf("save record %s/%s: %w", kind, key, err)
	}
	return nil
}

func (s *SQLiteStore) LoadBookings(ctx context.Context, date models.Date) ([]models.Booking, error) {
	users, err := s.LoadUsers(ctx)
	if err != nil {
		return nil, err
	}

	mu := s.lockFor(date.Key())
	mu.Lock()
	defer mu.Unlock()

	return s.loadBookingsLocked(ctx, date, users)
}

func (s *SQLiteStore) loadBookingsLocked(ctx context.Context, date models.Date, users map[string]models.User) ([]models.Booking, error) {
	payload, ok, err := s.loadPayload(ctx, kindBookings, date.Key())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return decodeBookings(payload, users)
}

func (s *SQLiteStore) SaveBookings(ctx context.Context, date models.Date, bookings []models.Booking) error {
	data, err := encodeBookings(bookings)
	if err != nil {
		return err
	}

	mu := s.lockFor(date.Key())
	mu.Lock()
	defer mu.Unlock()

	return s.savePayload(ctx, kindBookings, date.Key(), data)
}

func (s *SQLiteStore) UpdateBookings(ctx context.Context, date models.Date, fn func([]models.Booking) ([]models.Booking, error)) error {
	users, err := s.LoadUsers(ctx)
	if err != nil {
		return err
	}

	mu := s.lockFor(date.Key())
	mu.Lock()
	defer mu.Unlock()

	bookings, err := s.loadBookingsLocked(ctx, date, users)
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
	return s.savePayload(ctx, kindBookings, date.Key(), data)
}

func (s *SQLiteStore) ListDates(ctx context.Context) ([]models.Date, error) {
	query := `SELECT key FROM records WHERE kind = ? ORDER BY key ASC`
	rows, err := s.db.QueryContext(ctx, query, kindBookings)
	if err != nil {
		return nil, fmt.Errorf("list booking dates: %w", err)
	}
	defer rows.Close()

	var dates []models.Date
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan booking date: %w", err)
		}
		date, err := models.ParseDate(key)
		if err != nil {
			s.logger.Warn().Str("key", key).Msg("skipping malformed booking record key")
			continue
		}
		dates = append(dates, date)
	}
	return dates, rows.Err()
}

func (s *SQLiteStore) LoadRooms(ctx context.Context) ([]models.Room, error) {
	mu := s.lockFor(keyRooms)
	mu.Lock()
	defer mu.Unlock()
	return s.loadRoomsLocked(ctx)
}

func (s *SQLiteStore) loadRoomsLocked(ctx context.Context) ([]models.Room, error) {
	payload, ok, err := s.loadPayload(ctx, kindDirectory, keyRooms)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var rooms []models.Room
	if err := json.Unmarshal(payload, &rooms); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	return rooms, nil
}

func (s *SQLiteStore) SaveRooms(ctx context.Context, rooms []models.Room) error {
	mu := s.lockFor(keyRooms)
	mu.Lock()
	defer mu.Unlock()
	return s.saveRoomsLocked(ctx, rooms)
}

func (s *SQLiteStore) saveRoomsLocked(ctx context.Context, rooms []models.Room) error {
	if rooms == nil {
		rooms = []models.Room{}
	}
	data, err := json.Marshal(rooms)
	if err != nil {
		return fmt.Errorf("encode rooms: %w", err)
	}
	return s.savePayload(ctx, kindDirectory, keyRooms, data)
}

func (s *SQLiteStore) UpdateRooms(ctx context.Context, fn func([]models.Room) ([]models.Room, error)) error {
	mu := s.lockFor(keyRooms)
	mu.Lock()
	defer mu.Unlock()

	rooms, err := s.loadRoomsLocked(ctx)
	if err != nil {
		return err
	}
	updated, err := fn(rooms)
	if err != nil {
		return err
	}
	return s.saveRoomsLocked(ctx, updated)
}

func (s *SQLiteStore) LoadUsers(ctx context.Context) (map[string]models.User, error) {
	mu := s.lockFor(keyUsers)
	mu.Lock()
	defer mu.Unlock()
	return s.loadUsersLocked(ctx)
}

func (s *SQLiteStore) loadUsersLocked(ctx context.Context) (map[string]models.User, error) {
	payload, ok, err := s.loadPayload(ctx, kindDirectory, keyUsers)
	if err != nil {
		return nil, err
	}
	if !ok {
		return map[string]models.User{}, nil
	}
	var users map[string]models.User
	if err := json.Unmarshal(payload, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	if users == nil {
		users = map[string]models.User{}
	}
	return users, nil
}

func (s *SQLiteStore) SaveUsers(ctx context.Context, users map[string]models.User) error {
	mu := s.lockFor(keyUsers)
	mu.Lock()
	defer mu.Unlock()
	return s.saveUsersLocked(ctx, users)
}

func (s *SQLiteStore) saveUsersLocked(ctx context.Context, users map[string]models.User) error {
	if users == nil {
		users = map[string]models.User{}
	}
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	return s.savePayload(ctx, kindDirectory, keyUsers, data)
}

func (s *SQLiteStore) UpdateUsers(ctx context.Context, fn func(map[string]models.User) (map[string]models.User, error)) error {
	mu := s.lockFor(keyUsers)
	mu.Lock()
	defer mu.Unlock()

	users, err := s.loadUsersLocked(ctx)
	if err != nil {
		return err
	}
	updated, err := fn(users)
	if err != nil {
		return err
	}
	return s.saveUsersLocked(ctx, updated)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
