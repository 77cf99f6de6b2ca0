package storage

import (
	"context"
	"encoding/json"

	"peregovorka/internal/domain"
	"peregovorka/internal/models"

	"github.com/rs/zerolog"
)

// CachedStore puts a read-through day-record cache in front of another Store.
// Cache entries hold the resolved, encoded form of a day's bookings and are
// invalidated inside every write path, so a hit can never serve a record
// older than the latest committed write. Cache failures degrade to the inner
// store, never to an error.
type CachedStore struct {
	domain.Store
	cache  domain.ScheduleCache
	logger *zerolog.Logger
}

func NewCachedStore(inner domain.Store, cache domain.ScheduleCache, logger *zerolog.Logger) *CachedStore {
	return &CachedStore{Store: inner, cache: cache, logger: logger}
}

func (s *CachedStore) LoadBookings(ctx context.Context, date models.Date) ([]models.Booking, error) {
	key := date.Key()

	payload, hit, err := s.cache.GetDay(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("date", key).Msg("day cache read failed")
	} else if hit {
		var bookings []models.Booking
		if err := json.Unmarshal(payload, &bookings); err == nil {
			return bookings, nil
		}
		s.logger.Warn().Str("date", key).Msg("day cache entry corrupt, dropping")
		_ = s.cache.InvalidateDay(ctx, key)
	}

	bookings, err := s.Store.LoadBookings(ctx, date)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(bookings); err == nil {
		if err := s.cache.SetDay(ctx, key, data); err != nil {
			s.logger.Warn().Err(err).Str("date", key).Msg("day cache write failed")
		}
	}
	return bookings, nil
}

func (s *CachedStore) SaveBookings(ctx context.Context, date models.Date, bookings []models.Booking) error {
	if err := s.Store.SaveBookings(ctx, date, bookings); err != nil {
		return err
	}
	s.invalidate(ctx, date)
	return nil
}

func (s *CachedStore) UpdateBookings(ctx context.Context, date models.Date, fn func([]models.Booking) ([]models.Booking, error)) error {
	if err := s.Store.UpdateBookings(ctx, date, fn); err != nil {
		// fn may have aborted the write, but a failed attempt is also the
		// cheapest moment to drop a possibly stale entry.
		s.invalidate(ctx, date)
		return err
	}
	s.invalidate(ctx, date)
	return nil
}

func (s *CachedStore) invalidate(ctx context.Context, date models.Date) {
	if err := s.cache.InvalidateDay(ctx, date.Key()); err != nil {
		s.logger.Warn().Err(err).Str("date", date.Key()).Msg("day cache invalidation failed")
	}
}
