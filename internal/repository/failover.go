package repository

import (
	"context"
	"sync/atomic"
	"time"

	"peregovorka/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverScheduleCache serves from the primary cache until it errors, then
// falls back and periodically retries the primary.
type FailoverScheduleCache struct {
	primary   domain.ScheduleCache
	fallback  domain.ScheduleCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64 // unix nanos of the last failed primary attempt
}

func NewFailoverScheduleCache(primary, fallback domain.ScheduleCache, logger *zerolog.Logger) *FailoverScheduleCache {
	return &FailoverScheduleCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (c *FailoverScheduleCache) primaryUsable() bool {
	if !c.isDown.Load() {
		return true
	}
	if time.Since(time.Unix(0, c.lastCheck.Load())) > recoveryInterval {
		return true
	}
	return false
}

func (c *FailoverScheduleCache) markFailure(err error) {
	c.logger.Error().Err(err).Msg("primary schedule cache failed, falling back to memory")
	c.isDown.Store(true)
	c.lastCheck.Store(time.Now().UnixNano())
}

func (c *FailoverScheduleCache) GetDay(ctx context.Context, key string) ([]byte, bool, error) {
	if c.primaryUsable() {
		payload, hit, err := c.primary.GetDay(ctx, key)
		if err == nil {
			c.isDown.Store(false)
			return payload, hit, nil
		}
		c.markFailure(err)
	}
	return c.fallback.GetDay(ctx, key)
}

func (c *FailoverScheduleCache) SetDay(ctx context.Context, key string, payload []byte) error {
	if c.primaryUsable() {
		err := c.primary.SetDay(ctx, key, payload)
		if err == nil {
			c.isDown.Store(false)
			return nil
		}
		c.markFailure(err)
	}
	return c.fallback.SetDay(ctx, key, payload)
}

func (c *FailoverScheduleCache) InvalidateDay(ctx context.Context, key string) error {
	// Invalidation must reach both sides: a stale entry in either cache
	// would outlive a committed write.
	var primaryErr error
	if c.primaryUsable() {
		primaryErr = c.primary.InvalidateDay(ctx, key)
		if primaryErr == nil {
			c.isDown.Store(false)
		} else {
			c.markFailure(primaryErr)
		}
	}
	if err := c.fallback.InvalidateDay(ctx, key); err != nil {
		return err
	}
	return primaryErr
}
