package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryScheduleCache is the in-process fallback cache.
type MemoryScheduleCache struct {
	entries sync.Map
	ttl     time.Duration
}

type cacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

func NewMemoryScheduleCache(ttl time.Duration) *MemoryScheduleCache {
	return &MemoryScheduleCache{ttl: ttl}
}

func (c *MemoryScheduleCache) GetDay(ctx context.Context, key string) ([]byte, bool, error) {
	val, ok := c.entries.Load(key)
	if !ok {
		return nil, false, nil
	}
	entry := val.(cacheEntry)
	if c.ttl > 0 && time.Now().After(entry.expiresAt) {
		c.entries.Delete(key)
		return nil, false, nil
	}
	return entry.payload, true, nil
}

func (c *MemoryScheduleCache) SetDay(ctx context.Context, key string, payload []byte) error {
	c.entries.Store(key, cacheEntry{payload: payload, expiresAt: time.Now().Add(c.ttl)})
	return nil
}

func (c *MemoryScheduleCache) InvalidateDay(ctx context.Context, key string) error {
	c.entries.Delete(key)
	return nil
}
