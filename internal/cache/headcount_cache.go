package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// HeadCountCache keeps per-court head counts in redis for a short TTL.
// Mutations mark the court dirty for a few seconds so a concurrent reader
// cannot repopulate the cache with a count observed before the write landed.
type HeadCountCache struct {
	client         *redisv9.Client
	countTTL       time.Duration
	dirtyMarkerTTL time.Duration
}

func NewHeadCountCache(client *redisv9.Client, countTTL, dirtyMarkerTTL time.Duration) *HeadCountCache {
	if countTTL <= 0 {
		countTTL = 30 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &HeadCountCache{
		client:         client,
		countTTL:       countTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *HeadCountCache) Get(ctx context.Context, courtID string) (int64, bool, error) {
	raw, err := c.client.Get(ctx, c.countKey(courtID)).Result()
	if err == redisv9.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get head count failed: %w", err)
	}

	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse cached head count failed: %w", err)
	}
	return count, true, nil
}

func (c *HeadCountCache) Set(ctx context.Context, courtID string, count int64) error {
	if err := c.client.Set(ctx, c.countKey(courtID), count, c.countTTL).Err(); err != nil {
		return fmt.Errorf("redis set head count failed: %w", err)
	}
	return nil
}

func (c *HeadCountCache) Delete(ctx context.Context, courtID string) error {
	if err := c.client.Del(ctx, c.countKey(courtID)).Err(); err != nil {
		return fmt.Errorf("redis delete head count failed: %w", err)
	}
	return nil
}

func (c *HeadCountCache) MarkDirty(ctx context.Context, courtID string) error {
	if err := c.client.Set(ctx, c.dirtyKey(courtID), "1", c.dirtyMarkerTTL).Err(); err != nil {
		return fmt.Errorf("redis set dirty marker failed: %w", err)
	}
	return nil
}

func (c *HeadCountCache) IsDirty(ctx context.Context, courtID string) (bool, error) {
	exists, err := c.client.Exists(ctx, c.dirtyKey(courtID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func (c *HeadCountCache) countKey(courtID string) string {
	return fmt.Sprintf("court:headcount:%s", courtID)
}

func (c *HeadCountCache) dirtyKey(courtID string) string {
	return fmt.Sprintf("court:headcount:dirty:%s", courtID)
}
