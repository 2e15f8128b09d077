// Package rediscache зеркалит опубликованный снимок дашборда в Redis,
// чтобы реплики консоли и внешние инструменты видели ту же картину.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xela07ax/credential-dashboard/internal/domain"
	"github.com/xela07ax/credential-dashboard/internal/infra"
)

// Client - подмножество redis.Cmdable, которое нужно кэшу.
type Client interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

var _ Client = (*redis.Client)(nil)

type SnapshotCache struct {
	rdb     Client
	key     string
	channel string
	ttl     time.Duration
}

// NewSnapshotCache. ttl <= 0 - ключ без срока жизни.
func NewSnapshotCache(rdb Client, scope string, ttl time.Duration) *SnapshotCache {
	if ttl < 0 {
		ttl = 0
	}
	return &SnapshotCache{
		rdb:     rdb,
		key:     infra.SnapshotKey(scope),
		channel: infra.RedisChanDashboardUpdated,
		ttl:     ttl,
	}
}

// Save кладет снимок в Redis и сигналит подписчикам временем его расчета.
func (c *SnapshotCache) Save(ctx context.Context, snap domain.DashboardSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis: failed to encode snapshot: %w", err)
	}

	if err := c.rdb.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: failed to store snapshot: %w", err)
	}

	// Сигнал вторичен: снимок уже лежит в Redis, подписчики догонят по ключу
	if err := c.rdb.Publish(ctx, c.channel, snap.GeneratedAt.UTC().Format(time.RFC3339)).Err(); err != nil {
		return fmt.Errorf("redis: snapshot stored but signal not delivered: %w", err)
	}
	return nil
}

// Load читает последний зеркальный снимок. (nil, nil), если ключа нет.
func (c *SnapshotCache) Load(ctx context.Context) (*domain.DashboardSnapshot, error) {
	data, err := c.rdb.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis: failed to load snapshot: %w", err)
	}

	var snap domain.DashboardSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("redis: corrupted snapshot at %s: %w", c.key, err)
	}
	return &snap, nil
}
