package rediscache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/credential-dashboard/internal/domain"
	"github.com/xela07ax/credential-dashboard/internal/infra"
)

// Subscriber - часть redis.Client для Pub/Sub.
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// Follower обслуживает реплику без доступа к Postgres: держит в памяти
// последний снимок из зеркала и перечитывает его по сигналу primary-инстанса.
type Follower struct {
	cache   *SnapshotCache
	sub     Subscriber
	logger  *zap.Logger
	current atomic.Pointer[held]

	subscribeRetry time.Duration
}

type held struct {
	snap     domain.DashboardSnapshot
	mirrored bool // false - заглушка до первого чтения зеркала
}

// NewFollower. initial отдается, пока из зеркала не прочитан ни один снимок,
// и заменяется первым же прочитанным независимо от его generatedAt.
func NewFollower(cache *SnapshotCache, sub Subscriber, initial domain.DashboardSnapshot, logger *zap.Logger) *Follower {
	f := &Follower{
		cache:          cache,
		sub:            sub,
		logger:         logger.With(zap.String("mod", "snapshot-follower")),
		subscribeRetry: 5 * time.Second,
	}
	f.current.Store(&held{snap: initial})
	return f
}

// Snapshot возвращает копию последнего принятого снимка.
func (f *Follower) Snapshot() domain.DashboardSnapshot {
	return f.current.Load().snap.Clone()
}

// Refresh перечитывает зеркало. Отсутствие ключа не ошибка: остается прежний снимок.
func (f *Follower) Refresh(ctx context.Context) error {
	snap, err := f.cache.Load(ctx)
	if err != nil {
		return domain.NewDataUnavailable(domain.SourceMirror, err)
	}
	if snap == nil {
		return nil
	}
	f.accept(snap)
	return nil
}

// accept не дает откатиться на более старый снимок из зеркала при гонке сигналов.
func (f *Follower) accept(snap *domain.DashboardSnapshot) {
	next := &held{snap: *snap, mirrored: true}
	for {
		cur := f.current.Load()
		if cur.mirrored && snap.GeneratedAt.Before(cur.snap.GeneratedAt) {
			return
		}
		if f.current.CompareAndSwap(cur, next) {
			return
		}
	}
}

// Listen - живучая подписка на канал обновлений. Блокирует до отмены ctx.
// При каждом (пере)подключении снимок перечитывается целиком, чтобы не
// потерять сигналы, пришедшие во время разрыва.
func (f *Follower) Listen(ctx context.Context) {
	channel := infra.RedisChanDashboardUpdated
	for {
		pubsub := f.sub.Subscribe(ctx, channel)

		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			if ctx.Err() != nil {
				return
			}
			f.logger.Error("failed to subscribe", zap.String("chan", channel), zap.Error(err))
			if !sleepCtx(ctx, f.subscribeRetry) {
				return
			}
			continue
		}

		if err := f.Refresh(ctx); err != nil {
			f.logger.Error("sync failed on reconnect", zap.Error(err))
		}

		ch := pubsub.Channel()

	loop:
		for {
			select {
			case <-ctx.Done():
				_ = pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break loop // Канал закрыт, идем на переподключение
				}
				f.logger.Debug("snapshot update signal", zap.String("generated_at", msg.Payload))
				if err := f.Refresh(ctx); err != nil {
					f.logger.Warn("failed to reload mirrored snapshot", zap.Error(err))
				}
			}
		}

		_ = pubsub.Close()
		if !sleepCtx(ctx, time.Second) {
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
