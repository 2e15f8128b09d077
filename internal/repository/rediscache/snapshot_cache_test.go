package rediscache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xela07ax/credential-dashboard/internal/domain"
	"github.com/xela07ax/credential-dashboard/internal/infra"
)

type memClient struct {
	data       map[string]string
	ttls       map[string]time.Duration
	published  map[string][]string
	setErr     error
	publishErr error
}

func newMemClient() *memClient {
	return &memClient{
		data:      make(map[string]string),
		ttls:      make(map[string]time.Duration),
		published: make(map[string][]string),
	}
}

func (m *memClient) Set(_ context.Context, key string, value interface{}, exp time.Duration) *redis.StatusCmd {
	if m.setErr != nil {
		return redis.NewStatusResult("", m.setErr)
	}
	m.data[key] = string(value.([]byte))
	m.ttls[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (m *memClient) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memClient) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	if m.publishErr != nil {
		return redis.NewIntResult(0, m.publishErr)
	}
	m.published[channel] = append(m.published[channel], message.(string))
	return redis.NewIntResult(1, nil)
}

func testSnapshot() domain.DashboardSnapshot {
	return domain.DashboardSnapshot{
		TotalCredentials:   3,
		TotalIssued:        2,
		RevokedCredentials: 1,
		WeeklyData:         []domain.DailyPoint{{Date: "2024-03-10", Label: "Mar 10", Issued: 3}},
		RecentNotifications: []domain.Notification{
			{ID: "1", Title: "CREDENTIAL ISSUED", Type: domain.SeveritySuccess},
		},
		GeneratedAt: time.Date(2024, time.March, 10, 15, 30, 0, 0, time.UTC),
	}
}

func TestSnapshotCache_SaveAndLoad(t *testing.T) {
	mem := newMemClient()
	cache := NewSnapshotCache(mem, "", time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Save(ctx, testSnapshot()))
	assert.Equal(t, time.Minute, mem.ttls[infra.RedisKeyDashboardSnapshot])
	assert.Equal(t, []string{"2024-03-10T15:30:00Z"}, mem.published[infra.RedisChanDashboardUpdated])

	got, err := cache.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, testSnapshot(), *got)
}

func TestSnapshotCache_ScopedKey(t *testing.T) {
	mem := newMemClient()
	cache := NewSnapshotCache(mem, "staging", 0)

	require.NoError(t, cache.Save(context.Background(), testSnapshot()))
	_, ok := mem.data["credo:dashboard:staging:snapshot"]
	assert.True(t, ok)
}

func TestSnapshotCache_LoadMiss(t *testing.T) {
	got, err := NewSnapshotCache(newMemClient(), "", time.Minute).Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSnapshotCache_LoadCorrupted(t *testing.T) {
	mem := newMemClient()
	mem.data[infra.RedisKeyDashboardSnapshot] = "{not json"

	_, err := NewSnapshotCache(mem, "", time.Minute).Load(context.Background())
	assert.Error(t, err)
}

func TestSnapshotCache_Errors(t *testing.T) {
	boom := errors.New("READONLY You can't write against a read only replica")

	mem := newMemClient()
	mem.setErr = boom
	err := NewSnapshotCache(mem, "", time.Minute).Save(context.Background(), testSnapshot())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, mem.published)

	mem = newMemClient()
	mem.publishErr = boom
	err = NewSnapshotCache(mem, "", time.Minute).Save(context.Background(), testSnapshot())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, mem.data, infra.RedisKeyDashboardSnapshot)
}
