package dashboard

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingTarget struct {
	calls atomic.Int32
	block bool
	seen  atomic.Int32 // Сколько раз увидели отмену контекста
}

func (c *countingTarget) Refresh(ctx context.Context) error {
	c.calls.Add(1)
	if c.block {
		<-ctx.Done()
		c.seen.Add(1)
		return ctx.Err()
	}
	return nil
}

func TestRefresher_RunsImmediatelyAndOnInterval(t *testing.T) {
	target := &countingTarget{}
	r := NewRefresher(target, 10*time.Millisecond, time.Second, zap.NewNop())

	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()

	assert.Eventually(t, func() bool { return target.calls.Load() >= 1 }, time.Second, time.Millisecond)
	assert.Eventually(t, func() bool { return target.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestRefresher_StopHaltsRefreshes(t *testing.T) {
	target := &countingTarget{}
	r := NewRefresher(target, 5*time.Millisecond, time.Second, zap.NewNop())

	require.NoError(t, r.Start(context.Background()))
	assert.Eventually(t, func() bool { return target.calls.Load() >= 2 }, time.Second, time.Millisecond)

	r.Stop()
	after := target.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, target.calls.Load())

	// Повторный Stop безопасен
	r.Stop()
}

func TestRefresher_StopCancelsInFlight(t *testing.T) {
	target := &countingTarget{block: true}
	r := NewRefresher(target, time.Hour, time.Hour, zap.NewNop())

	require.NoError(t, r.Start(context.Background()))
	assert.Eventually(t, func() bool { return target.calls.Load() == 1 }, time.Second, time.Millisecond)

	done := make(chan struct{})
	go func() {
		r.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	assert.EqualValues(t, 1, target.seen.Load())
}

func TestRefresher_TimeoutBoundsRefresh(t *testing.T) {
	target := &countingTarget{block: true}
	r := NewRefresher(target, time.Hour, 20*time.Millisecond, zap.NewNop())

	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()

	assert.Eventually(t, func() bool { return target.seen.Load() == 1 }, time.Second, time.Millisecond)
}

func TestRefresher_StartTwice(t *testing.T) {
	r := NewRefresher(&countingTarget{}, time.Hour, time.Second, zap.NewNop())

	require.NoError(t, r.Start(context.Background()))
	assert.ErrorIs(t, r.Start(context.Background()), ErrRefresherStarted)

	r.Stop()
	assert.ErrorIs(t, r.Start(context.Background()), ErrRefresherStarted)
}

func TestRefresher_StopWithoutStart(t *testing.T) {
	r := NewRefresher(&countingTarget{}, 0, 0, zap.NewNop())
	r.Stop()

	assert.Equal(t, DefaultRefreshInterval, r.interval)
	assert.Equal(t, DefaultRefreshTimeout, r.timeout)
}
