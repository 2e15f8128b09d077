package dashboard

/*
Refresher - явный хэндл периодического обновления дашборда.

- Владелец запускает его через Start и обязан вызвать Stop при завершении:
  глобального таймера нет, после Stop снимки больше не публикуются.
- Первый цикл стартует сразу, дальше по тикеру. Тик не ждет предыдущий цикл:
  каждый идет в своей горутине, а порядок публикации решает Service (по seq).
- Stop отменяет контекст, дожидается выхода цикла и всех начатых обновлений.
*/

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultRefreshInterval = 30 * time.Second
	DefaultRefreshTimeout  = 10 * time.Second
)

var ErrRefresherStarted = errors.New("dashboard refresher already started")

// Refreshable - то, что умеет выполнить один цикл обновления.
type Refreshable interface {
	Refresh(ctx context.Context) error
}

type Refresher struct {
	target   Refreshable
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup // Цикл тикера + все начатые обновления
}

func NewRefresher(target Refreshable, interval, timeout time.Duration, logger *zap.Logger) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}
	return &Refresher{
		target:   target,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With(zap.String("mod", "refresher")),
	}
}

// Start запускает фоновый цикл. Повторный вызов (в том числе после Stop) - ошибка.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return ErrRefresherStarted
	}
	r.started = true

	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.loop(ctx)

	r.logger.Info("dashboard refresher started",
		zap.Duration("interval", r.interval),
		zap.Duration("timeout", r.timeout))
	return nil
}

// Stop останавливает тикер и ждет завершения начатых обновлений. Идемпотентен.
func (r *Refresher) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	r.wg.Wait()
	r.logger.Info("dashboard refresher stopped")
}

func (r *Refresher) loop(ctx context.Context) {
	defer r.wg.Done()

	r.spawn(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.spawn(ctx)
		}
	}
}

// spawn вызывается только из loop, пока тот держит свой слот в wg,
// поэтому Add не гоняется с Wait.
func (r *Refresher) spawn(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		rctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		// Ошибка уже залогирована сервисом, следующий тик - и есть повтор
		_ = r.target.Refresh(rctx)
	}()
}
