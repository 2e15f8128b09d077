// Package dashboard управляет циклом обновления: забирает обе выборки из источника,
// считает снимок и атомарно публикует его потребителям.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xela07ax/credential-dashboard/internal/analytics"
	"github.com/xela07ax/credential-dashboard/internal/domain"
	"github.com/xela07ax/credential-dashboard/internal/source"
)

const DefaultAuditLimit = 100

// SnapshotSink получает каждый опубликованный снимок (например, зеркало в Redis).
type SnapshotSink interface {
	Save(ctx context.Context, snap domain.DashboardSnapshot) error
}

type Options struct {
	AuditLimit int
	Analytics  analytics.Options
	Now        func() time.Time // Часы, подменяются в тестах
}

type published struct {
	seq  uint64
	snap domain.DashboardSnapshot
}

type Service struct {
	source  source.DataSource
	sink    SnapshotSink
	metrics *Metrics
	logger  *zap.Logger
	opts    Options

	seq     atomic.Uint64 // Номер последнего начатого обновления
	current atomic.Pointer[published]

	sinkMu  sync.Mutex
	sinkSeq uint64

	metricsMu sync.Mutex
}

// NewService. sink и metrics могут быть nil.
func NewService(src source.DataSource, sink SnapshotSink, metrics *Metrics, opts Options, logger *zap.Logger) *Service {
	if opts.AuditLimit <= 0 {
		opts.AuditLimit = DefaultAuditLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	s := &Service{
		source:  src,
		sink:    sink,
		metrics: metrics,
		logger:  logger.Named("dashboard"),
		opts:    opts,
	}
	// До первого успешного обновления показываем нулевой снимок
	s.current.Store(&published{snap: analytics.EmptySnapshot(opts.Now(), opts.Analytics)})
	return s
}

// Snapshot возвращает копию текущего опубликованного снимка.
func (s *Service) Snapshot() domain.DashboardSnapshot {
	return s.current.Load().snap.Clone()
}

// Refresh выполняет один цикл: обе выборки параллельно, ждем обе, считаем, публикуем.
// При ошибке источника ничего не публикуется, остается предыдущий снимок.
// Если за время цикла успело опубликоваться более позднее по старту обновление,
// результат отбрасывается: на экране всегда последнее начатое из завершенных.
func (s *Service) Refresh(ctx context.Context) error {
	seq := s.seq.Add(1)
	log := s.logger.With(
		zap.String("cycle_id", uuid.NewString()),
		zap.Uint64("seq", seq),
	)
	start := time.Now()
	defer func() {
		s.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	}()

	var (
		credentials []domain.Credential
		events      []domain.AuditLogEvent
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.source.FetchCredentials(gctx)
		if err != nil {
			return domain.NewDataUnavailable(domain.SourceCredentials, err)
		}
		credentials = c
		return nil
	})
	g.Go(func() error {
		e, err := s.source.FetchRecentAuditLog(gctx, s.opts.AuditLimit)
		if err != nil {
			return domain.NewDataUnavailable(domain.SourceAuditLog, err)
		}
		events = e
		return nil
	})

	if err := g.Wait(); err != nil {
		return s.fail(log, err)
	}

	if !analytics.IsNewestFirst(events) {
		log.Warn("audit log is not ordered newest-first, ranking over a re-sorted copy",
			zap.Int("events", len(events)))
	}

	snap := analytics.Aggregate(credentials, events, s.opts.Now(), s.opts.Analytics)

	// Отмененный цикл (Stop, таймаут) не должен ничего публиковать
	if err := ctx.Err(); err != nil {
		return s.fail(log, err)
	}

	if !s.publish(seq, snap) {
		s.metrics.StaleRefreshTotal.Inc()
		log.Info("newer refresh already published, dropping result")
		return nil
	}

	s.metrics.RefreshTotal.WithLabelValues("success").Inc()
	s.observePublished()
	log.Debug("dashboard snapshot published",
		zap.Int("credentials", snap.TotalCredentials),
		zap.Int("events", len(events)),
		zap.Duration("took", time.Since(start)))

	s.saveToSink(ctx, log, seq, snap)
	return nil
}

func (s *Service) fail(log *zap.Logger, err error) error {
	if errors.Is(err, context.Canceled) {
		s.metrics.RefreshTotal.WithLabelValues("canceled").Inc()
		log.Debug("dashboard refresh canceled", zap.Error(err))
	} else {
		s.metrics.RefreshTotal.WithLabelValues("failed").Inc()
		log.Error("dashboard refresh failed, keeping previous snapshot", zap.Error(err))
	}
	return fmt.Errorf("dashboard: refresh aborted: %w", err)
}

// publish атомарно заменяет снимок, если seq новее опубликованного.
func (s *Service) publish(seq uint64, snap domain.DashboardSnapshot) bool {
	next := &published{seq: seq, snap: snap}
	for {
		cur := s.current.Load()
		if cur.seq > seq {
			return false
		}
		if s.current.CompareAndSwap(cur, next) {
			return true
		}
	}
}

// observePublished выставляет gauge по текущему опубликованному снимку, не по результату цикла.
func (s *Service) observePublished() {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()
	s.metrics.observeSnapshot(s.current.Load().snap)
}

// saveToSink пишет снимок в зеркало по порядку seq. Ошибка зеркала не откатывает публикацию.
func (s *Service) saveToSink(ctx context.Context, log *zap.Logger, seq uint64, snap domain.DashboardSnapshot) {
	if s.sink == nil {
		return
	}

	s.sinkMu.Lock()
	defer s.sinkMu.Unlock()
	if seq < s.sinkSeq {
		return
	}

	if err := s.sink.Save(ctx, snap.Clone()); err != nil {
		log.Warn("snapshot mirror failed", zap.Error(err))
		return
	}
	s.sinkSeq = seq
}
