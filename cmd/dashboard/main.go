package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xela07ax/credential-dashboard/internal/analytics"
	"github.com/xela07ax/credential-dashboard/internal/console/handler"
	"github.com/xela07ax/credential-dashboard/internal/console/server"
	"github.com/xela07ax/credential-dashboard/internal/dashboard"
	"github.com/xela07ax/credential-dashboard/internal/infra"
	"github.com/xela07ax/credential-dashboard/internal/repository/postgres"
	"github.com/xela07ax/credential-dashboard/internal/repository/rediscache"
	"github.com/xela07ax/credential-dashboard/internal/source"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("dashboard stopped with error", zap.Error(err))
	}
}

func run(cfg *infra.Config, logger *zap.Logger) error {
	// Контекст жизненного цикла: SIGINT/SIGTERM отменяет его
	appCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Dashboard.Location()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	analyticsOpts := analytics.Options{Location: loc}

	// 2. Зеркало в Redis: обязательно для follower, опционально для primary
	var cache *rediscache.SnapshotCache
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(appCtx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			// go-redis переподключится сам, стартуем без паники
			logger.Warn("redis is unreachable at startup", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		cancel()

		cache = rediscache.NewSnapshotCache(rdb, cfg.Redis.Scope, cfg.Dashboard.SnapshotTTL)
	} else {
		logger.Info("redis mirror disabled")
	}

	// 3. Ядро
	var svc dashboard.Refreshable
	var dashSvc handler.DashboardService
	switch cfg.Dashboard.Mode {
	case infra.ModeFollower:
		follower := rediscache.NewFollower(cache, rdb, analytics.EmptySnapshot(time.Now(), analyticsOpts), logger)
		go follower.Listen(appCtx)
		svc, dashSvc = follower, follower
		logger.Info("running as follower", zap.String("key", infra.SnapshotKey(cfg.Redis.Scope)))

	default:
		pool, err := postgres.Connect(appCtx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer pool.Close()

		metrics := dashboard.NewMetrics(reg)
		// Источник за предохранителем
		src := source.NewGuarded(postgres.NewSourceRepo(pool), cfg.Source, metrics.SourceBreakerState, logger)

		var sink dashboard.SnapshotSink
		if cache != nil {
			sink = cache
		}
		primary := dashboard.NewService(src, sink, metrics, dashboard.Options{
			AuditLimit: cfg.Dashboard.AuditLimit,
			Analytics:  analyticsOpts,
		}, logger)
		svc, dashSvc = primary, primary
	}

	// В режиме follower таймер страхует от потерянных сигналов Pub/Sub
	refresher := dashboard.NewRefresher(svc, cfg.Dashboard.RefreshInterval, cfg.Dashboard.RefreshTimeout, logger)
	if err := refresher.Start(appCtx); err != nil {
		return err
	}
	defer refresher.Stop()

	// 4. HTTP API
	var limiter *rate.Limiter
	if cfg.Dashboard.ManualRefreshRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Dashboard.ManualRefreshRPS), cfg.Dashboard.ManualRefreshBurst)
	}
	var cached handler.CachedSnapshotReader
	if cache != nil {
		cached = cache
	}
	dashH := handler.NewDashboardHandler(dashSvc, cached, limiter, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.NewConsoleServer(logger, reg, dashH),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("dashboard API started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 5. Graceful Shutdown
	select {
	case <-appCtx.Done():
		logger.Info("dashboard stopping...")
	case err := <-serveErr:
		return err
	}

	refresher.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("dashboard exited properly")
	return nil
}
