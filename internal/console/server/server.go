package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xela07ax/credential-dashboard/internal/console/handler"
)

type ConsoleServer struct {
	router *chi.Mux
	logger *zap.Logger

	// Откуда отдавать /metrics. nil - эндпоинт не регистрируется
	gatherer prometheus.Gatherer

	dashHandler *handler.DashboardHandler // /api/v1/dashboard
}

// NewConsoleServer инициализирует HTTP API дашборда со всеми зависимостями
func NewConsoleServer(logger *zap.Logger, gatherer prometheus.Gatherer, dashH *handler.DashboardHandler) *ConsoleServer {
	s := &ConsoleServer{
		router:      chi.NewRouter(),
		logger:      logger.Named("console-api"),
		gatherer:    gatherer,
		dashHandler: dashH,
	}

	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	// --- 2. Служебные роуты ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	// --- 3. Дашборд ---
	r.Route("/api/v1/dashboard", func(r chi.Router) {
		r.Get("/stats", s.dashHandler.GetStats)
		r.Post("/refresh", s.dashHandler.Refresh)
		r.Get("/snapshot/cached", s.dashHandler.GetCached)
	})
}

// requestLogger пишет одну строку на запрос в zap вместо middleware.Logger
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote", r.RemoteAddr),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			}
			if status >= http.StatusInternalServerError {
				logger.Warn("request", fields...)
				return
			}
			logger.Debug("request", fields...)
		})
	}
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
