package handler

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xela07ax/credential-dashboard/internal/domain"
)

// DashboardService Описываем, что нам нужно от сервиса
type DashboardService interface {
	Snapshot() domain.DashboardSnapshot
	Refresh(ctx context.Context) error
}

// CachedSnapshotReader читает зеркало снимка (Redis).
type CachedSnapshotReader interface {
	Load(ctx context.Context) (*domain.DashboardSnapshot, error)
}

type StatsResponse struct {
	Snapshot    domain.DashboardSnapshot `json:"snapshot"`
	SuccessRate int                      `json:"success_rate"`
}

type DashboardHandler struct {
	service DashboardService
	cache   CachedSnapshotReader // nil, если зеркало выключено
	limiter *rate.Limiter        // nil - без ограничений
	logger  *zap.Logger
}

func NewDashboardHandler(s DashboardService, cache CachedSnapshotReader, limiter *rate.Limiter, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: s,
		cache:   cache,
		limiter: limiter,
		logger:  logger.With(zap.String("mod", "dashboard-api")),
	}
}

// GetStats отдает последний опубликованный снимок.
// GET /api/v1/dashboard/stats
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, newStatsResponse(h.service.Snapshot()))
}

// Refresh запускает внеочередной пересчет и ждет его завершения.
// POST /api/v1/dashboard/refresh
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil {
		res := h.limiter.Reserve()
		if delay := res.Delay(); !res.OK() || delay > 0 {
			res.Cancel()
			retryAfter := int(math.Ceil(delay.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			http.Error(w, "manual refresh rate limit exceeded", http.StatusTooManyRequests)
			return
		}
	}

	if err := h.service.Refresh(r.Context()); err != nil {
		switch {
		case errors.Is(err, domain.ErrDataUnavailable),
			errors.Is(err, context.Canceled),
			errors.Is(err, context.DeadlineExceeded):
			h.logger.Warn("manual refresh failed", zap.Error(err))
			http.Error(w, "dashboard data is temporarily unavailable", http.StatusServiceUnavailable)
		default:
			h.logger.Error("manual refresh failed", zap.Error(err))
			http.Error(w, "failed to refresh dashboard", http.StatusInternalServerError)
		}
		return
	}

	// Если параллельно успел завершиться более поздний цикл, отдаем его результат
	h.writeJSON(w, http.StatusOK, newStatsResponse(h.service.Snapshot()))
}

// GetCached показывает, что видят реплики через Redis.
// GET /api/v1/dashboard/snapshot/cached
func (h *DashboardHandler) GetCached(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		http.Error(w, "snapshot mirror is disabled", http.StatusNotFound)
		return
	}

	snap, err := h.cache.Load(r.Context())
	if err != nil {
		h.logger.Error("failed to read cached snapshot", zap.Error(err))
		http.Error(w, "snapshot mirror is unavailable", http.StatusServiceUnavailable)
		return
	}
	if snap == nil {
		http.Error(w, "no cached snapshot", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, newStatsResponse(*snap))
}

func newStatsResponse(snap domain.DashboardSnapshot) StatsResponse {
	return StatsResponse{Snapshot: snap, SuccessRate: snap.SuccessRate()}
}

func (h *DashboardHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to encode response", zap.Error(err))
	}
}
