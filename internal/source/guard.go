// Package source защищает источник данных дашборда предохранителем:
// если база лежит, обновления падают сразу, а не висят до таймаута.
package source

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/xela07ax/credential-dashboard/internal/domain"
	"github.com/xela07ax/credential-dashboard/internal/infra"
)

// DataSource - контракт источника: все документы и последние события аудита (от новых к старым).
type DataSource interface {
	FetchCredentials(ctx context.Context) ([]domain.Credential, error)
	FetchRecentAuditLog(ctx context.Context, limit int) ([]domain.AuditLogEvent, error)
}

// Guarded оборачивает DataSource в Circuit Breaker. Повторов нет:
// их роль играет следующий тик обновления.
type Guarded struct {
	next   DataSource
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewGuarded. state может быть nil, тогда состояние предохранителя не экспортируется.
func NewGuarded(next DataSource, cfg infra.SourceConfig, state prometheus.Gauge, logger *zap.Logger) *Guarded {
	g := &Guarded{
		next:   next,
		logger: logger.With(zap.String("mod", "source")),
	}

	failures := cfg.CBFailures
	if failures == 0 {
		failures = 3
	}

	g.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "dashboard-source",
		MaxRequests: cfg.CBMaxRequests,
		Interval:    cfg.CBInterval,
		Timeout:     cfg.CBTimeout, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Отмена обновления (Stop, таймаут HTTP клиента) - не вина базы
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			g.logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			if state != nil {
				state.Set(breakerStateValue(to))
			}
		},
	})
	return g
}

func (g *Guarded) FetchCredentials(ctx context.Context) ([]domain.Credential, error) {
	res, err := g.cb.Execute(func() (interface{}, error) {
		return g.next.FetchCredentials(ctx)
	})
	if err != nil {
		return nil, domain.NewDataUnavailable(domain.SourceCredentials, err)
	}
	return res.([]domain.Credential), nil
}

func (g *Guarded) FetchRecentAuditLog(ctx context.Context, limit int) ([]domain.AuditLogEvent, error) {
	res, err := g.cb.Execute(func() (interface{}, error) {
		return g.next.FetchRecentAuditLog(ctx, limit)
	})
	if err != nil {
		return nil, domain.NewDataUnavailable(domain.SourceAuditLog, err)
	}
	return res.([]domain.AuditLogEvent), nil
}

// State - текущее состояние предохранителя.
func (g *Guarded) State() gobreaker.State {
	return g.cb.State()
}

// 0 - closed, 0.5 - half-open, 1 - open
func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 0.5
	default:
		return 0
	}
}
