package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/xela07ax/credential-dashboard/internal/domain"
)

type Metrics struct {
	// Результаты циклов обновления: success, failed, canceled
	RefreshTotal *prometheus.CounterVec

	// Длительность цикла (обе выборки + расчет)
	RefreshDuration prometheus.Histogram

	// Обновления, которые завершились позже более нового и были отброшены
	StaleRefreshTotal prometheus.Counter

	// Unix время расчета опубликованного снимка
	SnapshotGenerated prometheus.Gauge

	// Скалярные поля опубликованного снимка
	SnapshotValue *prometheus.GaugeVec

	// Состояние предохранителя источника (0 - closed, 0.5 - half-open, 1 - open)
	SourceBreakerState prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Без реестра метрики пишутся в локальный, никуда не подключенный
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RefreshTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_refresh_total",
			Help: "Total number of dashboard refresh cycles by result.",
		}, []string{"result"}),

		RefreshDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "dashboard_refresh_duration_seconds",
			Help:    "Histogram of dashboard refresh latencies.",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),

		StaleRefreshTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "dashboard_stale_refresh_total",
			Help: "Refresh results dropped because a newer refresh was already published.",
		}),

		SnapshotGenerated: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_snapshot_generated_timestamp_seconds",
			Help: "Unix time the published snapshot was computed at.",
		}),

		SnapshotValue: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "dashboard_snapshot_value",
			Help: "Scalar counters of the published dashboard snapshot.",
		}, []string{"field"}),

		SourceBreakerState: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_source_breaker_state",
			Help: "Current state of the data source circuit breaker (0=closed, 0.5=half-open, 1=open).",
		}),
	}
}

func (m *Metrics) observeSnapshot(s domain.DashboardSnapshot) {
	m.SnapshotGenerated.Set(float64(s.GeneratedAt.Unix()))
	m.SnapshotValue.WithLabelValues("total_credentials").Set(float64(s.TotalCredentials))
	m.SnapshotValue.WithLabelValues("total_issued").Set(float64(s.TotalIssued))
	m.SnapshotValue.WithLabelValues("revoked_credentials").Set(float64(s.RevokedCredentials))
	m.SnapshotValue.WithLabelValues("total_verifications").Set(float64(s.TotalVerifications))
	m.SnapshotValue.WithLabelValues("recent_activity").Set(float64(s.RecentActivity))
	m.SnapshotValue.WithLabelValues("active_institutions").Set(float64(s.ActiveInstitutions))
	m.SnapshotValue.WithLabelValues("success_rate").Set(float64(s.SuccessRate()))
}
