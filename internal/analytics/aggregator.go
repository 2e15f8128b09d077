// Package analytics считает статистику дашборда из двух выборок:
// документов и последних событий аудита. Все функции чистые, входные
// слайсы не изменяются, повторный вызов с тем же now дает тот же результат.
package analytics

import (
	"time"

	"github.com/xela07ax/credential-dashboard/internal/domain"
)

const (
	WindowDays   = 7 // Длина дневного ряда weeklyData, не настраивается
	LookbackDays = 7 // Окно recentActivity
)

// Options задают календарь расчета. Нулевое значение - локальная зона процесса.
type Options struct {
	Location *time.Location
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.Local
	}
	return o
}

// Aggregate собирает снимок дашборда. events ожидаются отсортированными от новых
// к старым (как их отдает источник), см. RankNotifications.
// nil или пустые входы дают нулевые счетчики, а не ошибку.
func Aggregate(credentials []domain.Credential, events []domain.AuditLogEvent, now time.Time, opts Options) domain.DashboardSnapshot {
	opts = opts.withDefaults()

	// 1. Счетчики по документам
	revoked := 0
	institutions := make(map[string]struct{})
	for _, c := range credentials {
		if c.Revoked {
			revoked++
		}
		if id := c.Institution(); id != "" {
			institutions[id] = struct{}{}
		}
	}

	// 2. Счетчики по журналу аудита
	cutoff := now.In(opts.Location).AddDate(0, 0, -LookbackDays)
	verifications, recent := 0, 0
	for _, e := range events {
		if e.Action == domain.ActionVerified {
			verifications++
		}
		// Строго позже границы
		if e.CreatedAt.After(cutoff) {
			recent++
		}
	}

	total := len(credentials)
	return domain.DashboardSnapshot{
		TotalCredentials:    total,
		TotalIssued:         total - revoked,
		RevokedCredentials:  revoked,
		TotalVerifications:  verifications,
		RecentActivity:      recent,
		ActiveInstitutions:  len(institutions),
		WeeklyData:          BuildDailySeries(credentials, events, now, opts),
		RecentNotifications: RankNotifications(events, opts.Location),
		GeneratedAt:         now,
	}
}

// EmptySnapshot - снимок до первого успешного обновления: нули и пустой ряд на 7 дней.
func EmptySnapshot(now time.Time, opts Options) domain.DashboardSnapshot {
	return Aggregate(nil, nil, now, opts)
}
