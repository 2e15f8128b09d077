package domain

import (
	"math"
	"time"
)

// DashboardSnapshot - итоговая статистика для дашборда.
// Пересчитывается целиком на каждом обновлении и после публикации не меняется.
type DashboardSnapshot struct {
	TotalCredentials    int            `json:"totalCredentials"`
	TotalIssued         int            `json:"totalIssued"` // Всегда TotalCredentials - RevokedCredentials
	RevokedCredentials  int            `json:"revokedCredentials"`
	TotalVerifications  int            `json:"totalVerifications"` // Только среди последних загруженных событий
	RecentActivity      int            `json:"recentActivity"`     // События за последние 7 дней
	ActiveInstitutions  int            `json:"activeInstitutions"`
	WeeklyData          []DailyPoint   `json:"weeklyData"`
	RecentNotifications []Notification `json:"recentNotifications"`
	GeneratedAt         time.Time      `json:"generatedAt"`
}

// Clone возвращает глубокую копию: потребитель может делать с ней что угодно,
// опубликованный снимок от этого не изменится.
func (s DashboardSnapshot) Clone() DashboardSnapshot {
	out := s
	if s.WeeklyData != nil {
		out.WeeklyData = append([]DailyPoint(nil), s.WeeklyData...)
	}
	if s.RecentNotifications != nil {
		out.RecentNotifications = append([]Notification(nil), s.RecentNotifications...)
	}
	return out
}

// SuccessRate - доля действующих (не отозванных) документов в процентах.
// Для пустой базы возвращает 0.
func (s DashboardSnapshot) SuccessRate() int {
	if s.TotalCredentials == 0 {
		return 0
	}
	return int(math.Round(100 * float64(s.TotalIssued) / float64(s.TotalCredentials)))
}
