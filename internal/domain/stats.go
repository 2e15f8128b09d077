package domain

import "time"

// DailyPoint - одна корзина дневного ряда.
type DailyPoint struct {
	Date     string `json:"date"`  // ISO дата "2006-01-02"
	Label    string `json:"label"` // Короткая подпись "Jan 2"
	Issued   int    `json:"issued"`
	Verified int    `json:"verified"`
}

// Severity - визуальный тип уведомления.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	// SeverityWarning объявлен для фронта, но текущие правила его не выдают.
	SeverityWarning Severity = "warning"
)

type Notification struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Timestamp   string    `json:"timestamp"` // Дата события "2006-01-02"
	Type        Severity  `json:"type"`
	OccurredAt  time.Time `json:"occurredAt"`
}
