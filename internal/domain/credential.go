package domain

import "time"

// Credential - запись о выданном документе (диплом, сертификат) в том виде,
// в каком её отдаёт источник данных. Агрегатор только читает её.
type Credential struct {
	ID            string    `json:"id"`
	InstitutionID *string   `json:"institution_address,omitempty"` // Адрес выпускающей организации, может быть NULL
	IssuedAt      time.Time `json:"issue_date"`
	Revoked       bool      `json:"revoked"`

	// IssuedDateOnly - issue_date пришел из колонки DATE: в IssuedAt полночь UTC,
	// значима только календарная дата.
	IssuedDateOnly bool `json:"-"`
}

// IssueDay - календарный день выдачи в зоне loc. Дата без времени не сдвигается зоной.
func (c Credential) IssueDay(loc *time.Location) (int, time.Month, int) {
	if c.IssuedDateOnly {
		return c.IssuedAt.UTC().Date()
	}
	return c.IssuedAt.In(loc).Date()
}

// Institution возвращает идентификатор организации или пустую строку,
// если он не задан.
func (c Credential) Institution() string {
	if c.InstitutionID == nil {
		return ""
	}
	return *c.InstitutionID
}
