package domain

import (
	"encoding/json"
	"time"
)

// AuditAction - тип действия в журнале аудита.
// Источник может прислать и другие значения, они просто не участвуют в ранжировании.
type AuditAction string

const (
	ActionIssued   AuditAction = "issued"
	ActionVerified AuditAction = "verified"
	ActionShared   AuditAction = "shared"
)

// DefaultCredentialTitle подставляется, если в метаданных нет названия документа.
const DefaultCredentialTitle = "Academic Credential"

type AuditLogEvent struct {
	ID        string        `json:"id"`
	Action    AuditAction   `json:"action"`
	CreatedAt time.Time     `json:"created_at"`
	Metadata  AuditMetadata `json:"metadata"`
}

// AuditMetadata - типизированная проекция свободного JSONB поля metadata.
// Известные ключи разложены по полям, остальное лежит в Extra как есть.
type AuditMetadata struct {
	Degree string                     `json:"degree,omitempty"` // Название документа (пишется при выпуске)
	Title  string                     `json:"title,omitempty"`
	Extra  map[string]json.RawMessage `json:"-"`
}

// CredentialTitle возвращает человекочитаемое название документа:
// degree -> title -> DefaultCredentialTitle.
func (m AuditMetadata) CredentialTitle() string {
	if m.Degree != "" {
		return m.Degree
	}
	if m.Title != "" {
		return m.Title
	}
	return DefaultCredentialTitle
}

// ParseAuditMetadata никогда не падает: битый JSON или значения неожиданного
// типа дают пустые поля, и дальше работают правила по умолчанию.
func ParseAuditMetadata(raw []byte) AuditMetadata {
	var m AuditMetadata
	if len(raw) == 0 {
		return m
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return m
	}

	m.Degree = stringField(fields, "degree")
	m.Title = stringField(fields, "title")

	delete(fields, "degree")
	delete(fields, "title")
	if len(fields) > 0 {
		m.Extra = fields
	}
	return m
}

func (m *AuditMetadata) UnmarshalJSON(data []byte) error {
	*m = ParseAuditMetadata(data)
	return nil
}

func (m AuditMetadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(m.Extra)+2)
	for k, v := range m.Extra {
		out[k] = v
	}
	if m.Degree != "" {
		b, _ := json.Marshal(m.Degree)
		out["degree"] = b
	}
	if m.Title != "" {
		b, _ := json.Marshal(m.Title)
		out["title"] = b
	}
	return json.Marshal(out)
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
