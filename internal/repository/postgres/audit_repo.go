package postgres

import (
	"context"
	"fmt"

	"github.com/xela07ax/credential-dashboard/internal/domain"
)

// FetchRecentAuditLog отдает не больше limit последних событий, от новых к старым.
// На этот порядок опирается ранжирование уведомлений.
func (r *SourceRepo) FetchRecentAuditLog(ctx context.Context, limit int) ([]domain.AuditLogEvent, error) {
	if limit <= 0 {
		return []domain.AuditLogEvent{}, nil
	}

	query := `
		SELECT id::text, action, created_at, metadata
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query audit logs: %w", err)
	}
	defer rows.Close()

	results := make([]domain.AuditLogEvent, 0, limit)
	for rows.Next() {
		var (
			e        domain.AuditLogEvent
			action   string
			metadata []byte // JSONB, может быть NULL
		)
		if err := rows.Scan(&e.ID, &action, &e.CreatedAt, &metadata); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan audit event: %w", err)
		}
		e.Action = domain.AuditAction(action)
		// Битые метаданные не валят выборку, дальше работают значения по умолчанию
		e.Metadata = domain.ParseAuditMetadata(metadata)
		results = append(results, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: audit logs iteration error: %w", err)
	}
	return results, nil
}
