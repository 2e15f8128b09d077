package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xela07ax/credential-dashboard/internal/domain"
)

// Querier - часть pgxpool.Pool, нужная репозиториям. Позволяет подменить пул в тестах.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ Querier = (*pgxpool.Pool)(nil)

// SourceRepo - источник данных дашборда поверх PostgreSQL.
type SourceRepo struct {
	pool Querier
}

func NewSourceRepo(pool Querier) *SourceRepo {
	return &SourceRepo{pool: pool}
}

// FetchCredentials отдает все документы. Пагинации нет намеренно:
// агрегатор считает по полной выборке.
func (r *SourceRepo) FetchCredentials(ctx context.Context) ([]domain.Credential, error) {
	query := `SELECT id::text, institution_address, issue_date, revoked FROM credentials`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query credentials: %w", err)
	}
	defer rows.Close()

	// issue_date может быть DATE или timestamptz, pgx отдает DATE как полночь UTC
	dateOnly := columnIsDate(rows.FieldDescriptions(), 2)

	// Инициализируем пустой слайс, чтобы в JSON был [] вместо null
	results := make([]domain.Credential, 0)
	for rows.Next() {
		var (
			c           domain.Credential
			institution pgtype.Text
		)
		if err := rows.Scan(&c.ID, &institution, &c.IssuedAt, &c.Revoked); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan credential: %w", err)
		}
		c.InstitutionID = textPtr(institution)
		c.IssuedDateOnly = dateOnly
		results = append(results, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: credentials iteration error: %w", err)
	}
	return results, nil
}

func columnIsDate(fields []pgconn.FieldDescription, idx int) bool {
	return idx < len(fields) && fields[idx].DataTypeOID == pgtype.DateOID
}

// textPtr маппит NULL в nil, остальное - в указатель на копию строки.
func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	val := t.String
	return &val
}
