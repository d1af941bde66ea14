// Package postgres stores finished reports in PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/madeira-labs/concorrente/internal/intel"
	"github.com/madeira-labs/concorrente/internal/storage"
)

var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS research_reports (
	id TEXT PRIMARY KEY,
	entity_name TEXT NOT NULL,
	niche TEXT NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL,
	report JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_entity ON research_reports (entity_name, generated_at);
`

// New connects to the database and ensures the schema exists.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) Save(ctx context.Context, report *intel.ResearchReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = b.pool.Exec(ctx, `
	INSERT INTO research_reports (id, entity_name, niche, generated_at, report)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO UPDATE SET report = EXCLUDED.report`,
		report.ID, report.EntityName, report.Niche, report.GeneratedAt, body)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (b *postgresBackend) Get(ctx context.Context, id string) (*intel.ResearchReport, error) {
	var body []byte
	err := b.pool.QueryRow(ctx,
		`SELECT report FROM research_reports WHERE id = $1`, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query report: %w", err)
	}

	var report intel.ResearchReport
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", id, err)
	}
	return &report, nil
}

func (b *postgresBackend) List(ctx context.Context, filter storage.Filter) ([]*intel.ResearchReport, error) {
	query := `SELECT report FROM research_reports WHERE 1=1`
	var args []any

	if filter.EntityName != "" {
		args = append(args, filter.EntityName)
		query += fmt.Sprintf(` AND entity_name = $%d`, len(args))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		query += fmt.Sprintf(` AND generated_at >= $%d`, len(args))
	}
	query += ` ORDER BY generated_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []*intel.ResearchReport
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		var report intel.ResearchReport
		if err := json.Unmarshal(body, &report); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		reports = append(reports, &report)
	}
	return reports, rows.Err()
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
