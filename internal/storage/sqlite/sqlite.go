// Package sqlite stores finished reports in a single-file SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/madeira-labs/concorrente/internal/intel"
	"github.com/madeira-labs/concorrente/internal/storage"
)

var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

// The report body is stored as a JSON document; the indexed columns exist
// only to serve List filters.
const schema = `
CREATE TABLE IF NOT EXISTS research_reports (
	id TEXT PRIMARY KEY,
	entity_name TEXT NOT NULL,
	niche TEXT NOT NULL,
	generated_at DATETIME NOT NULL,
	report TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_entity ON research_reports (entity_name, generated_at);
`

// New opens (creating if needed) a SQLite-backed report archive.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Save(ctx context.Context, report *intel.ResearchReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = b.db.ExecContext(ctx, `
	INSERT OR REPLACE INTO research_reports (id, entity_name, niche, generated_at, report)
	VALUES (?, ?, ?, ?, ?)`,
		report.ID, report.EntityName, report.Niche, report.GeneratedAt, string(body))
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Get(ctx context.Context, id string) (*intel.ResearchReport, error) {
	var body string
	err := b.db.QueryRowContext(ctx,
		`SELECT report FROM research_reports WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query report: %w", err)
	}

	var report intel.ResearchReport
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", id, err)
	}
	return &report, nil
}

func (b *sqliteBackend) List(ctx context.Context, filter storage.Filter) ([]*intel.ResearchReport, error) {
	query := `SELECT report FROM research_reports WHERE 1=1`
	var args []any

	if filter.EntityName != "" {
		query += ` AND entity_name = ?`
		args = append(args, filter.EntityName)
	}
	if filter.Since != nil {
		query += ` AND generated_at >= ?`
		args = append(args, *filter.Since)
	}
	query += ` ORDER BY generated_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []*intel.ResearchReport
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		var report intel.ResearchReport
		if err := json.Unmarshal([]byte(body), &report); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		reports = append(reports, &report)
	}
	return reports, rows.Err()
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
