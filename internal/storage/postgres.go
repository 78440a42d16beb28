package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/romangod6/sitemap-gen/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Initialize() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS generation_runs (
            id UUID PRIMARY KEY,
            base_url VARCHAR(2048) NOT NULL,
            output_path TEXT NOT NULL,
            status VARCHAR(32) NOT NULL,
            written BOOLEAN NOT NULL DEFAULT FALSE,
            stats JSONB,
            errors TEXT[],
            warnings TEXT[],
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE INDEX IF NOT EXISTS idx_generation_runs_created_at ON generation_runs(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_generation_runs_status ON generation_runs(status)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}

	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *models.GenerationRun) error {
	query := `
        INSERT INTO generation_runs (id, base_url, output_path, status, written, stats, errors, warnings, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (id) DO UPDATE SET
            status = EXCLUDED.status,
            written = EXCLUDED.written,
            stats = EXCLUDED.stats,
            errors = EXCLUDED.errors,
            warnings = EXCLUDED.warnings
    `

	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query,
		run.ID,
		run.BaseURL,
		run.OutputPath,
		run.Status,
		run.Written,
		statsJSON,
		pq.Array(run.Errors),
		pq.Array(run.Warnings),
		run.CreatedAt,
	)

	return err
}

func (s *PostgresStore) GetRun(ctx context.Context, id uuid.UUID) (*models.GenerationRun, error) {
	query := `
        SELECT id, base_url, output_path, status, written, stats, errors, warnings, created_at
        FROM generation_runs
        WHERE id = $1
    `

	runs, err := s.queryRuns(ctx, query, id)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return runs[0], nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit, offset int) ([]*models.GenerationRun, error) {
	query := `
        SELECT id, base_url, output_path, status, written, stats, errors, warnings, created_at
        FROM generation_runs
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2
    `

	return s.queryRuns(ctx, query, limit, offset)
}

func (s *PostgresStore) LatestRun(ctx context.Context) (*models.GenerationRun, error) {
	runs, err := s.ListRuns(ctx, 1, 0)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return runs[0], nil
}

func (s *PostgresStore) queryRuns(ctx context.Context, query string, args ...interface{}) ([]*models.GenerationRun, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.GenerationRun
	for rows.Next() {
		run := &models.GenerationRun{}
		var statsJSON []byte

		err := rows.Scan(
			&run.ID,
			&run.BaseURL,
			&run.OutputPath,
			&run.Status,
			&run.Written,
			&statsJSON,
			pq.Array(&run.Errors),
			pq.Array(&run.Warnings),
			&run.CreatedAt,
		)

		if err != nil {
			return nil, err
		}

		if len(statsJSON) > 0 {
			json.Unmarshal(statsJSON, &run.Stats)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
