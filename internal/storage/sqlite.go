package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/romangod6/sitemap-gen/internal/models"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Initialize() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS generation_runs (
            id TEXT PRIMARY KEY,
            base_url TEXT NOT NULL,
            output_path TEXT NOT NULL,
            status TEXT NOT NULL,
            written INTEGER NOT NULL DEFAULT 0,
            stats TEXT,
            errors TEXT,
            warnings TEXT,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE INDEX IF NOT EXISTS idx_generation_runs_created_at ON generation_runs(created_at)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}

	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *models.GenerationRun) error {
	query := `
        INSERT INTO generation_runs (id, base_url, output_path, status, written, stats, errors, warnings, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            status = excluded.status,
            written = excluded.written,
            stats = excluded.stats,
            errors = excluded.errors,
            warnings = excluded.warnings
    `

	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return err
	}
	errorsJSON, err := json.Marshal(run.Errors)
	if err != nil {
		return err
	}
	warningsJSON, err := json.Marshal(run.Warnings)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query,
		run.ID.String(),
		run.BaseURL,
		run.OutputPath,
		run.Status,
		run.Written,
		string(statsJSON),
		string(errorsJSON),
		string(warningsJSON),
		run.CreatedAt,
	)

	return err
}

func (s *SQLiteStore) GetRun(ctx context.Context, id uuid.UUID) (*models.GenerationRun, error) {
	query := `
        SELECT id, base_url, output_path, status, written, stats, errors, warnings, created_at
        FROM generation_runs
        WHERE id = ?
    `

	runs, err := s.queryRuns(ctx, query, id.String())
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return runs[0], nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit, offset int) ([]*models.GenerationRun, error) {
	query := `
        SELECT id, base_url, output_path, status, written, stats, errors, warnings, created_at
        FROM generation_runs
        ORDER BY created_at DESC
        LIMIT ? OFFSET ?
    `

	return s.queryRuns(ctx, query, limit, offset)
}

func (s *SQLiteStore) LatestRun(ctx context.Context) (*models.GenerationRun, error) {
	runs, err := s.ListRuns(ctx, 1, 0)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return runs[0], nil
}

func (s *SQLiteStore) queryRuns(ctx context.Context, query string, args ...interface{}) ([]*models.GenerationRun, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.GenerationRun
	for rows.Next() {
		var run models.GenerationRun
		var idStr string
		var statsJSON, errorsJSON, warningsJSON sql.NullString

		err := rows.Scan(
			&idStr,
			&run.BaseURL,
			&run.OutputPath,
			&run.Status,
			&run.Written,
			&statsJSON,
			&errorsJSON,
			&warningsJSON,
			&run.CreatedAt,
		)

		if err != nil {
			return nil, err
		}

		run.ID, _ = uuid.Parse(idStr)
		if statsJSON.Valid {
			json.Unmarshal([]byte(statsJSON.String), &run.Stats)
		}
		if errorsJSON.Valid {
			json.Unmarshal([]byte(errorsJSON.String), &run.Errors)
		}
		if warningsJSON.Valid {
			json.Unmarshal([]byte(warningsJSON.String), &run.Warnings)
		}

		runs = append(runs, &run)
	}

	return runs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
