package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/romangod6/sitemap-gen/internal/models"
)

type Store interface {
	Initialize() error
	Close() error

	// Generation run operations
	SaveRun(ctx context.Context, run *models.GenerationRun) error
	GetRun(ctx context.Context, id uuid.UUID) (*models.GenerationRun, error)
	ListRuns(ctx context.Context, limit, offset int) ([]*models.GenerationRun, error)
	LatestRun(ctx context.Context) (*models.GenerationRun, error)
}

// Open connects to the run history database for driver ("sqlite3" or
// "postgres") and creates its schema.
func Open(driver, url string) (Store, error) {
	var (
		store Store
		err   error
	)
	switch driver {
	case "sqlite3", "sqlite":
		store, err = NewSQLiteStore(url)
	case "postgres", "postgresql":
		store, err = NewPostgresStore(url)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("error connecting to %s: %w", driver, err)
	}

	if err := store.Initialize(); err != nil {
		store.Close()
		return nil, fmt.Errorf("error initializing %s store: %w", driver, err)
	}
	return store, nil
}
