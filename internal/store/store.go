package store

import (
	"context"

	"github.com/rajasatyajit/TravelAdvisor/config"
	"github.com/rajasatyajit/TravelAdvisor/internal/logger"
	"github.com/rajasatyajit/TravelAdvisor/internal/models"
)

// Store defines the interface for advisory storage.
type Store interface {
	UpsertAdvisories(ctx context.Context, advisories []models.CleanedAdvisory) error
	QueryAdvisories(ctx context.Context, q models.AdvisoryQuery) ([]models.CleanedAdvisory, error)
	GetAdvisory(ctx context.Context, id string) (*models.CleanedAdvisory, error)
	Health(ctx context.Context) error
}

// Database interface for dependency injection.
type Database interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (interface{}, error)
	QueryRow(ctx context.Context, sql string, args ...any) interface{}
	Health(ctx context.Context) error
	IsConfigured() bool
}

// New selects a backend: PostgreSQL when configured, then the SQLite file
// store, then in-memory as the last resort.
func New(db Database, cfg config.DatabaseConfig) (Store, error) {
	if db.IsConfigured() {
		return NewPostgresStore(db), nil
	}
	if cfg.SQLitePath != "" {
		s, err := NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("Using SQLite store", "path", cfg.SQLitePath)
		return s, nil
	}
	logger.Info("No database configured; using in-memory store")
	return NewInMemoryStore(), nil
}
