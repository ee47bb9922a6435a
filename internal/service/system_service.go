package service

import (
	"context"
	"database/sql"

	"github.com/davidmns/finsync/internal/database"
)

// SystemService exposes health and schema information about the store.
type SystemService struct {
	db *sql.DB
}

// NewSystemService creates a SystemService.
func NewSystemService(db *sql.DB) *SystemService {
	return &SystemService{db: db}
}

// CheckHealth verifies database connectivity.
func (s *SystemService) CheckHealth() error {
	return database.HealthCheck(s.db)
}

// SchemaVersion returns the migration version recorded in the database.
func (s *SystemService) SchemaVersion(ctx context.Context) (int64, error) {
	return database.SchemaVersion(ctx, s.db)
}
