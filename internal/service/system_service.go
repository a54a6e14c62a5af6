package service

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/ndewijer/invest-tracker/internal/database"
	"github.com/ndewijer/invest-tracker/internal/model"
	"github.com/ndewijer/invest-tracker/internal/version"
)

// SystemService handles system-related operations
type SystemService struct {
	db *sql.DB
}

// NewSystemService creates a new SystemService
func NewSystemService(db *sql.DB) *SystemService {
	return &SystemService{
		db: db,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth(ctx context.Context) error {
	return database.HealthCheck(ctx, s.db)
}

// CheckVersion reports the build version and the applied schema version.
func (s *SystemService) CheckVersion(ctx context.Context) (model.VersionInfo, error) {
	current, pending, err := database.SchemaVersion(ctx, s.db)
	if err != nil {
		return model.VersionInfo{}, err
	}
	return model.VersionInfo{
		AppVersion:      version.AppVersion,
		DbVersion:       strconv.FormatInt(current, 10),
		MigrationNeeded: pending,
	}, nil
}
