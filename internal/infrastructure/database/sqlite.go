package database

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLite represents an embedded SQLite database accessed through gorm
type SQLite struct {
	DB *gorm.DB
}

// NewSQLite opens (and creates if needed) the SQLite database at path.
// Use ":memory:" for a throwaway database.
func NewSQLite(path string, log zerolog.Logger) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	gormLogger := logger.New(
		stdlog.New(log, "", 0),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	// SQLite serializes writers; a single connection also keeps ":memory:"
	// databases from splitting per connection.
	sqlDB.SetMaxOpenConns(1)

	return &SQLite{DB: db}, nil
}

// HealthCheck checks if the database connection is healthy
func (s *SQLite) HealthCheck() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}

// Close closes the database connection
func (s *SQLite) Close() error {
	if s.DB == nil {
		return nil
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
