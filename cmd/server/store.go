package main

import (
	"fmt"
	"path/filepath"

	"github.com/asakaida/monban/internal/infrastructure/config"
	"github.com/asakaida/monban/internal/infrastructure/database"
	"github.com/asakaida/monban/internal/repositories"
	"github.com/asakaida/monban/internal/repositories/postgres"
	"github.com/asakaida/monban/internal/repositories/sqlite"
	"github.com/asakaida/monban/pkg/cache"
	"github.com/asakaida/monban/pkg/cache/gocache"
	"github.com/asakaida/monban/pkg/cache/memorycache"
	"github.com/rs/zerolog"
)

// store bundles the repositories with the connection behind them
type store struct {
	stores repositories.Stores
	health database.HealthChecker
	close  func() error
}

func (s *store) Close() error {
	return s.close()
}

func openStore(cfg *config.DatabaseConfig, log zerolog.Logger) (*store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pg, err := database.NewPostgres(cfg)
		if err != nil {
			return nil, err
		}

		root, err := config.ProjectRoot()
		if err != nil {
			pg.Close()
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
		if err := pg.RunMigrations(filepath.Join(root, database.MigrationsDir)); err != nil {
			pg.Close()
			return nil, err
		}

		log.Info().
			Str("user", cfg.User).
			Str("host", cfg.Host).
			Int("port", cfg.Port).
			Str("database", cfg.Database).
			Msg("Connected to database")
		return &store{stores: postgres.NewStores(pg.DB), health: pg, close: pg.Close}, nil

	case config.DriverSQLite:
		db, err := database.NewSQLite(cfg.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		if err := sqlite.AutoMigrate(db.DB); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate sqlite: %w", err)
		}

		log.Info().Str("path", cfg.SQLitePath).Msg("Opened sqlite database")
		return &store{stores: sqlite.NewStores(db.DB), health: db, close: db.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}
}

func newCache(cfg *config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case config.CacheBackendGoCache:
		return gocache.New(&gocache.Config{
			DefaultTTL:      cfg.TTL(),
			CleanupInterval: cfg.TTL(),
			EnableMetrics:   cfg.Metrics,
		}), nil
	default:
		return memorycache.New(&memorycache.Config{
			MaxSizeBytes:  cfg.MaxMemoryBytes,
			DefaultTTL:    cfg.TTL(),
			EnableMetrics: cfg.Metrics,
		})
	}
}
