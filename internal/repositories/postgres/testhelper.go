package postgres

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/asakaida/monban/internal/infrastructure/config"
	"github.com/asakaida/monban/internal/infrastructure/database"
	_ "github.com/lib/pq"
)

// SetupTestDB creates a test database connection and runs migrations.
// The test is skipped when no PostgreSQL instance is configured or reachable.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Initialize test config
	if err := config.InitConfig("test"); err != nil {
		t.Fatalf("Failed to init config: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Skipf("PostgreSQL not configured: %v", err)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		t.Skipf("DB_DRIVER is %s", cfg.Database.Driver)
	}

	// Connect to database
	pg, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		t.Skipf("PostgreSQL not reachable: %v", err)
	}

	// Run migrations
	if err := pg.RunMigrations("../../../" + database.MigrationsDir); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return pg.DB
}

// CleanupTestDB closes the database connection and cleans up test data
func CleanupTestDB(t *testing.T, db *sql.DB) {
	t.Helper()

	// Constraint tables first
	tables := []string{
		"rule_user_constraints",
		"rule_group_constraints",
		"command_rules",
		"permission_groups",
		"user_overrides",
		"channel_overrides",
		"role_overrides",
		"command_levels",
		"role_levels",
	}
	for _, table := range tables {
		_, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("Warning: Failed to clean up table %s: %v", table, err)
		}
	}

	if err := db.Close(); err != nil {
		t.Logf("Warning: Failed to close database: %v", err)
	}
}
