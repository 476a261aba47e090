package sqlite

import (
	"testing"

	"github.com/asakaida/monban/internal/infrastructure/database"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// setupTestDB opens a migrated in-memory database
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.NewSQLite(":memory:", zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close database: %v", err)
		}
	})

	if err := AutoMigrate(db.DB); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	return db.DB
}
