package database

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewSQLite(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "in memory", path: ":memory:"},
		{name: "file in new directory", path: filepath.Join(t.TempDir(), "nested", "monban.db")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := NewSQLite(tt.path, zerolog.Nop())
			if err != nil {
				t.Fatalf("NewSQLite() error = %v", err)
			}
			defer db.Close()

			if err := db.HealthCheck(); err != nil {
				t.Errorf("HealthCheck() error = %v", err)
			}
		})
	}
}

func TestSQLite_CloseNil(t *testing.T) {
	if err := (&SQLite{}).Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}
