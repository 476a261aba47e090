package postgres

import (
	"database/sql"

	"github.com/asakaida/monban/internal/repositories"
)

// NewStores creates every PostgreSQL repository over one connection pool
func NewStores(db *sql.DB) repositories.Stores {
	return repositories.Stores{
		RoleLevels:    NewPostgresRoleLevelRepository(db),
		CommandLevels: NewPostgresCommandLevelRepository(db),
		Overrides:     NewPostgresOverrideRepository(db),
		Groups:        NewPostgresGroupRepository(db),
		Rules:         NewPostgresRuleRepository(db),
	}
}
