package sqlite

import (
	"github.com/asakaida/monban/internal/repositories"
	"gorm.io/gorm"
)

// NewStores creates every gorm repository over one database handle
func NewStores(db *gorm.DB) repositories.Stores {
	return repositories.Stores{
		RoleLevels:    NewRoleLevelRepository(db),
		CommandLevels: NewCommandLevelRepository(db),
		Overrides:     NewOverrideRepository(db),
		Groups:        NewGroupRepository(db),
		Rules:         NewRuleRepository(db),
	}
}
