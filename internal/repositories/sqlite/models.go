package sqlite

import (
	"fmt"
	"time"

	"github.com/asakaida/monban/internal/entities"
	"gorm.io/gorm"
)

type roleLevelModel struct {
	GuildID   string `gorm:"primaryKey;size:32"`
	RoleID    string `gorm:"primaryKey;size:32"`
	Level     string `gorm:"size:16;not null"`
	UpdatedAt time.Time
}

func (roleLevelModel) TableName() string { return "role_levels" }

type commandLevelModel struct {
	GuildID   string `gorm:"primaryKey;size:32"`
	Command   string `gorm:"primaryKey;size:128"`
	Level     string `gorm:"size:16;not null"`
	UpdatedAt time.Time
}

func (commandLevelModel) TableName() string { return "command_levels" }

// overrideModel is stored in one table per subject kind, see overrideTables
type overrideModel struct {
	GuildID   string `gorm:"primaryKey;size:32"`
	SubjectID string `gorm:"primaryKey;size:32"`
	Command   string `gorm:"primaryKey;size:128"`
	Allow     bool   `gorm:"not null"`
	CreatedAt time.Time
}

var overrideTables = map[entities.SubjectKind]string{
	entities.SubjectUser:    "user_overrides",
	entities.SubjectChannel: "channel_overrides",
	entities.SubjectRole:    "role_overrides",
}

type groupModel struct {
	GuildID   string `gorm:"primaryKey;size:32"`
	Name      string `gorm:"primaryKey;size:64"`
	Parent    string `gorm:"size:64"`
	RoleID    string `gorm:"size:32;index:idx_permission_groups_role"`
	CreatedAt time.Time
}

func (groupModel) TableName() string { return "permission_groups" }

func (m *groupModel) toEntity() *entities.PermissionGroup {
	return &entities.PermissionGroup{
		GuildID:   m.GuildID,
		Name:      m.Name,
		Parent:    m.Parent,
		RoleID:    m.RoleID,
		CreatedAt: m.CreatedAt,
	}
}

type ruleModel struct {
	GuildID      string `gorm:"primaryKey;size:32"`
	Command      string `gorm:"primaryKey;size:128"`
	AllowDefault bool   `gorm:"not null"`
	UpdatedAt    time.Time
}

func (ruleModel) TableName() string { return "command_rules" }

type ruleUserModel struct {
	GuildID string `gorm:"primaryKey;size:32"`
	Command string `gorm:"primaryKey;size:128"`
	UserID  string `gorm:"primaryKey;size:32"`
	Allow   bool   `gorm:"not null"`
}

func (ruleUserModel) TableName() string { return "rule_user_constraints" }

type ruleGroupModel struct {
	GuildID   string `gorm:"primaryKey;size:32"`
	Command   string `gorm:"primaryKey;size:128"`
	GroupName string `gorm:"primaryKey;size:64"`
	Allow     bool   `gorm:"not null"`
}

func (ruleGroupModel) TableName() string { return "rule_group_constraints" }

// AutoMigrate creates every table used by the SQLite repositories
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&roleLevelModel{},
		&commandLevelModel{},
		&groupModel{},
		&ruleModel{},
		&ruleUserModel{},
		&ruleGroupModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}

	for _, table := range overrideTables {
		if err := db.Table(table).AutoMigrate(&overrideModel{}); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", table, err)
		}
	}

	return nil
}

func parseLevel(name string) (entities.Level, error) {
	level, err := entities.ParseLevel(name)
	if err != nil {
		return entities.LevelEveryone, fmt.Errorf("corrupt level column: %w", err)
	}
	return level, nil
}
