package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asakaida/monban/internal/entities"
	"github.com/asakaida/monban/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoleLevelRepository implements repositories.RoleLevelRepository using gorm
type RoleLevelRepository struct {
	db *gorm.DB
}

// NewRoleLevelRepository creates a new gorm role level repository
func NewRoleLevelRepository(db *gorm.DB) repositories.RoleLevelRepository {
	return &RoleLevelRepository{db: db}
}

// Set creates or updates a role binding
func (r *RoleLevelRepository) Set(ctx context.Context, binding *entities.RoleLevelBinding) error {
	if err := binding.Validate(); err != nil {
		return fmt.Errorf("invalid role level binding: %w", err)
	}

	m := &roleLevelModel{
		GuildID:   binding.GuildID,
		RoleID:    binding.RoleID,
		Level:     binding.Level.String(),
		UpdatedAt: time.Now(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}, {Name: "role_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"level", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return fmt.Errorf("failed to set role level: %w", err)
	}

	return nil
}

// Get retrieves a role binding
func (r *RoleLevelRepository) Get(ctx context.Context, guildID string, roleID string) (*entities.RoleLevelBinding, error) {
	var m roleLevelModel
	err := r.db.WithContext(ctx).Where("guild_id = ? AND role_id = ?", guildID, roleID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role level: %w", err)
	}

	level, err := parseLevel(m.Level)
	if err != nil {
		return nil, err
	}
	return &entities.RoleLevelBinding{GuildID: m.GuildID, RoleID: m.RoleID, Level: level, UpdatedAt: m.UpdatedAt}, nil
}

// Delete removes a role binding
func (r *RoleLevelRepository) Delete(ctx context.Context, guildID string, roleID string) (bool, error) {
	result := r.db.WithContext(ctx).Where("guild_id = ? AND role_id = ?", guildID, roleID).Delete(&roleLevelModel{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete role level: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// List retrieves every role binding of a guild
func (r *RoleLevelRepository) List(ctx context.Context, guildID string) ([]*entities.RoleLevelBinding, error) {
	var models []roleLevelModel
	if err := r.db.WithContext(ctx).Where("guild_id = ?", guildID).Order("role_id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list role levels: %w", err)
	}

	bindings := make([]*entities.RoleLevelBinding, 0, len(models))
	for _, m := range models {
		level, err := parseLevel(m.Level)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, &entities.RoleLevelBinding{
			GuildID:   m.GuildID,
			RoleID:    m.RoleID,
			Level:     level,
			UpdatedAt: m.UpdatedAt,
		})
	}

	return bindings, nil
}

// CommandLevelRepository implements repositories.CommandLevelRepository using gorm
type CommandLevelRepository struct {
	db *gorm.DB
}

// NewCommandLevelRepository creates a new gorm command level repository
func NewCommandLevelRepository(db *gorm.DB) repositories.CommandLevelRepository {
	return &CommandLevelRepository{db: db}
}

// Set creates or updates a command level override
func (r *CommandLevelRepository) Set(ctx context.Context, override *entities.CommandLevelOverride) error {
	if err := override.Validate(); err != nil {
		return fmt.Errorf("invalid command level override: %w", err)
	}

	m := &commandLevelModel{
		GuildID:   override.GuildID,
		Command:   override.Command,
		Level:     override.Level.String(),
		UpdatedAt: time.Now(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}, {Name: "command"}},
		DoUpdates: clause.AssignmentColumns([]string{"level", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return fmt.Errorf("failed to set command level: %w", err)
	}

	return nil
}

// Get retrieves a command level override
func (r *CommandLevelRepository) Get(ctx context.Context, guildID string, command string) (*entities.CommandLevelOverride, error) {
	var m commandLevelModel
	err := r.db.WithContext(ctx).Where("guild_id = ? AND command = ?", guildID, command).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get command level: %w", err)
	}

	level, err := parseLevel(m.Level)
	if err != nil {
		return nil, err
	}
	return &entities.CommandLevelOverride{GuildID: m.GuildID, Command: m.Command, Level: level, UpdatedAt: m.UpdatedAt}, nil
}

// Delete removes a command level override
func (r *CommandLevelRepository) Delete(ctx context.Context, guildID string, command string) (bool, error) {
	result := r.db.WithContext(ctx).Where("guild_id = ? AND command = ?", guildID, command).Delete(&commandLevelModel{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete command level: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// List retrieves every command level override of a guild
func (r *CommandLevelRepository) List(ctx context.Context, guildID string) ([]*entities.CommandLevelOverride, error) {
	var models []commandLevelModel
	if err := r.db.WithContext(ctx).Where("guild_id = ?", guildID).Order("command").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list command levels: %w", err)
	}

	overrides := make([]*entities.CommandLevelOverride, 0, len(models))
	for _, m := range models {
		level, err := parseLevel(m.Level)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, &entities.CommandLevelOverride{
			GuildID:   m.GuildID,
			Command:   m.Command,
			Level:     level,
			UpdatedAt: m.UpdatedAt,
		})
	}

	return overrides, nil
}
