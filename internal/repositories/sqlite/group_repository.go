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

// GroupRepository implements repositories.GroupRepository using gorm
type GroupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new gorm group repository
func NewGroupRepository(db *gorm.DB) repositories.GroupRepository {
	return &GroupRepository{db: db}
}

// Add creates or updates a group after checking that its parent exists
func (r *GroupRepository) Add(ctx context.Context, group *entities.PermissionGroup) error {
	if err := group.Validate(); err != nil {
		return fmt.Errorf("invalid group: %w", err)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if group.Parent != "" {
			var count int64
			if err := tx.Model(&groupModel{}).
				Where("guild_id = ? AND name = ?", group.GuildID, group.Parent).
				Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check parent group: %w", err)
			}
			if count == 0 {
				return fmt.Errorf("%w: %s", entities.ErrInvalidParentGroup, group.Parent)
			}
		}

		m := &groupModel{
			GuildID:   group.GuildID,
			Name:      group.Name,
			Parent:    group.Parent,
			RoleID:    group.RoleID,
			CreatedAt: time.Now(),
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "guild_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"parent", "role_id"}),
		}).Create(m).Error
		if err != nil {
			return fmt.Errorf("failed to add group: %w", err)
		}
		return nil
	})
}

// Get retrieves a group by name
func (r *GroupRepository) Get(ctx context.Context, guildID string, name string) (*entities.PermissionGroup, error) {
	return r.first(r.db.WithContext(ctx).Where("guild_id = ? AND name = ?", guildID, name))
}

// GetByRole retrieves the group bound to a role
func (r *GroupRepository) GetByRole(ctx context.Context, guildID string, roleID string) (*entities.PermissionGroup, error) {
	if roleID == "" {
		return nil, nil
	}
	return r.first(r.db.WithContext(ctx).Where("guild_id = ? AND role_id = ?", guildID, roleID).Order("name"))
}

func (r *GroupRepository) first(query *gorm.DB) (*entities.PermissionGroup, error) {
	var m groupModel
	err := query.First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return m.toEntity(), nil
}

// Delete removes a single group; children are not touched
func (r *GroupRepository) Delete(ctx context.Context, guildID string, name string) (bool, error) {
	result := r.db.WithContext(ctx).Where("guild_id = ? AND name = ?", guildID, name).Delete(&groupModel{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete group: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// List retrieves every group of a guild
func (r *GroupRepository) List(ctx context.Context, guildID string) ([]*entities.PermissionGroup, error) {
	var models []groupModel
	if err := r.db.WithContext(ctx).Where("guild_id = ?", guildID).Order("name").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	groups := make([]*entities.PermissionGroup, 0, len(models))
	for i := range models {
		groups = append(groups, models[i].toEntity())
	}
	return groups, nil
}
