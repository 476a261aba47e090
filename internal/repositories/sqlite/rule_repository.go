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

// RuleRepository implements repositories.RuleRepository using gorm
type RuleRepository struct {
	db *gorm.DB
}

// NewRuleRepository creates a new gorm rule repository
func NewRuleRepository(db *gorm.DB) repositories.RuleRepository {
	return &RuleRepository{db: db}
}

// Set creates or updates the default of a rule
func (r *RuleRepository) Set(ctx context.Context, guildID string, command string, allowByDefault bool) error {
	rule := &entities.CommandRule{GuildID: guildID, Command: command}
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("invalid rule: %w", err)
	}

	m := &ruleModel{GuildID: guildID, Command: command, AllowDefault: allowByDefault, UpdatedAt: time.Now()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}, {Name: "command"}},
		DoUpdates: clause.AssignmentColumns([]string{"allow_default", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return fmt.Errorf("failed to set rule: %w", err)
	}

	return nil
}

// Get retrieves a rule and its constraints
func (r *RuleRepository) Get(ctx context.Context, guildID string, command string) (*entities.CommandRule, error) {
	var m ruleModel
	err := r.db.WithContext(ctx).Where("guild_id = ? AND command = ?", guildID, command).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	rule := &entities.CommandRule{GuildID: m.GuildID, Command: m.Command, Default: m.AllowDefault, UpdatedAt: m.UpdatedAt}
	if err := r.loadConstraints(r.db.WithContext(ctx), rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (r *RuleRepository) loadConstraints(db *gorm.DB, rule *entities.CommandRule) error {
	var users []ruleUserModel
	if err := db.Where("guild_id = ? AND command = ?", rule.GuildID, rule.Command).Order("user_id").Find(&users).Error; err != nil {
		return fmt.Errorf("failed to read user constraints: %w", err)
	}
	for _, u := range users {
		rule.Users = append(rule.Users, entities.RuleUserConstraint{UserID: u.UserID, Allow: u.Allow})
	}

	var groups []ruleGroupModel
	if err := db.Where("guild_id = ? AND command = ?", rule.GuildID, rule.Command).Order("group_name").Find(&groups).Error; err != nil {
		return fmt.Errorf("failed to read group constraints: %w", err)
	}
	for _, g := range groups {
		rule.Groups = append(rule.Groups, entities.RuleGroupConstraint{Group: g.GroupName, Allow: g.Allow})
	}

	return nil
}

// Delete removes a rule and its constraints
func (r *RuleRepository) Delete(ctx context.Context, guildID string, command string) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		where := "guild_id = ? AND command = ?"
		if err := tx.Where(where, guildID, command).Delete(&ruleUserModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where(where, guildID, command).Delete(&ruleGroupModel{}).Error; err != nil {
			return err
		}
		result := tx.Where(where, guildID, command).Delete(&ruleModel{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete rule: %w", err)
	}
	return deleted, nil
}

// List retrieves every rule of a guild
func (r *RuleRepository) List(ctx context.Context, guildID string) ([]*entities.CommandRule, error) {
	db := r.db.WithContext(ctx)

	var models []ruleModel
	if err := db.Where("guild_id = ?", guildID).Order("command").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}

	rules := make([]*entities.CommandRule, 0, len(models))
	for _, m := range models {
		rule := &entities.CommandRule{GuildID: m.GuildID, Command: m.Command, Default: m.AllowDefault, UpdatedAt: m.UpdatedAt}
		if err := r.loadConstraints(db, rule); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func requireRule(tx *gorm.DB, guildID string, command string) error {
	var count int64
	if err := tx.Model(&ruleModel{}).Where("guild_id = ? AND command = ?", guildID, command).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check rule: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("rule %s in guild %s: %w", command, guildID, entities.ErrNotFound)
	}
	return nil
}

// SetUserConstraint creates or updates a user constraint
func (r *RuleRepository) SetUserConstraint(ctx context.Context, guildID string, command string, constraint entities.RuleUserConstraint) error {
	if constraint.UserID == "" {
		return fmt.Errorf("invalid user constraint: user ID is required")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRule(tx, guildID, command); err != nil {
			return err
		}
		m := &ruleUserModel{GuildID: guildID, Command: command, UserID: constraint.UserID, Allow: constraint.Allow}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "guild_id"}, {Name: "command"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"allow"}),
		}).Create(m).Error
		if err != nil {
			return fmt.Errorf("failed to set user constraint: %w", err)
		}
		return nil
	})
}

// DeleteUserConstraint removes a user constraint
func (r *RuleRepository) DeleteUserConstraint(ctx context.Context, guildID string, command string, userID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("guild_id = ? AND command = ? AND user_id = ?", guildID, command, userID).
		Delete(&ruleUserModel{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete user constraint: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// SetGroupConstraint creates or updates a group constraint
func (r *RuleRepository) SetGroupConstraint(ctx context.Context, guildID string, command string, constraint entities.RuleGroupConstraint) error {
	if constraint.Group == "" {
		return fmt.Errorf("invalid group constraint: group name is required")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRule(tx, guildID, command); err != nil {
			return err
		}
		m := &ruleGroupModel{GuildID: guildID, Command: command, GroupName: constraint.Group, Allow: constraint.Allow}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "guild_id"}, {Name: "command"}, {Name: "group_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"allow"}),
		}).Create(m).Error
		if err != nil {
			return fmt.Errorf("failed to set group constraint: %w", err)
		}
		return nil
	})
}

// DeleteGroupConstraint removes a group constraint
func (r *RuleRepository) DeleteGroupConstraint(ctx context.Context, guildID string, command string, group string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("guild_id = ? AND command = ? AND group_name = ?", guildID, command, group).
		Delete(&ruleGroupModel{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete group constraint: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
