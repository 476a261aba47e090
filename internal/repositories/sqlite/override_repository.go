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

// OverrideRepository implements repositories.OverrideRepository using gorm
type OverrideRepository struct {
	db *gorm.DB
}

// NewOverrideRepository creates a new gorm override repository
func NewOverrideRepository(db *gorm.DB) repositories.OverrideRepository {
	return &OverrideRepository{db: db}
}

func (r *OverrideRepository) table(ctx context.Context, kind entities.SubjectKind) (*gorm.DB, error) {
	table, ok := overrideTables[kind]
	if !ok {
		return nil, fmt.Errorf("invalid subject kind: %q", kind)
	}
	return r.db.WithContext(ctx).Table(table), nil
}

// Add creates an override unless one already exists for the exact key
func (r *OverrideRepository) Add(ctx context.Context, override *entities.SubjectOverride) (bool, error) {
	if err := override.Validate(); err != nil {
		return false, fmt.Errorf("invalid override: %w", err)
	}
	tx, err := r.table(ctx, override.Kind)
	if err != nil {
		return false, err
	}

	m := &overrideModel{
		GuildID:   override.GuildID,
		SubjectID: override.SubjectID,
		Command:   override.Command,
		Allow:     override.Allow,
		CreatedAt: time.Now(),
	}
	result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(m)
	if result.Error != nil {
		return false, fmt.Errorf("failed to add %s override: %w", override.Kind, result.Error)
	}

	return result.RowsAffected > 0, nil
}

// Get retrieves an override by exact key
func (r *OverrideRepository) Get(ctx context.Context, kind entities.SubjectKind, guildID string, subjectID string, command string) (*entities.SubjectOverride, error) {
	tx, err := r.table(ctx, kind)
	if err != nil {
		return nil, err
	}

	var m overrideModel
	err = tx.Where("guild_id = ? AND subject_id = ? AND command = ?", guildID, subjectID, command).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s override: %w", kind, err)
	}

	return toOverride(kind, &m), nil
}

// Delete removes an override by exact key
func (r *OverrideRepository) Delete(ctx context.Context, kind entities.SubjectKind, guildID string, subjectID string, command string) (bool, error) {
	tx, err := r.table(ctx, kind)
	if err != nil {
		return false, err
	}

	result := tx.Where("guild_id = ? AND subject_id = ? AND command = ?", guildID, subjectID, command).Delete(&overrideModel{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete %s override: %w", kind, result.Error)
	}

	return result.RowsAffected > 0, nil
}

// List retrieves every override of one kind in a guild
func (r *OverrideRepository) List(ctx context.Context, kind entities.SubjectKind, guildID string) ([]*entities.SubjectOverride, error) {
	tx, err := r.table(ctx, kind)
	if err != nil {
		return nil, err
	}

	var models []overrideModel
	if err := tx.Where("guild_id = ?", guildID).Order("command, subject_id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s overrides: %w", kind, err)
	}

	overrides := make([]*entities.SubjectOverride, 0, len(models))
	for i := range models {
		overrides = append(overrides, toOverride(kind, &models[i]))
	}

	return overrides, nil
}

func toOverride(kind entities.SubjectKind, m *overrideModel) *entities.SubjectOverride {
	return &entities.SubjectOverride{
		Kind:      kind,
		GuildID:   m.GuildID,
		SubjectID: m.SubjectID,
		Command:   m.Command,
		Allow:     m.Allow,
		CreatedAt: m.CreatedAt,
	}
}
