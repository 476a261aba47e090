package repositories

import (
	"context"

	"github.com/asakaida/monban/internal/entities"
)

// OverrideRepository defines the interface for user/channel/role overrides.
// Each subject kind is stored separately; every lookup is an exact match on
// (guild, subject, command).
type OverrideRepository interface {
	// Add creates the override. If an override already exists for the exact
	// key it is left unchanged and created is false.
	Add(ctx context.Context, override *entities.SubjectOverride) (created bool, err error)

	// Get retrieves the override for the exact key
	// Returns nil and no error if absent
	Get(ctx context.Context, kind entities.SubjectKind, guildID string, subjectID string, command string) (*entities.SubjectOverride, error)

	// Delete removes the override. Reports whether a row was deleted.
	Delete(ctx context.Context, kind entities.SubjectKind, guildID string, subjectID string, command string) (bool, error)

	// List retrieves every override of one kind in a guild
	List(ctx context.Context, kind entities.SubjectKind, guildID string) ([]*entities.SubjectOverride, error)
}
