package repositories

import (
	"context"

	"github.com/asakaida/monban/internal/entities"
)

// GroupRepository defines the interface for the legacy permission group forest
type GroupRepository interface {
	// Add creates or updates the group (guild, name).
	// Returns entities.ErrInvalidParentGroup if Parent is set but no such
	// group exists in the guild.
	Add(ctx context.Context, group *entities.PermissionGroup) error

	// Get retrieves a group by name
	// Returns nil and no error if absent
	Get(ctx context.Context, guildID string, name string) (*entities.PermissionGroup, error)

	// GetByRole retrieves the group bound to roleID
	// Returns nil and no error if no group binds the role
	GetByRole(ctx context.Context, guildID string, roleID string) (*entities.PermissionGroup, error)

	// Delete removes only the named group; children keep their dangling parent.
	// Reports whether a row was deleted.
	Delete(ctx context.Context, guildID string, name string) (bool, error)

	// List retrieves every group of a guild
	List(ctx context.Context, guildID string) ([]*entities.PermissionGroup, error)
}
