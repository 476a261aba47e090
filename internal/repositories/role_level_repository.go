package repositories

import (
	"context"

	"github.com/asakaida/monban/internal/entities"
)

// RoleLevelRepository defines the interface for role -> level bindings
type RoleLevelRepository interface {
	// Set creates or updates the binding for (guild, role)
	Set(ctx context.Context, binding *entities.RoleLevelBinding) error

	// Get retrieves the binding for (guild, role)
	// Returns nil and no error if the role is not bound
	Get(ctx context.Context, guildID string, roleID string) (*entities.RoleLevelBinding, error)

	// Delete removes the binding. Reports whether a row was deleted.
	Delete(ctx context.Context, guildID string, roleID string) (bool, error)

	// List retrieves every binding of a guild
	List(ctx context.Context, guildID string) ([]*entities.RoleLevelBinding, error)
}

// CommandLevelRepository defines the interface for per-guild command level overrides
type CommandLevelRepository interface {
	// Set creates or updates the level override for (guild, command)
	Set(ctx context.Context, override *entities.CommandLevelOverride) error

	// Get retrieves the override for (guild, command)
	// Returns nil and no error when the command uses its declared level
	Get(ctx context.Context, guildID string, command string) (*entities.CommandLevelOverride, error)

	// Delete removes the override. Reports whether a row was deleted.
	Delete(ctx context.Context, guildID string, command string) (bool, error)

	// List retrieves every override of a guild
	List(ctx context.Context, guildID string) ([]*entities.CommandLevelOverride, error)
}
