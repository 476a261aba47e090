package repositories

import (
	"context"

	"github.com/asakaida/monban/internal/entities"
)

// RuleRepository defines the interface for the legacy command rule table
type RuleRepository interface {
	// Set creates or updates the rule default for (guild, command).
	// Existing constraints are kept.
	Set(ctx context.Context, guildID string, command string, allowByDefault bool) error

	// Get retrieves the rule together with its user and group constraints
	// Returns nil and no error if absent
	Get(ctx context.Context, guildID string, command string) (*entities.CommandRule, error)

	// Delete removes the rule and its constraints. Reports whether a row was deleted.
	Delete(ctx context.Context, guildID string, command string) (bool, error)

	// List retrieves every rule of a guild, constraints included
	List(ctx context.Context, guildID string) ([]*entities.CommandRule, error)

	// SetUserConstraint creates or updates a user constraint.
	// Returns entities.ErrNotFound if the rule does not exist.
	SetUserConstraint(ctx context.Context, guildID string, command string, constraint entities.RuleUserConstraint) error

	// DeleteUserConstraint removes a user constraint
	DeleteUserConstraint(ctx context.Context, guildID string, command string, userID string) (bool, error)

	// SetGroupConstraint creates or updates a group constraint.
	// Returns entities.ErrNotFound if the rule does not exist.
	SetGroupConstraint(ctx context.Context, guildID string, command string, constraint entities.RuleGroupConstraint) error

	// DeleteGroupConstraint removes a group constraint
	DeleteGroupConstraint(ctx context.Context, guildID string, command string, group string) (bool, error)
}
