package acl

import (
	"context"
	"fmt"

	"github.com/asakaida/monban/internal/entities"
	"github.com/asakaida/monban/internal/repositories"
)

// LevelResolver resolves the permission level of an actor in a guild
type LevelResolver interface {
	ResolveLevel(ctx context.Context, actor entities.Actor, guild *entities.Guild) (entities.Level, error)
}

// ResolveLevel maps an actor to exactly one level.
//
// Bot owners come first, then the guild owner. Otherwise the actor's roles
// are walked from the highest to the lowest and the first bound role decides;
// lower bound roles are never consulted. An actor without a bound role, or
// without roles at all, is EVERYONE.
func ResolveLevel(actor entities.Actor, owners entities.BotOwners, guild *entities.Guild, bindings map[string]entities.Level) entities.Level {
	if owners.Contains(actor.ID) {
		return entities.LevelBotOwner
	}
	if guild == nil {
		return entities.LevelEveryone
	}
	if guild.OwnerID != "" && actor.ID == guild.OwnerID {
		return entities.LevelGuildOwner
	}

	for _, role := range actor.RolesFromTop() {
		if level, ok := bindings[role]; ok {
			return level
		}
	}

	return entities.LevelEveryone
}

// IdentityResolver resolves levels from the stored role bindings of a guild
type IdentityResolver struct {
	roleLevels repositories.RoleLevelRepository
	owners     entities.BotOwners
}

// NewIdentityResolver creates a new IdentityResolver
func NewIdentityResolver(roleLevels repositories.RoleLevelRepository, owners entities.BotOwners) *IdentityResolver {
	return &IdentityResolver{roleLevels: roleLevels, owners: owners}
}

// Owners returns the bot owner set
func (r *IdentityResolver) Owners() entities.BotOwners {
	return r.owners
}

// ResolveLevel implements LevelResolver. The binding table is only read when
// neither owner shortcut applies.
func (r *IdentityResolver) ResolveLevel(ctx context.Context, actor entities.Actor, guild *entities.Guild) (entities.Level, error) {
	if r.owners.Contains(actor.ID) || guild == nil || actor.ID == guild.OwnerID || len(actor.Roles) == 0 || !actor.Member {
		return ResolveLevel(actor, r.owners, guild, nil), nil
	}

	bindings, err := r.roleLevels.List(ctx, guild.ID)
	if err != nil {
		return entities.LevelEveryone, fmt.Errorf("failed to load role levels: %w", err)
	}

	levels := make(map[string]entities.Level, len(bindings))
	for _, b := range bindings {
		levels[b.RoleID] = b.Level
	}

	return ResolveLevel(actor, r.owners, guild, levels), nil
}
