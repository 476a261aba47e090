package acl

import (
	"context"

	"github.com/asakaida/monban/internal/entities"
	"github.com/asakaida/monban/internal/repositories"
	"github.com/rs/zerolog"
)

// LeveledModel resolves invocations with levels and user/channel/role
// overrides. The first applicable tier is terminal:
//
//  1. no guild: allow
//  2. bot owner: allow
//  3. command level override replaces the declared level
//  4. user override
//  5. channel override
//  6. role override of the first role, in the actor's list order, that has one
//  7. level comparison
type LeveledModel struct {
	identity      LevelResolver
	commandLevels repositories.CommandLevelRepository
	overrides     repositories.OverrideRepository
	log           zerolog.Logger
}

var _ PermissionModel = (*LeveledModel)(nil)

// NewLeveledModel creates a new LeveledModel
func NewLeveledModel(
	identity LevelResolver,
	commandLevels repositories.CommandLevelRepository,
	overrides repositories.OverrideRepository,
	logger zerolog.Logger,
) *LeveledModel {
	return &LeveledModel{
		identity:      identity,
		commandLevels: commandLevels,
		overrides:     overrides,
		log:           logger,
	}
}

// Name implements PermissionModel
func (m *LeveledModel) Name() string {
	return ModelLeveled
}

// Resolve implements PermissionModel
func (m *LeveledModel) Resolve(ctx context.Context, inv *entities.Invocation) entities.Decision {
	if inv.Guild == nil {
		return entities.Allow
	}
	guildID := inv.Guild.ID

	level, err := m.identity.ResolveLevel(ctx, inv.Actor, inv.Guild)
	if err != nil {
		return unavailable(m.log, inv, "identity", err)
	}
	if level == entities.LevelBotOwner {
		return entities.Allow
	}

	required := inv.Required
	override, err := m.commandLevels.Get(ctx, guildID, inv.Command)
	if err != nil {
		return unavailable(m.log, inv, "command_level", err)
	}
	if override != nil {
		required = override.Level
	}

	if d, found, err := m.lookup(ctx, entities.SubjectUser, guildID, inv.Actor.ID, inv.Command); err != nil {
		return unavailable(m.log, inv, "user_override", err)
	} else if found {
		return d
	}

	if inv.ChannelID != "" {
		if d, found, err := m.lookup(ctx, entities.SubjectChannel, guildID, inv.ChannelID, inv.Command); err != nil {
			return unavailable(m.log, inv, "channel_override", err)
		} else if found {
			return d
		}
	}

	if inv.Actor.Member {
		// list order, not precedence order
		for _, role := range inv.Actor.Roles {
			if d, found, err := m.lookup(ctx, entities.SubjectRole, guildID, role, inv.Command); err != nil {
				return unavailable(m.log, inv, "role_override", err)
			} else if found {
				return d
			}
		}
	}

	if level.Meets(required) {
		return entities.Allow
	}
	return entities.Decision{
		Outcome:  entities.OutcomeDenyInsufficientLevel,
		Required: required,
		Actual:   level,
	}
}

func (m *LeveledModel) lookup(ctx context.Context, kind entities.SubjectKind, guildID, subjectID, command string) (entities.Decision, bool, error) {
	o, err := m.overrides.Get(ctx, kind, guildID, subjectID, command)
	if err != nil || o == nil {
		return entities.Decision{}, false, err
	}
	return entities.OverrideDecision(kind, subjectID, o.Allow), true, nil
}
