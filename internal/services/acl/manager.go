package acl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asakaida/monban/internal/entities"
	"github.com/asakaida/monban/internal/repositories"
	"github.com/rs/zerolog"
)

// Manager performs administrative mutations. Unlike resolution, every method
// reports failures: validation errors wrap entities.ErrInvalidArgument,
// removals of absent records return entities.ErrNotFound.
type Manager struct {
	stores    repositories.Stores
	identity  LevelResolver
	hierarchy *GroupHierarchy
	cacheTTL  time.Duration
	log       zerolog.Logger
}

// NewManager creates a new Manager. cacheTTL is the identity cache lag reported
// back to callers that change role bindings.
func NewManager(stores repositories.Stores, identity LevelResolver, cacheTTL time.Duration, logger zerolog.Logger) *Manager {
	if cacheTTL <= 0 {
		cacheTTL = IdentityCacheTTL
	}
	return &Manager{
		stores:    stores,
		identity:  identity,
		hierarchy: NewGroupHierarchy(stores.Groups),
		cacheTTL:  cacheTTL,
		log:       logger,
	}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", entities.ErrInvalidArgument, err)
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, entities.ErrNotFound)
}

// Authorize reports whether actor may manage role bindings and command levels
// in guild. Only the guild owner and bot owners may.
func (m *Manager) Authorize(ctx context.Context, actor entities.Actor, guild *entities.Guild) error {
	if guild == nil {
		return invalid(errors.New("guild context is required"))
	}
	level, err := m.identity.ResolveLevel(ctx, actor, guild)
	if err != nil {
		return fmt.Errorf("failed to resolve level: %w", err)
	}
	if !level.Meets(entities.LevelGuildOwner) {
		return entities.Decision{
			Outcome:  entities.OutcomeDenyInsufficientLevel,
			Required: entities.LevelGuildOwner,
			Actual:   level,
		}.Err()
	}
	return nil
}

// SetRoleLevel binds a role to a level. The returned duration is how long
// cached identities may still reflect the old binding.
func (m *Manager) SetRoleLevel(ctx context.Context, guildID, roleID string, level entities.Level) (time.Duration, error) {
	binding := &entities.RoleLevelBinding{GuildID: guildID, RoleID: roleID, Level: level}
	if err := binding.Validate(); err != nil {
		return 0, invalid(err)
	}
	if err := m.stores.RoleLevels.Set(ctx, binding); err != nil {
		return 0, err
	}

	m.log.Info().Str("guild", guildID).Str("role", roleID).Stringer("level", level).Msg("Role level set")
	return m.cacheTTL, nil
}

// RemoveRoleLevel removes a role binding
func (m *Manager) RemoveRoleLevel(ctx context.Context, guildID, roleID string) (time.Duration, error) {
	deleted, err := m.stores.RoleLevels.Delete(ctx, guildID, roleID)
	if err != nil {
		return 0, err
	}
	if !deleted {
		return 0, notFound("role level binding")
	}

	m.log.Info().Str("guild", guildID).Str("role", roleID).Msg("Role level removed")
	return m.cacheTTL, nil
}

// ListRoleLevels lists the role bindings of a guild
func (m *Manager) ListRoleLevels(ctx context.Context, guildID string) ([]*entities.RoleLevelBinding, error) {
	return m.stores.RoleLevels.List(ctx, guildID)
}

// SetCommandLevel overrides the declared level of a command in a guild
func (m *Manager) SetCommandLevel(ctx context.Context, guildID, command string, level entities.Level) error {
	override := &entities.CommandLevelOverride{GuildID: guildID, Command: command, Level: level}
	if err := override.Validate(); err != nil {
		return invalid(err)
	}
	if err := m.stores.CommandLevels.Set(ctx, override); err != nil {
		return err
	}

	m.log.Info().Str("guild", guildID).Str("command", command).Stringer("level", level).Msg("Command level set")
	return nil
}

// RemoveCommandLevel restores the declared level of a command
func (m *Manager) RemoveCommandLevel(ctx context.Context, guildID, command string) error {
	deleted, err := m.stores.CommandLevels.Delete(ctx, guildID, command)
	if err != nil {
		return err
	}
	if !deleted {
		return notFound("command level override")
	}
	return nil
}

// ListCommandLevels lists the command level overrides of a guild
func (m *Manager) ListCommandLevels(ctx context.Context, guildID string) ([]*entities.CommandLevelOverride, error) {
	return m.stores.CommandLevels.List(ctx, guildID)
}

// AddOverride creates an override. An existing override for the same key is
// left untouched and entities.ErrDuplicateOverride is returned.
func (m *Manager) AddOverride(ctx context.Context, override *entities.SubjectOverride) error {
	if err := override.Validate(); err != nil {
		return invalid(err)
	}

	created, err := m.stores.Overrides.Add(ctx, override)
	if err != nil {
		return err
	}
	if !created {
		return fmt.Errorf("%s: %w", override, entities.ErrDuplicateOverride)
	}

	m.log.Info().Str("override", override.String()).Msg("Override added")
	return nil
}

// GetOverride returns the override for the exact key
func (m *Manager) GetOverride(ctx context.Context, kind entities.SubjectKind, guildID, subjectID, command string) (*entities.SubjectOverride, error) {
	if !kind.Valid() {
		return nil, invalid(fmt.Errorf("unknown subject kind: %q", kind))
	}
	o, err := m.stores.Overrides.Get(ctx, kind, guildID, subjectID, command)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, notFound(string(kind) + " override")
	}
	return o, nil
}

// RemoveOverride deletes the override for the exact key
func (m *Manager) RemoveOverride(ctx context.Context, kind entities.SubjectKind, guildID, subjectID, command string) error {
	if !kind.Valid() {
		return invalid(fmt.Errorf("unknown subject kind: %q", kind))
	}
	deleted, err := m.stores.Overrides.Delete(ctx, kind, guildID, subjectID, command)
	if err != nil {
		return err
	}
	if !deleted {
		return notFound(string(kind) + " override")
	}

	m.log.Info().
		Str("kind", string(kind)).
		Str("guild", guildID).
		Str("subject", subjectID).
		Str("command", command).
		Msg("Override removed")
	return nil
}

// ListOverrides lists the overrides of one kind in a guild
func (m *Manager) ListOverrides(ctx context.Context, kind entities.SubjectKind, guildID string) ([]*entities.SubjectOverride, error) {
	if !kind.Valid() {
		return nil, invalid(fmt.Errorf("unknown subject kind: %q", kind))
	}
	return m.stores.Overrides.List(ctx, kind, guildID)
}

// AddGroup creates or updates a group. The parent must already exist and must
// not have the group among its ancestors.
func (m *Manager) AddGroup(ctx context.Context, group *entities.PermissionGroup) error {
	if err := group.Validate(); err != nil {
		return invalid(err)
	}

	if group.Parent != "" {
		parent, err := m.stores.Groups.Get(ctx, group.GuildID, group.Parent)
		if err != nil {
			return err
		}
		if parent == nil {
			return fmt.Errorf("%w: %s", entities.ErrInvalidParentGroup, group.Parent)
		}

		chain, err := m.hierarchy.Ancestors(ctx, parent)
		if err != nil {
			return err
		}
		for _, g := range chain {
			if g.Name == group.Name {
				return fmt.Errorf("%w: %s is a descendant of %s", entities.ErrInvalidParentGroup, group.Parent, group.Name)
			}
		}
	}

	if err := m.stores.Groups.Add(ctx, group); err != nil {
		return err
	}

	m.log.Info().Str("guild", group.GuildID).Str("group", group.Name).Str("parent", group.Parent).Msg("Group added")
	return nil
}

// RemoveGroup deletes one group. Its children keep a dangling parent.
func (m *Manager) RemoveGroup(ctx context.Context, guildID, name string) error {
	deleted, err := m.stores.Groups.Delete(ctx, guildID, name)
	if err != nil {
		return err
	}
	if !deleted {
		return notFound("group " + name)
	}
	return nil
}

// ListGroups lists the groups of a guild
func (m *Manager) ListGroups(ctx context.Context, guildID string) ([]*entities.PermissionGroup, error) {
	return m.stores.Groups.List(ctx, guildID)
}

// SetRule creates or updates a command rule default
func (m *Manager) SetRule(ctx context.Context, guildID, command string, allowByDefault bool) error {
	rule := &entities.CommandRule{GuildID: guildID, Command: command, Default: allowByDefault}
	if err := rule.Validate(); err != nil {
		return invalid(err)
	}
	return m.stores.Rules.Set(ctx, guildID, command, allowByDefault)
}

// GetRule returns a command rule with its constraints
func (m *Manager) GetRule(ctx context.Context, guildID, command string) (*entities.CommandRule, error) {
	rule, err := m.stores.Rules.Get(ctx, guildID, command)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, notFound("rule " + command)
	}
	return rule, nil
}

// RemoveRule deletes a command rule and its constraints
func (m *Manager) RemoveRule(ctx context.Context, guildID, command string) error {
	deleted, err := m.stores.Rules.Delete(ctx, guildID, command)
	if err != nil {
		return err
	}
	if !deleted {
		return notFound("rule " + command)
	}
	return nil
}

// ListRules lists the command rules of a guild
func (m *Manager) ListRules(ctx context.Context, guildID string) ([]*entities.CommandRule, error) {
	return m.stores.Rules.List(ctx, guildID)
}

// SetUserConstraint attaches a user constraint to an existing rule
func (m *Manager) SetUserConstraint(ctx context.Context, guildID, command, userID string, allow bool) error {
	if userID == "" {
		return invalid(errors.New("user ID is required"))
	}
	return m.stores.Rules.SetUserConstraint(ctx, guildID, command, entities.RuleUserConstraint{UserID: userID, Allow: allow})
}

// RemoveUserConstraint detaches a user constraint
func (m *Manager) RemoveUserConstraint(ctx context.Context, guildID, command, userID string) error {
	deleted, err := m.stores.Rules.DeleteUserConstraint(ctx, guildID, command, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return notFound("user constraint")
	}
	return nil
}

// SetGroupConstraint attaches a group constraint to an existing rule
func (m *Manager) SetGroupConstraint(ctx context.Context, guildID, command, group string, allow bool) error {
	if group == "" {
		return invalid(errors.New("group name is required"))
	}
	return m.stores.Rules.SetGroupConstraint(ctx, guildID, command, entities.RuleGroupConstraint{Group: group, Allow: allow})
}

// RemoveGroupConstraint detaches a group constraint
func (m *Manager) RemoveGroupConstraint(ctx context.Context, guildID, command, group string) error {
	deleted, err := m.stores.Rules.DeleteGroupConstraint(ctx, guildID, command, group)
	if err != nil {
		return err
	}
	if !deleted {
		return notFound("group constraint")
	}
	return nil
}

// DisableGlobally denies command in every guild of the legacy model
func (m *Manager) DisableGlobally(ctx context.Context, command string) error {
	if err := m.SetRule(ctx, entities.GlobalGuildID, command, false); err != nil {
		return err
	}
	m.log.Info().Str("command", command).Msg("Command disabled globally")
	return nil
}

// EnableGlobally lifts a global disable
func (m *Manager) EnableGlobally(ctx context.Context, command string) error {
	return m.RemoveRule(ctx, entities.GlobalGuildID, command)
}
