package acl

import (
	"context"

	"github.com/asakaida/monban/internal/entities"
	"github.com/asakaida/monban/internal/repositories"
	"github.com/rs/zerolog"
)

// LegacyRuleModel resolves invocations against the per-guild command rule
// table and the group hierarchy. Anything missing denies or falls back to the
// rule default.
type LegacyRuleModel struct {
	owners    entities.BotOwners
	rules     repositories.RuleRepository
	hierarchy *GroupHierarchy
	log       zerolog.Logger
}

var _ PermissionModel = (*LegacyRuleModel)(nil)

// NewLegacyRuleModel creates a new LegacyRuleModel
func NewLegacyRuleModel(owners entities.BotOwners, rules repositories.RuleRepository, hierarchy *GroupHierarchy, logger zerolog.Logger) *LegacyRuleModel {
	return &LegacyRuleModel{owners: owners, rules: rules, hierarchy: hierarchy, log: logger}
}

// Name implements PermissionModel
func (m *LegacyRuleModel) Name() string {
	return ModelLegacy
}

// Resolve implements PermissionModel
func (m *LegacyRuleModel) Resolve(ctx context.Context, inv *entities.Invocation) entities.Decision {
	if m.owners.Contains(inv.Actor.ID) {
		return entities.Allow
	}
	if inv.Guild == nil {
		return deny("")
	}

	global, err := m.rules.Get(ctx, entities.GlobalGuildID, inv.Command)
	if err != nil {
		return unavailable(m.log, inv, "global_rule", err)
	}
	if global != nil {
		return deny(entities.GlobalGuildID)
	}

	rule, err := m.rules.Get(ctx, inv.Guild.ID, inv.Command)
	if err != nil {
		return unavailable(m.log, inv, "rule", err)
	}
	if rule == nil {
		return deny("")
	}

	if c, ok := rule.UserConstraint(inv.Actor.ID); ok {
		return verdict(c.Allow, inv.Actor.ID)
	}

	if !inv.Actor.Member {
		return verdict(rule.Default, "")
	}

	var start *entities.PermissionGroup
	for _, role := range inv.Actor.RolesFromTop() {
		start, err = m.hierarchy.GetByRole(ctx, inv.Guild.ID, role)
		if err != nil {
			return unavailable(m.log, inv, "group_by_role", err)
		}
		if start != nil {
			break
		}
	}
	if start == nil {
		return verdict(rule.Default, "")
	}

	w := m.hierarchy.WalkUp(ctx, start)
	for w.Next() {
		g := w.Group()
		if c, ok := rule.GroupConstraint(g.Name); ok {
			return verdict(c.Allow, g.Name)
		}
	}
	if err := w.Err(); err != nil {
		return unavailable(m.log, inv, "walk_up", err)
	}

	return verdict(rule.Default, "")
}

func deny(subjectID string) entities.Decision {
	return entities.Decision{Outcome: entities.OutcomeDenyRule, SubjectID: subjectID}
}

func verdict(allow bool, subjectID string) entities.Decision {
	if allow {
		return entities.Allow
	}
	return deny(subjectID)
}
