package acl

import (
	"context"
	"fmt"

	"github.com/asakaida/monban/internal/entities"
	"github.com/asakaida/monban/internal/repositories"
	"github.com/rs/zerolog"
)

// Permission model names
const (
	ModelLeveled = "leveled"
	ModelLegacy  = "legacy"
)

// PermissionModel produces one decision per invocation. Implementations never
// mutate stored state and never return errors: storage failures become
// OutcomeDenyUnavailable.
type PermissionModel interface {
	Name() string
	Resolve(ctx context.Context, inv *entities.Invocation) entities.Decision
}

// Engine runs a PermissionModel and records every decision
type Engine struct {
	model    PermissionModel
	recorder Recorder
	log      zerolog.Logger
}

// NewEngine creates a new Engine. recorder may be nil.
func NewEngine(model PermissionModel, recorder Recorder, logger zerolog.Logger) *Engine {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Engine{model: model, recorder: recorder, log: logger}
}

// Model returns the name of the active permission model
func (e *Engine) Model() string {
	return e.model.Name()
}

// Resolve decides whether the invocation may proceed
func (e *Engine) Resolve(ctx context.Context, inv *entities.Invocation) entities.Decision {
	d := e.model.Resolve(ctx, inv)
	e.recorder.RecordDecision(e.model.Name(), d.Outcome.String())

	e.log.Debug().
		Str("model", e.model.Name()).
		Str("guild", inv.GuildID()).
		Str("channel", inv.ChannelID).
		Str("actor", inv.Actor.ID).
		Str("command", inv.Command).
		Stringer("outcome", d.Outcome).
		Msg("Resolved invocation")

	return d
}

// Check is Resolve returning the decision as an error; nil means allowed
func (e *Engine) Check(ctx context.Context, inv *entities.Invocation) error {
	return e.Resolve(ctx, inv).Err()
}

// unavailable logs a failed lookup and denies
func unavailable(log zerolog.Logger, inv *entities.Invocation, step string, err error) entities.Decision {
	log.Warn().
		Err(err).
		Str("step", step).
		Str("guild", inv.GuildID()).
		Str("actor", inv.Actor.ID).
		Str("command", inv.Command).
		Msg("Permission lookup failed, denying")
	return entities.Decision{Outcome: entities.OutcomeDenyUnavailable}
}

// NewModel builds the named permission model
func NewModel(name string, stores repositories.Stores, identity LevelResolver, owners entities.BotOwners, logger zerolog.Logger) (PermissionModel, error) {
	switch name {
	case ModelLeveled:
		return NewLeveledModel(identity, stores.CommandLevels, stores.Overrides, logger), nil
	case ModelLegacy:
		return NewLegacyRuleModel(owners, stores.Rules, NewGroupHierarchy(stores.Groups), logger), nil
	default:
		return nil, fmt.Errorf("unknown permission model: %q", name)
	}
}
