package handlers

import (
	"context"

	"github.com/asakaida/monban/internal/entities"
	"github.com/asakaida/monban/internal/services/acl"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ResolverInterface defines the interface for invocation resolution
type ResolverInterface interface {
	Resolve(ctx context.Context, inv *entities.Invocation) entities.Decision
	Model() string
}

// GuildDirectory builds actor context from a chat platform and renders
// denials for it. *discord.Adapter implements it.
type GuildDirectory interface {
	Context(guildID, userID string) (entities.Actor, *entities.Guild, error)
	DenialMessage(guildID string, d entities.Decision) string
}

// ACLHandler handles ACLService gRPC requests.
//
// Administrative requests that carry a caller_id are checked with
// Manager.Authorize before they run; requests without one are trusted.
type ACLHandler struct {
	resolver  ResolverInterface
	manager   *acl.Manager
	directory GuildDirectory
	log       zerolog.Logger
}

// NewACLHandler creates a new ACLHandler. directory may be nil.
func NewACLHandler(resolver ResolverInterface, manager *acl.Manager, directory GuildDirectory, logger zerolog.Logger) *ACLHandler {
	return &ACLHandler{
		resolver:  resolver,
		manager:   manager,
		directory: directory,
		log:       logger,
	}
}

var _ ACLServiceServer = (*ACLHandler)(nil)

// === Resolution ===

// Resolve handles the Resolve RPC
func (h *ACLHandler) Resolve(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	f := &fields{r: r}
	guildID := f.str("guild_id")
	userID := f.required("user_id")
	command := f.required("command")
	channelID := f.str("channel_id")
	required := f.level("required_level")
	if err := f.invalidArgument(); err != nil {
		return nil, err
	}

	actor, guild, err := h.actorContext(r, guildID, userID)
	if err != nil {
		return nil, err
	}

	inv := &entities.Invocation{
		Actor:     actor,
		Guild:     guild,
		ChannelID: channelID,
		Command:   command,
		Required:  required,
	}
	if err := inv.Validate(); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%s", err)
	}

	d := h.resolver.Resolve(ctx, inv)

	resp := decisionToMap(d)
	resp["model"] = h.resolver.Model()
	if !d.Allowed() && h.directory != nil {
		resp["message"] = h.directory.DenialMessage(guildID, d)
	}
	return newStruct(resp)
}

// actorContext builds the actor and guild of a request. The directory is
// consulted when the request carries a guild but no role list.
func (h *ACLHandler) actorContext(r request, guildID, userID string) (entities.Actor, *entities.Guild, error) {
	if h.directory != nil && guildID != "" && !r.has("roles") {
		actor, guild, err := h.directory.Context(guildID, userID)
		if err != nil {
			h.log.Warn().Err(err).Str("guild", guildID).Str("user", userID).Msg("Guild directory lookup failed")
			return entities.Actor{}, nil, status.Errorf(codes.Unavailable, "failed to load guild context: %v", err)
		}
		return actor, guild, nil
	}

	f := &fields{r: r}
	ownerID := f.str("owner_id")
	roles := f.strings("roles")
	member := f.boolean("member", r.has("roles"))
	if err := f.invalidArgument(); err != nil {
		return entities.Actor{}, nil, err
	}

	var guild *entities.Guild
	if guildID != "" {
		guild = &entities.Guild{ID: guildID, OwnerID: ownerID}
	}
	if !member {
		if len(roles) > 0 {
			return entities.Actor{}, nil, status.Error(codes.InvalidArgument, "roles require member to be true")
		}
		return entities.NewNonMember(userID), guild, nil
	}
	return entities.NewMember(userID, roles...), guild, nil
}

// authorize checks the optional caller of an administrative request
func (h *ACLHandler) authorize(ctx context.Context, r request, guildID string) error {
	callerID, err := r.str("caller_id")
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "%s", err)
	}
	if callerID == "" {
		return nil
	}

	var (
		actor entities.Actor
		guild *entities.Guild
	)
	if h.directory != nil && !r.has("caller_roles") {
		actor, guild, err = h.directory.Context(guildID, callerID)
		if err != nil {
			return status.Errorf(codes.Unavailable, "failed to load guild context: %v", err)
		}
	} else {
		f := &fields{r: r}
		ownerID := f.str("owner_id")
		roles := f.strings("caller_roles")
		if err := f.invalidArgument(); err != nil {
			return err
		}
		actor = entities.NewMember(callerID, roles...)
		guild = &entities.Guild{ID: guildID, OwnerID: ownerID}
	}

	if err := h.manager.Authorize(ctx, actor, guild); err != nil {
		return toStatus(h.log, "Authorize", err)
	}
	return nil
}

// === Role levels ===

// SetRoleLevel handles the SetRoleLevel RPC
func (h *ACLHandler) SetRoleLevel(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	f := &fields{r: r}
	guildID := f.required("guild_id")
	roleID := f.required("role_id")
	level := f.level("level")
	if err := f.invalidArgument(); err != nil {
		return nil, err
	}
	if err := h.authorize(ctx, r, guildID); err != nil {
		return nil, err
	}

	lag, err := h.manager.SetRoleLevel(ctx, guildID, roleID, level)
	if err != nil {
		return nil, toStatus(h.log, MethodSetRoleLevel, err)
	}
	return newStruct(map[string]any{"ok": true, "cache_lag_seconds": lag.Seconds()})
}

// RemoveRoleLevel handles the RemoveRoleLevel RPC
func (h *ACLHandler) RemoveRoleLevel(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	f := &fields{r: r}
	guildID := f.required("guild_id")
	roleID := f.required("role_id")
	if err := f.invalidArgument(); err != nil {
		return nil, err
	}
	if err := h.authorize(ctx, r, guildID); err != nil {
		return nil, err
	}

	lag, err := h.manager.RemoveRoleLevel(ctx, guildID, roleID)
	if err != nil {
		return nil, toStatus(h.log, MethodRemoveRoleLevel, err)
	}
	return newStruct(map[string]any{"ok": true, "cache_lag_seconds": lag.Seconds()})
}

// ListRoleLevels handles the ListRoleLevels RPC
func (h *ACLHandler) ListRoleLevels(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := &fields{r: newRequest(req)}
	guildID := f.required("guild_id")
	if err := f.invalidArgument(); err != nil {
		return nil, err
	}

	bindings, err := h.manager.ListRoleLevels(ctx, guildID)
	if err != nil {
		return nil, toStatus(h.log, MethodListRoleLevels, err)
	}
	items := make([]any, 0, len(bindings))
	for _, b := range bindings {
		items = append(items, roleLevelToMap(b))
	}
	return listResponse("role_levels", items)
}

// === Command levels ===

// SetCommandLevel handles the SetCommandLevel RPC
func (h *ACLHandler) SetCommandLevel(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	f := &fields{r: r}
	guildID := f.required("guild_id")
	command := f.required("command")
	level := f.level("level")
	if err := f.invalidArgument(); err != nil {
		return nil, err
	}
	if err := h.authorize(ctx, r, guildID); err != nil {
		return nil, err
	}

	if err := h.manager.SetCommandLevel(ctx, guildID, command, level); err != nil {
		return nil, toStatus(h.log, MethodSetCommandLevel, err)
	}
	return okResponse(), nil
}

// RemoveCommandLevel handles the RemoveCommandLevel RPC
func (h *ACLHandler) RemoveCommandLevel(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	f := &fields{r: r}
	guildID := f.required("guild_id")
	command := f.required("command")
	if err := f.invalidArgument(); err != nil {
		return nil, err
	}
	if err := h.authorize(ctx, r, guildID); err != nil {
		return nil, err
	}

	if err := h.manager.RemoveCommandLevel(ctx, guildID, command); err != nil {
		return nil, toStatus(h.log, MethodRemoveCommandLevel, err)
	}
	return okResponse(), nil
}

// ListCommandLevels handles the ListCommandLevels RPC
func (h *ACLHandler) ListCommandLevels(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := &fields{r: newRequest(req)}
	guildID := f.required("guild_id")
	if err := f.invalidArgument(); err != nil {
		return nil, err
	}

	overrides, err := h.manager.ListCommandLevels(ctx, guildID)
	if err != nil {
		return nil, toStatus(h.log, MethodListCommandLevels, err)
	}
	items := make([]any, 0, len(overrides))
	for _, o := range overrides {
		items = append(items, commandLevelToMap(o))
	}
	return listResponse("command_levels", items)
}

// === Overrides ===

// AddOverride handles the AddOverride RPC
func (h *ACLHandler) AddOverride(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	f := &fields{r: r}
	override := &entities.SubjectOverride{
		Kind:      f.kind("kind"),
		GuildID:   f.required("guild_id"),
		SubjectID: f.required("subject_id"),
		Command:   f.required("command"),
		Allow:     f.boolean("allow", false),
	}
	if err := f.invalidArgument(); err != nil {
		return nil, err
	}
	if err := h.authorize(ctx, r, override.GuildID); err != nil {
		return nil, err
	}

	if err := h.manager.AddOverride(ctx, override); err != nil {
		return nil, toStatus(h.log, MethodAddOverride, err)
	}
	return okResponse(), nil
}

// RemoveOverride handles the RemoveOverride RPC
func (h *ACLHandler) RemoveOverride(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	f := &fields{r: r}
	kind := f.kind("kind")
	guildID := f.required("guild_id")
	subjectID := f.required("subject_id")
	command := f.required("command")
	if err := f.invalidArgument(); err != nil {
		return nil, err
	}
	if err := h.authorize(ctx, r, guildID); err != nil {
		return nil, err
	}

	if err := h.manager.RemoveOverride(ctx, kind, guildID, subjectID, command); err != nil {
		return nil, toStatus(h.log, MethodRemoveOverride, err)
	}
	return okResponse(), nil
}

// ListOverrides handles the ListOverrides RPC. Without a kind, overrides of
// every kind are listed.
func (h *ACLHandler) ListOverrides(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	f := &fields{r: r}
	guildID := f.required("guild_id")
	kinds := entities.SubjectKinds
	if r.has("kind") {
		kinds = []entities.SubjectKind{f.kind("kind")}
	}
	if err := f.invalidArgument(); err != nil {
		return nil, err
	}

	var items []any
	for _, kind := range kinds {
		overrides, err := h.manager.ListOverrides(ctx, kind, guildID)
		if err != nil {
			return nil, toStatus(h.log, MethodListOverrides, err)
		}
		for _, o := range overrides {
			items = append(items, overrideToMap(o))
		}
	}
	return listResponse("overrides", items)
}

// === Groups ===

// AddGroup handles the AddGroup RPC
func (h *ACLHandler) AddGroup(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	f := &fields{r: r}
	group := &entities.PermissionGroup{
		GuildID: f.required("guild_id"),
		Name:    f.required("name"),
		Parent:  f.str("parent"),
		RoleID:  f.str("role_id"),
	}
	if err := f.invalidArgument(); err != nil {
		return nil, err
	}
	if err := h.authorize(ctx, r, group.GuildID); err != nil {
		return nil, err
	}

	if err := h.manager.AddGroup(ctx, group); err != nil {
		return nil, toStatus(h.log, MethodAddGroup, err)
	}
	return okResponse(), nil
}

// RemoveGroup handles the RemoveGroup RPC
func (h *ACLHandler) RemoveGroup(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	f := &fields{r: r}
	guildID := f.required("guild_id")
	name := f.required("name")
	if err := f.invalidArgument(); err != nil {
		return nil, err
	}
	if err := h.authorize(ctx, r, guildID); err != nil {
		return nil, err
	}

	if err := h.manager.RemoveGroup(ctx, guildID, name); err != nil {
		return nil, toStatus(h.log, MethodRemoveGroup, err)
	}
	return okResponse(), nil
}

// ListGroups handles the ListGroups RPC
func (h *ACLHandler) ListGroups(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := &fields{r: newRequest(req)}
	guildID := f.required("guild_id")
	if err := f.invalidArgument(); err != nil {
		return nil, err
	}

	groups, err := h.manager.ListGroups(ctx, guildID)
	if err != nil {
		return nil, toStatus(h.log, MethodListGroups, err)
	}
	items := make([]any, 0, len(groups))
	for _, g := range groups {
		items = append(items, groupToMap(g))
	}
	return listResponse("groups", items)
}

// === Legacy rules ===

// SetRule handles the SetRule RPC
func (h *ACLHandler) SetRule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	f := &fields{r: r}
	guildID := f.required("guild_id")
	command := f.required("command")
	allow := f.boolean("default", false)
	if err := f.invalidArgument(); err != nil {
		return nil, err
	}
	if err := h.authorize(ctx, r, guildID); err != nil {
		return nil, err
	}

	if err := h.manager.SetRule(ctx, guildID, command, allow); err != nil {
		return nil, toStatus(h.log, MethodSetRule, err)
	}
	return okResponse(), nil
}

// GetRule handles the GetRule RPC
func (h *ACLHandler) GetRule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := &fields{r: newRequest(req)}
	guildID := f.required("guild_id")
	command := f.required("command")
	if err := f.invalidArgument(); err != nil {
		return nil, err
	}

	rule, err := h.manager.GetRule(ctx, guildID, command)
	if err != nil {
		return nil, toStatus(h.log, MethodGetRule, err)
	}
	return newStruct(map[string]any{"rule": ruleToMap(rule)})
}

// RemoveRule handles the RemoveRule RPC
func (h *ACLHandler) RemoveRule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	f := &fields{r: r}
	guildID := f.required("guild_id")
	command := f.required("command")
	if err := f.invalidArgument(); err != nil {
		return nil, err
	}
	if err := h.authorize(ctx, r, guildID); err != nil {
		return nil, err
	}

	if err := h.manager.RemoveRule(ctx, guildID, command); err != nil {
		return nil, toStatus(h.log, MethodRemoveRule, err)
	}
	return okResponse(), nil
}

// ListRules handles the ListRules RPC
func (h *ACLHandler) ListRules(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := &fields{r: newRequest(req)}
	guildID := f.required("guild_id")
	if err := f.invalidArgument(); err != nil {
		return nil, err
	}

	rules, err := h.manager.ListRules(ctx, guildID)
	if err != nil {
		return nil, toStatus(h.log, MethodListRules, err)
	}
	items := make([]any, 0, len(rules))
	for _, rule := range rules {
		items = append(items, ruleToMap(rule))
	}
	return listResponse("rules", items)
}

// SetRuleConstraint handles the SetRuleConstraint RPC. Exactly one of
// user_id and group names the constrained subject.
func (h *ACLHandler) SetRuleConstraint(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	f := &fields{r: r}
	guildID := f.required("guild_id")
	command := f.required("command")
	userID := f.str("user_id")
	group := f.str("group")
	allow := f.boolean("allow", false)
	if err := f.invalidArgument(); err != nil {
		return nil, err
	}
	if (userID == "") == (group == "") {
		return nil, status.Error(codes.InvalidArgument, "exactly one of user_id and group is required")
	}
	if err := h.authorize(ctx, r, guildID); err != nil {
		return nil, err
	}

	var err error
	if userID != "" {
		err = h.manager.SetUserConstraint(ctx, guildID, command, userID, allow)
	} else {
		err = h.manager.SetGroupConstraint(ctx, guildID, command, group, allow)
	}
	if err != nil {
		return nil, toStatus(h.log, MethodSetRuleConstraint, err)
	}
	return okResponse(), nil
}

// RemoveRuleConstraint handles the RemoveRuleConstraint RPC
func (h *ACLHandler) RemoveRuleConstraint(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	f := &fields{r: r}
	guildID := f.required("guild_id")
	command := f.required("command")
	userID := f.str("user_id")
	group := f.str("group")
	if err := f.invalidArgument(); err != nil {
		return nil, err
	}
	if (userID == "") == (group == "") {
		return nil, status.Error(codes.InvalidArgument, "exactly one of user_id and group is required")
	}
	if err := h.authorize(ctx, r, guildID); err != nil {
		return nil, err
	}

	var err error
	if userID != "" {
		err = h.manager.RemoveUserConstraint(ctx, guildID, command, userID)
	} else {
		err = h.manager.RemoveGroupConstraint(ctx, guildID, command, group)
	}
	if err != nil {
		return nil, toStatus(h.log, MethodRemoveRuleConstraint, err)
	}
	return okResponse(), nil
}

// DisableGlobally handles the DisableGlobally RPC. Global switches are not
// guild scoped and are never open to callers identified by caller_id.
func (h *ACLHandler) DisableGlobally(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	f := &fields{r: r}
	command := f.required("command")
	if err := f.invalidArgument(); err != nil {
		return nil, err
	}
	if r.has("caller_id") {
		return nil, status.Error(codes.PermissionDenied, "global switches are restricted to trusted callers")
	}

	if err := h.manager.DisableGlobally(ctx, command); err != nil {
		return nil, toStatus(h.log, MethodDisableGlobally, err)
	}
	return okResponse(), nil
}

// EnableGlobally handles the EnableGlobally RPC
func (h *ACLHandler) EnableGlobally(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	f := &fields{r: r}
	command := f.required("command")
	if err := f.invalidArgument(); err != nil {
		return nil, err
	}
	if r.has("caller_id") {
		return nil, status.Error(codes.PermissionDenied, "global switches are restricted to trusted callers")
	}

	if err := h.manager.EnableGlobally(ctx, command); err != nil {
		return nil, toStatus(h.log, MethodEnableGlobally, err)
	}
	return okResponse(), nil
}
