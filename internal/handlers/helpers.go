package handlers

import (
	"errors"
	"fmt"

	"github.com/asakaida/monban/internal/entities"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// === Shared Helper Functions for all handlers ===

// request wraps a Struct with typed field accessors
type request struct {
	fields map[string]*structpb.Value
}

func newRequest(s *structpb.Struct) request {
	return request{fields: s.GetFields()}
}

func (r request) has(name string) bool {
	v, ok := r.fields[name]
	if !ok {
		return false
	}
	_, null := v.GetKind().(*structpb.Value_NullValue)
	return !null
}

func (r request) str(name string) (string, error) {
	v, ok := r.fields[name]
	if !ok {
		return "", nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return "", nil
	case *structpb.Value_StringValue:
		return k.StringValue, nil
	default:
		return "", fmt.Errorf("%s must be a string", name)
	}
}

func (r request) requiredStr(name string) (string, error) {
	s, err := r.str(name)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return s, nil
}

func (r request) boolean(name string, def bool) (bool, error) {
	v, ok := r.fields[name]
	if !ok {
		return def, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return def, nil
	case *structpb.Value_BoolValue:
		return k.BoolValue, nil
	default:
		return false, fmt.Errorf("%s must be a bool", name)
	}
}

func (r request) strings(name string) ([]string, error) {
	v, ok := r.fields[name]
	if !ok {
		return nil, nil
	}
	if _, null := v.GetKind().(*structpb.Value_NullValue); null {
		return nil, nil
	}
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%s must be a list of strings", name)
	}
	out := make([]string, 0, len(list.GetValues()))
	for i, item := range list.GetValues() {
		s, ok := item.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a string", name, i)
		}
		out = append(out, s.StringValue)
	}
	return out, nil
}

func (r request) level(name string) (entities.Level, error) {
	s, err := r.requiredStr(name)
	if err != nil {
		return 0, err
	}
	return entities.ParseLevel(s)
}

func (r request) kind(name string) (entities.SubjectKind, error) {
	s, err := r.requiredStr(name)
	if err != nil {
		return "", err
	}
	return entities.ParseSubjectKind(s)
}

// fields collects the first error of a sequence of field reads
type fields struct {
	r   request
	err error
}

func (f *fields) str(name string) string {
	if f.err != nil {
		return ""
	}
	var s string
	s, f.err = f.r.str(name)
	return s
}

func (f *fields) required(name string) string {
	if f.err != nil {
		return ""
	}
	var s string
	s, f.err = f.r.requiredStr(name)
	return s
}

func (f *fields) boolean(name string, def bool) bool {
	if f.err != nil {
		return false
	}
	var b bool
	b, f.err = f.r.boolean(name, def)
	return b
}

func (f *fields) strings(name string) []string {
	if f.err != nil {
		return nil
	}
	var s []string
	s, f.err = f.r.strings(name)
	return s
}

func (f *fields) level(name string) entities.Level {
	if f.err != nil {
		return 0
	}
	var l entities.Level
	l, f.err = f.r.level(name)
	return l
}

func (f *fields) kind(name string) entities.SubjectKind {
	if f.err != nil {
		return ""
	}
	var k entities.SubjectKind
	k, f.err = f.r.kind(name)
	return k
}

// invalidArgument turns a field error into a gRPC status
func (f *fields) invalidArgument() error {
	if f.err == nil {
		return nil
	}
	return status.Errorf(codes.InvalidArgument, "%s", f.err)
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return s, nil
}

func okResponse() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"ok": structpb.NewBoolValue(true),
	}}
}

func listResponse(key string, items []any) (*structpb.Struct, error) {
	if items == nil {
		items = []any{}
	}
	return newStruct(map[string]any{key: items})
}

func decisionToMap(d entities.Decision) map[string]any {
	m := map[string]any{
		"allowed": d.Allowed(),
		"outcome": d.Outcome.String(),
	}
	if d.SubjectID != "" {
		m["subject_id"] = d.SubjectID
	}
	if d.Outcome == entities.OutcomeDenyInsufficientLevel {
		m["required_level"] = d.Required.String()
		m["actual_level"] = d.Actual.String()
	}
	return m
}

func roleLevelToMap(b *entities.RoleLevelBinding) any {
	return map[string]any{
		"guild_id": b.GuildID,
		"role_id":  b.RoleID,
		"level":    b.Level.String(),
	}
}

func commandLevelToMap(o *entities.CommandLevelOverride) any {
	return map[string]any{
		"guild_id": o.GuildID,
		"command":  o.Command,
		"level":    o.Level.String(),
	}
}

func overrideToMap(o *entities.SubjectOverride) any {
	return map[string]any{
		"kind":       string(o.Kind),
		"guild_id":   o.GuildID,
		"subject_id": o.SubjectID,
		"command":    o.Command,
		"allow":      o.Allow,
	}
}

func groupToMap(g *entities.PermissionGroup) any {
	m := map[string]any{
		"guild_id": g.GuildID,
		"name":     g.Name,
	}
	if g.Parent != "" {
		m["parent"] = g.Parent
	}
	if g.RoleID != "" {
		m["role_id"] = g.RoleID
	}
	return m
}

func ruleToMap(r *entities.CommandRule) any {
	users := make([]any, 0, len(r.Users))
	for _, c := range r.Users {
		users = append(users, map[string]any{"user_id": c.UserID, "allow": c.Allow})
	}
	groups := make([]any, 0, len(r.Groups))
	for _, c := range r.Groups {
		groups = append(groups, map[string]any{"group": c.Group, "allow": c.Allow})
	}
	return map[string]any{
		"guild_id": r.GuildID,
		"command":  r.Command,
		"default":  r.Default,
		"users":    users,
		"groups":   groups,
	}
}

// toStatus maps a service error to a gRPC status error
func toStatus(log zerolog.Logger, method string, err error) error {
	var denial *entities.DenialError
	switch {
	case errors.As(err, &denial):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, entities.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, entities.ErrInvalidParentGroup):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, entities.ErrDuplicateOverride):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, entities.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		log.Error().Err(err).Str("method", method).Msg("Request failed")
		return status.Errorf(codes.Internal, "%s failed: %v", method, err)
	}
}
