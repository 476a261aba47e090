package acl

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/asakaida/monban/internal/entities"
	"github.com/asakaida/monban/internal/repositories"
)

var errStorage = errors.New("connection refused")

// MockRoleLevelRepository is a mock implementation of RoleLevelRepository
type MockRoleLevelRepository struct {
	mu        sync.Mutex
	bindings  map[string]map[string]entities.Level
	listCalls int
	err       error
}

func NewMockRoleLevelRepository() *MockRoleLevelRepository {
	return &MockRoleLevelRepository{bindings: make(map[string]map[string]entities.Level)}
}

func (m *MockRoleLevelRepository) Set(ctx context.Context, b *entities.RoleLevelBinding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.bindings[b.GuildID] == nil {
		m.bindings[b.GuildID] = make(map[string]entities.Level)
	}
	m.bindings[b.GuildID][b.RoleID] = b.Level
	return nil
}

func (m *MockRoleLevelRepository) Get(ctx context.Context, guildID, roleID string) (*entities.RoleLevelBinding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	level, ok := m.bindings[guildID][roleID]
	if !ok {
		return nil, nil
	}
	return &entities.RoleLevelBinding{GuildID: guildID, RoleID: roleID, Level: level}, nil
}

func (m *MockRoleLevelRepository) Delete(ctx context.Context, guildID, roleID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.bindings[guildID][roleID]
	delete(m.bindings[guildID], roleID)
	return ok, nil
}

func (m *MockRoleLevelRepository) List(ctx context.Context, guildID string) ([]*entities.RoleLevelBinding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.err != nil {
		return nil, m.err
	}
	var out []*entities.RoleLevelBinding
	for role, level := range m.bindings[guildID] {
		out = append(out, &entities.RoleLevelBinding{GuildID: guildID, RoleID: role, Level: level})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoleID < out[j].RoleID })
	return out, nil
}

// MockCommandLevelRepository is a mock implementation of CommandLevelRepository
type MockCommandLevelRepository struct {
	levels map[[2]string]entities.Level
	err    error
}

func NewMockCommandLevelRepository() *MockCommandLevelRepository {
	return &MockCommandLevelRepository{levels: make(map[[2]string]entities.Level)}
}

func (m *MockCommandLevelRepository) Set(ctx context.Context, o *entities.CommandLevelOverride) error {
	if m.err != nil {
		return m.err
	}
	m.levels[[2]string{o.GuildID, o.Command}] = o.Level
	return nil
}

func (m *MockCommandLevelRepository) Get(ctx context.Context, guildID, command string) (*entities.CommandLevelOverride, error) {
	if m.err != nil {
		return nil, m.err
	}
	level, ok := m.levels[[2]string{guildID, command}]
	if !ok {
		return nil, nil
	}
	return &entities.CommandLevelOverride{GuildID: guildID, Command: command, Level: level}, nil
}

func (m *MockCommandLevelRepository) Delete(ctx context.Context, guildID, command string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	key := [2]string{guildID, command}
	_, ok := m.levels[key]
	delete(m.levels, key)
	return ok, nil
}

func (m *MockCommandLevelRepository) List(ctx context.Context, guildID string) ([]*entities.CommandLevelOverride, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*entities.CommandLevelOverride
	for key, level := range m.levels {
		if key[0] == guildID {
			out = append(out, &entities.CommandLevelOverride{GuildID: key[0], Command: key[1], Level: level})
		}
	}
	return out, nil
}

type overrideKey struct {
	kind    entities.SubjectKind
	guild   string
	subject string
	command string
}

// MockOverrideRepository is a mock implementation of OverrideRepository
type MockOverrideRepository struct {
	overrides map[overrideKey]bool
	// failKind makes lookups of one kind fail
	failKind entities.SubjectKind
	err      error
}

func NewMockOverrideRepository() *MockOverrideRepository {
	return &MockOverrideRepository{overrides: make(map[overrideKey]bool)}
}

func (m *MockOverrideRepository) Add(ctx context.Context, o *entities.SubjectOverride) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	key := overrideKey{o.Kind, o.GuildID, o.SubjectID, o.Command}
	if _, exists := m.overrides[key]; exists {
		return false, nil
	}
	m.overrides[key] = o.Allow
	return true, nil
}

func (m *MockOverrideRepository) Get(ctx context.Context, kind entities.SubjectKind, guildID, subjectID, command string) (*entities.SubjectOverride, error) {
	if m.err != nil || (m.failKind != "" && m.failKind == kind) {
		return nil, errStorage
	}
	allow, ok := m.overrides[overrideKey{kind, guildID, subjectID, command}]
	if !ok {
		return nil, nil
	}
	return &entities.SubjectOverride{Kind: kind, GuildID: guildID, SubjectID: subjectID, Command: command, Allow: allow}, nil
}

func (m *MockOverrideRepository) Delete(ctx context.Context, kind entities.SubjectKind, guildID, subjectID, command string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	key := overrideKey{kind, guildID, subjectID, command}
	_, ok := m.overrides[key]
	delete(m.overrides, key)
	return ok, nil
}

func (m *MockOverrideRepository) List(ctx context.Context, kind entities.SubjectKind, guildID string) ([]*entities.SubjectOverride, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*entities.SubjectOverride
	for key, allow := range m.overrides {
		if key.kind == kind && key.guild == guildID {
			out = append(out, &entities.SubjectOverride{Kind: kind, GuildID: guildID, SubjectID: key.subject, Command: key.command, Allow: allow})
		}
	}
	return out, nil
}

// MockGroupRepository is a mock implementation of GroupRepository.
// put stores a group without the parent check, to build broken trees.
type MockGroupRepository struct {
	groups   map[[2]string]*entities.PermissionGroup
	getCalls int
	err      error
}

func NewMockGroupRepository() *MockGroupRepository {
	return &MockGroupRepository{groups: make(map[[2]string]*entities.PermissionGroup)}
}

func (m *MockGroupRepository) put(g *entities.PermissionGroup) {
	m.groups[[2]string{g.GuildID, g.Name}] = g
}

func (m *MockGroupRepository) Add(ctx context.Context, g *entities.PermissionGroup) error {
	if m.err != nil {
		return m.err
	}
	if g.Parent != "" {
		if _, ok := m.groups[[2]string{g.GuildID, g.Parent}]; !ok {
			return entities.ErrInvalidParentGroup
		}
	}
	copied := *g
	m.put(&copied)
	return nil
}

func (m *MockGroupRepository) Get(ctx context.Context, guildID, name string) (*entities.PermissionGroup, error) {
	m.getCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.groups[[2]string{guildID, name}], nil
}

func (m *MockGroupRepository) GetByRole(ctx context.Context, guildID, roleID string) (*entities.PermissionGroup, error) {
	if m.err != nil {
		return nil, m.err
	}
	var found *entities.PermissionGroup
	for key, g := range m.groups {
		if key[0] == guildID && roleID != "" && g.RoleID == roleID {
			if found == nil || g.Name < found.Name {
				found = g
			}
		}
	}
	return found, nil
}

func (m *MockGroupRepository) Delete(ctx context.Context, guildID, name string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	key := [2]string{guildID, name}
	_, ok := m.groups[key]
	delete(m.groups, key)
	return ok, nil
}

func (m *MockGroupRepository) List(ctx context.Context, guildID string) ([]*entities.PermissionGroup, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*entities.PermissionGroup
	for key, g := range m.groups {
		if key[0] == guildID {
			out = append(out, g)
		}
	}
	return out, nil
}

// MockRuleRepository is a mock implementation of RuleRepository
type MockRuleRepository struct {
	rules map[[2]string]*entities.CommandRule
	err   error
}

func NewMockRuleRepository() *MockRuleRepository {
	return &MockRuleRepository{rules: make(map[[2]string]*entities.CommandRule)}
}

func (m *MockRuleRepository) Set(ctx context.Context, guildID, command string, allowByDefault bool) error {
	if m.err != nil {
		return m.err
	}
	key := [2]string{guildID, command}
	if rule, ok := m.rules[key]; ok {
		rule.Default = allowByDefault
		return nil
	}
	m.rules[key] = &entities.CommandRule{GuildID: guildID, Command: command, Default: allowByDefault}
	return nil
}

func (m *MockRuleRepository) Get(ctx context.Context, guildID, command string) (*entities.CommandRule, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rules[[2]string{guildID, command}], nil
}

func (m *MockRuleRepository) Delete(ctx context.Context, guildID, command string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	key := [2]string{guildID, command}
	_, ok := m.rules[key]
	delete(m.rules, key)
	return ok, nil
}

func (m *MockRuleRepository) List(ctx context.Context, guildID string) ([]*entities.CommandRule, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*entities.CommandRule
	for key, rule := range m.rules {
		if key[0] == guildID {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (m *MockRuleRepository) SetUserConstraint(ctx context.Context, guildID, command string, c entities.RuleUserConstraint) error {
	rule, ok := m.rules[[2]string{guildID, command}]
	if !ok {
		return entities.ErrNotFound
	}
	for i := range rule.Users {
		if rule.Users[i].UserID == c.UserID {
			rule.Users[i].Allow = c.Allow
			return nil
		}
	}
	rule.Users = append(rule.Users, c)
	return nil
}

func (m *MockRuleRepository) DeleteUserConstraint(ctx context.Context, guildID, command, userID string) (bool, error) {
	rule, ok := m.rules[[2]string{guildID, command}]
	if !ok {
		return false, nil
	}
	for i := range rule.Users {
		if rule.Users[i].UserID == userID {
			rule.Users = append(rule.Users[:i], rule.Users[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *MockRuleRepository) SetGroupConstraint(ctx context.Context, guildID, command string, c entities.RuleGroupConstraint) error {
	rule, ok := m.rules[[2]string{guildID, command}]
	if !ok {
		return entities.ErrNotFound
	}
	for i := range rule.Groups {
		if rule.Groups[i].Group == c.Group {
			rule.Groups[i].Allow = c.Allow
			return nil
		}
	}
	rule.Groups = append(rule.Groups, c)
	return nil
}

func (m *MockRuleRepository) DeleteGroupConstraint(ctx context.Context, guildID, command, group string) (bool, error) {
	rule, ok := m.rules[[2]string{guildID, command}]
	if !ok {
		return false, nil
	}
	for i := range rule.Groups {
		if rule.Groups[i].Group == group {
			rule.Groups = append(rule.Groups[:i], rule.Groups[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type mockStores struct {
	roleLevels    *MockRoleLevelRepository
	commandLevels *MockCommandLevelRepository
	overrides     *MockOverrideRepository
	groups        *MockGroupRepository
	rules         *MockRuleRepository
}

func newMockStores() *mockStores {
	return &mockStores{
		roleLevels:    NewMockRoleLevelRepository(),
		commandLevels: NewMockCommandLevelRepository(),
		overrides:     NewMockOverrideRepository(),
		groups:        NewMockGroupRepository(),
		rules:         NewMockRuleRepository(),
	}
}

func (s *mockStores) stores() repositories.Stores {
	return repositories.Stores{
		RoleLevels:    s.roleLevels,
		CommandLevels: s.commandLevels,
		Overrides:     s.overrides,
		Groups:        s.groups,
		Rules:         s.rules,
	}
}

// mockRecorder counts recorded metrics
type mockRecorder struct {
	mu        sync.Mutex
	decisions map[string]int
	hits      int
	misses    int
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{decisions: make(map[string]int)}
}

func (r *mockRecorder) RecordDecision(model, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions[model+"/"+outcome]++
}

func (r *mockRecorder) RecordCacheHit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits++
}

func (r *mockRecorder) RecordCacheMiss() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.misses++
}
