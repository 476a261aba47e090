package acl

import (
	"context"
	"fmt"

	"github.com/asakaida/monban/internal/entities"
	"github.com/asakaida/monban/internal/repositories"
)

// GroupHierarchy answers role -> group lookups and ancestor walks over the
// stored group forest of a guild
type GroupHierarchy struct {
	groups repositories.GroupRepository
}

// NewGroupHierarchy creates a new GroupHierarchy
func NewGroupHierarchy(groups repositories.GroupRepository) *GroupHierarchy {
	return &GroupHierarchy{groups: groups}
}

// GetByRole returns the group bound to roleID, or nil
func (h *GroupHierarchy) GetByRole(ctx context.Context, guildID string, roleID string) (*entities.PermissionGroup, error) {
	group, err := h.groups.GetByRole(ctx, guildID, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get group by role: %w", err)
	}
	return group, nil
}

// WalkUp returns a lazy walk over start and its ancestors. A parent is only
// loaded when the walk advances to it. Call WalkUp again to restart from any group.
func (h *GroupHierarchy) WalkUp(ctx context.Context, start *entities.PermissionGroup) *Walker {
	return &Walker{
		ctx:     ctx,
		groups:  h.groups,
		start:   start,
		visited: make(map[string]struct{}),
	}
}

// Ancestors collects the full chain from start upwards
func (h *GroupHierarchy) Ancestors(ctx context.Context, start *entities.PermissionGroup) ([]*entities.PermissionGroup, error) {
	var chain []*entities.PermissionGroup
	w := h.WalkUp(ctx, start)
	for w.Next() {
		chain = append(chain, w.Group())
	}
	return chain, w.Err()
}

// Walker iterates a parent chain.
//
// The walk stops at a root, at a parent name that no longer resolves, or at a
// group already visited, so it takes at most as many steps as the guild has
// groups.
//
//	w := h.WalkUp(ctx, group)
//	for w.Next() {
//		g := w.Group()
//	}
//	if err := w.Err(); err != nil { ... }
type Walker struct {
	ctx     context.Context
	groups  repositories.GroupRepository
	start   *entities.PermissionGroup
	started bool
	current *entities.PermissionGroup
	visited map[string]struct{}
	err     error
}

// Next advances to the next group in the chain
func (w *Walker) Next() bool {
	if w.err != nil {
		return false
	}

	var g *entities.PermissionGroup
	if !w.started {
		w.started = true
		g = w.start
	} else if w.current != nil && w.current.Parent != "" {
		parent, err := w.groups.Get(w.ctx, w.current.GuildID, w.current.Parent)
		if err != nil {
			w.err = fmt.Errorf("failed to get parent group %s: %w", w.current.Parent, err)
			w.current = nil
			return false
		}
		g = parent
	}

	if g == nil {
		w.current = nil
		return false
	}
	if _, seen := w.visited[g.Name]; seen {
		w.current = nil
		return false
	}

	w.visited[g.Name] = struct{}{}
	w.current = g
	return true
}

// Group returns the current group
func (w *Walker) Group() *entities.PermissionGroup {
	return w.current
}

// Err returns the lookup error that ended the walk, if any
func (w *Walker) Err() error {
	return w.err
}
