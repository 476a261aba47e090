package acl

import (
	"context"
	"errors"
	"testing"

	"github.com/asakaida/monban/internal/entities"
)

func names(groups []*entities.PermissionGroup) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Name
	}
	return out
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestGroupHierarchy_WalkUp(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		groups []*entities.PermissionGroup
		start  string
		want   []string
	}{
		{
			name: "chain to root",
			groups: []*entities.PermissionGroup{
				{GuildID: "1", Name: "STAFF"},
				{GuildID: "1", Name: "MOD", Parent: "STAFF"},
				{GuildID: "1", Name: "HELPER", Parent: "MOD"},
			},
			start: "HELPER",
			want:  []string{"HELPER", "MOD", "STAFF"},
		},
		{
			name: "restart from the middle",
			groups: []*entities.PermissionGroup{
				{GuildID: "1", Name: "STAFF"},
				{GuildID: "1", Name: "MOD", Parent: "STAFF"},
				{GuildID: "1", Name: "HELPER", Parent: "MOD"},
			},
			start: "MOD",
			want:  []string{"MOD", "STAFF"},
		},
		{
			name: "dangling parent ends the walk",
			groups: []*entities.PermissionGroup{
				{GuildID: "1", Name: "MOD", Parent: "DELETED"},
			},
			start: "MOD",
			want:  []string{"MOD"},
		},
		{
			name: "cycle terminates",
			groups: []*entities.PermissionGroup{
				{GuildID: "1", Name: "A", Parent: "B"},
				{GuildID: "1", Name: "B", Parent: "C"},
				{GuildID: "1", Name: "C", Parent: "A"},
			},
			start: "B",
			want:  []string{"B", "C", "A"},
		},
		{
			name: "parents are resolved within the guild",
			groups: []*entities.PermissionGroup{
				{GuildID: "2", Name: "STAFF"},
				{GuildID: "1", Name: "MOD", Parent: "STAFF"},
			},
			start: "MOD",
			want:  []string{"MOD"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockGroupRepository()
			for _, g := range tt.groups {
				repo.put(g)
			}
			h := NewGroupHierarchy(repo)

			start, _ := repo.Get(ctx, "1", tt.start)
			chain, err := h.Ancestors(ctx, start)
			if err != nil {
				t.Fatalf("Ancestors() error = %v", err)
			}
			if got := names(chain); !equalNames(got, tt.want) {
				t.Errorf("Ancestors() = %v, want %v", got, tt.want)
			}
			if len(chain) > len(tt.groups) {
				t.Errorf("walk took %d steps for %d groups", len(chain), len(tt.groups))
			}
		})
	}
}

func TestGroupHierarchy_WalkUpIsLazy(t *testing.T) {
	ctx := context.Background()
	repo := NewMockGroupRepository()
	repo.put(&entities.PermissionGroup{GuildID: "1", Name: "STAFF"})
	repo.put(&entities.PermissionGroup{GuildID: "1", Name: "MOD", Parent: "STAFF"})
	h := NewGroupHierarchy(repo)

	start, _ := repo.Get(ctx, "1", "MOD")
	repo.getCalls = 0

	w := h.WalkUp(ctx, start)
	if !w.Next() || w.Group().Name != "MOD" {
		t.Fatalf("first group = %v", w.Group())
	}
	if repo.getCalls != 0 {
		t.Errorf("parent loaded before advancing: %d calls", repo.getCalls)
	}
	if !w.Next() || w.Group().Name != "STAFF" {
		t.Fatalf("second group = %v", w.Group())
	}
	if w.Next() {
		t.Errorf("expected end of walk, got %v", w.Group())
	}
	if w.Group() != nil {
		t.Errorf("Group() after end = %v, want nil", w.Group())
	}
}

func TestGroupHierarchy_WalkUpError(t *testing.T) {
	ctx := context.Background()
	repo := NewMockGroupRepository()
	repo.put(&entities.PermissionGroup{GuildID: "1", Name: "MOD", Parent: "STAFF"})
	h := NewGroupHierarchy(repo)

	start, _ := repo.Get(ctx, "1", "MOD")
	repo.err = errStorage

	chain, err := h.Ancestors(ctx, start)
	if !errors.Is(err, errStorage) {
		t.Fatalf("Ancestors() error = %v, want storage error", err)
	}
	if got := names(chain); !equalNames(got, []string{"MOD"}) {
		t.Errorf("Ancestors() = %v, want [MOD]", got)
	}
}

func TestGroupHierarchy_NilStart(t *testing.T) {
	h := NewGroupHierarchy(NewMockGroupRepository())
	if w := h.WalkUp(context.Background(), nil); w.Next() {
		t.Error("walk from nil should be empty")
	}
}

func TestGroupHierarchy_GetByRole(t *testing.T) {
	ctx := context.Background()
	repo := NewMockGroupRepository()
	repo.put(&entities.PermissionGroup{GuildID: "1", Name: "MOD", RoleID: "10"})
	h := NewGroupHierarchy(repo)

	g, err := h.GetByRole(ctx, "1", "10")
	if err != nil || g == nil || g.Name != "MOD" {
		t.Errorf("GetByRole(10) = %v, %v", g, err)
	}
	g, err = h.GetByRole(ctx, "1", "11")
	if err != nil || g != nil {
		t.Errorf("GetByRole(11) = %v, %v, want nil", g, err)
	}

	repo.err = errStorage
	if _, err := h.GetByRole(ctx, "1", "10"); !errors.Is(err, errStorage) {
		t.Errorf("GetByRole() error = %v", err)
	}
}
