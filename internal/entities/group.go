package entities

import (
	"fmt"
	"time"
)

// PermissionGroup is a named node in a guild's group forest.
// Parent is empty for roots; RoleID is empty for virtual groups.
type PermissionGroup struct {
	GuildID   string
	Name      string
	Parent    string
	RoleID    string
	CreatedAt time.Time
}

// IsRoot reports whether the group has no parent
func (g *PermissionGroup) IsRoot() bool {
	return g.Parent == ""
}

// Validate checks if the group is valid
func (g *PermissionGroup) Validate() error {
	if g.GuildID == "" {
		return fmt.Errorf("guild ID is required")
	}
	if g.Name == "" {
		return fmt.Errorf("group name is required")
	}
	if g.Parent == g.Name {
		return fmt.Errorf("group %s cannot be its own parent", g.Name)
	}
	return nil
}
