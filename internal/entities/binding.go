package entities

import (
	"fmt"
	"time"
)

// RoleLevelBinding maps an external role to a permission level in one guild.
// Deleting a binding never touches the external role.
type RoleLevelBinding struct {
	GuildID   string
	RoleID    string
	Level     Level
	UpdatedAt time.Time
}

// Validate checks if the binding is valid
func (b *RoleLevelBinding) Validate() error {
	if b.GuildID == "" {
		return fmt.Errorf("guild ID is required")
	}
	if b.RoleID == "" {
		return fmt.Errorf("role ID is required")
	}
	if !b.Level.Bindable() {
		return fmt.Errorf("level %s cannot be bound to a role", b.Level)
	}
	return nil
}

// CommandLevelOverride replaces a command's statically declared level in one guild
type CommandLevelOverride struct {
	GuildID   string
	Command   string
	Level     Level
	UpdatedAt time.Time
}

// Validate checks if the override is valid
func (o *CommandLevelOverride) Validate() error {
	if o.GuildID == "" {
		return fmt.Errorf("guild ID is required")
	}
	if o.Command == "" {
		return fmt.Errorf("command is required")
	}
	if !o.Level.Valid() {
		return fmt.Errorf("invalid level: %d", int(o.Level))
	}
	return nil
}
