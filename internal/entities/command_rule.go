package entities

import (
	"fmt"
	"time"
)

// CommandRule is the legacy per-guild allow/deny record for one command.
// Rules stored under GlobalGuildID disable the command everywhere.
type CommandRule struct {
	GuildID   string
	Command   string
	Default   bool
	Users     []RuleUserConstraint
	Groups    []RuleGroupConstraint
	UpdatedAt time.Time
}

// RuleUserConstraint overrides a rule's default for one user
type RuleUserConstraint struct {
	UserID string
	Allow  bool
}

// RuleGroupConstraint overrides a rule's default for one group
type RuleGroupConstraint struct {
	Group string
	Allow bool
}

// UserConstraint returns the constraint for userID, if any
func (r *CommandRule) UserConstraint(userID string) (RuleUserConstraint, bool) {
	for _, c := range r.Users {
		if c.UserID == userID {
			return c, true
		}
	}
	return RuleUserConstraint{}, false
}

// GroupConstraint returns the constraint for the named group, if any
func (r *CommandRule) GroupConstraint(group string) (RuleGroupConstraint, bool) {
	for _, c := range r.Groups {
		if c.Group == group {
			return c, true
		}
	}
	return RuleGroupConstraint{}, false
}

// IsGlobal reports whether the rule is the global-disable sentinel
func (r *CommandRule) IsGlobal() bool {
	return r.GuildID == GlobalGuildID
}

// Validate checks if the rule is valid
func (r *CommandRule) Validate() error {
	if r.GuildID == "" {
		return fmt.Errorf("guild ID is required")
	}
	if r.Command == "" {
		return fmt.Errorf("command is required")
	}
	for _, c := range r.Users {
		if c.UserID == "" {
			return fmt.Errorf("user constraint without user ID")
		}
	}
	for _, c := range r.Groups {
		if c.Group == "" {
			return fmt.Errorf("group constraint without group name")
		}
	}
	return nil
}
