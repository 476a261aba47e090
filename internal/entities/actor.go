package entities

import "fmt"

// GlobalGuildID is the reserved guild id used by the rule table to disable a
// command for every guild. It is never a real guild id.
const GlobalGuildID = "0"

// Actor is the identity invoking a command.
//
// Roles are ordered by precedence: index 0 is the lowest role, the last
// element is the highest. The role list is only meaningful when Member is
// true; webhooks and system actors are constructed with NewNonMember.
type Actor struct {
	ID     string
	Roles  []string
	Member bool
}

// NewMember creates a guild member actor with the given roles (lowest first)
func NewMember(id string, roles ...string) Actor {
	return Actor{ID: id, Roles: roles, Member: true}
}

// NewNonMember creates an actor that has no role attribute at all
func NewNonMember(id string) Actor {
	return Actor{ID: id}
}

// RolesFromTop returns the actor's roles from highest to lowest precedence
func (a Actor) RolesFromTop() []string {
	if !a.Member {
		return nil
	}
	roles := make([]string, len(a.Roles))
	for i, role := range a.Roles {
		roles[len(a.Roles)-1-i] = role
	}
	return roles
}

// Validate checks if the actor is valid
func (a Actor) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("actor ID is required")
	}
	if !a.Member && len(a.Roles) > 0 {
		return fmt.Errorf("non-member actor %s cannot carry roles", a.ID)
	}
	return nil
}

// Guild is the guild context of an invocation
type Guild struct {
	ID      string
	OwnerID string
}

// Invocation is one command invocation to be resolved.
// Guild is nil in direct-message context.
type Invocation struct {
	Actor     Actor
	Guild     *Guild
	ChannelID string
	Command   string
	// Required is the statically declared level of the command; a
	// CommandLevelOverride for the guild replaces it.
	Required Level
}

// GuildID returns the guild id of the invocation, or "" in DM context
func (inv *Invocation) GuildID() string {
	if inv.Guild == nil {
		return ""
	}
	return inv.Guild.ID
}

// Validate checks if the invocation is valid
func (inv *Invocation) Validate() error {
	if err := inv.Actor.Validate(); err != nil {
		return err
	}
	if inv.Command == "" {
		return fmt.Errorf("command is required")
	}
	if inv.Guild != nil && inv.Guild.ID == "" {
		return fmt.Errorf("guild ID is required when guild context is present")
	}
	if inv.Guild != nil && inv.Guild.ID == GlobalGuildID {
		return fmt.Errorf("guild ID %q is reserved", GlobalGuildID)
	}
	return nil
}

// BotOwners is the bot-wide owner identity set. The zero value matches nobody.
type BotOwners map[string]struct{}

// NewBotOwners builds the owner set from the legacy single id and the current
// id list. Empty ids are ignored.
func NewBotOwners(ownerID string, ownerIDs ...string) BotOwners {
	owners := make(BotOwners)
	if ownerID != "" {
		owners[ownerID] = struct{}{}
	}
	for _, id := range ownerIDs {
		if id != "" {
			owners[id] = struct{}{}
		}
	}
	return owners
}

// Contains reports whether id is a bot owner
func (o BotOwners) Contains(id string) bool {
	if id == "" {
		return false
	}
	_, ok := o[id]
	return ok
}
