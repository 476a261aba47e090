// Package discord builds ACL invocations from Discord state and renders
// denial decisions back into messages that name roles and channels.
package discord

import (
	"errors"
	"fmt"
	"sort"

	"github.com/asakaida/monban/internal/entities"
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// Adapter converts Discord objects into entities
type Adapter struct {
	dir Directory
	log zerolog.Logger
}

// NewAdapter creates a new Adapter
func NewAdapter(dir Directory, logger zerolog.Logger) *Adapter {
	return &Adapter{dir: dir, log: logger}
}

// SortRoles orders member roles by guild role position, lowest first.
// Roles unknown to the guild sort below every known role, keeping their
// relative order.
func SortRoles(memberRoles []string, guildRoles []*discordgo.Role) []string {
	position := make(map[string]int, len(guildRoles))
	for _, r := range guildRoles {
		position[r.ID] = r.Position
	}

	sorted := make([]string, len(memberRoles))
	copy(sorted, memberRoles)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, iok := position[sorted[i]]
		pj, jok := position[sorted[j]]
		if iok != jok {
			return !iok
		}
		if pi != pj {
			return pi < pj
		}
		return sorted[i] < sorted[j]
	})
	return sorted
}

// MemberActor builds a member actor from a guild member
func MemberActor(userID string, member *discordgo.Member, guild *discordgo.Guild) entities.Actor {
	return entities.NewMember(userID, SortRoles(member.Roles, guild.Roles)...)
}

// Context resolves the actor and guild context for userID. An empty guildID
// is direct-message context. A user that is not a member of the guild is a
// non-member actor.
func (a *Adapter) Context(guildID, userID string) (entities.Actor, *entities.Guild, error) {
	if guildID == "" {
		return entities.NewNonMember(userID), nil, nil
	}

	guild, err := a.dir.Guild(guildID)
	if err != nil {
		return entities.Actor{}, nil, fmt.Errorf("failed to get guild %s: %w", guildID, err)
	}
	g := &entities.Guild{ID: guild.ID, OwnerID: guild.OwnerID}

	member, err := a.dir.Member(guildID, userID)
	if errors.Is(err, ErrNotFound) {
		return entities.NewNonMember(userID), g, nil
	}
	if err != nil {
		return entities.Actor{}, nil, fmt.Errorf("failed to get member %s: %w", userID, err)
	}

	return MemberActor(userID, member, guild), g, nil
}

// FromMessage builds the invocation for a message command. Webhook messages
// are invoked by a non-member actor.
func (a *Adapter) FromMessage(m *discordgo.MessageCreate, command string, required entities.Level) (*entities.Invocation, error) {
	inv := &entities.Invocation{
		ChannelID: m.ChannelID,
		Command:   command,
		Required:  required,
	}

	switch {
	case m.WebhookID != "":
		inv.Actor = entities.NewNonMember(m.WebhookID)
		if m.GuildID != "" {
			guild, err := a.dir.Guild(m.GuildID)
			if err != nil {
				return nil, fmt.Errorf("failed to get guild %s: %w", m.GuildID, err)
			}
			inv.Guild = &entities.Guild{ID: guild.ID, OwnerID: guild.OwnerID}
		}
	case m.Member != nil && m.GuildID != "":
		guild, err := a.dir.Guild(m.GuildID)
		if err != nil {
			return nil, fmt.Errorf("failed to get guild %s: %w", m.GuildID, err)
		}
		inv.Actor = MemberActor(m.Author.ID, m.Member, guild)
		inv.Guild = &entities.Guild{ID: guild.ID, OwnerID: guild.OwnerID}
	default:
		actor, guild, err := a.Context(m.GuildID, m.Author.ID)
		if err != nil {
			return nil, err
		}
		inv.Actor, inv.Guild = actor, guild
	}

	return inv, nil
}
