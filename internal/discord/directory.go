package discord

import (
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// ErrNotFound is returned by a Directory when the guild, member or channel
// does not exist (or is not visible to the bot).
var ErrNotFound = errors.New("discord object not found")

// Directory looks up the guild objects an invocation refers to
type Directory interface {
	Guild(guildID string) (*discordgo.Guild, error)
	Member(guildID, userID string) (*discordgo.Member, error)
	Channel(channelID string) (*discordgo.Channel, error)
}

// StateDirectory reads only from a discordgo state cache
type StateDirectory struct {
	state *discordgo.State
}

// NewStateDirectory creates a directory over state
func NewStateDirectory(state *discordgo.State) *StateDirectory {
	return &StateDirectory{state: state}
}

func (d *StateDirectory) Guild(guildID string) (*discordgo.Guild, error) {
	g, err := d.state.Guild(guildID)
	return g, stateErr(err)
}

func (d *StateDirectory) Member(guildID, userID string) (*discordgo.Member, error) {
	m, err := d.state.Member(guildID, userID)
	return m, stateErr(err)
}

func (d *StateDirectory) Channel(channelID string) (*discordgo.Channel, error) {
	c, err := d.state.Channel(channelID)
	return c, stateErr(err)
}

func stateErr(err error) error {
	if errors.Is(err, discordgo.ErrStateNotFound) {
		return ErrNotFound
	}
	return err
}

// SessionDirectory reads from the session state and falls back to the REST
// API on a miss. Fetched members are written back to the state.
type SessionDirectory struct {
	session *discordgo.Session
}

// NewSessionDirectory creates a directory over a live session
func NewSessionDirectory(session *discordgo.Session) *SessionDirectory {
	return &SessionDirectory{session: session}
}

func (d *SessionDirectory) Guild(guildID string) (*discordgo.Guild, error) {
	if d.session.State != nil {
		if g, err := d.session.State.Guild(guildID); err == nil {
			return g, nil
		}
	}
	g, err := d.session.Guild(guildID)
	return g, restErr(err)
}

func (d *SessionDirectory) Member(guildID, userID string) (*discordgo.Member, error) {
	if d.session.State != nil {
		if m, err := d.session.State.Member(guildID, userID); err == nil {
			return m, nil
		}
	}
	m, err := d.session.GuildMember(guildID, userID)
	if err != nil {
		return nil, restErr(err)
	}
	if d.session.StateEnabled && d.session.State != nil {
		_ = d.session.State.MemberAdd(m)
	}
	return m, nil
}

func (d *SessionDirectory) Channel(channelID string) (*discordgo.Channel, error) {
	if d.session.State != nil {
		if c, err := d.session.State.Channel(channelID); err == nil {
			return c, nil
		}
	}
	c, err := d.session.Channel(channelID)
	return c, restErr(err)
}

func restErr(err error) error {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return err
}
