package discord

import (
	"fmt"

	"github.com/asakaida/monban/internal/entities"
)

// DenialMessage renders a denied decision for display in guildID. Role and
// channel ids are replaced with their names when the directory knows them.
// An allowed decision renders as "".
func (a *Adapter) DenialMessage(guildID string, d entities.Decision) string {
	switch d.Outcome {
	case entities.OutcomeAllow:
		return ""
	case entities.OutcomeDenyUser:
		return fmt.Sprintf("<@%s> is not allowed to use this command.", d.SubjectID)
	case entities.OutcomeDenyChannel:
		return fmt.Sprintf("This command cannot be used in #%s.", a.channelName(d.SubjectID))
	case entities.OutcomeDenyRole:
		return fmt.Sprintf("Members with the @%s role cannot use this command.", a.roleName(guildID, d.SubjectID))
	case entities.OutcomeDenyInsufficientLevel:
		return fmt.Sprintf("This command requires %s; your level is %s.", d.Required, d.Actual)
	case entities.OutcomeDenyRule:
		switch {
		case d.SubjectID == entities.GlobalGuildID:
			return "This command is disabled."
		case d.SubjectID == "":
			return "You do not have permission to use this command."
		case isSnowflake(d.SubjectID):
			return fmt.Sprintf("<@%s> is not allowed to use this command.", d.SubjectID)
		default:
			return fmt.Sprintf("Members of %s cannot use this command.", d.SubjectID)
		}
	case entities.OutcomeDenyUnavailable:
		return "Permissions could not be checked right now. Try again later."
	default:
		return "You do not have permission to use this command."
	}
}

func (a *Adapter) roleName(guildID, roleID string) string {
	guild, err := a.dir.Guild(guildID)
	if err != nil {
		a.log.Debug().Err(err).Str("guild", guildID).Msg("Role name lookup failed")
		return roleID
	}
	for _, r := range guild.Roles {
		if r.ID == roleID {
			return r.Name
		}
	}
	return roleID
}

func (a *Adapter) channelName(channelID string) string {
	c, err := a.dir.Channel(channelID)
	if err != nil || c.Name == "" {
		return channelID
	}
	return c.Name
}

func isSnowflake(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
