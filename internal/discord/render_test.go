package discord

import (
	"testing"

	"github.com/asakaida/monban/internal/entities"
)

func TestAdapter_DenialMessage(t *testing.T) {
	a := newTestAdapter(t)

	tests := []struct {
		name     string
		decision entities.Decision
		want     string
	}{
		{
			name:     "allow",
			decision: entities.Allow,
			want:     "",
		},
		{
			name:     "user override",
			decision: entities.Decision{Outcome: entities.OutcomeDenyUser, SubjectID: "42"},
			want:     "<@42> is not allowed to use this command.",
		},
		{
			name:     "channel override uses channel name",
			decision: entities.Decision{Outcome: entities.OutcomeDenyChannel, SubjectID: "77"},
			want:     "This command cannot be used in #general.",
		},
		{
			name:     "unknown channel falls back to id",
			decision: entities.Decision{Outcome: entities.OutcomeDenyChannel, SubjectID: "78"},
			want:     "This command cannot be used in #78.",
		},
		{
			name:     "role override uses role name",
			decision: entities.Decision{Outcome: entities.OutcomeDenyRole, SubjectID: "20"},
			want:     "Members with the @Moderator role cannot use this command.",
		},
		{
			name:     "insufficient level",
			decision: entities.Decision{Outcome: entities.OutcomeDenyInsufficientLevel, Required: entities.LevelMod, Actual: entities.LevelMember},
			want:     "This command requires MOD; your level is MEMBER.",
		},
		{
			name:     "global disable",
			decision: entities.Decision{Outcome: entities.OutcomeDenyRule, SubjectID: entities.GlobalGuildID},
			want:     "This command is disabled.",
		},
		{
			name:     "rule group constraint",
			decision: entities.Decision{Outcome: entities.OutcomeDenyRule, SubjectID: "STAFF"},
			want:     "Members of STAFF cannot use this command.",
		},
		{
			name:     "rule default",
			decision: entities.Decision{Outcome: entities.OutcomeDenyRule},
			want:     "You do not have permission to use this command.",
		},
		{
			name:     "unavailable",
			decision: entities.Decision{Outcome: entities.OutcomeDenyUnavailable},
			want:     "Permissions could not be checked right now. Try again later.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.DenialMessage("1", tt.decision); got != tt.want {
				t.Errorf("DenialMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
