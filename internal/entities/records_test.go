package entities

import "testing"

func TestRecords_Validate(t *testing.T) {
	tests := []struct {
		name    string
		v       interface{ Validate() error }
		wantErr bool
	}{
		{"binding", &RoleLevelBinding{GuildID: "1", RoleID: "10", Level: LevelMod}, false},
		{"binding without role", &RoleLevelBinding{GuildID: "1", Level: LevelMod}, true},
		{"binding to bot owner", &RoleLevelBinding{GuildID: "1", RoleID: "10", Level: LevelBotOwner}, true},
		{"command level", &CommandLevelOverride{GuildID: "1", Command: "say", Level: LevelBotOwner}, false},
		{"command level invalid", &CommandLevelOverride{GuildID: "1", Command: "say", Level: Level(-1)}, true},
		{"override", &SubjectOverride{Kind: SubjectUser, GuildID: "1", SubjectID: "42", Command: "say"}, false},
		{"override unknown kind", &SubjectOverride{Kind: "webhook", GuildID: "1", SubjectID: "42", Command: "say"}, true},
		{"override without command", &SubjectOverride{Kind: SubjectRole, GuildID: "1", SubjectID: "42"}, true},
		{"group root", &PermissionGroup{GuildID: "1", Name: "STAFF"}, false},
		{"group self parent", &PermissionGroup{GuildID: "1", Name: "STAFF", Parent: "STAFF"}, true},
		{"rule", &CommandRule{GuildID: "1", Command: "ping", Default: true}, false},
		{"rule bad constraint", &CommandRule{GuildID: "1", Command: "ping", Groups: []RuleGroupConstraint{{}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.v.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubjectOverride_String(t *testing.T) {
	o := &SubjectOverride{Kind: SubjectUser, GuildID: "1", SubjectID: "42", Command: "say"}
	if got, want := o.String(), "1/user:42#say=deny"; got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
}

func TestCommandRule_Constraints(t *testing.T) {
	rule := &CommandRule{
		GuildID: "1",
		Command: "kick",
		Users:   []RuleUserConstraint{{UserID: "42", Allow: false}},
		Groups:  []RuleGroupConstraint{{Group: "STAFF", Allow: true}},
	}
	if c, ok := rule.UserConstraint("42"); !ok || c.Allow {
		t.Errorf("UserConstraint(42) = %+v, %v", c, ok)
	}
	if _, ok := rule.UserConstraint("43"); ok {
		t.Error("expected no constraint for 43")
	}
	if c, ok := rule.GroupConstraint("STAFF"); !ok || !c.Allow {
		t.Errorf("GroupConstraint(STAFF) = %+v, %v", c, ok)
	}
	if rule.IsGlobal() {
		t.Error("expected per-guild rule")
	}
}
