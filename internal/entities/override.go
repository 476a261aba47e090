package entities

import (
	"fmt"
	"time"
)

// SubjectKind selects which override table a SubjectOverride lives in
type SubjectKind string

const (
	SubjectUser    SubjectKind = "user"
	SubjectChannel SubjectKind = "channel"
	SubjectRole    SubjectKind = "role"
)

// SubjectKinds lists every override kind in resolution order
var SubjectKinds = []SubjectKind{SubjectUser, SubjectChannel, SubjectRole}

// Valid reports whether k is a known subject kind
func (k SubjectKind) Valid() bool {
	switch k {
	case SubjectUser, SubjectChannel, SubjectRole:
		return true
	}
	return false
}

// ParseSubjectKind parses a subject kind name
func ParseSubjectKind(s string) (SubjectKind, error) {
	k := SubjectKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown subject kind: %q", s)
	}
	return k, nil
}

// SubjectOverride is an exact-match allow/deny flag for one subject and command
// Example: guild:1 user:42 say -> deny
type SubjectOverride struct {
	Kind      SubjectKind
	GuildID   string
	SubjectID string
	Command   string
	Allow     bool
	CreatedAt time.Time
}

// String returns a string representation of the override
// Format: guild_id/kind:subject_id#command=allow|deny
func (o *SubjectOverride) String() string {
	verdict := "deny"
	if o.Allow {
		verdict = "allow"
	}
	return fmt.Sprintf("%s/%s:%s#%s=%s", o.GuildID, o.Kind, o.SubjectID, o.Command, verdict)
}

// Validate checks if the override is valid
func (o *SubjectOverride) Validate() error {
	if !o.Kind.Valid() {
		return fmt.Errorf("invalid subject kind: %q", o.Kind)
	}
	if o.GuildID == "" {
		return fmt.Errorf("guild ID is required")
	}
	if o.SubjectID == "" {
		return fmt.Errorf("subject ID is required")
	}
	if o.Command == "" {
		return fmt.Errorf("command is required")
	}
	return nil
}
