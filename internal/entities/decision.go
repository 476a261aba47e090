package entities

// Outcome is the terminal result of a resolution
type Outcome int

const (
	OutcomeAllow Outcome = iota
	OutcomeDenyUser
	OutcomeDenyChannel
	OutcomeDenyRole
	OutcomeDenyInsufficientLevel
	// OutcomeDenyRule is the legacy rule table's denial
	OutcomeDenyRule
	// OutcomeDenyUnavailable is returned when stored permission data could
	// not be read.
	OutcomeDenyUnavailable
)

var outcomeNames = map[Outcome]string{
	OutcomeAllow:                 "allow",
	OutcomeDenyUser:              "deny_user",
	OutcomeDenyChannel:           "deny_channel",
	OutcomeDenyRole:              "deny_role",
	OutcomeDenyInsufficientLevel: "deny_insufficient_level",
	OutcomeDenyRule:              "deny_rule",
	OutcomeDenyUnavailable:       "deny_unavailable",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// Decision is the verdict for one invocation. SubjectID holds the offending
// user, channel or role id for override denials; Required and Actual are
// set for level comparisons.
type Decision struct {
	Outcome   Outcome
	SubjectID string
	Required  Level
	Actual    Level
}

// Allow is the unconditional allow decision
var Allow = Decision{Outcome: OutcomeAllow}

// Allowed reports whether the invocation may proceed
func (d Decision) Allowed() bool {
	return d.Outcome == OutcomeAllow
}

// Err returns nil for an allowed decision, or a *DenialError otherwise
func (d Decision) Err() error {
	if d.Allowed() {
		return nil
	}
	return &DenialError{Decision: d}
}

// OverrideDecision maps an override flag to allow or the kind's deny outcome
func OverrideDecision(kind SubjectKind, subjectID string, allow bool) Decision {
	if allow {
		return Allow
	}
	switch kind {
	case SubjectUser:
		return Decision{Outcome: OutcomeDenyUser, SubjectID: subjectID}
	case SubjectChannel:
		return Decision{Outcome: OutcomeDenyChannel, SubjectID: subjectID}
	default:
		return Decision{Outcome: OutcomeDenyRole, SubjectID: subjectID}
	}
}
