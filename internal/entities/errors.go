package entities

import (
	"errors"
	"fmt"
)

// Administrative errors
var (
	// ErrInvalidParentGroup is returned when a group references a parent that
	// does not exist in the same guild.
	ErrInvalidParentGroup = errors.New("parent group does not exist")

	// ErrDuplicateOverride is returned when an override already exists for the
	// exact (guild, subject, command) key. Overrides must be removed before
	// they can be re-created.
	ErrDuplicateOverride = errors.New("override already exists")

	// ErrNotFound is returned by administrative removals that matched nothing.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument wraps validation failures of administrative input.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Denial errors. These are the expected outcomes of a denied resolution.
var (
	ErrNegativeUserOverwrite    = errors.New("user is denied by override")
	ErrNegativeChannelOverwrite = errors.New("channel is denied by override")
	ErrNegativeRoleOverwrite    = errors.New("role is denied by override")
	ErrInsufficientLevel        = errors.New("insufficient permission level")
	ErrRuleDenied               = errors.New("denied by command rule")
	ErrResolutionUnavailable    = errors.New("permission data unavailable")
)

// DenialError describes why an invocation was denied.
// It matches the corresponding sentinel with errors.Is.
type DenialError struct {
	Decision Decision
}

// Error implements error
func (e *DenialError) Error() string {
	d := e.Decision
	switch d.Outcome {
	case OutcomeDenyUser:
		return fmt.Sprintf("%v: user %s", ErrNegativeUserOverwrite, d.SubjectID)
	case OutcomeDenyChannel:
		return fmt.Sprintf("%v: channel %s", ErrNegativeChannelOverwrite, d.SubjectID)
	case OutcomeDenyRole:
		return fmt.Sprintf("%v: role %s", ErrNegativeRoleOverwrite, d.SubjectID)
	case OutcomeDenyInsufficientLevel:
		return fmt.Sprintf("%v: required %s, actual %s", ErrInsufficientLevel, d.Required, d.Actual)
	default:
		return e.Unwrap().Error()
	}
}

// Unwrap returns the sentinel error for the outcome
func (e *DenialError) Unwrap() error {
	switch e.Decision.Outcome {
	case OutcomeDenyUser:
		return ErrNegativeUserOverwrite
	case OutcomeDenyChannel:
		return ErrNegativeChannelOverwrite
	case OutcomeDenyRole:
		return ErrNegativeRoleOverwrite
	case OutcomeDenyInsufficientLevel:
		return ErrInsufficientLevel
	case OutcomeDenyRule:
		return ErrRuleDenied
	default:
		return ErrResolutionUnavailable
	}
}
